// Package keylock serializa operaciones por clave.
//
// Lock adquiere un conjunto de claves siempre en orden lexicográfico, así dos
// operaciones con conjuntos solapados nunca se bloquean mutuamente. La espera está
// acotada por el timeout del Locker y por el contexto del caller; si se agota no
// queda ninguna clave tomada.
package keylock

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrTimeout se devuelve cuando no se pudieron tomar todas las claves a tiempo.
var ErrTimeout = errors.New("keylock: tiempo de espera agotado")

type slot struct {
	ch   chan struct{}
	refs int
}

// Locker mantiene un semáforo por clave activa; las claves sin uso se liberan.
type Locker struct {
	mu      sync.Mutex
	slots   map[string]*slot
	timeout time.Duration
}

// New crea un Locker. timeout <= 0 significa esperar solo al contexto.
func New(timeout time.Duration) *Locker {
	return &Locker{slots: make(map[string]*slot), timeout: timeout}
}

// Lock toma todas las claves y devuelve la función que las libera (idempotente).
func (l *Locker) Lock(ctx context.Context, keys ...string) (func(), error) {
	ordered := normalize(keys)

	var deadline <-chan time.Time
	if l.timeout > 0 {
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	acquired := make([]string, 0, len(ordered))
	for _, k := range ordered {
		s := l.ref(k)
		select {
		case s.ch <- struct{}{}:
			acquired = append(acquired, k)
		case <-ctx.Done():
			l.unref(k)
			l.release(acquired)
			return nil, ctx.Err()
		case <-deadline:
			l.unref(k)
			l.release(acquired)
			return nil, ErrTimeout
		}
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(acquired) }) }, nil
}

// Active devuelve cuántas claves tienen titular o esperas pendientes.
func (l *Locker) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *Locker) ref(k string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[k]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[k] = s
	}
	s.refs++
	return s
}

func (l *Locker) unref(k string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[k]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, k)
	}
}

func (l *Locker) release(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		s := l.slots[keys[i]]
		l.mu.Unlock()
		<-s.ch
		l.unref(keys[i])
	}
}

func normalize(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
