package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/pkg/keylock"
	"github.com/shopspring/decimal"
)

var _ repository.LedgerStore = (*LedgerStore)(nil)

// LedgerStore implementación en memoria del Inventory Store + Ledger.
// Los mapas se indexan por la clave comparable; la forma texto solo ordena los locks.
// Las claves de un lote se bloquean en orden canónico (keylock); mu solo protege
// la estructura de los mapas y hace que un commit multi-clave sea atómico para los lectores.
type LedgerStore struct {
	locks *keylock.Locker

	mu        sync.RWMutex
	records   map[entity.InventoryKey]*entity.InventoryRecord
	txByKey   map[entity.InventoryKey][]int
	log       []entity.LedgerTransaction
	byLineRef map[string]int
	seq       int64

	now func() time.Time
}

// NewLedgerStore construye el store. lockTimeout acota la espera por claves ocupadas.
func NewLedgerStore(lockTimeout time.Duration) *LedgerStore {
	return &LedgerStore{
		locks:     keylock.New(lockTimeout),
		records:   make(map[entity.InventoryKey]*entity.InventoryRecord),
		txByKey:   make(map[entity.InventoryKey][]int),
		byLineRef: make(map[string]int),
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *LedgerStore) WithClock(now func() time.Time) *LedgerStore {
	s.now = now
	return s
}

// Get devuelve el registro actual; cantidad 0 para claves desconocidas.
func (s *LedgerStore) Get(_ context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.records[key]; ok {
		c := *r
		return &c, nil
	}
	return &entity.InventoryRecord{Key: key, Quantity: decimal.Zero}, nil
}

// ApplyDelta postea un único movimiento.
func (s *LedgerStore) ApplyDelta(ctx context.Context, posting entity.Posting) (*entity.LedgerTransaction, error) {
	txs, err := s.ApplyBatch(ctx, []entity.Posting{posting})
	if err != nil {
		return nil, err
	}
	return &txs[0], nil
}

// ApplyBatch postea todo el lote o nada.
func (s *LedgerStore) ApplyBatch(ctx context.Context, postings []entity.Posting) ([]entity.LedgerTransaction, error) {
	if err := inventory.ValidatePostings(postings); err != nil {
		return nil, err
	}

	lockKeys := make([]string, len(postings))
	for i, p := range postings {
		lockKeys[i] = p.Key.String()
	}
	unlock, err := s.locks.Lock(ctx, lockKeys...)
	if err != nil {
		if errors.Is(err, keylock.ErrTimeout) {
			return nil, domain.ConcurrencyConflict("claves de inventario ocupadas, reintente")
		}
		return nil, err
	}
	defer unlock()

	if txs, replayed, err := s.replay(postings); err != nil || replayed {
		return txs, err
	}

	// Con las claves tomadas nadie más puede mover estas cantidades.
	type plan struct{ before, after decimal.Decimal }
	plans := make([]plan, len(postings))
	running := make(map[entity.InventoryKey]decimal.Decimal, len(postings))
	var violations []domain.Violation

	s.mu.RLock()
	for i, p := range postings {
		k := p.Key
		before, seen := running[k]
		if !seen {
			before = decimal.Zero
			if r, ok := s.records[k]; ok {
				before = r.Quantity
			}
		}
		after := before.Add(p.Delta)
		if after.IsNegative() {
			violations = append(violations, domain.Violation{
				LineID: p.LineRef,
				Key:    k.String(),
				Detail: fmt.Sprintf("disponible %s, solicitado %s", before.String(), p.Delta.Neg().String()),
			})
		}
		running[k] = after
		plans[i] = plan{before: before, after: after}
	}
	s.mu.RUnlock()

	if len(violations) > 0 {
		return nil, domain.InsufficientStock(violations...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]entity.LedgerTransaction, len(postings))
	for i, p := range postings {
		k := p.Key
		s.seq++
		tx := entity.LedgerTransaction{
			ID:             uuid.New().String(),
			Seq:            s.seq,
			Key:            p.Key,
			Direction:      p.Direction(),
			Kind:           p.Kind,
			Delta:          p.Delta,
			BeforeQuantity: plans[i].before,
			AfterQuantity:  plans[i].after,
			RelatedOrderID: p.RelatedOrderID,
			LineRef:        p.LineRef,
			Actor:          p.Actor,
			CreatedAt:      now,
		}
		s.log = append(s.log, tx)
		idx := len(s.log) - 1
		s.txByKey[k] = append(s.txByKey[k], idx)
		if p.LineRef != "" {
			s.byLineRef[p.LineRef] = idx
		}
		rec, ok := s.records[k]
		if !ok {
			rec = &entity.InventoryRecord{Key: p.Key}
			s.records[k] = rec
		}
		rec.Quantity = plans[i].after
		rec.LastUpdated = now
		out[i] = tx
	}
	return out, nil
}

// replay resuelve reintentos: todas las LineRef posteadas -> transacciones originales;
// algunas sí y otras no -> conflicto (nunca se postea dos veces una línea).
func (s *LedgerStore) replay(postings []entity.Posting) ([]entity.LedgerTransaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found    []entity.LedgerTransaction
		existing []domain.Violation
	)
	for _, p := range postings {
		if p.LineRef == "" {
			continue
		}
		if idx, ok := s.byLineRef[p.LineRef]; ok {
			found = append(found, s.log[idx])
			existing = append(existing, domain.Violation{LineID: p.LineRef, Key: p.Key.String(), Detail: "línea ya posteada"})
		}
	}
	switch {
	case len(found) == 0:
		return nil, false, nil
	case len(found) == len(postings):
		return found, true, nil
	}
	return nil, false, &domain.Error{
		Err:        domain.ErrConcurrencyConflict,
		Invariant:  domain.InvariantSinglePosting,
		Message:    "el lote mezcla líneas ya posteadas con líneas nuevas",
		Violations: existing,
	}
}

// Snapshot lee de forma consistente todos los registros que cumplen el filtro.
func (s *LedgerStore) Snapshot(_ context.Context, filter entity.InventoryFilter) ([]entity.InventoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.InventoryRecord, 0, len(s.records))
	for _, r := range s.records {
		if filter.Matches(r.Key) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out, nil
}

// Transactions lista las transacciones de una clave en orden de posteo.
func (s *LedgerStore) Transactions(_ context.Context, key entity.InventoryKey, r entity.TimeRange) ([]entity.LedgerTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.LedgerTransaction
	for _, idx := range s.txByKey[key] {
		tx := s.log[idx]
		if !r.Contains(tx.CreatedAt) {
			continue
		}
		out = append(out, tx)
		if r.Limit > 0 && len(out) == r.Limit {
			break
		}
	}
	return out, nil
}

// AllTransactions lista el ledger completo en orden de posteo.
func (s *LedgerStore) AllTransactions(_ context.Context, r entity.TimeRange) ([]entity.LedgerTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.LedgerTransaction
	for _, tx := range s.log {
		if !r.Contains(tx.CreatedAt) {
			continue
		}
		out = append(out, tx)
		if r.Limit > 0 && len(out) == r.Limit {
			break
		}
	}
	return out, nil
}
