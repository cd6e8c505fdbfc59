package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepository)(nil)

// OrderRepository guarda pedidos de entrada y salida en memoria. Devuelve siempre copias.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*entity.Order
	codes  *codeSequence
}

// NewOrderRepository crea el repositorio vacío.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*entity.Order),
		codes:  newCodeSequence(time.Now),
	}
}

func (r *OrderRepository) Create(_ context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; ok {
		return domain.Validation(fmt.Sprintf("pedido %s ya existe", order.ID))
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

func (r *OrderRepository) Update(_ context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return domain.NotFound(fmt.Sprintf("pedido %s", order.ID))
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

// List filtra y ordena por fecha de creación descendente.
func (r *OrderRepository) List(_ context.Context, f entity.OrderFilter) ([]*entity.Order, error) {
	r.mu.RLock()
	out := make([]*entity.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if f.Direction != "" && o.Direction != f.Direction {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.WarehouseID != "" && o.WarehouseID != f.WarehouseID {
			continue
		}
		out = append(out, o.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code > out[j].Code
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, f.Limit, f.Offset), nil
}

func (r *OrderRepository) NextCode(_ context.Context, prefix string) (string, error) {
	return r.codes.next(prefix), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// codeSequence genera códigos PREFIJO-YYYYMMDD-NNN con contador diario por prefijo.
type codeSequence struct {
	mu       sync.Mutex
	counters map[string]int
	now      func() time.Time
}

func newCodeSequence(now func() time.Time) *codeSequence {
	return &codeSequence{counters: make(map[string]int), now: now}
}

func (s *codeSequence) next(prefix string) string {
	day := s.now().Format("20060102")
	k := prefix + "-" + day
	s.mu.Lock()
	s.counters[k]++
	n := s.counters[k]
	s.mu.Unlock()
	return fmt.Sprintf("%s-%03d", k, n)
}
