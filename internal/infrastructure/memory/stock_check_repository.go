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

var _ repository.StockCheckRepository = (*StockCheckRepository)(nil)

// StockCheckRepository guarda conteos físicos en memoria.
type StockCheckRepository struct {
	mu     sync.RWMutex
	checks map[string]*entity.StockCheck
	codes  *codeSequence
}

func NewStockCheckRepository() *StockCheckRepository {
	return &StockCheckRepository{
		checks: make(map[string]*entity.StockCheck),
		codes:  newCodeSequence(time.Now),
	}
}

func (r *StockCheckRepository) Create(_ context.Context, check *entity.StockCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.checks[check.ID]; ok {
		return domain.Validation(fmt.Sprintf("conteo %s ya existe", check.ID))
	}
	r.checks[check.ID] = check.Clone()
	return nil
}

func (r *StockCheckRepository) GetByID(_ context.Context, id string) (*entity.StockCheck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.checks[id]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (r *StockCheckRepository) Update(_ context.Context, check *entity.StockCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.checks[check.ID]; !ok {
		return domain.NotFound(fmt.Sprintf("conteo %s", check.ID))
	}
	r.checks[check.ID] = check.Clone()
	return nil
}

func (r *StockCheckRepository) List(_ context.Context, f entity.StockCheckFilter) ([]*entity.StockCheck, error) {
	r.mu.RLock()
	out := make([]*entity.StockCheck, 0, len(r.checks))
	for _, c := range r.checks {
		if f.WarehouseID != "" && c.WarehouseID != f.WarehouseID {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, c.Clone())
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

func (r *StockCheckRepository) NextCode(_ context.Context, prefix string) (string, error) {
	return r.codes.next(prefix), nil
}
