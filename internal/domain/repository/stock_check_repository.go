package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// StockCheckRepository persiste conteos físicos.
type StockCheckRepository interface {
	Create(ctx context.Context, check *entity.StockCheck) error
	GetByID(ctx context.Context, id string) (*entity.StockCheck, error)
	Update(ctx context.Context, check *entity.StockCheck) error
	List(ctx context.Context, filter entity.StockCheckFilter) ([]*entity.StockCheck, error)
	NextCode(ctx context.Context, prefix string) (string, error)
}
