package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// OrderRepository persiste pedidos de entrada y salida (DIP).
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	List(ctx context.Context, filter entity.OrderFilter) ([]*entity.Order, error)
	// NextCode genera el siguiente código legible por prefijo y día (ej. IN-20230425-001).
	NextCode(ctx context.Context, prefix string) (string, error)
}
