package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepository)(nil)

// OrderRepository guarda el pedido completo como documento JSONB; las columnas
// sueltas solo sirven para filtrar y ordenar.
type OrderRepository struct {
	q Querier
}

func NewOrderRepository(q Querier) *OrderRepository {
	return &OrderRepository{q: q}
}

func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("serializar pedido: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO orders (id, code, direction, status, warehouse_id, created_at, doc)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.Code, o.Direction, o.Status, o.WarehouseID, o.CreatedAt, doc)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Validation(fmt.Sprintf("pedido %s ya existe", o.Code))
		}
		return fmt.Errorf("insertar pedido: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var doc []byte
	err := r.q.QueryRow(ctx, `SELECT doc FROM orders WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pedido: %w", err)
	}
	var o entity.Order
	if err := json.Unmarshal(doc, &o); err != nil {
		return nil, fmt.Errorf("deserializar pedido %s: %w", id, err)
	}
	return &o, nil
}

func (r *OrderRepository) Update(ctx context.Context, o *entity.Order) error {
	doc, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("serializar pedido: %w", err)
	}
	tag, err := r.q.Exec(ctx, `UPDATE orders SET status = $2, doc = $3 WHERE id = $1`, o.ID, o.Status, doc)
	if err != nil {
		return fmt.Errorf("actualizar pedido: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(fmt.Sprintf("pedido %s", o.ID))
	}
	return nil
}

func (r *OrderRepository) List(ctx context.Context, f entity.OrderFilter) ([]*entity.Order, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.q.Query(ctx, `
		SELECT doc FROM orders
		WHERE ($1 = '' OR direction = $1) AND ($2 = '' OR status = $2) AND ($3 = '' OR warehouse_id = $3)
		ORDER BY created_at DESC, code DESC
		LIMIT $4 OFFSET $5`,
		f.Direction, f.Status, f.WarehouseID, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar pedidos: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.Order, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan pedido: %w", err)
		}
		var o entity.Order
		if err := json.Unmarshal(doc, &o); err != nil {
			return nil, fmt.Errorf("deserializar pedido: %w", err)
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

func (r *OrderRepository) NextCode(ctx context.Context, prefix string) (string, error) {
	return nextCode(ctx, r.q, prefix, time.Now().Format("20060102"))
}
