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

var _ repository.StockCheckRepository = (*StockCheckRepository)(nil)

// StockCheckRepository conteos físicos como documento JSONB.
type StockCheckRepository struct {
	q Querier
}

func NewStockCheckRepository(q Querier) *StockCheckRepository {
	return &StockCheckRepository{q: q}
}

func (r *StockCheckRepository) Create(ctx context.Context, c *entity.StockCheck) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("serializar conteo: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO stock_checks (id, code, status, warehouse_id, created_at, doc)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Code, c.Status, c.WarehouseID, c.CreatedAt, doc)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Validation(fmt.Sprintf("conteo %s ya existe", c.Code))
		}
		return fmt.Errorf("insertar conteo: %w", err)
	}
	return nil
}

func (r *StockCheckRepository) GetByID(ctx context.Context, id string) (*entity.StockCheck, error) {
	var doc []byte
	err := r.q.QueryRow(ctx, `SELECT doc FROM stock_checks WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conteo: %w", err)
	}
	var c entity.StockCheck
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, fmt.Errorf("deserializar conteo %s: %w", id, err)
	}
	return &c, nil
}

func (r *StockCheckRepository) Update(ctx context.Context, c *entity.StockCheck) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("serializar conteo: %w", err)
	}
	tag, err := r.q.Exec(ctx, `UPDATE stock_checks SET status = $2, doc = $3 WHERE id = $1`, c.ID, c.Status, doc)
	if err != nil {
		return fmt.Errorf("actualizar conteo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(fmt.Sprintf("conteo %s", c.ID))
	}
	return nil
}

func (r *StockCheckRepository) List(ctx context.Context, f entity.StockCheckFilter) ([]*entity.StockCheck, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.q.Query(ctx, `
		SELECT doc FROM stock_checks
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR warehouse_id = $2)
		ORDER BY created_at DESC, code DESC
		LIMIT $3 OFFSET $4`,
		f.Status, f.WarehouseID, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar conteos: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.StockCheck, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan conteo: %w", err)
		}
		var c entity.StockCheck
		if err := json.Unmarshal(doc, &c); err != nil {
			return nil, fmt.Errorf("deserializar conteo: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *StockCheckRepository) NextCode(ctx context.Context, prefix string) (string, error) {
	return nextCode(ctx, r.q, prefix, time.Now().Format("20060102"))
}
