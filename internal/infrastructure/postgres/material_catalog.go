package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var (
	_ repository.MaterialCatalog = (*MaterialCatalog)(nil)
	_ repository.CatalogWriter   = (*MaterialCatalog)(nil)
)

// MaterialCatalog maestro de materiales y bodegas en PostgreSQL.
type MaterialCatalog struct {
	q Querier
}

// NewMaterialCatalog construye el adaptador. Pasar pool o tx (Querier).
func NewMaterialCatalog(q Querier) *MaterialCatalog {
	return &MaterialCatalog{q: q}
}

const materialColumns = `id, code, name, specification, unit, category, safety_stock, inspection_required, updated_at`

func (c *MaterialCatalog) GetMaterial(ctx context.Context, code string) (*entity.Material, error) {
	var m entity.Material
	err := c.q.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE code = $1`, code).Scan(
		&m.ID, &m.Code, &m.Name, &m.Specification, &m.Unit, &m.Category, &m.SafetyStock, &m.InspectionRequired, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &m, nil
}

func (c *MaterialCatalog) ListMaterials(ctx context.Context) ([]entity.Material, error) {
	rows, err := c.q.Query(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()
	var out []entity.Material
	for rows.Next() {
		var m entity.Material
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.Specification, &m.Unit, &m.Category, &m.SafetyStock, &m.InspectionRequired, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (c *MaterialCatalog) GetWarehouse(ctx context.Context, id string) (*entity.Warehouse, error) {
	var w entity.Warehouse
	err := c.q.QueryRow(ctx, `SELECT id, name, locations FROM warehouses WHERE id = $1`, id).Scan(&w.ID, &w.Name, &w.Locations)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

// UpsertMaterial inserta o actualiza por código.
func (c *MaterialCatalog) UpsertMaterial(ctx context.Context, m entity.Material) error {
	_, err := c.q.Exec(ctx, `
		INSERT INTO materials (id, code, name, specification, unit, category, safety_stock, inspection_required, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (code) DO UPDATE SET
			id = EXCLUDED.id, name = EXCLUDED.name, specification = EXCLUDED.specification, unit = EXCLUDED.unit,
			category = EXCLUDED.category, safety_stock = EXCLUDED.safety_stock,
			inspection_required = EXCLUDED.inspection_required, updated_at = now()`,
		m.ID, m.Code, m.Name, m.Specification, m.Unit, m.Category, m.SafetyStock, m.InspectionRequired)
	if err != nil {
		return fmt.Errorf("upsert material %s: %w", m.Code, err)
	}
	return nil
}

// UpsertWarehouse inserta o actualiza por ID.
func (c *MaterialCatalog) UpsertWarehouse(ctx context.Context, w entity.Warehouse) error {
	locations := w.Locations
	if locations == nil {
		locations = []string{}
	}
	_, err := c.q.Exec(ctx, `
		INSERT INTO warehouses (id, name, locations) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, locations = EXCLUDED.locations`,
		w.ID, w.Name, locations)
	if err != nil {
		return fmt.Errorf("upsert warehouse %s: %w", w.ID, err)
	}
	return nil
}
