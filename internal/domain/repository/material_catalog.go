package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// MaterialCatalog es el puerto de solo lectura hacia el catálogo externo (materiales y bodegas).
type MaterialCatalog interface {
	GetMaterial(ctx context.Context, code string) (*entity.Material, error)
	ListMaterials(ctx context.Context) ([]entity.Material, error)
	GetWarehouse(ctx context.Context, id string) (*entity.Warehouse, error)
}

// CatalogWriter carga el maestro (semilla de CATALOG_FILE).
type CatalogWriter interface {
	UpsertMaterial(ctx context.Context, m entity.Material) error
	UpsertWarehouse(ctx context.Context, w entity.Warehouse) error
}
