package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var (
	_ repository.MaterialCatalog = (*Catalog)(nil)
	_ repository.CatalogWriter   = (*Catalog)(nil)
)

// Catalog maestro de materiales y bodegas en memoria. Se carga al arrancar (CATALOG_FILE) o en tests.
type Catalog struct {
	mu         sync.RWMutex
	materials  map[string]entity.Material
	warehouses map[string]entity.Warehouse
}

func NewCatalog() *Catalog {
	return &Catalog{
		materials:  make(map[string]entity.Material),
		warehouses: make(map[string]entity.Warehouse),
	}
}

// UpsertMaterial inserta o reemplaza por código.
func (c *Catalog) UpsertMaterial(_ context.Context, m entity.Material) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.materials[m.Code] = m
	return nil
}

// UpsertWarehouse inserta o reemplaza por ID.
func (c *Catalog) UpsertWarehouse(_ context.Context, w entity.Warehouse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w.Locations = append([]string(nil), w.Locations...)
	c.warehouses[w.ID] = w
	return nil
}

// GetMaterial devuelve nil, nil si el código no existe.
func (c *Catalog) GetMaterial(_ context.Context, code string) (*entity.Material, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.materials[code]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (c *Catalog) ListMaterials(_ context.Context) ([]entity.Material, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]entity.Material, 0, len(c.materials))
	for _, m := range c.materials {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (c *Catalog) GetWarehouse(_ context.Context, id string) (*entity.Warehouse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.warehouses[id]
	if !ok {
		return nil, nil
	}
	w.Locations = append([]string(nil), w.Locations...)
	return &w, nil
}
