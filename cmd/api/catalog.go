package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
)

// seedCatalog carga materiales y bodegas del archivo CATALOG_FILE. Es idempotente (upsert).
// Códigos, ids y ubicaciones forman claves de inventario, así que no pueden llevar el separador.
func seedCatalog(ctx context.Context, w repository.CatalogWriter, seed *config.CatalogSeed) error {
	for _, wh := range seed.Warehouses {
		if strings.Contains(wh.ID, entity.KeySeparator) {
			return fmt.Errorf("bodega %q: el id no puede contener %q", wh.ID, entity.KeySeparator)
		}
		for _, loc := range wh.Locations {
			if strings.Contains(loc, entity.KeySeparator) {
				return fmt.Errorf("bodega %s: ubicación %q no puede contener %q", wh.ID, loc, entity.KeySeparator)
			}
		}
		if err := w.UpsertWarehouse(ctx, entity.Warehouse{ID: wh.ID, Name: wh.Name, Locations: wh.Locations}); err != nil {
			return err
		}
	}
	for _, m := range seed.Materials {
		if strings.Contains(m.Code, entity.KeySeparator) {
			return fmt.Errorf("material %q: el código no puede contener %q", m.Code, entity.KeySeparator)
		}
		safety := decimal.Zero
		if s := strings.TrimSpace(m.SafetyStock); s != "" {
			d, err := decimal.NewFromString(s)
			if err != nil {
				return fmt.Errorf("material %s: safety_stock %q inválido: %w", m.Code, s, err)
			}
			if d.IsNegative() {
				return fmt.Errorf("material %s: safety_stock negativo", m.Code)
			}
			safety = d
		}
		material := entity.Material{
			ID:                 uuid.NewSHA1(uuid.NameSpaceOID, []byte("material:"+m.Code)).String(),
			Code:               m.Code,
			Name:               m.Name,
			Specification:      m.Specification,
			Unit:               m.Unit,
			Category:           m.Category,
			SafetyStock:        safety,
			InspectionRequired: m.InspectionRequired,
		}
		if err := w.UpsertMaterial(ctx, material); err != nil {
			return err
		}
	}
	return nil
}
