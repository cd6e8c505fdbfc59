package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
)

var levelRank = map[string]int{
	entity.StockLevelCritical:  0,
	entity.StockLevelLow:       1,
	entity.StockLevelNormal:    2,
	entity.StockLevelOverstock: 3,
}

// Alerting evalúa stock bajo bajo demanda contra el store. No guarda estado propio.
type Alerting struct {
	deps Dependencies
	log  *logger.Logger
}

// NewAlerting construye el evaluador de alertas.
func NewAlerting(deps Dependencies) *Alerting {
	return &Alerting{deps: deps, log: deps.log("alerting")}
}

// LowStockKeys devuelve las claves con cantidad < stock de seguridad.
// Un material con stock de seguridad y sin ningún registro en el filtro se reporta con
// una clave solo-material y cantidad 0.
func (a *Alerting) LowStockKeys(ctx context.Context, filter entity.InventoryFilter) ([]entity.LowStockSignal, error) {
	materials, err := a.materials(ctx, filter.MaterialCodes)
	if err != nil {
		return nil, err
	}
	records, err := a.deps.Store.Snapshot(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("snapshot de inventario: %w", err)
	}

	byMaterial := make(map[string][]entity.InventoryRecord)
	for _, r := range records {
		byMaterial[r.Key.MaterialCode] = append(byMaterial[r.Key.MaterialCode], r)
	}

	var signals []entity.LowStockSignal
	for _, m := range materials {
		if !m.SafetyStock.IsPositive() {
			continue
		}
		recs := byMaterial[m.Code]
		if len(recs) == 0 {
			signals = append(signals, signal(m, entity.InventoryKey{MaterialCode: m.Code, WarehouseID: filter.WarehouseID}, decimal.Zero))
			continue
		}
		for _, r := range recs {
			if inventory.IsLowStock(r.Quantity, m.SafetyStock) {
				signals = append(signals, signal(m, r.Key, r.Quantity))
			}
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		x, y := signals[i], signals[j]
		if levelRank[x.Level] != levelRank[y.Level] {
			return levelRank[x.Level] < levelRank[y.Level]
		}
		return x.Key.String() < y.Key.String()
	})
	return signals, nil
}

// Replenishment agrega por material (todas las claves de la bodega, o global si warehouseID
// es vacío) y devuelve los que están bajo su stock de seguridad, primero el mayor déficit.
func (a *Alerting) Replenishment(ctx context.Context, warehouseID string) ([]dto.ReplenishmentSuggestionDTO, error) {
	materials, err := a.materials(ctx, nil)
	if err != nil {
		return nil, err
	}
	records, err := a.deps.Store.Snapshot(ctx, entity.InventoryFilter{WarehouseID: warehouseID})
	if err != nil {
		return nil, fmt.Errorf("snapshot de inventario: %w", err)
	}
	totals := make(map[string]decimal.Decimal)
	for _, r := range records {
		totals[r.Key.MaterialCode] = totals[r.Key.MaterialCode].Add(r.Quantity)
	}

	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0)
	for _, m := range materials {
		current := totals[m.Code]
		if !inventory.IsLowStock(current, m.SafetyStock) {
			continue
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			MaterialCode:      m.Code,
			MaterialName:      m.Name,
			Unit:              m.Unit,
			CurrentStock:      current,
			SafetyStock:       m.SafetyStock,
			IdealStock:        m.SafetyStock.Mul(decimal.NewFromFloat(1.5)),
			SuggestedOrderQty: inventory.SuggestedOrderQty(current, m.SafetyStock),
			Deficit:           m.SafetyStock.Sub(current),
			Level:             inventory.StockLevel(current, m.SafetyStock),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		x, y := suggestions[i], suggestions[j]
		if !x.Deficit.Equal(y.Deficit) {
			return x.Deficit.GreaterThan(y.Deficit)
		}
		return x.MaterialCode < y.MaterialCode
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

// Notify emite stock.low para cada clave baja de los materiales indicados.
// Se llama tras cada posteo; los errores solo se registran.
func (a *Alerting) Notify(ctx context.Context, warehouseID string, materialCodes []string) {
	if len(materialCodes) == 0 {
		return
	}
	signals, err := a.LowStockKeys(ctx, entity.InventoryFilter{WarehouseID: warehouseID, MaterialCodes: materialCodes})
	if err != nil {
		a.log.Error().Err(err).Str("warehouse_id", warehouseID).Msg("no se pudo evaluar stock bajo")
		return
	}
	for i := range signals {
		s := signals[i]
		a.log.Info().Str("key", s.Key.String()).Str("level", s.Level).Str("quantity", s.Quantity.String()).Msg("stock bajo")
		publish(ctx, a.deps.Events, a.log, entity.Event{
			ID:         uuid.New().String(),
			Type:       entity.EventStockLow,
			OccurredAt: a.deps.now(),
			LowStock:   &s,
		})
	}
}

func (a *Alerting) materials(ctx context.Context, codes []string) ([]entity.Material, error) {
	all, err := a.deps.Catalog.ListMaterials(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar materiales: %w", err)
	}
	if len(codes) == 0 {
		return all, nil
	}
	wanted := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		wanted[c] = struct{}{}
	}
	out := make([]entity.Material, 0, len(codes))
	for _, m := range all {
		if _, ok := wanted[m.Code]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func signal(m entity.Material, key entity.InventoryKey, qty decimal.Decimal) entity.LowStockSignal {
	return entity.LowStockSignal{
		Key:               key,
		MaterialName:      m.Name,
		Unit:              m.Unit,
		Quantity:          qty,
		SafetyStock:       m.SafetyStock,
		Level:             inventory.StockLevel(qty, m.SafetyStock),
		SuggestedOrderQty: inventory.SuggestedOrderQty(qty, m.SafetyStock),
	}
}
