package inventory

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// LedgerQuery consulta del ledger: por clave exacta o por filtro, acotada en tiempo.
type LedgerQuery struct {
	Key    *entity.InventoryKey
	Filter entity.InventoryFilter
	Range  entity.TimeRange
}

// InventoryQueries lecturas de solo consulta sobre el store.
type InventoryQueries struct {
	store repository.LedgerStore
}

func NewInventoryQueries(store repository.LedgerStore) *InventoryQueries {
	return &InventoryQueries{store: store}
}

// GetInventory cantidad de una clave completa (0 si nunca se posteó).
func (q *InventoryQueries) GetInventory(ctx context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error) {
	if !key.Complete() {
		return nil, domain.Validation("la clave requiere material, bodega, ubicación y lote")
	}
	return q.store.Get(ctx, key)
}

// ListInventory registros que cumplen el filtro, con lectura consistente.
func (q *InventoryQueries) ListInventory(ctx context.Context, filter entity.InventoryFilter) ([]entity.InventoryRecord, error) {
	return q.store.Snapshot(ctx, filter)
}

// GetLedger transacciones en orden de posteo.
func (q *InventoryQueries) GetLedger(ctx context.Context, in LedgerQuery) ([]entity.LedgerTransaction, error) {
	if in.Key != nil {
		if !in.Key.Complete() {
			return nil, domain.Validation("la clave requiere material, bodega, ubicación y lote")
		}
		return q.store.Transactions(ctx, *in.Key, in.Range)
	}
	limit := in.Range.Limit
	r := in.Range
	r.Limit = 0
	all, err := q.store.AllTransactions(ctx, r)
	if err != nil {
		return nil, err
	}
	out := make([]entity.LedgerTransaction, 0, len(all))
	for _, tx := range all {
		if !in.Filter.Matches(tx.Key) {
			continue
		}
		out = append(out, tx)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
