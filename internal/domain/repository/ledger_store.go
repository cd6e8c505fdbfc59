package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// LedgerStore es el Inventory Store + Ledger: única fuente de verdad de cantidades.
// Toda mutación pasa por ApplyDelta/ApplyBatch, que anexan la transacción y actualizan
// el registro en la misma unidad atómica.
type LedgerStore interface {
	// Get devuelve el registro actual; una clave desconocida devuelve cantidad 0 sin error.
	Get(ctx context.Context, key entity.InventoryKey) (*entity.InventoryRecord, error)
	// ApplyDelta postea un único movimiento.
	ApplyDelta(ctx context.Context, posting entity.Posting) (*entity.LedgerTransaction, error)
	// ApplyBatch postea todos los movimientos o ninguno. Bloquea las claves en orden canónico.
	// Si todas las LineRef ya fueron posteadas devuelve las transacciones originales.
	ApplyBatch(ctx context.Context, postings []entity.Posting) ([]entity.LedgerTransaction, error)
	// Snapshot es una lectura consistente de todos los registros que cumplen el filtro.
	Snapshot(ctx context.Context, filter entity.InventoryFilter) ([]entity.InventoryRecord, error)
	// Transactions lista las transacciones de una clave en orden de posteo.
	Transactions(ctx context.Context, key entity.InventoryKey, r entity.TimeRange) ([]entity.LedgerTransaction, error)
	// AllTransactions lista todo el ledger en orden de posteo.
	AllTransactions(ctx context.Context, r entity.TimeRange) ([]entity.LedgerTransaction, error)
}
