package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// InventoryKeyDTO identifica una posición de inventario (material, bodega, ubicación, lote).
type InventoryKeyDTO struct {
	MaterialCode string `json:"material_code"`
	WarehouseID  string `json:"warehouse_id"`
	LocationCode string `json:"location_code,omitempty"`
	BatchID      string `json:"batch_id,omitempty"`
}

// InventoryRecordResponse cantidad actual de una clave.
type InventoryRecordResponse struct {
	InventoryKeyDTO
	Quantity    decimal.Decimal `json:"quantity"`
	LastUpdated *time.Time      `json:"last_updated,omitempty"`
}

// LedgerTransactionResponse una entrada inmutable del ledger.
type LedgerTransactionResponse struct {
	ID             string          `json:"id"`
	Seq            int64           `json:"seq"`
	Key            InventoryKeyDTO `json:"key"`
	Direction      string          `json:"direction"`
	Kind           string          `json:"kind"`
	Delta          decimal.Decimal `json:"delta"`
	BeforeQuantity decimal.Decimal `json:"before_quantity"`
	AfterQuantity  decimal.Decimal `json:"after_quantity"`
	RelatedOrderID string          `json:"related_order_id,omitempty"`
	LineRef        string          `json:"line_ref,omitempty"`
	Actor          string          `json:"actor,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un material bajo su stock de seguridad.
type ReplenishmentSuggestionDTO struct {
	MaterialCode      string          `json:"material_code"`
	MaterialName      string          `json:"material_name"`
	Unit              string          `json:"unit"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	SafetyStock       decimal.Decimal `json:"safety_stock"`
	IdealStock        decimal.Decimal `json:"ideal_stock"`         // SafetyStock * 1.5
	SuggestedOrderQty decimal.Decimal `json:"suggested_order_qty"` // IdealStock - CurrentStock
	Deficit           decimal.Decimal `json:"deficit"`             // SafetyStock - CurrentStock
	Level             string          `json:"level"`
	Priority          int             `json:"priority"` // 1 = más urgente
}

// LowStockResponse señal de stock bajo por clave.
type LowStockResponse struct {
	Key               InventoryKeyDTO `json:"key"`
	MaterialName      string          `json:"material_name"`
	Unit              string          `json:"unit"`
	Quantity          decimal.Decimal `json:"quantity"`
	SafetyStock       decimal.Decimal `json:"safety_stock"`
	Level             string          `json:"level"`
	SuggestedOrderQty decimal.Decimal `json:"suggested_order_qty"`
}

// PendingReceiptResponse recibido pendiente de confirmar, por clave.
type PendingReceiptResponse struct {
	Key        InventoryKeyDTO `json:"key"`
	Quantity   decimal.Decimal `json:"quantity"`
	OrderCodes []string        `json:"order_codes"`
}

// AuditFindingDTO una violación encontrada al reproducir el ledger.
type AuditFindingDTO struct {
	Invariant string `json:"invariant"`
	Key       string `json:"key"`
	Detail    string `json:"detail"`
}

// AuditResponse resultado de la auditoría del ledger.
type AuditResponse struct {
	Keys         int               `json:"keys"`
	Transactions int               `json:"transactions"`
	Consistent   bool              `json:"consistent"`
	Findings     []AuditFindingDTO `json:"findings"`
}

// KeyFromEntity mapea la clave de dominio.
func KeyFromEntity(k entity.InventoryKey) InventoryKeyDTO {
	return InventoryKeyDTO{
		MaterialCode: k.MaterialCode,
		WarehouseID:  k.WarehouseID,
		LocationCode: k.LocationCode,
		BatchID:      k.BatchID,
	}
}

// Entity convierte a clave de dominio.
func (k InventoryKeyDTO) Entity() entity.InventoryKey {
	return entity.InventoryKey{
		MaterialCode: k.MaterialCode,
		WarehouseID:  k.WarehouseID,
		LocationCode: k.LocationCode,
		BatchID:      k.BatchID,
	}
}

func RecordFromEntity(r entity.InventoryRecord) InventoryRecordResponse {
	out := InventoryRecordResponse{InventoryKeyDTO: KeyFromEntity(r.Key), Quantity: r.Quantity}
	if !r.LastUpdated.IsZero() {
		t := r.LastUpdated
		out.LastUpdated = &t
	}
	return out
}

func TransactionFromEntity(tx entity.LedgerTransaction) LedgerTransactionResponse {
	return LedgerTransactionResponse{
		ID:             tx.ID,
		Seq:            tx.Seq,
		Key:            KeyFromEntity(tx.Key),
		Direction:      tx.Direction,
		Kind:           tx.Kind,
		Delta:          tx.Delta,
		BeforeQuantity: tx.BeforeQuantity,
		AfterQuantity:  tx.AfterQuantity,
		RelatedOrderID: tx.RelatedOrderID,
		LineRef:        tx.LineRef,
		Actor:          tx.Actor,
		CreatedAt:      tx.CreatedAt,
	}
}

func LowStockFromEntity(s entity.LowStockSignal) LowStockResponse {
	return LowStockResponse{
		Key:               KeyFromEntity(s.Key),
		MaterialName:      s.MaterialName,
		Unit:              s.Unit,
		Quantity:          s.Quantity,
		SafetyStock:       s.SafetyStock,
		Level:             s.Level,
		SuggestedOrderQty: s.SuggestedOrderQty,
	}
}
