package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// CreateStockCheckRequest body para POST /api/warehouse/stock-checks.
type CreateStockCheckRequest struct {
	WarehouseID   string     `json:"warehouse_id"`
	Type          string     `json:"type,omitempty"` // full, sampling, temporary, month_end
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	Manager       string     `json:"manager,omitempty"`
	MaterialCodes []string   `json:"material_codes,omitempty"`
	LocationCodes []string   `json:"location_codes,omitempty"`
}

// RecordCountRequest body para POST /stock-checks/:id/items/:itemId/count.
type RecordCountRequest struct {
	ActualQuantity decimal.Decimal `json:"actual_quantity"`
	Remarks        string          `json:"remarks,omitempty"`
}

// CompleteStockCheckRequest body opcional para POST /stock-checks/:id/complete.
type CompleteStockCheckRequest struct {
	ForceFill bool `json:"force_fill"`
}

// StockCheckItemResponse ítem de conteo. Difference = actual - sistema, solo si hay conteo.
type StockCheckItemResponse struct {
	ID             string           `json:"id"`
	Key            InventoryKeyDTO  `json:"key"`
	SystemQuantity decimal.Decimal  `json:"system_quantity"`
	ActualQuantity *decimal.Decimal `json:"actual_quantity,omitempty"`
	Difference     *decimal.Decimal `json:"difference,omitempty"`
	Status         string           `json:"status"`
	Remarks        string           `json:"remarks,omitempty"`
	CountedBy      string           `json:"counted_by,omitempty"`
	CountedAt      *time.Time       `json:"counted_at,omitempty"`
}

// StockCheckResponse conteo físico.
type StockCheckResponse struct {
	ID             string                   `json:"id"`
	Code           string                   `json:"code"`
	WarehouseID    string                   `json:"warehouse_id"`
	Type           string                   `json:"type"`
	ScheduledDate  time.Time                `json:"scheduled_date"`
	Manager        string                   `json:"manager,omitempty"`
	MaterialCodes  []string                 `json:"material_codes,omitempty"`
	LocationCodes  []string                 `json:"location_codes,omitempty"`
	Status         string                   `json:"status"`
	ForceFilled    bool                     `json:"force_filled"`
	Items          []StockCheckItemResponse `json:"items"`
	CreatedBy      string                   `json:"created_by"`
	CreatedAt      time.Time                `json:"created_at"`
	StartedBy      string                   `json:"started_by,omitempty"`
	StartedAt      *time.Time               `json:"started_at,omitempty"`
	CompletedBy    string                   `json:"completed_by,omitempty"`
	CompletedAt    *time.Time               `json:"completed_at,omitempty"`
	TransactionIDs []string                 `json:"transaction_ids,omitempty"`
}

// StockCheckListResponse listado paginado.
type StockCheckListResponse struct {
	Items []StockCheckResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

func StockCheckFromEntity(c *entity.StockCheck) StockCheckResponse {
	items := make([]StockCheckItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		ir := StockCheckItemResponse{
			ID:             it.ID,
			Key:            KeyFromEntity(it.Key),
			SystemQuantity: it.SystemQuantity,
			ActualQuantity: it.ActualQuantity,
			Status:         it.Status,
			Remarks:        it.Remarks,
			CountedBy:      it.CountedBy,
			CountedAt:      it.CountedAt,
		}
		if d, ok := it.Difference(); ok {
			ir.Difference = &d
		}
		items = append(items, ir)
	}
	return StockCheckResponse{
		ID:             c.ID,
		Code:           c.Code,
		WarehouseID:    c.WarehouseID,
		Type:           c.Type,
		ScheduledDate:  c.ScheduledDate,
		Manager:        c.Manager,
		MaterialCodes:  c.Scope.MaterialCodes,
		LocationCodes:  c.Scope.LocationCodes,
		Status:         c.Status,
		ForceFilled:    c.ForceFilled,
		Items:          items,
		CreatedBy:      c.CreatedBy,
		CreatedAt:      c.CreatedAt,
		StartedBy:      c.StartedBy,
		StartedAt:      c.StartedAt,
		CompletedBy:    c.CompletedBy,
		CompletedAt:    c.CompletedAt,
		TransactionIDs: c.TransactionIDs,
	}
}
