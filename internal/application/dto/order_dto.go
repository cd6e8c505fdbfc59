package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// OrderLineRequest línea en el body de creación.
type OrderLineRequest struct {
	MaterialCode string          `json:"material_code"`
	LocationCode string          `json:"location_code"`
	BatchID      string          `json:"batch_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// CreateOrderRequest body para POST /api/warehouse/{inbound,outbound}-orders.
type CreateOrderRequest struct {
	Type          string             `json:"type,omitempty"`
	WarehouseID   string             `json:"warehouse_id"`
	ReferenceType string             `json:"reference_type,omitempty"` // proveedor, orden de producción, cliente...
	ReferenceCode string             `json:"reference_code,omitempty"`
	Remarks       string             `json:"remarks,omitempty"`
	Submit        bool               `json:"submit,omitempty"`
	Lines         []OrderLineRequest `json:"lines"`
}

// RejectOrderRequest body para POST .../:id/reject.
type RejectOrderRequest struct {
	Reason string `json:"reason"`
}

// InspectionResultRequest body para POST /inbound-orders/:id/lines/:lineId/inspection.
type InspectionResultRequest struct {
	QualifiedQuantity   decimal.Decimal `json:"qualified_quantity"`
	UnqualifiedQuantity decimal.Decimal `json:"unqualified_quantity"`
	Remarks             string          `json:"remarks,omitempty"`
}

// InspectionResponse resultado de inspección de una línea.
type InspectionResponse struct {
	QualifiedQuantity   decimal.Decimal `json:"qualified_quantity"`
	UnqualifiedQuantity decimal.Decimal `json:"unqualified_quantity"`
	Remarks             string          `json:"remarks,omitempty"`
	Inspector           string          `json:"inspector"`
	RecordedAt          time.Time       `json:"recorded_at"`
}

// OrderLineResponse línea de pedido.
type OrderLineResponse struct {
	ID                 string              `json:"id"`
	MaterialCode       string              `json:"material_code"`
	LocationCode       string              `json:"location_code"`
	BatchID            string              `json:"batch_id"`
	Quantity           decimal.Decimal     `json:"quantity"`
	InspectionRequired bool                `json:"inspection_required"`
	Inspection         *InspectionResponse `json:"inspection,omitempty"`
	PostedQuantity     decimal.Decimal     `json:"posted_quantity"`
}

// OrderResponse pedido de entrada o salida.
type OrderResponse struct {
	ID             string              `json:"id"`
	Code           string              `json:"code"`
	Direction      string              `json:"direction"`
	Type           string              `json:"type"`
	WarehouseID    string              `json:"warehouse_id"`
	ReferenceType  string              `json:"reference_type,omitempty"`
	ReferenceCode  string              `json:"reference_code,omitempty"`
	Status         string              `json:"status"`
	Remarks        string              `json:"remarks,omitempty"`
	Lines          []OrderLineResponse `json:"lines"`
	CreatedBy      string              `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
	SubmittedAt    *time.Time          `json:"submitted_at,omitempty"`
	ApprovedBy     string              `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time          `json:"approved_at,omitempty"`
	RejectedBy     string              `json:"rejected_by,omitempty"`
	RejectedAt     *time.Time          `json:"rejected_at,omitempty"`
	RejectReason   string              `json:"reject_reason,omitempty"`
	CancelledBy    string              `json:"cancelled_by,omitempty"`
	CancelledAt    *time.Time          `json:"cancelled_at,omitempty"`
	ReceivedAt     *time.Time          `json:"received_at,omitempty"`
	CompletedBy    string              `json:"completed_by,omitempty"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
	TransactionIDs []string            `json:"transaction_ids,omitempty"`
}

// OrderListResponse listado paginado.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

func OrderFromEntity(o *entity.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lr := OrderLineResponse{
			ID:                 l.ID,
			MaterialCode:       l.MaterialCode,
			LocationCode:       l.LocationCode,
			BatchID:            l.BatchID,
			Quantity:           l.Quantity,
			InspectionRequired: l.InspectionRequired,
			PostedQuantity:     l.PostedQuantity,
		}
		if l.Inspection != nil {
			lr.Inspection = &InspectionResponse{
				QualifiedQuantity:   l.Inspection.QualifiedQuantity,
				UnqualifiedQuantity: l.Inspection.UnqualifiedQuantity,
				Remarks:             l.Inspection.Remarks,
				Inspector:           l.Inspection.Inspector,
				RecordedAt:          l.Inspection.RecordedAt,
			}
		}
		lines = append(lines, lr)
	}
	return OrderResponse{
		ID:             o.ID,
		Code:           o.Code,
		Direction:      o.Direction,
		Type:           o.Type,
		WarehouseID:    o.WarehouseID,
		ReferenceType:  o.Reference.Type,
		ReferenceCode:  o.Reference.Code,
		Status:         o.Status,
		Remarks:        o.Remarks,
		Lines:          lines,
		CreatedBy:      o.CreatedBy,
		CreatedAt:      o.CreatedAt,
		SubmittedAt:    o.SubmittedAt,
		ApprovedBy:     o.ApprovedBy,
		ApprovedAt:     o.ApprovedAt,
		RejectedBy:     o.RejectedBy,
		RejectedAt:     o.RejectedAt,
		RejectReason:   o.RejectReason,
		CancelledBy:    o.CancelledBy,
		CancelledAt:    o.CancelledAt,
		ReceivedAt:     o.ReceivedAt,
		CompletedBy:    o.CompletedBy,
		CompletedAt:    o.CompletedAt,
		TransactionIDs: o.TransactionIDs,
	}
}
