package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un pedido de entrada o salida.
const (
	OrderStatusDraft             = "Draft"
	OrderStatusPendingApproval   = "PendingApproval"
	OrderStatusApproved          = "Approved"
	OrderStatusPendingInspection = "PendingInspection"
	OrderStatusInspected         = "Inspected"
	OrderStatusCompleted         = "Completed"
	OrderStatusRejected          = "Rejected"
	OrderStatusCancelled         = "Cancelled"
)

// Tipos de pedido (orderType en el front original).
const (
	OrderTypePurchaseReceipt    = "purchase_receipt"
	OrderTypeProductionReceipt  = "production_receipt"
	OrderTypeOutsourcingReceipt = "outsourcing_receipt"
	OrderTypeReturnReceipt      = "return_receipt"
	OrderTypeSalesIssue         = "sales_issue"
	OrderTypeProductionIssue    = "production_issue"
	OrderTypeOutsourcingIssue   = "outsourcing_issue"
	OrderTypeScrapIssue         = "scrap_issue"
)

// OrderReference apunta al documento origen (entrada) o destino (salida), ej. PO-2023-001.
type OrderReference struct {
	Type string
	Code string
}

// InspectionRecord es el resultado de calidad de una línea inspeccionada.
type InspectionRecord struct {
	QualifiedQuantity   decimal.Decimal
	UnqualifiedQuantity decimal.Decimal
	Remarks             string
	Inspector           string
	RecordedAt          time.Time
}

// OrderLine referencia material, ubicación destino/origen, lote y cantidad solicitada.
type OrderLine struct {
	ID                 string
	MaterialCode       string
	LocationCode       string
	BatchID            string
	Quantity           decimal.Decimal
	InspectionRequired bool
	Inspection         *InspectionRecord
	PostedQuantity     decimal.Decimal
}

// Key devuelve la clave de inventario de la línea dentro de la bodega del pedido.
func (l OrderLine) Key(warehouseID string) InventoryKey {
	return InventoryKey{
		MaterialCode: l.MaterialCode,
		WarehouseID:  warehouseID,
		LocationCode: l.LocationCode,
		BatchID:      l.BatchID,
	}
}

// Order es un pedido de entrada o salida; Direction distingue ambos.
// Una vez Completed o Cancelled es inmutable.
type Order struct {
	ID             string
	Code           string
	Direction      string // in | out
	Type           string
	WarehouseID    string
	Reference      OrderReference
	Status         string
	Lines          []OrderLine
	Remarks        string
	CreatedBy      string
	CreatedAt      time.Time
	SubmittedAt    *time.Time
	ApprovedBy     string
	ApprovedAt     *time.Time
	RejectedBy     string
	RejectedAt     *time.Time
	RejectReason   string
	CancelledBy    string
	CancelledAt    *time.Time
	ReceivedAt     *time.Time
	CompletedBy    string
	CompletedAt    *time.Time
	TransactionIDs []string
	UpdatedAt      time.Time
}

// Line busca una línea por ID.
func (o *Order) Line(id string) (*OrderLine, bool) {
	for i := range o.Lines {
		if o.Lines[i].ID == id {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

// RequiresInspection indica si alguna línea debe pasar por control de calidad.
func (o *Order) RequiresInspection() bool {
	for _, l := range o.Lines {
		if l.InspectionRequired {
			return true
		}
	}
	return false
}

// Clone devuelve una copia profunda para que los repositorios no compartan memoria con el caller.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Lines = make([]OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		if l.Inspection != nil {
			insp := *l.Inspection
			l.Inspection = &insp
		}
		c.Lines[i] = l
	}
	c.TransactionIDs = append([]string(nil), o.TransactionIDs...)
	return &c
}

// OrderFilter filtra listados de pedidos.
type OrderFilter struct {
	Direction   string
	Status      string
	WarehouseID string
	Limit       int
	Offset      int
}
