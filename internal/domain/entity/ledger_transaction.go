package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dirección del movimiento.
const (
	DirectionIn         = "in"
	DirectionOut        = "out"
	DirectionAdjustment = "adjustment"
)

// Tipos de transacción del ledger.
const (
	KindPurchaseReceipt    = "PurchaseReceipt"
	KindProductionReceipt  = "ProductionReceipt"
	KindOutsourcingReceipt = "OutsourcingReceipt"
	KindReturnReceipt      = "ReturnReceipt"
	KindSalesIssue         = "SalesIssue"
	KindProductionIssue    = "ProductionIssue"
	KindOutsourcingIssue   = "OutsourcingIssue"
	KindScrapIssue         = "ScrapIssue"
	KindStockAdjustment    = "StockAdjustment"
)

// LedgerTransaction es una entrada inmutable del ledger.
// AfterQuantity de una transacción es el BeforeQuantity de la siguiente para la misma clave.
type LedgerTransaction struct {
	ID             string
	Seq            int64
	Key            InventoryKey
	Direction      string
	Kind           string
	Delta          decimal.Decimal
	BeforeQuantity decimal.Decimal
	AfterQuantity  decimal.Decimal
	RelatedOrderID string
	LineRef        string
	Actor          string
	CreatedAt      time.Time
}

// Posting es la solicitud de aplicar un delta a una clave.
// LineRef identifica la línea de origen; una misma LineRef se postea a lo sumo una vez.
type Posting struct {
	Key            InventoryKey
	Delta          decimal.Decimal
	Kind           string
	RelatedOrderID string
	LineRef        string
	Actor          string
}

// Direction deriva la dirección a partir del tipo y el signo del delta.
func (p Posting) Direction() string {
	if p.Kind == KindStockAdjustment {
		return DirectionAdjustment
	}
	if p.Delta.IsNegative() {
		return DirectionOut
	}
	return DirectionIn
}

// TimeRange acota consultas del ledger; los extremos nil no restringen.
type TimeRange struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// Contains indica si t cae dentro del rango (extremos inclusivos).
func (r TimeRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}
