package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un conteo físico.
const (
	StockCheckStatusPending    = "Pending"
	StockCheckStatusInProgress = "InProgress"
	StockCheckStatusCompleted  = "Completed"
)

// Tipos de conteo (checkType en el front original).
const (
	StockCheckTypeFull      = "full"
	StockCheckTypeSampling  = "sampling"
	StockCheckTypeTemporary = "temporary"
	StockCheckTypeMonthEnd  = "month_end"
)

// Estados de ítem.
const (
	StockCheckItemPending = "pending"
	StockCheckItemCounted = "counted"
	StockCheckItemAssumed = "assumed" // completado forzado: actual = sistema
)

// StockCheckScope restringe las claves objetivo; vacío = toda la bodega.
type StockCheckScope struct {
	MaterialCodes []string
	LocationCodes []string
}

// StockCheckItem guarda la cantidad de sistema congelada al iniciar y la contada.
type StockCheckItem struct {
	ID             string
	Key            InventoryKey
	SystemQuantity decimal.Decimal
	ActualQuantity *decimal.Decimal
	Status         string
	Remarks        string
	CountedBy      string
	CountedAt      *time.Time
}

// Difference es actual - sistema; siempre se recalcula, nunca se almacena.
// Devuelve false si el ítem aún no tiene conteo.
func (i StockCheckItem) Difference() (decimal.Decimal, bool) {
	if i.ActualQuantity == nil {
		return decimal.Zero, false
	}
	return i.ActualQuantity.Sub(i.SystemQuantity), true
}

// StockCheck es un conteo físico sobre un subconjunto del inventario de una bodega.
type StockCheck struct {
	ID             string
	Code           string
	WarehouseID    string
	Type           string
	ScheduledDate  time.Time
	Manager        string
	Scope          StockCheckScope
	Status         string
	Items          []StockCheckItem
	ForceFilled    bool
	CreatedBy      string
	CreatedAt      time.Time
	StartedBy      string
	StartedAt      *time.Time
	CompletedBy    string
	CompletedAt    *time.Time
	TransactionIDs []string
	UpdatedAt      time.Time
}

// Item busca un ítem por ID.
func (s *StockCheck) Item(id string) (*StockCheckItem, bool) {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return &s.Items[i], true
		}
	}
	return nil, false
}

// Clone devuelve una copia profunda.
func (s *StockCheck) Clone() *StockCheck {
	if s == nil {
		return nil
	}
	c := *s
	c.Scope.MaterialCodes = append([]string(nil), s.Scope.MaterialCodes...)
	c.Scope.LocationCodes = append([]string(nil), s.Scope.LocationCodes...)
	c.Items = make([]StockCheckItem, len(s.Items))
	for i, it := range s.Items {
		if it.ActualQuantity != nil {
			q := *it.ActualQuantity
			it.ActualQuantity = &q
		}
		c.Items[i] = it
	}
	c.TransactionIDs = append([]string(nil), s.TransactionIDs...)
	return &c
}

// StockCheckFilter filtra listados de conteos.
type StockCheckFilter struct {
	WarehouseID string
	Status      string
	Limit       int
	Offset      int
}
