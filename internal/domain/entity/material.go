package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Material es dato de referencia del catálogo externo; el ledger solo lo lee.
type Material struct {
	ID                 string
	Code               string // código único (ej. M001)
	Name               string
	Specification      string
	Unit               string
	Category           string
	SafetyStock        decimal.Decimal // por debajo de este valor la clave está en "stock bajo"
	InspectionRequired bool
	UpdatedAt          time.Time
}

// Warehouse representa una bodega con sus ubicaciones válidas.
type Warehouse struct {
	ID        string
	Name      string
	Locations []string
}

// HasLocation indica si la ubicación pertenece a la bodega.
func (w *Warehouse) HasLocation(code string) bool {
	for _, l := range w.Locations {
		if l == code {
			return true
		}
	}
	return false
}
