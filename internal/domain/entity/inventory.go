package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InventoryKey identifica un único pool contable de stock.
type InventoryKey struct {
	MaterialCode string `json:"material_code"`
	WarehouseID  string `json:"warehouse_id"`
	LocationCode string `json:"location_code"`
	BatchID      string `json:"batch_id"`
}

// KeySeparator separa los componentes en la forma texto de la clave.
// Ningún componente puede contenerlo.
const KeySeparator = "|"

// String devuelve la forma canónica material|bodega|ubicación|lote.
// Es también el orden de adquisición de locks.
func (k InventoryKey) String() string {
	return strings.Join([]string{k.MaterialCode, k.WarehouseID, k.LocationCode, k.BatchID}, KeySeparator)
}

// HasSeparator indica si algún componente contiene KeySeparator; esa clave no es representable.
func (k InventoryKey) HasSeparator() bool {
	for _, part := range []string{k.MaterialCode, k.WarehouseID, k.LocationCode, k.BatchID} {
		if strings.Contains(part, KeySeparator) {
			return true
		}
	}
	return false
}

// Less ordena componente a componente.
func (k InventoryKey) Less(o InventoryKey) bool {
	switch {
	case k.MaterialCode != o.MaterialCode:
		return k.MaterialCode < o.MaterialCode
	case k.WarehouseID != o.WarehouseID:
		return k.WarehouseID < o.WarehouseID
	case k.LocationCode != o.LocationCode:
		return k.LocationCode < o.LocationCode
	}
	return k.BatchID < o.BatchID
}

// Complete indica si todos los componentes de la clave están presentes.
func (k InventoryKey) Complete() bool {
	return k.MaterialCode != "" && k.WarehouseID != "" && k.LocationCode != "" && k.BatchID != ""
}

// InventoryRecord es la cantidad actual de una clave. Solo el ledger lo muta.
type InventoryRecord struct {
	Key         InventoryKey
	Quantity    decimal.Decimal
	LastUpdated time.Time
}

// InventoryFilter filtra registros; los campos vacíos no restringen.
type InventoryFilter struct {
	MaterialCodes []string
	WarehouseID   string
	LocationCodes []string
	BatchID       string
}

// Matches indica si la clave cumple el filtro.
func (f InventoryFilter) Matches(k InventoryKey) bool {
	if f.WarehouseID != "" && k.WarehouseID != f.WarehouseID {
		return false
	}
	if f.BatchID != "" && k.BatchID != f.BatchID {
		return false
	}
	if len(f.MaterialCodes) > 0 && !contains(f.MaterialCodes, k.MaterialCode) {
		return false
	}
	if len(f.LocationCodes) > 0 && !contains(f.LocationCodes, k.LocationCode) {
		return false
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
