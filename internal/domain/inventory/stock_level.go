package inventory

import (
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var (
	half        = decimal.NewFromFloat(0.5)
	two         = decimal.NewFromInt(2)
	idealFactor = decimal.NewFromFloat(1.5)
)

// StockLevel clasifica una cantidad frente al stock de seguridad (servicio de dominio).
// <= 50% crítico, <= 100% bajo, >= 200% sobrestock, resto normal.
// Sin stock de seguridad configurado la clave siempre es normal.
func StockLevel(quantity, safetyStock decimal.Decimal) string {
	if !safetyStock.IsPositive() {
		return entity.StockLevelNormal
	}
	switch {
	case quantity.LessThanOrEqual(safetyStock.Mul(half)):
		return entity.StockLevelCritical
	case quantity.LessThanOrEqual(safetyStock):
		return entity.StockLevelLow
	case quantity.GreaterThanOrEqual(safetyStock.Mul(two)):
		return entity.StockLevelOverstock
	}
	return entity.StockLevelNormal
}

// IsLowStock es la condición de alerta: cantidad estrictamente menor al stock de seguridad.
func IsLowStock(quantity, safetyStock decimal.Decimal) bool {
	return safetyStock.IsPositive() && quantity.LessThan(safetyStock)
}

// SuggestedOrderQty = StockIdeal - StockActual, con StockIdeal = 1.5 * StockSeguridad. Nunca negativo.
func SuggestedOrderQty(quantity, safetyStock decimal.Decimal) decimal.Decimal {
	q := safetyStock.Mul(idealFactor).Sub(quantity)
	if q.IsNegative() {
		return decimal.Zero
	}
	return q
}
