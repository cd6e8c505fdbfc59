package inventory_test

import (
	"testing"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestStockLevel_Umbrales(t *testing.T) {
	cases := []struct {
		qty, safety int64
		want        string
	}{
		{0, 50, entity.StockLevelCritical},
		{25, 50, entity.StockLevelCritical},
		{26, 50, entity.StockLevelLow},
		{50, 50, entity.StockLevelLow},
		{51, 50, entity.StockLevelNormal},
		{100, 50, entity.StockLevelOverstock},
		{10, 0, entity.StockLevelNormal},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, inventory.StockLevel(d(c.qty), d(c.safety)), "qty=%d safety=%d", c.qty, c.safety)
	}
}

func TestIsLowStock_EstrictamenteMenor(t *testing.T) {
	assert.True(t, inventory.IsLowStock(d(49), d(50)))
	assert.False(t, inventory.IsLowStock(d(50), d(50)), "igual al stock de seguridad no es alerta")
	assert.False(t, inventory.IsLowStock(d(0), d(0)), "sin stock de seguridad no hay alerta")
}

func TestSuggestedOrderQty(t *testing.T) {
	assert.True(t, d(75).Equal(inventory.SuggestedOrderQty(d(0), d(50))))
	assert.True(t, d(35).Equal(inventory.SuggestedOrderQty(d(40), d(50))))
	assert.True(t, decimal.Zero.Equal(inventory.SuggestedOrderQty(d(90), d(50))))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, inventory.CanTransition(inventory.ActionSubmit, entity.OrderStatusDraft))
	assert.False(t, inventory.CanTransition(inventory.ActionApprove, entity.OrderStatusCompleted))
	assert.True(t, inventory.CanTransition(inventory.ActionCancel, entity.OrderStatusPendingInspection))
	assert.False(t, inventory.CanTransition(inventory.ActionCancel, entity.OrderStatusCompleted))
	assert.False(t, inventory.CanTransition(inventory.ActionReject, entity.OrderStatusDraft))
	assert.True(t, inventory.CanTransition(inventory.ActionComplete, entity.OrderStatusInspected))
}

func TestTransactionKind_DireccionIncompatible(t *testing.T) {
	kind, ok := inventory.TransactionKind(entity.OrderTypePurchaseReceipt, entity.DirectionIn)
	assert.True(t, ok)
	assert.Equal(t, entity.KindPurchaseReceipt, kind)

	_, ok = inventory.TransactionKind(entity.OrderTypeSalesIssue, entity.DirectionIn)
	assert.False(t, ok, "una salida de venta no puede ser un pedido de entrada")
}

func TestInspectionPolicy(t *testing.T) {
	p := inventory.NewInspectionPolicy([]string{" Electronic "})
	assert.True(t, p.Requires(&entity.Material{Category: "electronic"}))
	assert.True(t, p.Requires(&entity.Material{Category: "steel", InspectionRequired: true}))
	assert.False(t, p.Requires(&entity.Material{Category: "steel"}))
	assert.False(t, p.Requires(nil))
}
