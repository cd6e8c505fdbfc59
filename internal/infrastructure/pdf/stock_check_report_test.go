package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/pdf"
)

func sampleCheck() *entity.StockCheck {
	now := time.Date(2026, 3, 31, 18, 0, 0, 0, time.UTC)
	eight := decimal.NewFromInt(8)
	ten := decimal.NewFromInt(10)
	return &entity.StockCheck{
		ID: "c1", Code: "SC-20260331-001", WarehouseID: "W01", Type: entity.StockCheckTypeMonthEnd,
		Manager: "Ana", Status: entity.StockCheckStatusCompleted, ScheduledDate: now, CompletedAt: &now,
		ForceFilled: true,
		Items: []entity.StockCheckItem{
			{ID: "i1", Key: entity.InventoryKey{MaterialCode: "M001", WarehouseID: "W01", LocationCode: "A-01", BatchID: "B1"},
				SystemQuantity: ten, ActualQuantity: &eight, Status: entity.StockCheckItemCounted},
			{ID: "i2", Key: entity.InventoryKey{MaterialCode: "M002", WarehouseID: "W01", LocationCode: "A-02", BatchID: "B2"},
				SystemQuantity: ten, ActualQuantity: &ten, Status: entity.StockCheckItemAssumed},
		},
	}
}

func TestStockCheckReport_GeneraPDF(t *testing.T) {
	out, err := pdf.NewStockCheckReport().Generate(context.Background(), sampleCheck(), &entity.Warehouse{ID: "W01", Name: "Principal"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestStockCheckReport_ConteoNil(t *testing.T) {
	_, err := pdf.NewStockCheckReport().Generate(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	s := pdf.Summarize(sampleCheck())
	assert.Equal(t, 2, s.Items)
	assert.Equal(t, 1, s.Counted)
	assert.Equal(t, 1, s.Assumed)
	assert.True(t, s.NetAdjustment.Equal(decimal.NewFromInt(-2)))
}
