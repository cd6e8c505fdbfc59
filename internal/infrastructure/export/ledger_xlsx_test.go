package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/export"
)

func TestLedgerWorkbook_HojasYFilas(t *testing.T) {
	key := entity.InventoryKey{MaterialCode: "M001", WarehouseID: "W01", LocationCode: "A-01", BatchID: "B1"}
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	txs := []entity.LedgerTransaction{
		{ID: "t1", Seq: 1, Key: key, Direction: entity.DirectionIn, Kind: entity.KindPurchaseReceipt,
			Delta: decimal.NewFromInt(100), BeforeQuantity: decimal.Zero, AfterQuantity: decimal.NewFromInt(100), CreatedAt: at},
		{ID: "t2", Seq: 2, Key: key, Direction: entity.DirectionOut, Kind: entity.KindSalesIssue,
			Delta: decimal.NewFromInt(-30), BeforeQuantity: decimal.NewFromInt(100), AfterQuantity: decimal.NewFromInt(70), CreatedAt: at},
	}
	records := []entity.InventoryRecord{{Key: key, Quantity: decimal.NewFromInt(70), LastUpdated: at}}

	f, err := export.LedgerWorkbook(txs, records)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	back, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kardex", "Existencias"}, back.GetSheetList())

	rows, err := back.GetRows("Kardex")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Seq", rows[0][0])
	assert.Equal(t, "SalesIssue", rows[2][7])
	assert.Equal(t, "-30", rows[2][8])
	assert.Equal(t, "70", rows[2][10])

	inv, err := back.GetRows("Existencias")
	require.NoError(t, err)
	require.Len(t, inv, 2)
	assert.Equal(t, "70", inv[1][4])
}

func TestLedgerWorkbook_SinExistenciasUnaHoja(t *testing.T) {
	f, err := export.LedgerWorkbook(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kardex"}, f.GetSheetList())
}
