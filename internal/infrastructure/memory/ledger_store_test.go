package memory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func key(material string) entity.InventoryKey {
	return entity.InventoryKey{MaterialCode: material, WarehouseID: "W01", LocationCode: "A-01", BatchID: "B1"}
}

func in(k entity.InventoryKey, qty string, ref string) entity.Posting {
	return entity.Posting{Key: k, Delta: decimal.RequireFromString(qty), Kind: entity.KindPurchaseReceipt, RelatedOrderID: "o1", LineRef: ref, Actor: "tester"}
}

func out(k entity.InventoryKey, qty string, ref string) entity.Posting {
	return entity.Posting{Key: k, Delta: decimal.RequireFromString(qty).Neg(), Kind: entity.KindSalesIssue, RelatedOrderID: "o2", LineRef: ref, Actor: "tester"}
}

// assertLedgerConsistent verifica registro = suma de deltas y encadenamiento antes/después.
func assertLedgerConsistent(t *testing.T, s *memory.LedgerStore, k entity.InventoryKey) {
	t.Helper()
	ctx := context.Background()
	rec, err := s.Get(ctx, k)
	require.NoError(t, err)
	txs, err := s.Transactions(ctx, k, entity.TimeRange{})
	require.NoError(t, err)

	sum := decimal.Zero
	for i, tx := range txs {
		assert.True(t, tx.BeforeQuantity.Equal(sum), "tx %d: before %s, esperado %s", i, tx.BeforeQuantity, sum)
		sum = sum.Add(tx.Delta)
		assert.True(t, tx.AfterQuantity.Equal(sum), "tx %d: after %s, esperado %s", i, tx.AfterQuantity, sum)
		assert.False(t, sum.IsNegative())
	}
	assert.True(t, rec.Quantity.Equal(sum), "registro %s, suma del ledger %s", rec.Quantity, sum)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestLedgerStore_ClaveDesconocidaDevuelveCero(t *testing.T) {
	s := memory.NewLedgerStore(time.Second)
	rec, err := s.Get(context.Background(), key("M404"))
	require.NoError(t, err)
	assert.True(t, rec.Quantity.IsZero())
}

func TestLedgerStore_EntradaYSalidaEncadenan(t *testing.T) {
	s := memory.NewLedgerStore(time.Second)
	ctx := context.Background()
	k := key("M001")

	tx1, err := s.ApplyDelta(ctx, in(k, "100", "l1"))
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionIn, tx1.Direction)
	assert.True(t, tx1.AfterQuantity.Equal(decimal.NewFromInt(100)))

	tx2, err := s.ApplyDelta(ctx, out(k, "30.5", "l2"))
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionOut, tx2.Direction)
	assert.True(t, tx2.BeforeQuantity.Equal(decimal.NewFromInt(100)))
	assert.True(t, tx2.AfterQuantity.Equal(decimal.RequireFromString("69.5")))
	assert.Greater(t, tx2.Seq, tx1.Seq)

	assertLedgerConsistent(t, s, k)
}

func TestLedgerStore_SalidaInsuficienteNoModificaEstado(t *testing.T) {
	s := memory.NewLedgerStore(time.Second)
	ctx := context.Background()
	k := key("M001")
	_, err := s.ApplyDelta(ctx, in(k, "10", "l1"))
	require.NoError(t, err)

	_, err = s.ApplyDelta(ctx, out(k, "11", "l2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, domain.InvariantNonNegative, de.Invariant)
	require.Len(t, de.Violations, 1)
	assert.Equal(t, "l2", de.Violations[0].LineID)

	rec, _ := s.Get(ctx, k)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(10)))
	txs, _ := s.Transactions(ctx, k, entity.TimeRange{})
	assert.Len(t, txs, 1)
}

func TestLedgerStore_LoteAtomicoReportaTodasLasLineas(t *testing.T) {
	s := memory.NewLedgerStore(time.Second)
	ctx := context.Background()
	a, b, c := key("M001"), key("M002"), key("M003")
	_, err := s.ApplyBatch(ctx, []entity.Posting{in(a, "5", "s1"), in(b, "5", "s2"), in(c, "5", "s3")})
	require.NoError(t, err)

	_, err = s.ApplyBatch(ctx, []entity.Posting{out(a, "2", "x1"), out(b, "6", "x2"), out(c, "9", "x3")})
	require.Error(t, err)
	de, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Len(t, de.Violations, 2)

	for _, k := range []entity.InventoryKey{a, b, c} {
		rec, _ := s.Get(ctx, k)
		assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(5)), "clave %s no debe cambiar", k)
	}
	all, _ := s.AllTransactions(ctx, entity.TimeRange{})
	assert.Len(t, all, 3)
}

func TestLedgerStore_MismaClaveDosVecesEnLote(t *testing.T) {
	s := memory.NewLedgerStore(time.Second)
	ctx := context.Background()
	k := key("M001")
	_, err := s.ApplyDelta(ctx, in(k, "10", "s1"))
	require.NoError(t, err)

	// 6 + 6 > 10 aunque cada línea por separado cabría.
	_, err = s.ApplyBatch(ctx, []entity.Posting{out(k, "6", "x1"), out(k, "6", "x2")})
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	txs, err := s.ApplyBatch(ctx, []entity.Posting{out(k, "6", "y1"), out(k, "4", "y2")})
	require.NoError(t, err)
	assert.True(t, txs[1].BeforeQuantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, txs[1].AfterQuantity.IsZero())
	assertLedgerConsistent(t, s, k)
}

func TestLedgerStore_ReintentoDevuelveTransaccionesOriginales(t *testing.T) {
	s := memory.NewLedgerStore(time.Second)
	ctx := context.Background()
	k := key("M001")
	batch := []entity.Posting{in(k, "10", "o1:l1"), in(k, "5", "o1:l2")}

	first, err := s.ApplyBatch(ctx, batch)
	require.NoError(t, err)
	again, err := s.ApplyBatch(ctx, batch)
	require.NoError(t, err)

	require.Len(t, again, 2)
	assert.Equal(t, first[0].ID, again[0].ID)
	assert.Equal(t, first[1].ID, again[1].ID)
	rec, _ := s.Get(ctx, k)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(15)))
}

func TestLedgerStore_LoteParcialmentePosteadoEsConflicto(t *testing.T) {
	s := memory.NewLedgerStore(time.Second)
	ctx := context.Background()
	k := key("M001")
	_, err := s.ApplyDelta(ctx, in(k, "10", "o1:l1"))
	require.NoError(t, err)

	_, err = s.ApplyBatch(ctx, []entity.Posting{in(k, "10", "o1:l1"), in(k, "3", "o1:l2")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConcurrencyConflict))
	de, _ := domain.AsError(err)
	assert.Equal(t, domain.InvariantSinglePosting, de.Invariant)
}

func TestLedgerStore_PosteoInvalido(t *testing.T) {
	s := memory.NewLedgerStore(time.Second)
	ctx := context.Background()

	_, err := s.ApplyBatch(ctx, nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	incomplete := entity.InventoryKey{MaterialCode: "M001", WarehouseID: "W01"}
	_, err = s.ApplyDelta(ctx, in(incomplete, "1", "l1"))
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = s.ApplyDelta(ctx, in(key("M001"), "0", "l2"))
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = s.ApplyBatch(ctx, []entity.Posting{in(key("M001"), "1", "dup"), in(key("M002"), "1", "dup")})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestLedgerStore_SeparadorEnClaveRechazado(t *testing.T) {
	s := memory.NewLedgerStore(time.Second)
	ctx := context.Background()
	joined := entity.InventoryKey{MaterialCode: "A|B", WarehouseID: "W", LocationCode: "L", BatchID: "1"}
	shifted := entity.InventoryKey{MaterialCode: "A", WarehouseID: "B|W", LocationCode: "L", BatchID: "1"}
	require.Equal(t, joined.String(), shifted.String())

	_, err := s.ApplyDelta(ctx, in(joined, "10", "l1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	de, ok := domain.AsError(err)
	require.True(t, ok)
	require.Len(t, de.Violations, 1)
	assert.Contains(t, de.Violations[0].Detail, entity.KeySeparator)

	rec, err := s.Get(ctx, shifted)
	require.NoError(t, err)
	assert.True(t, rec.Quantity.IsZero())
	snap, _ := s.Snapshot(ctx, entity.InventoryFilter{})
	assert.Empty(t, snap)
}

func TestLedgerStore_ClavesDistintasNoCompartenRegistro(t *testing.T) {
	s := memory.NewLedgerStore(time.Second)
	ctx := context.Background()
	a := entity.InventoryKey{MaterialCode: "M1", WarehouseID: "W01", LocationCode: "A-01", BatchID: "B1"}
	b := entity.InventoryKey{MaterialCode: "M10", WarehouseID: "W01", LocationCode: "A-01", BatchID: "B1"}
	_, err := s.ApplyBatch(ctx, []entity.Posting{in(a, "4", "l1"), in(b, "6", "l2")})
	require.NoError(t, err)

	ra, _ := s.Get(ctx, a)
	rb, _ := s.Get(ctx, b)
	assert.True(t, ra.Quantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, rb.Quantity.Equal(decimal.NewFromInt(6)))

	snap, _ := s.Snapshot(ctx, entity.InventoryFilter{})
	require.Len(t, snap, 2)
	assert.Equal(t, "M1", snap[0].Key.MaterialCode)
	assertLedgerConsistent(t, s, a)
	assertLedgerConsistent(t, s, b)
}

func TestLedgerStore_SnapshotFiltraYOrdena(t *testing.T) {
	s := memory.NewLedgerStore(time.Second)
	ctx := context.Background()
	other := entity.InventoryKey{MaterialCode: "M001", WarehouseID: "W02", LocationCode: "A-01", BatchID: "B1"}
	_, err := s.ApplyBatch(ctx, []entity.Posting{in(key("M002"), "1", "a"), in(key("M001"), "2", "b"), in(other, "3", "c")})
	require.NoError(t, err)

	recs, err := s.Snapshot(ctx, entity.InventoryFilter{WarehouseID: "W01"})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "M001", recs[0].Key.MaterialCode)
	assert.Equal(t, "M002", recs[1].Key.MaterialCode)

	recs, _ = s.Snapshot(ctx, entity.InventoryFilter{MaterialCodes: []string{"M001"}})
	assert.Len(t, recs, 2)
}

func TestLedgerStore_RangoDeTiempoYLimite(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := base
	s := memory.NewLedgerStore(time.Second).WithClock(func() time.Time { return clock })
	ctx := context.Background()
	k := key("M001")
	for i := 0; i < 4; i++ {
		clock = base.Add(time.Duration(i) * time.Hour)
		_, err := s.ApplyDelta(ctx, in(k, "1", fmt.Sprintf("l%d", i)))
		require.NoError(t, err)
	}

	from := base.Add(90 * time.Minute)
	txs, err := s.Transactions(ctx, k, entity.TimeRange{From: &from})
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	txs, _ = s.AllTransactions(ctx, entity.TimeRange{Limit: 3})
	assert.Len(t, txs, 3)
}

func TestLedgerStore_EntradasYSalidasConcurrentes(t *testing.T) {
	s := memory.NewLedgerStore(5 * time.Second)
	ctx := context.Background()
	k := key("M001")
	_, err := s.ApplyDelta(ctx, in(k, "50", "seed"))
	require.NoError(t, err)

	const n = 40
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		rejected int
	)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := s.ApplyDelta(ctx, in(k, "1", fmt.Sprintf("in-%d", i)))
			assert.NoError(t, err)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := s.ApplyDelta(ctx, out(k, "2", fmt.Sprintf("out-%d", i)))
			if err != nil {
				assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	rec, _ := s.Get(ctx, k)
	accepted := n - rejected
	expected := decimal.NewFromInt(int64(50 + n - 2*accepted))
	assert.True(t, rec.Quantity.Equal(expected), "cantidad %s, esperado %s", rec.Quantity, expected)
	assertLedgerConsistent(t, s, k)
}
