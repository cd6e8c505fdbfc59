//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
)

// Ejecutar con: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/infrastructure/postgres/
// Cada test usa una bodega propia, así no depende del contenido previo de la base.

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func newStore(t *testing.T) (*postgres.LedgerStore, string) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	return postgres.NewLedgerStore(pool, 2*time.Second), "W-" + uuid.NewString()[:8]
}

func pgKey(warehouse, material string) entity.InventoryKey {
	return entity.InventoryKey{MaterialCode: material, WarehouseID: warehouse, LocationCode: "A-01", BatchID: "B1"}
}

func posting(k entity.InventoryKey, delta string, ref string) entity.Posting {
	kind := entity.KindPurchaseReceipt
	if decimal.RequireFromString(delta).IsNegative() {
		kind = entity.KindSalesIssue
	}
	return entity.Posting{Key: k, Delta: decimal.RequireFromString(delta), Kind: kind, RelatedOrderID: "o1", LineRef: ref, Actor: "tester"}
}

func assertChained(t *testing.T, s *postgres.LedgerStore, k entity.InventoryKey) {
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
	}
	assert.True(t, rec.Quantity.Equal(sum), "registro %s, suma del ledger %s", rec.Quantity, sum)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestPostgresLedgerStore_EntradaYSalidaEncadenan(t *testing.T) {
	s, w := newStore(t)
	ctx := context.Background()
	k := pgKey(w, "M001")

	_, err := s.ApplyDelta(ctx, posting(k, "10", w+"/l1"))
	require.NoError(t, err)
	tx, err := s.ApplyDelta(ctx, posting(k, "-4", w+"/l2"))
	require.NoError(t, err)
	assert.True(t, tx.BeforeQuantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, tx.AfterQuantity.Equal(decimal.NewFromInt(6)))
	assertChained(t, s, k)
}

func TestPostgresLedgerStore_LoteAtomico(t *testing.T) {
	s, w := newStore(t)
	ctx := context.Background()
	a, b := pgKey(w, "M001"), pgKey(w, "M002")
	_, err := s.ApplyBatch(ctx, []entity.Posting{posting(a, "5", w+"/in-a"), posting(b, "1", w+"/in-b")})
	require.NoError(t, err)

	_, err = s.ApplyBatch(ctx, []entity.Posting{posting(a, "-2", w+"/out-a"), posting(b, "-3", w+"/out-b")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	de, _ := domain.AsError(err)
	require.Len(t, de.Violations, 1)
	assert.Equal(t, w+"/out-b", de.Violations[0].LineID)

	ra, _ := s.Get(ctx, a)
	assert.True(t, ra.Quantity.Equal(decimal.NewFromInt(5)), "la línea válida tampoco se postea")
	txs, _ := s.Transactions(ctx, a, entity.TimeRange{})
	assert.Len(t, txs, 1)
}

func TestPostgresLedgerStore_ReintentoDevuelveTransaccionesOriginales(t *testing.T) {
	s, w := newStore(t)
	ctx := context.Background()
	batch := []entity.Posting{posting(pgKey(w, "M001"), "3", w+"/l1"), posting(pgKey(w, "M002"), "4", w+"/l2")}

	first, err := s.ApplyBatch(ctx, batch)
	require.NoError(t, err)
	again, err := s.ApplyBatch(ctx, batch)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, first[0].ID, again[0].ID)
	assert.Equal(t, first[1].ID, again[1].ID)

	rec, _ := s.Get(ctx, pgKey(w, "M001"))
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(3)))
}

func TestPostgresLedgerStore_LoteParcialmentePosteadoEsConflicto(t *testing.T) {
	s, w := newStore(t)
	ctx := context.Background()
	_, err := s.ApplyDelta(ctx, posting(pgKey(w, "M001"), "3", w+"/l1"))
	require.NoError(t, err)

	_, err = s.ApplyBatch(ctx, []entity.Posting{posting(pgKey(w, "M001"), "3", w+"/l1"), posting(pgKey(w, "M002"), "1", w+"/l2")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConcurrencyConflict))
	de, _ := domain.AsError(err)
	assert.Equal(t, domain.InvariantSinglePosting, de.Invariant)

	rec, _ := s.Get(ctx, pgKey(w, "M002"))
	assert.True(t, rec.Quantity.IsZero())
}

func TestPostgresLedgerStore_SeparadorEnClaveRechazado(t *testing.T) {
	s, w := newStore(t)
	ctx := context.Background()
	k := entity.InventoryKey{MaterialCode: "A|B", WarehouseID: w, LocationCode: "L", BatchID: "1"}
	_, err := s.ApplyDelta(ctx, posting(k, "10", w+"/l1"))
	assert.True(t, errors.Is(err, domain.ErrValidation))

	recs, err := s.Snapshot(ctx, entity.InventoryFilter{WarehouseID: w})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestPostgresLedgerStore_EntradasYSalidasConcurrentes(t *testing.T) {
	s, w := newStore(t)
	ctx := context.Background()
	k := pgKey(w, "M001")
	_, err := s.ApplyDelta(ctx, posting(k, "20", w+"/seed"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = s.ApplyDelta(ctx, posting(k, "1", fmt.Sprintf("%s/in-%d", w, i)))
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := s.ApplyDelta(ctx, posting(k, "-2", fmt.Sprintf("%s/out-%d", w, i)))
			if err != nil {
				assert.True(t, errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrConcurrencyConflict), "error inesperado: %v", err)
			}
		}(i)
	}
	wg.Wait()

	rec, err := s.Get(ctx, k)
	require.NoError(t, err)
	assert.False(t, rec.Quantity.IsNegative())
	assertChained(t, s, k)
}
