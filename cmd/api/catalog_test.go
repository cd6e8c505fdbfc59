package main

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
)

func TestSeedCatalog_CargaMaterialesYBodegas(t *testing.T) {
	ctx := context.Background()
	cat := memory.NewCatalog()
	seed := &config.CatalogSeed{
		Materials:  []config.MaterialSeed{{Code: "M001", Name: "Acero", SafetyStock: "12.5"}, {Code: "M002", Name: "Resina"}},
		Warehouses: []config.WarehouseSeed{{ID: "W01", Name: "Principal", Locations: []string{"A-01"}}},
	}
	require.NoError(t, seedCatalog(ctx, cat, seed))
	require.NoError(t, seedCatalog(ctx, cat, seed), "repetir la siembra no falla")

	m, err := cat.GetMaterial(ctx, "M001")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.SafetyStock.Equal(decimal.RequireFromString("12.5")))
	assert.NotEmpty(t, m.ID)

	other, _ := cat.GetMaterial(ctx, "M002")
	assert.True(t, other.SafetyStock.IsZero())

	w, err := cat.GetWarehouse(ctx, "W01")
	require.NoError(t, err)
	assert.True(t, w.HasLocation("A-01"))
}

func TestSeedCatalog_SafetyStockInvalido(t *testing.T) {
	err := seedCatalog(context.Background(), memory.NewCatalog(), &config.CatalogSeed{
		Materials: []config.MaterialSeed{{Code: "M001", SafetyStock: "mucho"}},
	})
	assert.Error(t, err)
}

func TestSeedCatalog_SeparadorDeClaveRechazado(t *testing.T) {
	cases := map[string]*config.CatalogSeed{
		"material":  {Materials: []config.MaterialSeed{{Code: "M|1"}}},
		"bodega":    {Warehouses: []config.WarehouseSeed{{ID: "W|1"}}},
		"ubicación": {Warehouses: []config.WarehouseSeed{{ID: "W01", Locations: []string{"A|01"}}}},
	}
	for name, seed := range cases {
		t.Run(name, func(t *testing.T) {
			cat := memory.NewCatalog()
			assert.Error(t, seedCatalog(context.Background(), cat, seed))
			list, _ := cat.ListMaterials(context.Background())
			assert.Empty(t, list)
		})
	}
}
