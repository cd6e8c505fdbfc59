package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Store.LockTimeout)
	assert.Equal(t, "log", cfg.Events.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Empty(t, cfg.InspectionCategories)
}

func TestLoad_VariablesDeEntorno(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("STORE_LOCK_TIMEOUT", "250ms")
	t.Setenv("EVENTS_DRIVER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("INSPECTION_CATEGORIES", "quimicos,electronica")
	t.Setenv("DATABASE_URL", "postgres://x@db/ledger")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Store.LockTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.Equal(t, []string{"quimicos", "electronica"}, cfg.InspectionCategories)
	assert.Equal(t, "postgres://x@db/ledger", cfg.DB.ConnectionString())
}

func TestLoad_KafkaSinBrokersFalla(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EVENTS_DRIVER", "kafka")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "redis")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "h", Port: 5432, User: "u", Password: "p@ss/w", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%2Fw@h:5432/d?sslmode=disable", c.DSN())
}

func TestLoadCatalog_Yaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `materials:
  - code: M001
    name: Tornillo
    unit: und
    category: ferreteria
    safety_stock: "50"
  - code: M002
    name: Resina
    inspection_required: true
warehouses:
  - id: W01
    name: Principal
    locations: [A-01, A-02]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	seed, err := config.LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, seed.Materials, 2)
	assert.Equal(t, "50", seed.Materials[0].SafetyStock)
	assert.True(t, seed.Materials[1].InspectionRequired)
	require.Len(t, seed.Warehouses, 1)
	assert.Equal(t, []string{"A-01", "A-02"}, seed.Warehouses[0].Locations)
}

func TestLoadCatalog_MaterialSinCodigo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"materials":[{"name":"x"}]}`), 0o600))
	_, err := config.LoadCatalog(path)
	assert.Error(t, err)
}
