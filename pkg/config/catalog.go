package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// CatalogSeed contenido del archivo CATALOG_FILE.
type CatalogSeed struct {
	Materials  []MaterialSeed  `mapstructure:"materials"`
	Warehouses []WarehouseSeed `mapstructure:"warehouses"`
}

// MaterialSeed material del maestro. SafetyStock va como texto para no perder precisión.
type MaterialSeed struct {
	Code               string `mapstructure:"code"`
	Name               string `mapstructure:"name"`
	Specification      string `mapstructure:"specification"`
	Unit               string `mapstructure:"unit"`
	Category           string `mapstructure:"category"`
	SafetyStock        string `mapstructure:"safety_stock"`
	InspectionRequired bool   `mapstructure:"inspection_required"`
}

// WarehouseSeed bodega con sus ubicaciones.
type WarehouseSeed struct {
	ID        string   `mapstructure:"id"`
	Name      string   `mapstructure:"name"`
	Locations []string `mapstructure:"locations"`
}

// LoadCatalog lee el catálogo inicial. El formato se deduce de la extensión (yaml, yml, json).
func LoadCatalog(path string) (*CatalogSeed, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("leer catálogo %s: %w", path, err)
	}
	var seed CatalogSeed
	if err := v.Unmarshal(&seed); err != nil {
		return nil, fmt.Errorf("decodificar catálogo %s: %w", path, err)
	}
	for i, m := range seed.Materials {
		if m.Code == "" {
			return nil, fmt.Errorf("catálogo %s: material %d sin código", path, i+1)
		}
	}
	for i, w := range seed.Warehouses {
		if w.ID == "" {
			return nil, fmt.Errorf("catálogo %s: bodega %d sin id", path, i+1)
		}
	}
	return &seed, nil
}
