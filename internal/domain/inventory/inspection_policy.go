package inventory

import (
	"strings"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// InspectionPolicy decide qué materiales pasan por control de calidad al ingresar.
type InspectionPolicy struct {
	categories map[string]struct{}
}

// NewInspectionPolicy construye la política con las categorías que siempre requieren inspección.
func NewInspectionPolicy(categories []string) InspectionPolicy {
	p := InspectionPolicy{categories: make(map[string]struct{}, len(categories))}
	for _, c := range categories {
		c = strings.TrimSpace(strings.ToLower(c))
		if c != "" {
			p.categories[c] = struct{}{}
		}
	}
	return p
}

// Requires indica si el material necesita inspección (flag propio o categoría configurada).
func (p InspectionPolicy) Requires(m *entity.Material) bool {
	if m == nil {
		return false
	}
	if m.InspectionRequired {
		return true
	}
	_, ok := p.categories[strings.ToLower(m.Category)]
	return ok
}
