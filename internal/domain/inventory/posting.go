package inventory

import (
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// ValidatePostings verifica la forma de un lote antes de tocar el store:
// clave completa y sin separador, delta distinto de cero, tipo informado y line_ref única dentro del lote.
func ValidatePostings(postings []entity.Posting) error {
	if len(postings) == 0 {
		return domain.Validation("lote de posteo vacío")
	}
	var violations []domain.Violation
	refs := make(map[string]struct{}, len(postings))
	for _, p := range postings {
		switch {
		case !p.Key.Complete():
			violations = append(violations, domain.Violation{LineID: p.LineRef, Key: p.Key.String(), Detail: "clave de inventario incompleta"})
		case p.Key.HasSeparator():
			violations = append(violations, domain.Violation{LineID: p.LineRef, Key: p.Key.String(), Detail: "componente de clave contiene " + entity.KeySeparator})
		case p.Delta.IsZero():
			violations = append(violations, domain.Violation{LineID: p.LineRef, Key: p.Key.String(), Detail: "delta cero"})
		case p.Kind == "":
			violations = append(violations, domain.Violation{LineID: p.LineRef, Key: p.Key.String(), Detail: "tipo de transacción requerido"})
		}
		if p.LineRef != "" {
			if _, dup := refs[p.LineRef]; dup {
				violations = append(violations, domain.Violation{LineID: p.LineRef, Detail: "referencia de línea duplicada en el lote"})
			}
			refs[p.LineRef] = struct{}{}
		}
	}
	if len(violations) > 0 {
		return domain.Validation("posteo inválido", violations...)
	}
	return nil
}
