package events

import (
	"context"
	"errors"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

var _ inventory.EventPublisher = (Fanout)(nil)

// Fanout entrega el evento a todos los publishers y junta los errores.
type Fanout []inventory.EventPublisher

func (f Fanout) Publish(ctx context.Context, e entity.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
