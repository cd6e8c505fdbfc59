package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/pkg/keylock"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
	"go.opentelemetry.io/otel"
)

const tracerName = "github.com/jhoicas/Inventario-ledger/internal/application/inventory"

var tracer = otel.Tracer(tracerName)

// EventPublisher emite eventos hacia Compras y Tareas. Un fallo al publicar nunca revierte un posteo.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.Event) error
}

// Dependencies agrupa lo que necesitan los motores. Se construye una vez por proceso (o por test).
type Dependencies struct {
	Store   repository.LedgerStore
	Orders  repository.OrderRepository
	Checks  repository.StockCheckRepository
	Catalog repository.MaterialCatalog
	Events  EventPublisher
	Policy  inventory.InspectionPolicy
	Logger  *logger.Logger

	// LockTimeout acota la espera por el lock de un pedido o conteo.
	LockTimeout time.Duration
	// Clock reemplaza time.Now (tests).
	Clock func() time.Time
}

func (d Dependencies) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now()
}

func (d Dependencies) log(component string) *logger.Logger {
	if d.Logger == nil {
		return logger.Nop()
	}
	return d.Logger.Component(component)
}

func (d Dependencies) locker() *keylock.Locker {
	t := d.LockTimeout
	if t <= 0 {
		t = 5 * time.Second
	}
	return keylock.New(t)
}
