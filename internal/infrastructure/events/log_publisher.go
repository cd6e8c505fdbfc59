package events

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
)

var _ inventory.EventPublisher = (*LogPublisher)(nil)

// LogPublisher escribe cada evento como una línea de log estructurada (EVENTS_DRIVER=log).
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.Component("events")}
}

func (p *LogPublisher) Publish(_ context.Context, e entity.Event) error {
	ev := p.log.Info().
		Str("event_id", e.ID).
		Str("event_type", e.Type).
		Str("partition_key", e.PartitionKey()).
		Time("occurred_at", e.OccurredAt)
	if e.Task != nil {
		ev = ev.Str("task_kind", e.Task.Kind).Str("order_id", e.Task.OrderID).Str("order_code", e.Task.OrderCode).Str("status", e.Task.Status)
	}
	if e.LowStock != nil {
		ev = ev.Str("key", e.LowStock.Key.String()).Str("level", e.LowStock.Level).
			Str("quantity", e.LowStock.Quantity.String()).Str("suggested_order_qty", e.LowStock.SuggestedOrderQty.String())
	}
	ev.Msg("evento")
	return nil
}
