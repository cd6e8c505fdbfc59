package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/pkg/keylock"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
)

// OrderLineInput línea de un pedido nuevo.
type OrderLineInput struct {
	MaterialCode string
	LocationCode string
	BatchID      string
	Quantity     decimal.Decimal
}

// CreateOrderInput entrada para crear un pedido de entrada o salida.
// Reference es el origen (entrada) o el destino (salida). Submit=true lo envía a aprobación de una vez.
type CreateOrderInput struct {
	Type        string
	WarehouseID string
	Reference   entity.OrderReference
	Lines       []OrderLineInput
	Remarks     string
	Actor       string
	Submit      bool
}

// OrderEngine máquina de estados de pedidos, parametrizada por dirección:
// la entrada postea +cantidad y la salida -cantidad. El resto del flujo es común.
type OrderEngine struct {
	deps      Dependencies
	direction string
	prefix    string
	locks     *keylock.Locker
	alerts    *Alerting
	log       *logger.Logger
}

// NewInboundOrderEngine motor de pedidos de entrada (compras, producción, maquila, devoluciones).
func NewInboundOrderEngine(deps Dependencies, alerts *Alerting) *OrderEngine {
	return newOrderEngine(deps, alerts, entity.DirectionIn, "IN")
}

// NewOutboundOrderEngine motor de pedidos de salida (ventas, consumo, maquila, desecho).
func NewOutboundOrderEngine(deps Dependencies, alerts *Alerting) *OrderEngine {
	return newOrderEngine(deps, alerts, entity.DirectionOut, "OUT")
}

func newOrderEngine(deps Dependencies, alerts *Alerting, direction, prefix string) *OrderEngine {
	return &OrderEngine{
		deps:      deps,
		direction: direction,
		prefix:    prefix,
		locks:     deps.locker(),
		alerts:    alerts,
		log:       deps.log("order_engine." + direction),
	}
}

// Direction devuelve in u out.
func (e *OrderEngine) Direction() string { return e.direction }

// Create valida y guarda el pedido en Draft (o PendingApproval si in.Submit).
func (e *OrderEngine) Create(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	orderType := in.Type
	if orderType == "" {
		orderType = inventory.DefaultOrderType(e.direction)
	}
	if _, ok := inventory.TransactionKind(orderType, e.direction); !ok {
		return nil, domain.Validation(fmt.Sprintf("tipo de pedido %q no válido para dirección %s", orderType, e.direction))
	}
	if strings.TrimSpace(in.WarehouseID) == "" {
		return nil, domain.Validation("bodega requerida")
	}
	warehouse, err := e.deps.Catalog.GetWarehouse(ctx, in.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("consultar bodega: %w", err)
	}
	if warehouse == nil {
		return nil, domain.Validation(fmt.Sprintf("bodega %s no existe", in.WarehouseID))
	}
	if len(in.Lines) == 0 {
		return nil, domain.Validation("el pedido debe tener al menos una línea")
	}

	var violations []domain.Violation
	lines := make([]entity.OrderLine, 0, len(in.Lines))
	for i, li := range in.Lines {
		pos := fmt.Sprintf("%d", i+1)
		if !li.Quantity.IsPositive() {
			violations = append(violations, domain.Violation{LineID: pos, Detail: "la cantidad debe ser mayor que cero"})
		}
		if strings.TrimSpace(li.BatchID) == "" {
			violations = append(violations, domain.Violation{LineID: pos, Detail: "lote requerido"})
		}
		if !warehouse.HasLocation(li.LocationCode) {
			violations = append(violations, domain.Violation{LineID: pos, Detail: fmt.Sprintf("ubicación %q no pertenece a la bodega %s", li.LocationCode, warehouse.ID)})
		}
		if k := (entity.InventoryKey{MaterialCode: li.MaterialCode, WarehouseID: warehouse.ID, LocationCode: li.LocationCode, BatchID: li.BatchID}); k.HasSeparator() {
			violations = append(violations, domain.Violation{LineID: pos, Key: k.String(), Detail: "material, ubicación y lote no pueden contener " + entity.KeySeparator})
		}
		material, err := e.deps.Catalog.GetMaterial(ctx, li.MaterialCode)
		if err != nil {
			return nil, fmt.Errorf("consultar material: %w", err)
		}
		if material == nil {
			violations = append(violations, domain.Violation{LineID: pos, Detail: fmt.Sprintf("material %q no existe", li.MaterialCode)})
			continue
		}
		lines = append(lines, entity.OrderLine{
			ID:                 uuid.New().String(),
			MaterialCode:       material.Code,
			LocationCode:       li.LocationCode,
			BatchID:            li.BatchID,
			Quantity:           li.Quantity,
			InspectionRequired: e.direction == entity.DirectionIn && e.deps.Policy.Requires(material),
			PostedQuantity:     decimal.Zero,
		})
	}
	if len(violations) > 0 {
		return nil, domain.Validation("pedido inválido", violations...)
	}

	code, err := e.deps.Orders.NextCode(ctx, e.prefix)
	if err != nil {
		return nil, fmt.Errorf("generar código: %w", err)
	}
	now := e.deps.now()
	order := &entity.Order{
		ID:          uuid.New().String(),
		Code:        code,
		Direction:   e.direction,
		Type:        orderType,
		WarehouseID: warehouse.ID,
		Reference:   in.Reference,
		Status:      entity.OrderStatusDraft,
		Lines:       lines,
		Remarks:     in.Remarks,
		CreatedBy:   in.Actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Submit {
		order.Status = entity.OrderStatusPendingApproval
		order.SubmittedAt = &now
	}
	if err := e.deps.Orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("guardar pedido: %w", err)
	}

	e.log.Info().Str("order_id", order.ID).Str("code", order.Code).Str("status", order.Status).Int("lines", len(lines)).Msg("pedido creado")
	if in.Submit {
		e.publishTask(ctx, entity.EventTaskCreated, entity.TaskKindApproval, order, in.Actor)
	}
	return order, nil
}

// Get devuelve el pedido o ErrNotFound.
func (e *OrderEngine) Get(ctx context.Context, id string) (*entity.Order, error) {
	return e.load(ctx, id)
}

// List lista pedidos de la dirección del motor.
func (e *OrderEngine) List(ctx context.Context, filter entity.OrderFilter) ([]*entity.Order, error) {
	filter.Direction = e.direction
	return e.deps.Orders.List(ctx, filter)
}

// Submit Draft -> PendingApproval.
func (e *OrderEngine) Submit(ctx context.Context, id, actor string) (*entity.Order, error) {
	o, err := e.transition(ctx, id, inventory.ActionSubmit, func(o *entity.Order) error {
		if len(o.Lines) == 0 {
			return domain.Validation("el pedido debe tener al menos una línea")
		}
		now := e.deps.now()
		o.Status = entity.OrderStatusPendingApproval
		o.SubmittedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publishTask(ctx, entity.EventTaskCreated, entity.TaskKindApproval, o, actor)
	return o, nil
}

// Approve PendingApproval -> Approved.
func (e *OrderEngine) Approve(ctx context.Context, id, actor string) (*entity.Order, error) {
	o, err := e.transition(ctx, id, inventory.ActionApprove, func(o *entity.Order) error {
		now := e.deps.now()
		o.Status = entity.OrderStatusApproved
		o.ApprovedBy = actor
		o.ApprovedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publishTask(ctx, entity.EventTaskResolved, entity.TaskKindApproval, o, actor)
	return o, nil
}

// Reject termina el pedido sin postear. Requiere motivo.
func (e *OrderEngine) Reject(ctx context.Context, id, actor, reason string) (*entity.Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, domain.Validation("motivo de rechazo requerido")
	}
	var pendingTask string
	o, err := e.transition(ctx, id, inventory.ActionReject, func(o *entity.Order) error {
		pendingTask = openTask(o.Status)
		now := e.deps.now()
		o.Status = entity.OrderStatusRejected
		o.RejectedBy = actor
		o.RejectedAt = &now
		o.RejectReason = reason
		return nil
	})
	if err != nil {
		return nil, err
	}
	if pendingTask != "" {
		e.publishTask(ctx, entity.EventTaskResolved, pendingTask, o, actor)
	}
	return o, nil
}

// Cancel termina el pedido mientras no haya posteado nada.
func (e *OrderEngine) Cancel(ctx context.Context, id, actor string) (*entity.Order, error) {
	var pendingTask string
	o, err := e.transition(ctx, id, inventory.ActionCancel, func(o *entity.Order) error {
		pendingTask = openTask(o.Status)
		now := e.deps.now()
		o.Status = entity.OrderStatusCancelled
		o.CancelledBy = actor
		o.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if pendingTask != "" {
		e.publishTask(ctx, entity.EventTaskResolved, pendingTask, o, actor)
	}
	return o, nil
}

// Receive registra la llegada física: Approved -> PendingInspection.
// Solo entradas con al menos una línea que requiera inspección.
func (e *OrderEngine) Receive(ctx context.Context, id, actor string) (*entity.Order, error) {
	if e.direction != entity.DirectionIn {
		return nil, domain.InvalidTransition("solo los pedidos de entrada pasan por inspección")
	}
	o, err := e.transition(ctx, id, inventory.ActionReceive, func(o *entity.Order) error {
		if !o.RequiresInspection() {
			return domain.InvalidTransition("ninguna línea requiere inspección; complete el pedido directamente")
		}
		now := e.deps.now()
		o.Status = entity.OrderStatusPendingInspection
		o.ReceivedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publishTask(ctx, entity.EventTaskCreated, entity.TaskKindInspection, o, actor)
	return o, nil
}

// Complete postea el pedido al ledger en un único lote atómico.
// Un pedido ya completado se devuelve tal cual; si falla el posteo el estado no cambia.
// Los eventos se publican con el lock ya liberado: un broker lento no bloquea reintentos.
func (e *OrderEngine) Complete(ctx context.Context, id, actor string) (*entity.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderEngine.Complete", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("order.direction", e.direction),
	))
	defer span.End()

	unlock, err := e.lock(ctx, id)
	if err != nil {
		return nil, spanError(span, err)
	}
	o, completed, err := e.complete(ctx, span, id, actor)
	unlock()
	if err != nil {
		return nil, spanError(span, err)
	}
	if !completed {
		span.SetAttributes(attribute.Bool("order.replayed", true))
		return o, nil
	}
	span.SetStatus(codes.Ok, "")

	e.publishTask(ctx, entity.EventTaskResolved, entity.TaskKindCompletion, o, actor)
	if e.alerts != nil {
		e.alerts.Notify(ctx, o.WarehouseID, materialCodes(o))
	}
	return o, nil
}

// complete corre bajo el lock del pedido. completed=false si ya estaba completado.
func (e *OrderEngine) complete(ctx context.Context, span trace.Span, id, actor string) (*entity.Order, bool, error) {
	o, err := e.load(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if o.Status == entity.OrderStatusCompleted {
		return o, false, nil
	}
	if !inventory.CanTransition(inventory.ActionComplete, o.Status) {
		return nil, false, domain.InvalidTransition(fmt.Sprintf("no se puede completar un pedido en estado %s", o.Status))
	}
	if e.direction == entity.DirectionIn && o.Status == entity.OrderStatusApproved && o.RequiresInspection() {
		return nil, false, &domain.Error{
			Err:       domain.ErrInvalidStateTransition,
			Invariant: domain.InvariantInspection,
			Message:   "el pedido tiene líneas pendientes de inspección",
		}
	}

	postings, err := e.postings(ctx, o, actor)
	if err != nil {
		return nil, false, err
	}
	span.SetAttributes(attribute.Int("ledger.postings", len(postings)))

	var txs []entity.LedgerTransaction
	if len(postings) > 0 {
		txs, err = e.deps.Store.ApplyBatch(ctx, postings)
		if err != nil {
			e.log.Warn().Err(err).Str("order_id", o.ID).Msg("posteo rechazado")
			return nil, false, err
		}
	}

	posted := make(map[string]decimal.Decimal, len(txs))
	for _, tx := range txs {
		posted[tx.LineRef] = tx.Delta.Abs()
	}
	for i := range o.Lines {
		if q, ok := posted[lineRef(o, &o.Lines[i])]; ok {
			o.Lines[i].PostedQuantity = q
		}
	}
	now := e.deps.now()
	o.Status = entity.OrderStatusCompleted
	o.CompletedBy = actor
	o.CompletedAt = &now
	o.UpdatedAt = now
	o.TransactionIDs = o.TransactionIDs[:0]
	for _, tx := range txs {
		o.TransactionIDs = append(o.TransactionIDs, tx.ID)
	}
	// Si esto falla, reintentar Complete recupera las transacciones ya posteadas sin duplicarlas.
	if err := e.deps.Orders.Update(ctx, o); err != nil {
		return nil, false, fmt.Errorf("guardar pedido completado: %w", err)
	}
	e.log.Info().Str("order_id", o.ID).Str("code", o.Code).Int("transactions", len(txs)).Msg("pedido completado")
	return o, true, nil
}

// postings construye un posteo por línea. En entradas inspeccionadas solo entra lo calificado;
// las líneas con cantidad efectiva cero no generan transacción.
func (e *OrderEngine) postings(ctx context.Context, o *entity.Order, actor string) ([]entity.Posting, error) {
	kind, ok := inventory.TransactionKind(o.Type, o.Direction)
	if !ok {
		return nil, domain.Validation(fmt.Sprintf("tipo de pedido %q no válido", o.Type))
	}
	warehouse, err := e.deps.Catalog.GetWarehouse(ctx, o.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("consultar bodega: %w", err)
	}
	if warehouse == nil {
		return nil, domain.Validation(fmt.Sprintf("bodega %s no existe", o.WarehouseID))
	}

	var violations []domain.Violation
	postings := make([]entity.Posting, 0, len(o.Lines))
	for i := range o.Lines {
		l := &o.Lines[i]
		if !warehouse.HasLocation(l.LocationCode) {
			violations = append(violations, domain.Violation{LineID: l.ID, Detail: fmt.Sprintf("ubicación %q no pertenece a la bodega %s", l.LocationCode, warehouse.ID)})
			continue
		}
		qty := l.Quantity
		if o.Direction == entity.DirectionIn && l.InspectionRequired {
			if l.Inspection == nil {
				violations = append(violations, domain.Violation{LineID: l.ID, Detail: "línea sin resultado de inspección"})
				continue
			}
			qty = l.Inspection.QualifiedQuantity
		}
		if qty.IsZero() {
			continue
		}
		if o.Direction == entity.DirectionOut {
			qty = qty.Neg()
		}
		postings = append(postings, entity.Posting{
			Key:            l.Key(o.WarehouseID),
			Delta:          qty,
			Kind:           kind,
			RelatedOrderID: o.ID,
			LineRef:        lineRef(o, l),
			Actor:          actor,
		})
	}
	if len(violations) > 0 {
		return nil, domain.Validation("el pedido no se puede postear", violations...)
	}
	return postings, nil
}

// transition ejecuta una acción bajo el lock del pedido, verificando la tabla de transiciones.
func (e *OrderEngine) transition(ctx context.Context, id, action string, apply func(o *entity.Order) error) (*entity.Order, error) {
	unlock, err := e.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	o, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inventory.CanTransition(action, o.Status) {
		return nil, domain.InvalidTransition(fmt.Sprintf("%s no permitido en estado %s", action, o.Status))
	}
	from := o.Status
	if err := apply(o); err != nil {
		return nil, err
	}
	o.UpdatedAt = e.deps.now()
	if err := e.deps.Orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("guardar pedido: %w", err)
	}
	e.log.Info().Str("order_id", o.ID).Str("action", action).Str("from", from).Str("to", o.Status).Msg("transición de pedido")
	return o, nil
}

func (e *OrderEngine) lock(ctx context.Context, id string) (func(), error) {
	unlock, err := e.locks.Lock(ctx, "order:"+id)
	if err != nil {
		return nil, lockError(err, "pedido "+id+" ocupado por otra operación")
	}
	return unlock, nil
}

func (e *OrderEngine) load(ctx context.Context, id string) (*entity.Order, error) {
	o, err := e.deps.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar pedido: %w", err)
	}
	if o == nil || o.Direction != e.direction {
		return nil, domain.NotFound(fmt.Sprintf("pedido %s", id))
	}
	return o, nil
}

func (e *OrderEngine) publishTask(ctx context.Context, eventType, kind string, o *entity.Order, actor string) {
	publish(ctx, e.deps.Events, e.log, entity.Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: e.deps.now(),
		Task: &entity.TaskEvent{
			Kind:      kind,
			OrderID:   o.ID,
			OrderCode: o.Code,
			Direction: o.Direction,
			Status:    o.Status,
			Actor:     actor,
		},
	})
}

// openTask devuelve la tarea abierta en un estado (aprobación o inspección), si hay.
func openTask(status string) string {
	switch status {
	case entity.OrderStatusPendingApproval:
		return entity.TaskKindApproval
	case entity.OrderStatusPendingInspection:
		return entity.TaskKindInspection
	}
	return ""
}

func lineRef(o *entity.Order, l *entity.OrderLine) string {
	return o.ID + "/" + l.ID
}

func materialCodes(o *entity.Order) []string {
	seen := make(map[string]struct{}, len(o.Lines))
	out := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		if _, ok := seen[l.MaterialCode]; ok {
			continue
		}
		seen[l.MaterialCode] = struct{}{}
		out = append(out, l.MaterialCode)
	}
	return out
}

// publish envía el evento; un fallo solo se registra.
func publish(ctx context.Context, p EventPublisher, log *logger.Logger, evt entity.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, evt); err != nil {
		log.Error().Err(err).Str("event_type", evt.Type).Str("event_id", evt.ID).Msg("no se pudo publicar evento")
	}
}

func lockError(err error, msg string) error {
	if errors.Is(err, keylock.ErrTimeout) {
		return domain.ConcurrencyConflict(msg)
	}
	return err
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
