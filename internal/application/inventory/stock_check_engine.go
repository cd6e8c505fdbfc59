package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/pkg/keylock"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
)

// CreateStockCheckInput entrada para programar un conteo físico.
type CreateStockCheckInput struct {
	WarehouseID   string
	Type          string
	ScheduledDate time.Time
	Manager       string
	Scope         entity.StockCheckScope
	Actor         string
}

// RecordCountInput conteo de un ítem.
type RecordCountInput struct {
	CheckID string
	ItemID  string
	Actual  decimal.Decimal
	Remarks string
	Actor   string
}

// StockCheckEngine concilia el stock contado con el del sistema.
type StockCheckEngine struct {
	deps   Dependencies
	locks  *keylock.Locker
	alerts *Alerting
	log    *logger.Logger
}

// NewStockCheckEngine construye el motor de conteos.
func NewStockCheckEngine(deps Dependencies, alerts *Alerting) *StockCheckEngine {
	return &StockCheckEngine{
		deps:   deps,
		locks:  deps.locker(),
		alerts: alerts,
		log:    deps.log("stock_check_engine"),
	}
}

var stockCheckTypes = map[string]bool{
	entity.StockCheckTypeFull:      true,
	entity.StockCheckTypeSampling:  true,
	entity.StockCheckTypeTemporary: true,
	entity.StockCheckTypeMonthEnd:  true,
}

// Create programa un conteo en estado Pending.
func (e *StockCheckEngine) Create(ctx context.Context, in CreateStockCheckInput) (*entity.StockCheck, error) {
	checkType := in.Type
	if checkType == "" {
		checkType = entity.StockCheckTypeFull
	}
	if !stockCheckTypes[checkType] {
		return nil, domain.Validation(fmt.Sprintf("tipo de conteo %q no válido", checkType))
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
	var violations []domain.Violation
	for _, loc := range in.Scope.LocationCodes {
		if !warehouse.HasLocation(loc) {
			violations = append(violations, domain.Violation{Detail: fmt.Sprintf("ubicación %q no pertenece a la bodega %s", loc, warehouse.ID)})
		}
	}
	if len(violations) > 0 {
		return nil, domain.Validation("alcance de conteo inválido", violations...)
	}

	code, err := e.deps.Checks.NextCode(ctx, "SC")
	if err != nil {
		return nil, fmt.Errorf("generar código: %w", err)
	}
	now := e.deps.now()
	scheduled := in.ScheduledDate
	if scheduled.IsZero() {
		scheduled = now
	}
	check := &entity.StockCheck{
		ID:            uuid.New().String(),
		Code:          code,
		WarehouseID:   warehouse.ID,
		Type:          checkType,
		ScheduledDate: scheduled,
		Manager:       in.Manager,
		Scope:         in.Scope,
		Status:        entity.StockCheckStatusPending,
		CreatedBy:     in.Actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.deps.Checks.Create(ctx, check); err != nil {
		return nil, fmt.Errorf("guardar conteo: %w", err)
	}
	e.log.Info().Str("check_id", check.ID).Str("code", check.Code).Str("type", checkType).Msg("conteo creado")
	return check, nil
}

// Get devuelve el conteo o ErrNotFound.
func (e *StockCheckEngine) Get(ctx context.Context, id string) (*entity.StockCheck, error) {
	return e.load(ctx, id)
}

func (e *StockCheckEngine) List(ctx context.Context, filter entity.StockCheckFilter) ([]*entity.StockCheck, error) {
	return e.deps.Checks.List(ctx, filter)
}

// Start Pending -> InProgress. Resuelve las claves del alcance y fija su cantidad de sistema
// con una única lectura consistente del store.
func (e *StockCheckEngine) Start(ctx context.Context, id, actor string) (*entity.StockCheck, error) {
	unlock, err := e.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	check, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if check.Status != entity.StockCheckStatusPending {
		return nil, domain.InvalidTransition(fmt.Sprintf("no se puede iniciar un conteo en estado %s", check.Status))
	}
	records, err := e.deps.Store.Snapshot(ctx, entity.InventoryFilter{
		WarehouseID:   check.WarehouseID,
		MaterialCodes: check.Scope.MaterialCodes,
		LocationCodes: check.Scope.LocationCodes,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot de inventario: %w", err)
	}

	now := e.deps.now()
	check.Items = make([]entity.StockCheckItem, 0, len(records))
	for _, r := range records {
		check.Items = append(check.Items, entity.StockCheckItem{
			ID:             uuid.New().String(),
			Key:            r.Key,
			SystemQuantity: r.Quantity,
			Status:         entity.StockCheckItemPending,
		})
	}
	check.Status = entity.StockCheckStatusInProgress
	check.StartedBy = actor
	check.StartedAt = &now
	check.UpdatedAt = now
	if err := e.deps.Checks.Update(ctx, check); err != nil {
		return nil, fmt.Errorf("guardar conteo: %w", err)
	}
	e.log.Info().Str("check_id", check.ID).Int("items", len(check.Items)).Msg("conteo iniciado")
	return check, nil
}

// RecordCount registra la cantidad contada de un ítem. Cada ítem se cuenta una sola vez.
func (e *StockCheckEngine) RecordCount(ctx context.Context, in RecordCountInput) (*entity.StockCheck, error) {
	if in.Actual.IsNegative() {
		return nil, domain.Validation("la cantidad contada no puede ser negativa", domain.Violation{LineID: in.ItemID, Detail: in.Actual.String()})
	}
	unlock, err := e.lock(ctx, in.CheckID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	check, err := e.load(ctx, in.CheckID)
	if err != nil {
		return nil, err
	}
	if check.Status != entity.StockCheckStatusInProgress {
		return nil, domain.InvalidTransition(fmt.Sprintf("no se puede registrar conteo en estado %s", check.Status))
	}
	item, ok := check.Item(in.ItemID)
	if !ok {
		return nil, domain.NotFound(fmt.Sprintf("ítem %s del conteo %s", in.ItemID, check.ID))
	}
	if item.Status != entity.StockCheckItemPending {
		return nil, &domain.Error{
			Err:        domain.ErrInvalidStateTransition,
			Invariant:  domain.InvariantCountOnce,
			Message:    "el ítem ya fue contado",
			Violations: []domain.Violation{{LineID: item.ID, Key: item.Key.String(), Detail: "conteo ya registrado"}},
		}
	}

	now := e.deps.now()
	actual := in.Actual
	item.ActualQuantity = &actual
	item.Status = entity.StockCheckItemCounted
	item.Remarks = in.Remarks
	item.CountedBy = in.Actor
	item.CountedAt = &now
	check.UpdatedAt = now
	if err := e.deps.Checks.Update(ctx, check); err != nil {
		return nil, fmt.Errorf("guardar conteo: %w", err)
	}
	return check, nil
}

// Complete postea un ajuste por cada diferencia distinta de cero, todo en un lote.
// Sin forceFill exige todos los ítems contados; con forceFill los pendientes se asumen iguales al sistema.
// Si un ajuste dejaría una clave en negativo el conteo sigue InProgress y esos ítems se reabren
// para recontarlos contra la cantidad actual.
func (e *StockCheckEngine) Complete(ctx context.Context, id, actor string, forceFill bool) (*entity.StockCheck, error) {
	ctx, span := tracer.Start(ctx, "StockCheckEngine.Complete", trace.WithAttributes(
		attribute.String("stock_check.id", id),
		attribute.Bool("stock_check.force_fill", forceFill),
	))
	defer span.End()

	unlock, err := e.lock(ctx, id)
	if err != nil {
		return nil, spanError(span, err)
	}
	check, materials, err := e.complete(ctx, span, id, actor, forceFill)
	unlock()
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetStatus(codes.Ok, "")

	if e.alerts != nil && len(materials) > 0 {
		e.alerts.Notify(ctx, check.WarehouseID, materials)
	}
	return check, nil
}

// complete corre bajo el lock del conteo; devuelve los materiales ajustados.
func (e *StockCheckEngine) complete(ctx context.Context, span trace.Span, id, actor string, forceFill bool) (*entity.StockCheck, []string, error) {
	check, err := e.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if check.Status == entity.StockCheckStatusCompleted {
		return check, nil, nil
	}
	if check.Status != entity.StockCheckStatusInProgress {
		return nil, nil, domain.InvalidTransition(fmt.Sprintf("no se puede completar un conteo en estado %s", check.Status))
	}

	var pending []domain.Violation
	for _, it := range check.Items {
		if it.Status == entity.StockCheckItemPending {
			pending = append(pending, domain.Violation{LineID: it.ID, Key: it.Key.String(), Detail: "sin conteo"})
		}
	}
	if len(pending) > 0 && !forceFill {
		return nil, nil, domain.InvalidTransition("hay ítems sin contar", pending...)
	}

	counted := check.Clone()
	if len(pending) > 0 {
		keys := make([]string, 0, len(pending))
		for i := range check.Items {
			it := &check.Items[i]
			if it.Status != entity.StockCheckItemPending {
				continue
			}
			q := it.SystemQuantity
			it.ActualQuantity = &q
			it.Status = entity.StockCheckItemAssumed
			keys = append(keys, it.Key.String())
		}
		check.ForceFilled = true
		e.log.Warn().Str("check_id", check.ID).Strs("keys", keys).Msg("ítems sin contar asumidos iguales al sistema")
	}

	var postings []entity.Posting
	for _, it := range check.Items {
		diff, ok := it.Difference()
		if !ok || diff.IsZero() {
			continue
		}
		postings = append(postings, entity.Posting{
			Key:            it.Key,
			Delta:          diff,
			Kind:           entity.KindStockAdjustment,
			RelatedOrderID: check.ID,
			LineRef:        itemRef(check, it.ID),
			Actor:          actor,
		})
	}
	span.SetAttributes(attribute.Int("ledger.postings", len(postings)))

	var txs []entity.LedgerTransaction
	if len(postings) > 0 {
		txs, err = e.deps.Store.ApplyBatch(ctx, postings)
		if err != nil {
			e.log.Warn().Err(err).Str("check_id", check.ID).Msg("ajustes rechazados")
			if errors.Is(err, domain.ErrInsufficientStock) {
				e.reopen(ctx, counted, err)
			}
			return nil, nil, err
		}
	}

	now := e.deps.now()
	check.Status = entity.StockCheckStatusCompleted
	check.CompletedBy = actor
	check.CompletedAt = &now
	check.UpdatedAt = now
	check.TransactionIDs = check.TransactionIDs[:0]
	for _, tx := range txs {
		check.TransactionIDs = append(check.TransactionIDs, tx.ID)
	}
	if err := e.deps.Checks.Update(ctx, check); err != nil {
		return nil, nil, fmt.Errorf("guardar conteo completado: %w", err)
	}
	e.log.Info().Str("check_id", check.ID).Int("adjustments", len(txs)).Bool("force_filled", check.ForceFilled).Msg("conteo completado")

	seen := make(map[string]struct{})
	var materials []string
	for _, p := range postings {
		if _, ok := seen[p.Key.MaterialCode]; !ok {
			seen[p.Key.MaterialCode] = struct{}{}
			materials = append(materials, p.Key.MaterialCode)
		}
	}
	return check, materials, nil
}

// reopen devuelve a Pending los ítems cuyo ajuste fue rechazado y renueva su cantidad de sistema
// con la actual del store. check es el conteo tal como estaba antes de asumir pendientes.
// Un fallo aquí solo se registra: el error original ya llega al llamador.
func (e *StockCheckEngine) reopen(ctx context.Context, check *entity.StockCheck, cause error) {
	de, ok := domain.AsError(cause)
	if !ok {
		return
	}
	rejected := make(map[string]struct{}, len(de.Violations))
	for _, v := range de.Violations {
		rejected[v.LineID] = struct{}{}
	}
	var reopened []string
	for i := range check.Items {
		it := &check.Items[i]
		if _, hit := rejected[itemRef(check, it.ID)]; !hit {
			continue
		}
		rec, err := e.deps.Store.Get(ctx, it.Key)
		if err != nil {
			e.log.Error().Err(err).Str("check_id", check.ID).Str("key", it.Key.String()).Msg("no se pudo releer la clave")
			return
		}
		it.SystemQuantity = rec.Quantity
		it.ActualQuantity = nil
		it.Status = entity.StockCheckItemPending
		it.CountedBy = ""
		it.CountedAt = nil
		reopened = append(reopened, it.Key.String())
	}
	if len(reopened) == 0 {
		return
	}
	check.UpdatedAt = e.deps.now()
	if err := e.deps.Checks.Update(ctx, check); err != nil {
		e.log.Error().Err(err).Str("check_id", check.ID).Msg("no se pudieron reabrir los ítems")
		return
	}
	e.log.Warn().Str("check_id", check.ID).Strs("keys", reopened).Msg("ítems reabiertos para recuento")
}

func itemRef(check *entity.StockCheck, itemID string) string {
	return check.ID + "/" + itemID
}

func (e *StockCheckEngine) lock(ctx context.Context, id string) (func(), error) {
	unlock, err := e.locks.Lock(ctx, "check:"+id)
	if err != nil {
		return nil, lockError(err, "conteo "+id+" ocupado por otra operación")
	}
	return unlock, nil
}

func (e *StockCheckEngine) load(ctx context.Context, id string) (*entity.StockCheck, error) {
	c, err := e.deps.Checks.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar conteo: %w", err)
	}
	if c == nil {
		return nil, domain.NotFound(fmt.Sprintf("conteo %s", id))
	}
	return c, nil
}
