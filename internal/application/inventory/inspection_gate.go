package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
)

// InspectionResultInput resultado de calidad de una línea recibida.
type InspectionResultInput struct {
	OrderID     string
	LineID      string
	Qualified   decimal.Decimal
	Unqualified decimal.Decimal
	Remarks     string
	Inspector   string
}

// PendingReceipt cantidad recibida pero aún no confirmada al ledger, por clave.
type PendingReceipt struct {
	Key        entity.InventoryKey
	Quantity   decimal.Decimal
	OrderCodes []string
}

// InspectionGate registra resultados de inspección sobre pedidos de entrada.
// Comparte el lock por pedido con el motor de entradas.
type InspectionGate struct {
	engine *OrderEngine
}

// NewInspectionGate construye la compuerta sobre el motor de entradas.
func NewInspectionGate(inbound *OrderEngine) *InspectionGate {
	return &InspectionGate{engine: inbound}
}

// RecordResult guarda el resultado de una línea. Cuando todas las líneas inspeccionables
// tienen resultado el pedido pasa a Inspected. Lo no calificado queda registrado y nunca se postea.
func (g *InspectionGate) RecordResult(ctx context.Context, in InspectionResultInput) (*entity.Order, error) {
	if in.Qualified.IsNegative() || in.Unqualified.IsNegative() {
		return nil, domain.Validation("las cantidades de inspección no pueden ser negativas", domain.Violation{LineID: in.LineID, Detail: "cantidad negativa"})
	}
	if strings.TrimSpace(in.Inspector) == "" {
		return nil, domain.Validation("inspector requerido")
	}

	done := false
	o, err := g.engine.transition(ctx, in.OrderID, inventory.ActionInspect, func(o *entity.Order) error {
		line, ok := o.Line(in.LineID)
		if !ok {
			return domain.NotFound(fmt.Sprintf("línea %s del pedido %s", in.LineID, o.ID))
		}
		if !line.InspectionRequired {
			return domain.Validation("la línea no requiere inspección", domain.Violation{LineID: line.ID, Detail: line.MaterialCode})
		}
		if line.Inspection != nil {
			return &domain.Error{
				Err:        domain.ErrInvalidStateTransition,
				Invariant:  domain.InvariantInspection,
				Message:    "la línea ya tiene resultado de inspección",
				Violations: []domain.Violation{{LineID: line.ID, Detail: "resultado ya registrado"}},
			}
		}
		total := in.Qualified.Add(in.Unqualified)
		if total.GreaterThan(line.Quantity) {
			return &domain.Error{
				Err:       domain.ErrValidation,
				Invariant: domain.InvariantInspection,
				Message:   "calificado + no calificado supera la cantidad recibida",
				Violations: []domain.Violation{{
					LineID: line.ID,
					Detail: fmt.Sprintf("recibido %s, inspeccionado %s", line.Quantity.String(), total.String()),
				}},
			}
		}
		line.Inspection = &entity.InspectionRecord{
			QualifiedQuantity:   in.Qualified,
			UnqualifiedQuantity: in.Unqualified,
			Remarks:             in.Remarks,
			Inspector:           in.Inspector,
			RecordedAt:          g.engine.deps.now(),
		}
		if allInspected(o) {
			o.Status = entity.OrderStatusInspected
			done = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.engine.log.Info().Str("order_id", o.ID).Str("line_id", in.LineID).
		Str("qualified", in.Qualified.String()).Str("unqualified", in.Unqualified.String()).
		Msg("resultado de inspección registrado")
	if done {
		g.engine.publishTask(ctx, entity.EventTaskResolved, entity.TaskKindInspection, o, in.Inspector)
	}
	return o, nil
}

// PendingReceipts agrega por clave lo recibido en pedidos en inspección o inspeccionados.
// Para líneas ya inspeccionadas cuenta solo lo calificado. Es independiente del stock disponible.
func (g *InspectionGate) PendingReceipts(ctx context.Context, warehouseID string) ([]PendingReceipt, error) {
	byKey := make(map[string]*PendingReceipt)
	for _, status := range []string{entity.OrderStatusPendingInspection, entity.OrderStatusInspected} {
		orders, err := g.engine.List(ctx, entity.OrderFilter{Status: status, WarehouseID: warehouseID})
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			for _, l := range o.Lines {
				qty := l.Quantity
				if l.Inspection != nil {
					qty = l.Inspection.QualifiedQuantity
				}
				k := l.Key(o.WarehouseID)
				pr, ok := byKey[k.String()]
				if !ok {
					pr = &PendingReceipt{Key: k, Quantity: decimal.Zero}
					byKey[k.String()] = pr
				}
				pr.Quantity = pr.Quantity.Add(qty)
				pr.OrderCodes = appendUnique(pr.OrderCodes, o.Code)
			}
		}
	}

	out := make([]PendingReceipt, 0, len(byKey))
	for _, pr := range byKey {
		out = append(out, *pr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.String() < out[j].Key.String() })
	return out, nil
}

func allInspected(o *entity.Order) bool {
	for _, l := range o.Lines {
		if l.InspectionRequired && l.Inspection == nil {
			return false
		}
	}
	return true
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
