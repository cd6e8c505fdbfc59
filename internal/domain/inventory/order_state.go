package inventory

import "github.com/jhoicas/Inventario-ledger/internal/domain/entity"

// Acciones sobre un pedido.
const (
	ActionSubmit   = "submit"
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionCancel   = "cancel"
	ActionReceive  = "receive"
	ActionInspect  = "inspect"
	ActionComplete = "complete"
)

// orderTransitions: acción -> estados de origen permitidos.
// Reject y Cancel solo antes de postear al ledger.
var orderTransitions = map[string][]string{
	ActionSubmit:  {entity.OrderStatusDraft},
	ActionApprove: {entity.OrderStatusPendingApproval},
	ActionReject: {
		entity.OrderStatusPendingApproval, entity.OrderStatusApproved,
		entity.OrderStatusPendingInspection, entity.OrderStatusInspected,
	},
	ActionCancel: {
		entity.OrderStatusDraft, entity.OrderStatusPendingApproval, entity.OrderStatusApproved,
		entity.OrderStatusPendingInspection, entity.OrderStatusInspected,
	},
	ActionReceive:  {entity.OrderStatusApproved},
	ActionInspect:  {entity.OrderStatusPendingInspection},
	ActionComplete: {entity.OrderStatusApproved, entity.OrderStatusInspected},
}

// CanTransition indica si la acción es legal desde el estado actual.
func CanTransition(action, status string) bool {
	for _, s := range orderTransitions[action] {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal indica estados inmutables.
func IsTerminal(status string) bool {
	switch status {
	case entity.OrderStatusCompleted, entity.OrderStatusRejected, entity.OrderStatusCancelled:
		return true
	}
	return false
}

var orderTypeKinds = map[string]struct {
	direction string
	kind      string
}{
	entity.OrderTypePurchaseReceipt:    {entity.DirectionIn, entity.KindPurchaseReceipt},
	entity.OrderTypeProductionReceipt:  {entity.DirectionIn, entity.KindProductionReceipt},
	entity.OrderTypeOutsourcingReceipt: {entity.DirectionIn, entity.KindOutsourcingReceipt},
	entity.OrderTypeReturnReceipt:      {entity.DirectionIn, entity.KindReturnReceipt},
	entity.OrderTypeSalesIssue:         {entity.DirectionOut, entity.KindSalesIssue},
	entity.OrderTypeProductionIssue:    {entity.DirectionOut, entity.KindProductionIssue},
	entity.OrderTypeOutsourcingIssue:   {entity.DirectionOut, entity.KindOutsourcingIssue},
	entity.OrderTypeScrapIssue:         {entity.DirectionOut, entity.KindScrapIssue},
}

// TransactionKind resuelve el tipo de transacción del ledger para un tipo de pedido.
// ok es false si el tipo no existe o no corresponde a la dirección.
func TransactionKind(orderType, direction string) (string, bool) {
	tk, ok := orderTypeKinds[orderType]
	if !ok || tk.direction != direction {
		return "", false
	}
	return tk.kind, true
}

// DefaultOrderType por dirección cuando el caller no indica tipo.
func DefaultOrderType(direction string) string {
	if direction == entity.DirectionOut {
		return entity.OrderTypeSalesIssue
	}
	return entity.OrderTypePurchaseReceipt
}
