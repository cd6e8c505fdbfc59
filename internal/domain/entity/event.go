package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de evento emitidos hacia colaboradores externos (tareas y compras).
const (
	EventTaskCreated  = "task.created"
	EventTaskResolved = "task.resolved"
	EventStockLow     = "stock.low"
)

// Tipos de tarea para el centro de tareas.
const (
	TaskKindApproval   = "approval"
	TaskKindInspection = "inspection"
	TaskKindCompletion = "completion"
)

// Event es el sobre común publicado por los motores.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Task       *TaskEvent      `json:"task,omitempty"`
	LowStock   *LowStockSignal `json:"low_stock,omitempty"`
}

// PartitionKey agrupa eventos del mismo pedido o material.
func (e Event) PartitionKey() string {
	switch {
	case e.Task != nil:
		return e.Task.OrderID
	case e.LowStock != nil:
		return e.LowStock.Key.MaterialCode
	}
	return e.ID
}

// TaskEvent notifica una tarea nueva o resuelta al centro de tareas.
type TaskEvent struct {
	Kind      string `json:"kind"`
	OrderID   string `json:"order_id"`
	OrderCode string `json:"order_code"`
	Direction string `json:"direction"`
	Status    string `json:"status"`
	Actor     string `json:"actor,omitempty"`
}

// Niveles de stock (original: 紧急 / 偏低 / 正常 / 过高).
const (
	StockLevelCritical  = "critical"
	StockLevelLow       = "low"
	StockLevelNormal    = "normal"
	StockLevelOverstock = "overstock"
)

// LowStockSignal describe una clave por debajo de su stock de seguridad.
type LowStockSignal struct {
	Key               InventoryKey    `json:"key"`
	MaterialName      string          `json:"material_name"`
	Unit              string          `json:"unit"`
	Quantity          decimal.Decimal `json:"quantity"`
	SafetyStock       decimal.Decimal `json:"safety_stock"`
	Level             string          `json:"level"`
	SuggestedOrderQty decimal.Decimal `json:"suggested_order_qty"`
}
