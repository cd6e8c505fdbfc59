package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// OrderHandler expone un motor de pedidos (entrada o salida). gate solo existe para entradas.
type OrderHandler struct {
	engine *inventory.OrderEngine
	gate   *inventory.InspectionGate
}

// NewOrderHandler construye el handler. Pasar gate=nil para pedidos de salida.
func NewOrderHandler(engine *inventory.OrderEngine, gate *inventory.InspectionGate) *OrderHandler {
	return &OrderHandler{engine: engine, gate: gate}
}

// Create godoc
// @Summary      Crear pedido
// @Description  Crea el pedido en Draft, o en PendingApproval si submit=true.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "Bodega, referencia y líneas"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/warehouse/inbound-orders [post]
// @Router       /api/warehouse/outbound-orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	actor, ok := actorOr401(c)
	if !ok {
		return nil
	}
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]inventory.OrderLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.OrderLineInput{
			MaterialCode: l.MaterialCode,
			LocationCode: l.LocationCode,
			BatchID:      l.BatchID,
			Quantity:     l.Quantity,
		})
	}
	order, err := h.engine.Create(c.UserContext(), inventory.CreateOrderInput{
		Type:        in.Type,
		WarehouseID: in.WarehouseID,
		Reference:   entity.OrderReference{Type: in.ReferenceType, Code: in.ReferenceCode},
		Lines:       lines,
		Remarks:     in.Remarks,
		Actor:       actor,
		Submit:      in.Submit,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OrderFromEntity(order))
}

// GetByID godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouse/inbound-orders/{id} [get]
// @Router       /api/warehouse/outbound-orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.engine.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OrderFromEntity(order))
}

// List godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        status        query  string  false  "Estado"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.OrderListResponse
// @Router       /api/warehouse/inbound-orders [get]
// @Router       /api/warehouse/outbound-orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	orders, err := h.engine.List(c.UserContext(), entity.OrderFilter{
		Status:      c.Query("status"),
		WarehouseID: c.Query("warehouse_id"),
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, dto.OrderFromEntity(o))
	}
	return c.JSON(dto.OrderListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// Submit godoc
// @Summary      Enviar a aprobación
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/warehouse/inbound-orders/{id}/submit [post]
// @Router       /api/warehouse/outbound-orders/{id}/submit [post]
func (h *OrderHandler) Submit(c *fiber.Ctx) error {
	return h.act(c, h.engine.Submit)
}

// Approve godoc
// @Summary      Aprobar pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/warehouse/inbound-orders/{id}/approve [post]
// @Router       /api/warehouse/outbound-orders/{id}/approve [post]
func (h *OrderHandler) Approve(c *fiber.Ctx) error {
	return h.act(c, h.engine.Approve)
}

// Reject godoc
// @Summary      Rechazar pedido
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del pedido"
// @Param        body  body  dto.RejectOrderRequest  true  "Motivo"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/warehouse/inbound-orders/{id}/reject [post]
// @Router       /api/warehouse/outbound-orders/{id}/reject [post]
func (h *OrderHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	return h.act(c, func(ctx context.Context, id, actor string) (*entity.Order, error) {
		return h.engine.Reject(ctx, id, actor, in.Reason)
	})
}

// Cancel godoc
// @Summary      Cancelar pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/warehouse/inbound-orders/{id}/cancel [post]
// @Router       /api/warehouse/outbound-orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	return h.act(c, h.engine.Cancel)
}

// Receive godoc
// @Summary      Registrar recepción física
// @Description  Pasa un pedido aprobado con líneas inspeccionables a PendingInspection.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/warehouse/inbound-orders/{id}/receive [post]
func (h *OrderHandler) Receive(c *fiber.Ctx) error {
	return h.act(c, h.engine.Receive)
}

// RecordInspection godoc
// @Summary      Registrar resultado de inspección
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string                       true  "ID del pedido"
// @Param        lineId  path  string                       true  "ID de la línea"
// @Param        body    body  dto.InspectionResultRequest  true  "Cantidades aprobada y rechazada"
// @Success      200     {object}  dto.OrderResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/warehouse/inbound-orders/{id}/lines/{lineId}/inspection [post]
func (h *OrderHandler) RecordInspection(c *fiber.Ctx) error {
	if h.gate == nil {
		return fiber.ErrNotFound
	}
	actor, ok := actorOr401(c)
	if !ok {
		return nil
	}
	var in dto.InspectionResultRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	order, err := h.gate.RecordResult(c.UserContext(), inventory.InspectionResultInput{
		OrderID:     c.Params("id"),
		LineID:      c.Params("lineId"),
		Qualified:   in.QualifiedQuantity,
		Unqualified: in.UnqualifiedQuantity,
		Remarks:     in.Remarks,
		Inspector:   actor,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OrderFromEntity(order))
}

// Complete godoc
// @Summary      Completar pedido
// @Description  Postea todas las líneas al kardex de forma atómica. Repetirlo devuelve el mismo resultado.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/warehouse/inbound-orders/{id}/complete [post]
// @Router       /api/warehouse/outbound-orders/{id}/complete [post]
func (h *OrderHandler) Complete(c *fiber.Ctx) error {
	return h.act(c, h.engine.Complete)
}

func (h *OrderHandler) act(c *fiber.Ctx, fn func(ctx context.Context, id, actor string) (*entity.Order, error)) error {
	actor, ok := actorOr401(c)
	if !ok {
		return nil
	}
	order, err := fn(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OrderFromEntity(order))
}
