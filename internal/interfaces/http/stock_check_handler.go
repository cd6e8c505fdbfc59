package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// StockCheckReporter genera el acta PDF de un conteo.
type StockCheckReporter interface {
	Generate(ctx context.Context, check *entity.StockCheck, warehouse *entity.Warehouse) ([]byte, error)
}

// StockCheckHandler maneja conteos físicos.
type StockCheckHandler struct {
	engine   *inventory.StockCheckEngine
	catalog  repository.MaterialCatalog
	reporter StockCheckReporter
}

func NewStockCheckHandler(engine *inventory.StockCheckEngine, catalog repository.MaterialCatalog, reporter StockCheckReporter) *StockCheckHandler {
	return &StockCheckHandler{engine: engine, catalog: catalog, reporter: reporter}
}

// Create godoc
// @Summary      Programar conteo físico
// @Tags         stock-checks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockCheckRequest  true  "Bodega, tipo y alcance"
// @Success      201   {object}  dto.StockCheckResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/warehouse/stock-checks [post]
func (h *StockCheckHandler) Create(c *fiber.Ctx) error {
	actor, ok := actorOr401(c)
	if !ok {
		return nil
	}
	var in dto.CreateStockCheckRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	var scheduled time.Time
	if in.ScheduledDate != nil {
		scheduled = *in.ScheduledDate
	}
	check, err := h.engine.Create(c.UserContext(), inventory.CreateStockCheckInput{
		WarehouseID:   in.WarehouseID,
		Type:          in.Type,
		ScheduledDate: scheduled,
		Manager:       in.Manager,
		Scope:         entity.StockCheckScope{MaterialCodes: in.MaterialCodes, LocationCodes: in.LocationCodes},
		Actor:         actor,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.StockCheckFromEntity(check))
}

// GetByID godoc
// @Summary      Obtener conteo
// @Tags         stock-checks
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del conteo"
// @Success      200  {object}  dto.StockCheckResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouse/stock-checks/{id} [get]
func (h *StockCheckHandler) GetByID(c *fiber.Ctx) error {
	check, err := h.engine.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockCheckFromEntity(check))
}

// List godoc
// @Summary      Listar conteos
// @Tags         stock-checks
// @Security     Bearer
// @Produce      json
// @Param        status        query  string  false  "Estado"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.StockCheckListResponse
// @Router       /api/warehouse/stock-checks [get]
func (h *StockCheckHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	checks, err := h.engine.List(c.UserContext(), entity.StockCheckFilter{
		Status:      c.Query("status"),
		WarehouseID: c.Query("warehouse_id"),
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.StockCheckResponse, 0, len(checks))
	for _, sc := range checks {
		items = append(items, dto.StockCheckFromEntity(sc))
	}
	return c.JSON(dto.StockCheckListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// Start godoc
// @Summary      Iniciar conteo
// @Description  Congela la cantidad de sistema de cada clave del alcance.
// @Tags         stock-checks
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del conteo"
// @Success      200  {object}  dto.StockCheckResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/warehouse/stock-checks/{id}/start [post]
func (h *StockCheckHandler) Start(c *fiber.Ctx) error {
	actor, ok := actorOr401(c)
	if !ok {
		return nil
	}
	check, err := h.engine.Start(c.UserContext(), c.Params("id"), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockCheckFromEntity(check))
}

// RecordCount godoc
// @Summary      Registrar conteo de un ítem
// @Tags         stock-checks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string                  true  "ID del conteo"
// @Param        itemId  path  string                  true  "ID del ítem"
// @Param        body    body  dto.RecordCountRequest  true  "Cantidad física"
// @Success      200     {object}  dto.StockCheckResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/warehouse/stock-checks/{id}/items/{itemId}/count [post]
func (h *StockCheckHandler) RecordCount(c *fiber.Ctx) error {
	actor, ok := actorOr401(c)
	if !ok {
		return nil
	}
	var in dto.RecordCountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	check, err := h.engine.RecordCount(c.UserContext(), inventory.RecordCountInput{
		CheckID: c.Params("id"),
		ItemID:  c.Params("itemId"),
		Actual:  in.ActualQuantity,
		Remarks: in.Remarks,
		Actor:   actor,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockCheckFromEntity(check))
}

// Complete godoc
// @Summary      Completar conteo
// @Description  Postea un ajuste por cada diferencia. force_fill=true asume sistema en los ítems sin conteo.
// @Tags         stock-checks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                         true   "ID del conteo"
// @Param        body  body  dto.CompleteStockCheckRequest  false  "Opciones"
// @Success      200   {object}  dto.StockCheckResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/warehouse/stock-checks/{id}/complete [post]
func (h *StockCheckHandler) Complete(c *fiber.Ctx) error {
	actor, ok := actorOr401(c)
	if !ok {
		return nil
	}
	var in dto.CompleteStockCheckRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	check, err := h.engine.Complete(c.UserContext(), c.Params("id"), actor, in.ForceFill)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockCheckFromEntity(check))
}

// Report godoc
// @Summary      Acta PDF del conteo
// @Tags         stock-checks
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del conteo"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouse/stock-checks/{id}/report.pdf [get]
func (h *StockCheckHandler) Report(c *fiber.Ctx) error {
	ctx := c.UserContext()
	check, err := h.engine.Get(ctx, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	warehouse, err := h.catalog.GetWarehouse(ctx, check.WarehouseID)
	if err != nil {
		return writeError(c, err)
	}
	doc, err := h.reporter.Generate(ctx, check, warehouse)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="`+check.Code+`.pdf"`)
	return c.Send(doc)
}
