package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Inbound    *inventory.OrderEngine
	Outbound   *inventory.OrderEngine
	Inspection *inventory.InspectionGate
	StockCheck *inventory.StockCheckEngine
	Alerts     *inventory.Alerting
	Queries    *inventory.InventoryQueries
	Auditor    *inventory.Auditor
	Catalog    repository.MaterialCatalog
	Reporter   StockCheckReporter
	JWTSecret  string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/warehouse", AuthMiddleware(deps.JWTSecret))

	// Pedidos de entrada
	inbound := api.Group("/inbound-orders")
	inHandler := NewOrderHandler(deps.Inbound, deps.Inspection)
	registerOrderRoutes(inbound, inHandler)
	inbound.Post("/:id/receive", inHandler.Receive)
	inbound.Post("/:id/lines/:lineId/inspection", inHandler.RecordInspection)

	// Pedidos de salida
	outbound := api.Group("/outbound-orders")
	registerOrderRoutes(outbound, NewOrderHandler(deps.Outbound, nil))

	// Conteos físicos
	checks := api.Group("/stock-checks")
	checkHandler := NewStockCheckHandler(deps.StockCheck, deps.Catalog, deps.Reporter)
	checks.Post("/", checkHandler.Create)
	checks.Get("/", checkHandler.List)
	checks.Get("/:id/report.pdf", checkHandler.Report)
	checks.Get("/:id", checkHandler.GetByID)
	checks.Post("/:id/start", checkHandler.Start)
	checks.Post("/:id/items/:itemId/count", checkHandler.RecordCount)
	checks.Post("/:id/complete", checkHandler.Complete)

	// Consultas
	invHandler := NewInventoryHandler(deps.Queries, deps.Alerts, deps.Inspection, deps.Auditor)
	api.Get("/inventory", invHandler.List)
	api.Get("/inventory/record", invHandler.GetRecord)
	api.Get("/ledger", invHandler.Ledger)
	api.Get("/ledger/export.xlsx", invHandler.ExportLedger)
	api.Get("/low-stock", invHandler.LowStock)
	api.Get("/replenishment", invHandler.Replenishment)
	api.Get("/pending-receipts", invHandler.PendingReceipts)
	api.Get("/audit", invHandler.Audit)
}

func registerOrderRoutes(g fiber.Router, h *OrderHandler) {
	g.Post("/", h.Create)
	g.Get("/", h.List)
	g.Get("/:id", h.GetByID)
	g.Post("/:id/submit", h.Submit)
	g.Post("/:id/approve", h.Approve)
	g.Post("/:id/reject", h.Reject)
	g.Post("/:id/cancel", h.Cancel)
	g.Post("/:id/complete", h.Complete)
}
