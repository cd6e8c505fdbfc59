package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	appinv "github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/events"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/Inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/Inventario-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildApp arma la API completa sobre el store en memoria.
func buildApp(t *testing.T) *fiber.App {
	t.Helper()
	ctx := context.Background()
	catalog := memory.NewCatalog()
	require.NoError(t, catalog.UpsertWarehouse(ctx, entity.Warehouse{ID: "W01", Name: "Principal", Locations: []string{"A-01", "A-02"}}))
	require.NoError(t, catalog.UpsertMaterial(ctx, entity.Material{Code: "M001", Name: "Acero", Unit: "kg", SafetyStock: decimal.NewFromInt(50)}))
	require.NoError(t, catalog.UpsertMaterial(ctx, entity.Material{Code: "M002", Name: "Rodamiento", Unit: "und", InspectionRequired: true}))

	store := memory.NewLedgerStore(time.Second)
	log := logger.Nop()
	deps := appinv.Dependencies{
		Store:       store,
		Orders:      memory.NewOrderRepository(),
		Checks:      memory.NewStockCheckRepository(),
		Catalog:     catalog,
		Events:      events.NewLogPublisher(log),
		Policy:      domaininv.NewInspectionPolicy(nil),
		Logger:      log,
		LockTimeout: time.Second,
	}
	alerts := appinv.NewAlerting(deps)
	inbound := appinv.NewInboundOrderEngine(deps, alerts)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(log)})
	apphttp.Router(app, apphttp.RouterDeps{
		Inbound:    inbound,
		Outbound:   appinv.NewOutboundOrderEngine(deps, alerts),
		Inspection: appinv.NewInspectionGate(inbound),
		StockCheck: appinv.NewStockCheckEngine(deps, alerts),
		Alerts:     alerts,
		Queries:    appinv.NewInventoryQueries(store),
		Auditor:    appinv.NewAuditor(store),
		Catalog:    catalog,
		Reporter:   pdf.NewStockCheckReport(),
		JWTSecret:  testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", bearer(t))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createOrder(t *testing.T, app *fiber.App, path, material, qty string) dto.OrderResponse {
	t.Helper()
	resp := call(t, app, http.MethodPost, path, dto.CreateOrderRequest{
		WarehouseID: "W01",
		Submit:      true,
		Lines: []dto.OrderLineRequest{
			{MaterialCode: material, LocationCode: "A-01", BatchID: "B1", Quantity: decimal.RequireFromString(qty)},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.OrderResponse](t, resp)
}

func receiveStock(t *testing.T, app *fiber.App, qty string) {
	t.Helper()
	o := createOrder(t, app, "/api/warehouse/inbound-orders", "M001", qty)
	resp := call(t, app, http.MethodPost, "/api/warehouse/inbound-orders/"+o.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = call(t, app, http.MethodPost, "/api/warehouse/inbound-orders/"+o.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

const recordPath = "/api/warehouse/inventory/record?material_code=M001&warehouse_id=W01&location_code=A-01&batch_id=B1"

// ──────────────────────────────────────────────────────────────────────────────
// Pedidos
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_EntradaCompletaPosteaStock(t *testing.T) {
	app := buildApp(t)
	o := createOrder(t, app, "/api/warehouse/inbound-orders", "M001", "100")
	assert.Equal(t, entity.OrderStatusPendingApproval, o.Status)
	assert.Regexp(t, `^IN-\d{8}-001$`, o.Code)

	call(t, app, http.MethodPost, "/api/warehouse/inbound-orders/"+o.ID+"/approve", nil).Body.Close()
	done := decode[dto.OrderResponse](t, call(t, app, http.MethodPost, "/api/warehouse/inbound-orders/"+o.ID+"/complete", nil))
	assert.Equal(t, entity.OrderStatusCompleted, done.Status)
	require.Len(t, done.TransactionIDs, 1)

	rec := decode[dto.InventoryRecordResponse](t, call(t, app, http.MethodGet, recordPath, nil))
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(100)))
}

func TestRouter_SalidaSinStockRetorna409ConInvariante(t *testing.T) {
	app := buildApp(t)
	receiveStock(t, app, "100")

	o := createOrder(t, app, "/api/warehouse/outbound-orders", "M001", "150")
	call(t, app, http.MethodPost, "/api/warehouse/outbound-orders/"+o.ID+"/approve", nil).Body.Close()
	resp := call(t, app, http.MethodPost, "/api/warehouse/outbound-orders/"+o.ID+"/complete", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	assert.Equal(t, domain.InvariantNonNegative, body.Invariant)
	assert.NotEmpty(t, body.Violations)

	rec := decode[dto.InventoryRecordResponse](t, call(t, app, http.MethodGet, recordPath, nil))
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(100)), "el stock no cambia")
}

func TestRouter_TransicionIlegalRetorna409(t *testing.T) {
	app := buildApp(t)
	o := createOrder(t, app, "/api/warehouse/inbound-orders", "M001", "10")
	resp := call(t, app, http.MethodPost, "/api/warehouse/inbound-orders/"+o.ID+"/complete", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INVALID_STATE", body.Code)
	assert.Equal(t, domain.InvariantStateMachine, body.Invariant)
}

func TestRouter_CrearConLineasInvalidasRetorna400(t *testing.T) {
	app := buildApp(t)
	resp := call(t, app, http.MethodPost, "/api/warehouse/inbound-orders", dto.CreateOrderRequest{
		WarehouseID: "W01",
		Lines: []dto.OrderLineRequest{
			{MaterialCode: "M001", LocationCode: "Z-99", BatchID: "B1", Quantity: decimal.NewFromInt(1)},
			{MaterialCode: "M001", LocationCode: "A-01", BatchID: "", Quantity: decimal.Zero},
		},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.GreaterOrEqual(t, len(body.Violations), 3)
}

func TestRouter_CuerpoInvalidoRetorna400(t *testing.T) {
	app := buildApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/warehouse/inbound-orders", bytes.NewBufferString("{no-json"))
	req.Header.Set("Authorization", bearer(t))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_PedidoDesconocidoRetorna404(t *testing.T) {
	app := buildApp(t)
	resp := call(t, app, http.MethodGet, "/api/warehouse/outbound-orders/no-existe", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_EntradaNoVisibleComoSalida(t *testing.T) {
	app := buildApp(t)
	o := createOrder(t, app, "/api/warehouse/inbound-orders", "M001", "10")
	resp := call(t, app, http.MethodGet, "/api/warehouse/outbound-orders/"+o.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	list := decode[dto.OrderListResponse](t, call(t, app, http.MethodGet, "/api/warehouse/outbound-orders", nil))
	assert.Empty(t, list.Items)
}

func TestRouter_InspeccionYRecibidoPendiente(t *testing.T) {
	app := buildApp(t)
	o := createOrder(t, app, "/api/warehouse/inbound-orders", "M002", "20")
	require.True(t, o.Lines[0].InspectionRequired)
	base := "/api/warehouse/inbound-orders/" + o.ID

	call(t, app, http.MethodPost, base+"/approve", nil).Body.Close()
	received := decode[dto.OrderResponse](t, call(t, app, http.MethodPost, base+"/receive", nil))
	assert.Equal(t, entity.OrderStatusPendingInspection, received.Status)

	pending := decode[[]dto.PendingReceiptResponse](t, call(t, app, http.MethodGet, "/api/warehouse/pending-receipts?warehouse_id=W01", nil))
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Quantity.Equal(decimal.NewFromInt(20)))

	inspected := decode[dto.OrderResponse](t, call(t, app, http.MethodPost, base+"/lines/"+o.Lines[0].ID+"/inspection", dto.InspectionResultRequest{
		QualifiedQuantity: decimal.NewFromInt(18), UnqualifiedQuantity: decimal.NewFromInt(2),
	}))
	assert.Equal(t, entity.OrderStatusInspected, inspected.Status)
	assert.Equal(t, testUserName, inspected.Lines[0].Inspection.Inspector)

	done := decode[dto.OrderResponse](t, call(t, app, http.MethodPost, base+"/complete", nil))
	assert.True(t, done.Lines[0].PostedQuantity.Equal(decimal.NewFromInt(18)))
}

func TestRouter_SalidaNoTieneRecepcion(t *testing.T) {
	app := buildApp(t)
	resp := call(t, app, http.MethodPost, "/api/warehouse/outbound-orders/x/receive", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_SinTokenRetorna401(t *testing.T) {
	app := buildApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/warehouse/inventory", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Conteos, consultas y exportaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_ConteoConAjusteYActaPDF(t *testing.T) {
	app := buildApp(t)
	receiveStock(t, app, "100")

	check := decode[dto.StockCheckResponse](t, call(t, app, http.MethodPost, "/api/warehouse/stock-checks", dto.CreateStockCheckRequest{
		WarehouseID: "W01", MaterialCodes: []string{"M001"},
	}))
	assert.Regexp(t, `^SC-\d{8}-001$`, check.Code)
	base := "/api/warehouse/stock-checks/" + check.ID

	started := decode[dto.StockCheckResponse](t, call(t, app, http.MethodPost, base+"/start", nil))
	require.Len(t, started.Items, 1)

	counted := decode[dto.StockCheckResponse](t, call(t, app, http.MethodPost, base+"/items/"+started.Items[0].ID+"/count", dto.RecordCountRequest{
		ActualQuantity: decimal.NewFromInt(97),
	}))
	require.NotNil(t, counted.Items[0].Difference)
	assert.True(t, counted.Items[0].Difference.Equal(decimal.NewFromInt(-3)))

	done := decode[dto.StockCheckResponse](t, call(t, app, http.MethodPost, base+"/complete", nil))
	assert.Equal(t, entity.StockCheckStatusCompleted, done.Status)

	rec := decode[dto.InventoryRecordResponse](t, call(t, app, http.MethodGet, recordPath, nil))
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(97)))

	resp := call(t, app, http.MethodGet, base+"/report.pdf", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func TestRouter_KardexYExportacion(t *testing.T) {
	app := buildApp(t)
	receiveStock(t, app, "40")
	receiveStock(t, app, "5")

	txs := decode[[]dto.LedgerTransactionResponse](t, call(t, app, http.MethodGet,
		"/api/warehouse/ledger?material_code=M001&warehouse_id=W01&location_code=A-01&batch_id=B1", nil))
	require.Len(t, txs, 2)
	assert.True(t, txs[1].BeforeQuantity.Equal(txs[0].AfterQuantity))

	resp := call(t, app, http.MethodGet, "/api/warehouse/ledger/export.xlsx?warehouse_id=W01", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")

	bad := call(t, app, http.MethodGet, "/api/warehouse/ledger?from=ayer", nil)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestRouter_AlertasYAuditoria(t *testing.T) {
	app := buildApp(t)
	receiveStock(t, app, "20")

	low := decode[[]dto.LowStockResponse](t, call(t, app, http.MethodGet, "/api/warehouse/low-stock?warehouse_id=W01", nil))
	require.NotEmpty(t, low)
	assert.Equal(t, "M001", low[0].Key.MaterialCode)
	assert.Equal(t, "critical", low[0].Level)

	type replenishmentBody struct {
		Total          int                              `json:"total"`
		Replenishments []dto.ReplenishmentSuggestionDTO `json:"replenishments"`
	}
	repl := decode[replenishmentBody](t, call(t, app, http.MethodGet, "/api/warehouse/replenishment?warehouse_id=W01", nil))
	require.Equal(t, 1, repl.Total)
	assert.True(t, repl.Replenishments[0].SuggestedOrderQty.Equal(decimal.NewFromInt(55)))

	audit := decode[dto.AuditResponse](t, call(t, app, http.MethodGet, "/api/warehouse/audit", nil))
	assert.True(t, audit.Consistent)
	assert.Equal(t, 1, audit.Transactions)
}

// ──────────────────────────────────────────────────────────────────────────────
// Health y ErrorHandler
// ──────────────────────────────────────────────────────────────────────────────

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", apphttp.HealthHandler("ledger", nil))
	app.Get("/down", apphttp.HealthHandler("ledger", pinger{err: errors.New("sin conexión")}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/down", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestErrorHandler_ErrorNoTipadoRetorna500(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(logger.Nop())})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("fallo de infraestructura") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INTERNAL", body.Code)
	assert.NotContains(t, body.Message, "infraestructura")
}
