package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/export"
)

// InventoryHandler consultas de existencias, kardex, alertas y auditoría.
type InventoryHandler struct {
	queries *inventory.InventoryQueries
	alerts  *inventory.Alerting
	gate    *inventory.InspectionGate
	auditor *inventory.Auditor
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(queries *inventory.InventoryQueries, alerts *inventory.Alerting, gate *inventory.InspectionGate, auditor *inventory.Auditor) *InventoryHandler {
	return &InventoryHandler{queries: queries, alerts: alerts, gate: gate, auditor: auditor}
}

// GetRecord godoc
// @Summary      Existencia de una clave
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        material_code  query  string  true  "Material"
// @Param        warehouse_id   query  string  true  "Bodega"
// @Param        location_code  query  string  true  "Ubicación"
// @Param        batch_id       query  string  true  "Lote"
// @Success      200  {object}  dto.InventoryRecordResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/warehouse/inventory/record [get]
func (h *InventoryHandler) GetRecord(c *fiber.Ctx) error {
	rec, err := h.queries.GetInventory(c.UserContext(), keyFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RecordFromEntity(*rec))
}

// List godoc
// @Summary      Listar existencias
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        material_code  query  string  false  "Materiales separados por coma"
// @Param        warehouse_id   query  string  false  "Bodega"
// @Param        location_code  query  string  false  "Ubicaciones separadas por coma"
// @Param        batch_id       query  string  false  "Lote"
// @Success      200  {array}  dto.InventoryRecordResponse
// @Router       /api/warehouse/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	records, err := h.queries.ListInventory(c.UserContext(), filterFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.InventoryRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.RecordFromEntity(r))
	}
	return c.JSON(out)
}

// Ledger godoc
// @Summary      Kardex
// @Description  Con la clave completa devuelve su historia; si no, todas las transacciones que cumplen el filtro.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        material_code  query  string  false  "Material"
// @Param        warehouse_id   query  string  false  "Bodega"
// @Param        location_code  query  string  false  "Ubicación"
// @Param        batch_id       query  string  false  "Lote"
// @Param        from           query  string  false  "Desde (RFC3339)"
// @Param        to             query  string  false  "Hasta (RFC3339)"
// @Param        limit          query  int     false  "Máximo de transacciones"
// @Success      200  {array}   dto.LedgerTransactionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/warehouse/ledger [get]
func (h *InventoryHandler) Ledger(c *fiber.Ctx) error {
	txs, err := h.ledger(c)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LedgerTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, dto.TransactionFromEntity(tx))
	}
	return c.JSON(out)
}

// ExportLedger godoc
// @Summary      Exportar kardex a Excel
// @Tags         inventory
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/warehouse/ledger/export.xlsx [get]
func (h *InventoryHandler) ExportLedger(c *fiber.Ctx) error {
	txs, err := h.ledger(c)
	if err != nil {
		return writeError(c, err)
	}
	records, err := h.queries.ListInventory(c.UserContext(), filterFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	f, err := export.LedgerWorkbook(txs, records)
	if err != nil {
		return err
	}
	defer f.Close()
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="kardex_%s.xlsx"`, time.Now().Format("20060102")))
	return f.Write(c.Response().BodyWriter())
}

// LowStock godoc
// @Summary      Claves bajo stock de seguridad
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id   query  string  false  "Bodega"
// @Param        material_code  query  string  false  "Materiales separados por coma"
// @Success      200  {array}  dto.LowStockResponse
// @Router       /api/warehouse/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	signals, err := h.alerts.LowStockKeys(c.UserContext(), filterFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LowStockResponse, 0, len(signals))
	for _, s := range signals {
		out = append(out, dto.LowStockFromEntity(s))
	}
	return c.JSON(out)
}

// Replenishment godoc
// @Summary      Lista de reposición
// @Description  Materiales bajo su stock de seguridad con la cantidad sugerida, el de mayor déficit primero.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega. Vacío = todas."
// @Success      200  {object}  map[string]interface{}
// @Router       /api/warehouse/replenishment [get]
func (h *InventoryHandler) Replenishment(c *fiber.Ctx) error {
	list, err := h.alerts.Replenishment(c.UserContext(), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

// PendingReceipts godoc
// @Summary      Recibido pendiente de inspección
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {array}  dto.PendingReceiptResponse
// @Router       /api/warehouse/pending-receipts [get]
func (h *InventoryHandler) PendingReceipts(c *fiber.Ctx) error {
	pending, err := h.gate.PendingReceipts(c.UserContext(), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.PendingReceiptResponse, 0, len(pending))
	for _, p := range pending {
		out = append(out, dto.PendingReceiptResponse{Key: dto.KeyFromEntity(p.Key), Quantity: p.Quantity, OrderCodes: p.OrderCodes})
	}
	return c.JSON(out)
}

// Audit godoc
// @Summary      Auditar el kardex
// @Description  Reproduce el ledger y compara contra las existencias.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.AuditResponse
// @Router       /api/warehouse/audit [get]
func (h *InventoryHandler) Audit(c *fiber.Ctx) error {
	report, err := h.auditor.Audit(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

func (h *InventoryHandler) ledger(c *fiber.Ctx) ([]entity.LedgerTransaction, error) {
	r, err := rangeFromQuery(c)
	if err != nil {
		return nil, err
	}
	q := inventory.LedgerQuery{Filter: filterFromQuery(c), Range: r}
	if key := keyFromQuery(c); key.Complete() {
		q.Key = &key
	}
	return h.queries.GetLedger(c.UserContext(), q)
}

func keyFromQuery(c *fiber.Ctx) entity.InventoryKey {
	return entity.InventoryKey{
		MaterialCode: c.Query("material_code"),
		WarehouseID:  c.Query("warehouse_id"),
		LocationCode: c.Query("location_code"),
		BatchID:      c.Query("batch_id"),
	}
}

func filterFromQuery(c *fiber.Ctx) entity.InventoryFilter {
	return entity.InventoryFilter{
		MaterialCodes: splitList(c.Query("material_code")),
		WarehouseID:   c.Query("warehouse_id"),
		LocationCodes: splitList(c.Query("location_code")),
		BatchID:       c.Query("batch_id"),
	}
}

func rangeFromQuery(c *fiber.Ctx) (entity.TimeRange, error) {
	var r entity.TimeRange
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &r.From}, {"to", &r.To}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return r, domain.Validation(fmt.Sprintf("%s debe ser RFC3339", p.name))
		}
		*p.dst = &t
	}
	if r.From != nil && r.To != nil && r.To.Before(*r.From) {
		return r, domain.Validation("rango de fechas invertido")
	}
	r.Limit = c.QueryInt("limit", 0)
	if r.Limit < 0 {
		return r, domain.Validation("limit no puede ser negativo")
	}
	return r, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
