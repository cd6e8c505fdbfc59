// Package pdf genera el acta de conteo físico (stock check) en PDF.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Bodega + tipo de conteo  │  Código + Estado         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DATOS: Responsable / Programado / Iniciado / Completado     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Material | Ubic. | Lote | Sistema | Físico | Dif.    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Ítems / Contados / Asumidos / Ajuste neto          │
//	│  FOOTER: QR con el código + firmas                           │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 20, Blue: 20}
	colorGreen   = &props.Color{Red: 20, Green: 120, Blue: 40}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// StockCheckReport genera el acta de un conteo físico con Maroto v2.
type StockCheckReport struct{}

// NewStockCheckReport construye el generador.
func NewStockCheckReport() *StockCheckReport { return &StockCheckReport{} }

// Generate genera el PDF y devuelve sus bytes. warehouse puede ser nil.
func (g *StockCheckReport) Generate(_ context.Context, check *entity.StockCheck, warehouse *entity.Warehouse) ([]byte, error) {
	if check == nil {
		return nil, fmt.Errorf("pdf: conteo nil")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Acta de conteo "+check.Code, true).
		WithAuthor(nonEmpty(check.Manager, check.CreatedBy), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(check, warehouse))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(datesRow(check))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(itemRows(check.Items)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(summaryRow(check))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(check))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(check *entity.StockCheck, warehouse *entity.Warehouse) core.Row {
	name := check.WarehouseID
	if warehouse != nil && warehouse.Name != "" {
		name = warehouse.Name + " (" + warehouse.ID + ")"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Conteo "+typeLabel(check.Type), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("ACTA DE CONTEO FÍSICO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(check.Code, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Estado: "+check.Status, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func datesRow(check *entity.StockCheck) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("RESPONSABLE: "+nonEmpty(check.Manager, "-"), props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Programado: %s   |   Iniciado: %s   |   Completado: %s",
				formatDate(&check.ScheduledDate),
				formatDate(check.StartedAt),
				formatDate(check.CompletedAt),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Material", 2, align.Left),
		h("Ubicación", 2, align.Left),
		h("Lote", 2, align.Left),
		h("Sistema", 2, align.Right),
		h("Físico", 2, align.Right),
		h("Dif.", 1, align.Right),
		h("Est.", 1, align.Center),
	)
}

// itemRows una fila por ítem; la diferencia se pinta en rojo si es faltante.
func itemRows(items []entity.StockCheckItem) []core.Row {
	result := make([]core.Row, 0, len(items))
	for _, it := range items {
		actual, diff := "-", "-"
		diffColor := colorGray
		if it.ActualQuantity != nil {
			actual = it.ActualQuantity.String()
		}
		if d, ok := it.Difference(); ok {
			diff = signed(d)
			switch {
			case d.IsNegative():
				diffColor = colorRed
			case d.IsPositive():
				diffColor = colorGreen
			}
		}
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(it.Key.MaterialCode, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(it.Key.LocationCode, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(it.Key.BatchID, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(it.SystemQuantity.String(), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(actual, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(diff, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1, Color: diffColor})),
			col.New(1).Add(text.New(statusMark(it.Status), props.Text{Size: 8, Align: align.Center, Top: 1})),
		))
	}
	return result
}

func summaryRow(check *entity.StockCheck) core.Row {
	s := Summarize(check)
	label := func(v string) core.Component {
		return text.New(v, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(v string) core.Component {
		return text.New(v, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(22).Add(
		col.New(6),
		col.New(3).Add(
			label("Ítems:"),
			label("Contados:"),
			label("Asumidos:"),
			label("Ajuste neto:"),
		),
		col.New(3).Add(
			value(fmt.Sprintf("%d", s.Items)),
			value(fmt.Sprintf("%d", s.Counted)),
			value(fmt.Sprintf("%d", s.Assumed)),
			value(signed(s.NetAdjustment)),
		),
	)
}

func footerRow(check *entity.StockCheck) core.Row {
	legend := "Firma responsable: ______________________"
	if check.ForceFilled {
		legend = "Completado forzado: los ítems sin conteo se asumieron iguales al sistema.\n" + legend
	}
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(check.Code, props.Rect{Percent: 90, Center: true})),
		col.New(9).Add(
			text.New(legend, props.Text{Size: 8, Top: 6, Left: 3, Color: colorGray}),
			text.New(fmt.Sprintf("Transacciones de ajuste: %d", len(check.TransactionIDs)), props.Text{
				Size: 8, Top: 24, Left: 3, Color: colorPrimary,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// Summary totales del acta.
type Summary struct {
	Items         int
	Counted       int
	Assumed       int
	NetAdjustment decimal.Decimal
}

// Summarize calcula los totales del acta a partir de los ítems.
func Summarize(check *entity.StockCheck) Summary {
	s := Summary{Items: len(check.Items), NetAdjustment: decimal.Zero}
	for _, it := range check.Items {
		switch it.Status {
		case entity.StockCheckItemCounted:
			s.Counted++
		case entity.StockCheckItemAssumed:
			s.Assumed++
		}
		if d, ok := it.Difference(); ok {
			s.NetAdjustment = s.NetAdjustment.Add(d)
		}
	}
	return s
}

func typeLabel(t string) string {
	switch t {
	case entity.StockCheckTypeFull:
		return "total"
	case entity.StockCheckTypeSampling:
		return "por muestreo"
	case entity.StockCheckTypeTemporary:
		return "temporal"
	case entity.StockCheckTypeMonthEnd:
		return "de cierre de mes"
	}
	return t
}

func statusMark(s string) string {
	switch s {
	case entity.StockCheckItemCounted:
		return "OK"
	case entity.StockCheckItemAssumed:
		return "AS"
	}
	return "--"
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.String()
	}
	return d.String()
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006 15:04")
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
