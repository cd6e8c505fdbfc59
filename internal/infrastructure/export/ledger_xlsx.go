// Package export genera planillas Excel del kardex.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

const (
	ledgerSheet    = "Kardex"
	inventorySheet = "Existencias"
)

var ledgerHeaders = []string{
	"Seq", "Fecha", "Material", "Bodega", "Ubicación", "Lote", "Dirección", "Tipo",
	"Delta", "Antes", "Después", "Pedido", "Línea", "Actor", "ID",
}

var inventoryHeaders = []string{"Material", "Bodega", "Ubicación", "Lote", "Cantidad", "Actualizado"}

// LedgerWorkbook arma un libro con una hoja de transacciones y, si records no está vacío,
// otra con las existencias actuales. El llamador decide dónde escribirlo (f.Write).
func LedgerWorkbook(txs []entity.LedgerTransaction, records []entity.InventoryRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		return nil, fmt.Errorf("renombrar hoja: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("estilo cabecera: %w", err)
	}

	if err := writeHeaders(f, ledgerSheet, ledgerHeaders, headerStyle); err != nil {
		return nil, err
	}
	for i, tx := range txs {
		row := i + 2
		values := []interface{}{
			tx.Seq,
			tx.CreatedAt.Format("2006-01-02 15:04:05"),
			tx.Key.MaterialCode, tx.Key.WarehouseID, tx.Key.LocationCode, tx.Key.BatchID,
			tx.Direction, tx.Kind,
			tx.Delta.InexactFloat64(), tx.BeforeQuantity.InexactFloat64(), tx.AfterQuantity.InexactFloat64(),
			tx.RelatedOrderID, tx.LineRef, tx.Actor, tx.ID,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(ledgerSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("fila %d: %w", row, err)
		}
	}
	setWidths(f, ledgerSheet, []float64{8, 20, 12, 10, 12, 12, 11, 18, 12, 12, 12, 38, 40, 16, 38})

	if len(records) > 0 {
		if _, err := f.NewSheet(inventorySheet); err != nil {
			return nil, fmt.Errorf("crear hoja: %w", err)
		}
		if err := writeHeaders(f, inventorySheet, inventoryHeaders, headerStyle); err != nil {
			return nil, err
		}
		for i, r := range records {
			row := i + 2
			values := []interface{}{
				r.Key.MaterialCode, r.Key.WarehouseID, r.Key.LocationCode, r.Key.BatchID,
				r.Quantity.InexactFloat64(), r.LastUpdated.Format("2006-01-02 15:04:05"),
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(inventorySheet, cell, &values); err != nil {
				return nil, fmt.Errorf("fila %d: %w", row, err)
			}
		}
		setWidths(f, inventorySheet, []float64{12, 10, 12, 12, 12, 20})
	}
	return f, nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("cabecera %s: %w", cell, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("estilo cabecera: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func setWidths(f *excelize.File, sheet string, widths []float64) {
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}
}
