// Package export produces the payment-ledger Excel report the back office
// hands to the accountant.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mahligai-id/backoffice/internal/models"
	"github.com/mahligai-id/backoffice/internal/order"
)

const sheetName = "Ledger"

// LedgerExporter builds per-order payment-history workbooks.
type LedgerExporter struct {
	vendorName string
	logger     *zap.Logger
}

// NewLedgerExporter creates an exporter stamped with the vendor name.
func NewLedgerExporter(vendorName string, logger *zap.Logger) *LedgerExporter {
	return &LedgerExporter{vendorName: vendorName, logger: logger}
}

// BuildWorkbook renders one order's ledger into a workbook. The caller owns
// closing the returned file.
func (e *LedgerExporter) BuildWorkbook(view *order.View, client *models.Client) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	e.setCell(f, "A1", e.vendorName)
	e.setCell(f, "A2", fmt.Sprintf("Order #%d", view.Order.ID))
	if client != nil {
		e.setCell(f, "A3", client.BrideName+" & "+client.GroomName)
	}
	if view.Order.EventDate != nil {
		e.setCell(f, "A4", "Event: "+view.Order.EventDate.Format("2006-01-02"))
	}

	headerRow := 6
	headers := []string{"No", "Paid At", "Method", "Amount", "Voided"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		e.setCell(f, cell, h)
	}

	row := headerRow + 1
	for _, p := range view.Payments {
		e.setCellAt(f, 1, row, p.PaymentNumber)
		e.setCellAt(f, 2, row, p.PaidAt.Format("2006-01-02"))
		e.setCellAt(f, 3, row, p.Method)
		e.setCellAt(f, 4, row, p.Amount.String())
		voided := ""
		if p.Voided {
			voided = "VOID"
		}
		e.setCellAt(f, 5, row, voided)
		row++
	}

	row++
	e.setCellAt(f, 3, row, "Total")
	e.setCellAt(f, 4, row, view.Order.TotalAmount.String())
	row++
	e.setCellAt(f, 3, row, "Paid")
	e.setCellAt(f, 4, row, view.AmountPaid.String())
	row++
	e.setCellAt(f, 3, row, "Owed")
	e.setCellAt(f, 4, row, view.AmountOwed.String())
	row++
	e.setCellAt(f, 3, row, "Status")
	e.setCellAt(f, 4, row, string(view.Order.PaymentStatus))

	e.logger.Debug("Ledger workbook built",
		zap.Int64("order_id", view.Order.ID),
		zap.Int("payments", len(view.Payments)))
	return f, nil
}

func (e *LedgerExporter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value", zap.String("cell", cell), zap.Error(err))
	}
}

func (e *LedgerExporter) setCellAt(f *excelize.File, col, row int, value interface{}) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		e.logger.Warn("Bad cell coordinates", zap.Int("col", col), zap.Int("row", row), zap.Error(err))
		return
	}
	e.setCell(f, cell, value)
}
