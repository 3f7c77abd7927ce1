package handlers

import (
	"fmt"
	"io"

	"go-pos-inventory/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetSales      = "Transactions"
	sheetItems      = "Items"
)

var (
	salesHeader = []interface{}{"Number", "Date", "Cashier", "Payment", "Items", "Total", "Cash", "Change", "Terminal"}
	itemsHeader = []interface{}{"Number", "Product ID", "Product", "Quantity", "Price", "Subtotal"}
)

// writeTransactionsWorkbook renders one sheet of sale headers and one of line items.
func writeTransactionsWorkbook(w io.Writer, records []models.TransactionRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSales); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetItems); err != nil {
		return err
	}

	if err := f.SetSheetRow(sheetSales, "A1", &salesHeader); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetItems, "A1", &itemsHeader); err != nil {
		return err
	}

	itemRow := 2
	for i, r := range records {
		units := 0
		for _, item := range r.Items {
			units += item.Quantity
		}
		row := []interface{}{
			r.Number,
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			r.CashierName,
			r.PaymentMethod,
			units,
			r.Total.InexactFloat64(),
			r.CashAmount.InexactFloat64(),
			r.ChangeAmount.InexactFloat64(),
			r.TerminalID,
		}
		if err := f.SetSheetRow(sheetSales, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}

		for _, item := range r.Items {
			line := []interface{}{
				r.Number,
				item.ProductID,
				item.Name,
				item.Quantity,
				item.Price.InexactFloat64(),
				item.Subtotal.InexactFloat64(),
			}
			if err := f.SetSheetRow(sheetItems, fmt.Sprintf("A%d", itemRow), &line); err != nil {
				return err
			}
			itemRow++
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(sheetSales, 1, 1, bold)
		_ = f.SetRowStyle(sheetItems, 1, 1, bold)
	}
	_ = f.SetColWidth(sheetSales, "A", "B", 20)
	_ = f.SetColWidth(sheetItems, "C", "C", 28)

	return f.Write(w)
}
