package reports

import (
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
	"github.com/xuri/excelize/v2"
)

func writeSheet(f *excelize.File, sheetName string, headings []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportFifoLedgerExcel writes the full queue ledger and the per-product
// stock summary to one workbook with two sheets.
func ExportFifoLedgerExcel(ledger []*FifoLedgerRow, summary []*StockSummaryRow, filename string) error {
	f := excelize.NewFile()

	ledgerRows := make([][]interface{}, 0, len(ledger))
	for _, d := range ledger {
		invoiceDate := ""
		if d.InvoiceDate != nil {
			invoiceDate = d.InvoiceDate.Format("2006-01-02")
		}
		ledgerRows = append(ledgerRows, []interface{}{
			d.QueueId, d.ProductCode, d.InvoiceNumber, invoiceDate,
			d.CaseNumber, d.SequenceNumber,
			d.Weight.InexactFloat64(), d.RemainingQty.InexactFloat64(),
			d.ConsumedQty.InexactFloat64(), d.UnitCost.InexactFloat64(),
			d.PriorityScore, d.Status,
		})
	}
	err := writeSheet(f, "FifoLedger",
		[]string{"QueueId", "ProductCode", "InvoiceNumber", "InvoiceDate", "CaseNumber", "SequenceNumber", "Weight", "RemainingQty", "ConsumedQty", "UnitCost", "PriorityScore", "Status"},
		ledgerRows)
	if err != nil {
		return err
	}

	summaryRows := make([][]interface{}, 0, len(summary))
	for _, d := range summary {
		summaryRows = append(summaryRows, []interface{}{
			d.ProductCode, d.Cases,
			d.AvailableWeight.InexactFloat64(),
			d.AllocatedWeight.InexactFloat64(),
			d.ConsumedWeight.InexactFloat64(),
		})
	}
	err = writeSheet(f, "StockSummary",
		[]string{"ProductCode", "Cases", "AvailableWeight", "AllocatedWeight", "ConsumedWeight"},
		summaryRows)
	if err != nil {
		return err
	}

	f.DeleteSheet("Sheet1")
	return f.SaveAs(filename)
}

// ExportReconciliationExcel writes recorded discrepancies to one sheet.
func ExportReconciliationExcel(reports []*models.ReconciliationReport, filename string) error {
	f := excelize.NewFile()

	rows := make([][]interface{}, 0, len(reports))
	for _, d := range reports {
		rows = append(rows, []interface{}{
			d.ProductCode, d.CheckType,
			d.Expected.InexactFloat64(), d.Actual.InexactFloat64(), d.Delta.InexactFloat64(),
			d.Details, d.CorrelationId,
			d.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	err := writeSheet(f, "Reconciliation",
		[]string{"ProductCode", "CheckType", "Expected", "Actual", "Delta", "Details", "CorrelationId", "CreatedAt"},
		rows)
	if err != nil {
		return err
	}

	f.DeleteSheet("Sheet1")
	return f.SaveAs(filename)
}
