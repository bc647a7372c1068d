package reports

import (
	"context"
	"time"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/config"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/utils"
	"github.com/shopspring/decimal"
)

type FifoLedgerRow struct {
	QueueId        string          `json:"queueId"`
	ProductCode    string          `json:"productCode"`
	InvoiceNumber  string          `json:"invoiceNumber"`
	InvoiceDate    *time.Time      `json:"invoiceDate,omitempty"`
	CaseNumber     string          `json:"caseNumber"`
	SequenceNumber int             `json:"sequenceNumber"`
	Weight         decimal.Decimal `json:"weight"`
	RemainingQty   decimal.Decimal `json:"remainingQty"`
	ConsumedQty    decimal.Decimal `json:"consumedQty"`
	UnitCost       decimal.Decimal `json:"unitCost"`
	PriorityScore  int             `json:"priorityScore"`
	Status         string          `json:"status"`
}

// GetFifoLedgerReport returns every queue entry in consumption order. A nil
// productCode returns the full ledger across products.
func GetFifoLedgerReport(ctx context.Context, productCode *string) ([]*FifoLedgerRow, error) {
	db := config.GetDB()

	query := db.WithContext(ctx).Model(&models.FifoQueueEntry{}).
		Select("queue_id, product_code, invoice_number, invoice_date, case_number, sequence_number, weight, remaining_qty, consumed_qty, unit_cost, priority_score, status").
		Order("product_code ASC, priority_score ASC, sequence_number ASC, case_id ASC")
	if code := utils.DereferencePtr(productCode, ""); code != "" {
		query = query.Where("product_code = ?", code)
	}

	var rows []*FifoLedgerRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type StockSummaryRow struct {
	ProductCode     string          `json:"productCode"`
	Cases           int             `json:"cases"`
	AvailableWeight decimal.Decimal `json:"availableWeight"`
	AllocatedWeight decimal.Decimal `json:"allocatedWeight"`
	ConsumedWeight  decimal.Decimal `json:"consumedWeight"`
}

// GetStockSummaryReport aggregates remaining and drawn weight per product.
func GetStockSummaryReport(ctx context.Context) ([]*StockSummaryRow, error) {
	db := config.GetDB()

	sql := `
SELECT
    product_code,
    COUNT(*) AS cases,
    SUM(CASE WHEN status = 'AVAILABLE' THEN remaining_qty ELSE 0 END) AS available_weight,
    SUM(CASE WHEN status = 'ALLOCATED' THEN consumed_qty ELSE 0 END) AS allocated_weight,
    SUM(CASE WHEN status = 'CONSUMED' THEN consumed_qty ELSE 0 END) AS consumed_weight
FROM fifo_queue
GROUP BY product_code
ORDER BY product_code
`
	var rows []*StockSummaryRow
	if err := db.WithContext(ctx).Raw(sql).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetReconciliationReport lists recorded discrepancies, newest first.
func GetReconciliationReport(ctx context.Context, productCode *string) ([]*models.ReconciliationReport, error) {
	db := config.GetDB()

	query := db.WithContext(ctx).Model(&models.ReconciliationReport{}).
		Order("created_at DESC, id DESC")
	if code := utils.DereferencePtr(productCode, ""); code != "" {
		query = query.Where("product_code = ?", code)
	}

	var rows []*models.ReconciliationReport
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
