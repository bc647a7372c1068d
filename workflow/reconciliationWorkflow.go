package workflow

import (
	"context"
	"fmt"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/config"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const checkTypeStockCount = "STOCK_COUNT"

// reconciliationTolerance absorbs decimal rounding from split entries.
var reconciliationTolerance = decimal.NewFromFloat(0.000001)

// ReconciliationResult compares an externally observed on-hand quantity
// against the remaining weight of AVAILABLE queue entries for one product.
type ReconciliationResult struct {
	ProductCode string          `json:"product_code"`
	Expected    decimal.Decimal `json:"expected"`
	Actual      decimal.Decimal `json:"actual"`
	Delta       decimal.Decimal `json:"delta"`
	Matched     bool            `json:"matched"`
}

// ReconcileProduct is read-only with respect to the queue. A mismatch is
// recorded as a ReconciliationReport row, never corrected in place.
func ReconcileProduct(ctx context.Context, db *gorm.DB, logger *logrus.Logger, productCode string, expected decimal.Decimal) (*ReconciliationResult, error) {
	if logger == nil {
		logger = config.GetLogger()
	}
	if _, ok := utils.GetCorrelationIdFromContext(ctx); !ok {
		ctx = utils.SetCorrelationIdInContext(ctx, uuid.NewString())
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	actual, err := models.SumAvailableWeight(db, productCode)
	if err != nil {
		config.LogError(logger, "ReconciliationWorkflow", "ReconcileProduct", "summing available weight", productCode, err)
		return nil, err
	}

	delta := actual.Sub(expected)
	result := &ReconciliationResult{
		ProductCode: productCode,
		Expected:    expected,
		Actual:      actual,
		Delta:       delta,
		Matched:     delta.Abs().LessThanOrEqual(reconciliationTolerance),
	}

	if !result.Matched {
		report := models.ReconciliationReport{
			ProductCode:   productCode,
			CheckType:     checkTypeStockCount,
			Expected:      expected,
			Actual:        actual,
			Delta:         delta,
			Details:       fmt.Sprintf("expected %s on hand, queue holds %s available", expected.String(), actual.String()),
			CorrelationId: correlationId,
		}
		if err := db.Create(&report).Error; err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{
			"correlation_id": correlationId,
			"product_code":   productCode,
			"expected":       expected.String(),
			"actual":         actual.String(),
			"delta":          delta.String(),
		}).Warn("fifo.reconcile.mismatch")
	} else {
		logger.WithFields(logrus.Fields{
			"correlation_id": correlationId,
			"product_code":   productCode,
			"actual":         actual.String(),
		}).Info("fifo.reconcile.match")
	}

	return result, nil
}

// ReconcileProducts runs stock-count checks for a set of product codes.
// Checks are independent: one failing product does not stop the rest.
func ReconcileProducts(ctx context.Context, db *gorm.DB, logger *logrus.Logger, counts map[string]decimal.Decimal) ([]*ReconciliationResult, error) {
	if logger == nil {
		logger = config.GetLogger()
	}
	if _, ok := utils.GetCorrelationIdFromContext(ctx); !ok {
		ctx = utils.SetCorrelationIdInContext(ctx, uuid.NewString())
	}

	results := make([]*ReconciliationResult, 0, len(counts))
	var firstErr error
	for productCode, expected := range counts {
		res, err := ReconcileProduct(ctx, db, logger, productCode, expected)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		results = append(results, res)
	}
	return results, firstErr
}

// RunConservationChecks verifies that consumed + remaining equals the
// original case weight for every queue entry, and that fully consumed
// entries are not still marked AVAILABLE. Violations are recorded as
// ReconciliationReport rows with check types QUEUE_CONSERVATION and
// QUEUE_STATUS.
func RunConservationChecks(ctx context.Context, db *gorm.DB, logger *logrus.Logger) (int, error) {
	if logger == nil {
		logger = config.GetLogger()
	}
	if _, ok := utils.GetCorrelationIdFromContext(ctx); !ok {
		ctx = utils.SetCorrelationIdInContext(ctx, uuid.NewString())
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	var entries []*models.FifoQueueEntry
	if err := db.Find(&entries).Error; err != nil {
		return 0, err
	}

	mismatches := 0
	for _, e := range entries {
		total := e.ConsumedQty.Add(e.RemainingQty)
		if total.Sub(e.Weight).Abs().GreaterThan(reconciliationTolerance) {
			report := models.ReconciliationReport{
				ProductCode:   e.ProductCode,
				CheckType:     "QUEUE_CONSERVATION",
				Expected:      e.Weight,
				Actual:        total,
				Delta:         total.Sub(e.Weight),
				Details:       fmt.Sprintf("queue entry %s: consumed + remaining does not equal case weight", e.QueueId),
				CorrelationId: correlationId,
			}
			if err := db.Create(&report).Error; err != nil {
				return mismatches, err
			}
			mismatches++
		}
		if e.Status == models.QueueStatusAvailable && e.RemainingQty.LessThanOrEqual(decimal.Zero) {
			report := models.ReconciliationReport{
				ProductCode:   e.ProductCode,
				CheckType:     "QUEUE_STATUS",
				Expected:      e.Weight,
				Actual:        e.RemainingQty,
				Delta:         e.RemainingQty,
				Details:       fmt.Sprintf("queue entry %s: AVAILABLE with nothing remaining", e.QueueId),
				CorrelationId: correlationId,
			}
			if err := db.Create(&report).Error; err != nil {
				return mismatches, err
			}
			mismatches++
		}
	}

	logger.WithFields(logrus.Fields{
		"correlation_id": correlationId,
		"entries":        len(entries),
		"mismatches":     mismatches,
	}).Info("fifo.reconcile.conservation")

	return mismatches, nil
}
