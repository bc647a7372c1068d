package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrInvalidQuantity is a caller contract violation: a zero or negative
// requested quantity is a programming error, rejected before any mutation.
var ErrInvalidQuantity = errors.New("allocation quantity must be positive")

// ErrPriorityViolation indicates the engine was about to dequeue out of
// priority order. This is an engine or store bug, never ordinary data
// quality, and must hard-fail.
var ErrPriorityViolation = errors.New("fifo queue entries out of priority order")

// InsufficientStockError is returned when the AVAILABLE weight for a
// product cannot cover the request. The request fails atomically: partial
// allocation is never silently returned.
type InsufficientStockError struct {
	ProductCode string
	Requested   decimal.Decimal
	Available   decimal.Decimal
	Shortfall   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product_code=%s requested=%s available=%s shortfall=%s",
		e.ProductCode, e.Requested.String(), e.Available.String(), e.Shortfall.String())
}

// AllocationLine is one queue entry's contribution to an allocation.
type AllocationLine struct {
	QueueId        string          `json:"queue_id"`
	CaseId         string          `json:"case_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	PriorityScore  int             `json:"priority_score"`
	SequenceNumber int             `json:"sequence_number"`
	QtyDrawn       decimal.Decimal `json:"qty_drawn"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	LineCost       decimal.Decimal `json:"line_cost"`
	SplitRemainder decimal.Decimal `json:"split_remainder"` // weight left AVAILABLE on a split entry
}

// AllocationResult reports the consumed entries with their contributed
// quantities, enabling weighted-average or specific-identification costing.
type AllocationResult struct {
	ProductCode      string           `json:"product_code"`
	RequestedQty     decimal.Decimal  `json:"requested_qty"`
	Lines            []AllocationLine `json:"lines"`
	TotalCost        decimal.Decimal  `json:"total_cost"`
	WeightedUnitCost decimal.Decimal  `json:"weighted_unit_cost"`
}

// AllocateStock draws the requested quantity for one product from the FIFO
// queue in strict (priority_score, sequence_number, case_id) order.
//
// A fully drawn entry moves to ALLOCATED. If the last entry would overshoot,
// it is split: the drawn fraction is recorded and the remainder stays
// AVAILABLE on the same ledger row at its original priority score, so it is
// still consumed before any newer stock.
func AllocateStock(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, productCode string, requestedQty decimal.Decimal) (*AllocationResult, error) {
	if !requestedQty.IsPositive() {
		return nil, ErrInvalidQuantity
	}

	release, err := AcquireProductLock(ctx, productCode)
	if err != nil {
		return nil, err
	}
	defer release()

	entries, err := models.GetAvailableQueueEntries(tx, productCode)
	if err != nil {
		return nil, err
	}
	if err := checkPriorityOrder(entries); err != nil {
		return nil, err
	}

	available := decimal.Zero
	for _, e := range entries {
		available = available.Add(e.RemainingQty)
	}
	if available.LessThan(requestedQty) {
		return nil, &InsufficientStockError{
			ProductCode: productCode,
			Requested:   requestedQty,
			Available:   available,
			Shortfall:   requestedQty.Sub(available),
		}
	}

	result := &AllocationResult{
		ProductCode:  productCode,
		RequestedQty: requestedQty,
		TotalCost:    decimal.Zero,
	}

	need := requestedQty
	for _, entry := range entries {
		if !need.IsPositive() {
			break
		}

		drawn := entry.RemainingQty
		if drawn.GreaterThan(need) {
			drawn = need
		}

		entry.ConsumedQty = entry.ConsumedQty.Add(drawn)
		entry.RemainingQty = entry.RemainingQty.Sub(drawn)

		line := AllocationLine{
			QueueId:        entry.QueueId,
			CaseId:         entry.CaseId,
			InvoiceNumber:  entry.InvoiceNumber,
			PriorityScore:  entry.PriorityScore,
			SequenceNumber: entry.SequenceNumber,
			QtyDrawn:       drawn,
			UnitCost:       entry.UnitCost,
			LineCost:       drawn.Mul(entry.UnitCost),
		}

		if entry.RemainingQty.IsPositive() {
			// Split: remainder keeps the original score so it outranks
			// newer stock on the next draw.
			line.SplitRemainder = entry.RemainingQty
		} else {
			entry.Status = models.QueueStatusAllocated
			if err := models.UpdateCaseStatus(tx, entry.CaseId, models.CaseStatusAllocated); err != nil {
				return nil, err
			}
		}

		if err := tx.Save(entry).Error; err != nil {
			return nil, err
		}

		result.Lines = append(result.Lines, line)
		result.TotalCost = result.TotalCost.Add(line.LineCost)
		need = need.Sub(drawn)
	}

	if !requestedQty.IsZero() {
		result.WeightedUnitCost = result.TotalCost.DivRound(requestedQty, 4)
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"product_code":  productCode,
			"requested_qty": requestedQty.String(),
			"entries_drawn": len(result.Lines),
			"total_cost":    result.TotalCost.String(),
		}).Info("fifo.allocate")
	}

	return result, nil
}

// checkPriorityOrder verifies the store handed back a correctly ordered
// AVAILABLE set before anything is mutated.
func checkPriorityOrder(entries []*models.FifoQueueEntry) error {
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.PriorityScore < prev.PriorityScore {
			return ErrPriorityViolation
		}
		if cur.PriorityScore == prev.PriorityScore {
			if cur.SequenceNumber < prev.SequenceNumber {
				return ErrPriorityViolation
			}
			if cur.SequenceNumber == prev.SequenceNumber && cur.CaseId < prev.CaseId {
				return ErrPriorityViolation
			}
		}
	}
	return nil
}

// MarkEntriesConsumed completes the lifecycle for allocated entries,
// transitioning ALLOCATED rows (and their cases) to CONSUMED. Rows are
// never deleted; the history stays auditable.
func MarkEntriesConsumed(tx *gorm.DB, queueIds []string) error {
	for _, queueId := range queueIds {
		var entry models.FifoQueueEntry
		if err := tx.Where("queue_id = ?", queueId).First(&entry).Error; err != nil {
			return err
		}
		if entry.Status != models.QueueStatusAllocated {
			return fmt.Errorf("queue entry %s is %s, not ALLOCATED", queueId, entry.Status)
		}
		entry.Status = models.QueueStatusConsumed
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}
		if err := models.UpdateCaseStatus(tx, entry.CaseId, models.CaseStatusConsumed); err != nil {
			return err
		}
	}
	return nil
}
