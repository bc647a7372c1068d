package models

import (
	"errors"
	"time"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FifoQueueEntry is the priority-ordered ledger record for one case.
//
// PriorityScore is the integer day count of the invoice date since
// 1970-01-01, derived from the date printed on the invoice, never from a
// file or ingestion timestamp. For one product, entries are always consumed
// in non-decreasing (priority_score, sequence_number, case_id) order.
//
// Rows are never deleted. A partial draw reduces RemainingQty and leaves the
// row AVAILABLE at its original score, so the remainder is still consumed
// before any newer stock; fully drawn rows move to ALLOCATED and later
// CONSUMED, preserving the audit history.
type FifoQueueEntry struct {
	ID             int             `gorm:"primary_key" json:"id"`
	QueueId        string          `gorm:"uniqueIndex;size:80;not null" json:"queue_id"`
	ProductCode    string          `gorm:"index;size:20;not null" json:"product_code"`
	CaseId         string          `gorm:"uniqueIndex;size:60;not null" json:"case_id"`
	InvoiceNumber  string          `gorm:"index;size:20;not null" json:"invoice_number"`
	InvoiceDate    time.Time       `gorm:"not null" json:"invoice_date"`
	CaseNumber     string          `gorm:"size:30" json:"case_number"`
	Weight         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"weight"`
	RemainingQty   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"remaining_qty"`
	ConsumedQty    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"consumed_qty"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	PriorityScore  int             `gorm:"index;not null" json:"priority_score"`
	SequenceNumber int             `gorm:"not null" json:"sequence_number"`
	Status         QueueStatus     `gorm:"size:20;default:AVAILABLE" json:"status"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FifoQueueEntry) TableName() string {
	return "fifo_queue"
}

// BeforeSave enforces internal invariants for the queue ledger.
//
// CRITICAL: the conservation property (consumed + remaining == weight) is
// what allocation splitting relies on. Rows written by older code paths
// sometimes carried a zero RemainingQty for fresh stock, which made the
// allocator think the layer was exhausted.
func (e *FifoQueueEntry) BeforeSave(tx *gorm.DB) error {
	_ = tx // signature required by gorm; tx may be nil in tests
	if e == nil {
		return nil
	}
	if e.Status == "" {
		e.Status = QueueStatusAvailable
	}
	if e.RemainingQty.IsZero() && e.ConsumedQty.IsZero() && e.Weight.IsPositive() {
		e.RemainingQty = e.Weight
	}
	if !e.ConsumedQty.Add(e.RemainingQty).Equal(e.Weight) {
		return errors.New("queue entry consumed + remaining must equal weight")
	}
	if e.RemainingQty.IsNegative() || e.ConsumedQty.IsNegative() {
		return errors.New("queue entry quantities cannot be negative")
	}
	return nil
}

// GetAvailableQueueEntries loads the AVAILABLE layers for one product in
// strict consumption order.
func GetAvailableQueueEntries(tx *gorm.DB, productCode string) ([]*FifoQueueEntry, error) {
	var entries []*FifoQueueEntry
	err := tx.Where("product_code = ? AND status = ?", productCode, QueueStatusAvailable).
		Order("priority_score ASC, sequence_number ASC, case_id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// SumAvailableWeight returns the total remaining weight over AVAILABLE
// entries for one product.
func SumAvailableWeight(tx *gorm.DB, productCode string) (decimal.Decimal, error) {
	entries, err := GetAvailableQueueEntries(tx, productCode)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.RemainingQty)
	}
	return total, nil
}

func GetQueueEntryByCaseId(tx *gorm.DB, caseId string) (*FifoQueueEntry, error) {
	var entry FifoQueueEntry
	if err := tx.Where("case_id = ?", caseId).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func CountQueueEntriesForCase(tx *gorm.DB, caseId string) (int64, error) {
	var count int64
	err := tx.Model(&FifoQueueEntry{}).Where("case_id = ?", caseId).Count(&count).Error
	return count, err
}
