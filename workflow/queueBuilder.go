package workflow

import (
	"fmt"
	"time"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/parser"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PriorityScore is the integer day count of the invoice date since
// 1970-01-01. It is computed from the date printed on the invoice, never
// from a file or ingestion timestamp, so the ledger is a true receipt-order
// FIFO. Same-day entries tie-break on sequence_number then case_id.
func PriorityScore(invoiceDate time.Time) int {
	return int(utils.NormalizeDate(invoiceDate).Unix() / 86400)
}

// CaseId derives the stable identity of one physical case. The same case on
// the same invoice always maps to the same id, which is what queue-builder
// idempotency keys on.
func CaseId(invoiceNumber string, productCode string, sequence int) string {
	return fmt.Sprintf("%s-%s-%03d", invoiceNumber, productCode, sequence)
}

// QueueId derives the ledger id for a case's queue entry.
func QueueId(caseId string) string {
	return "FQ-" + caseId
}

// BuildQueueEntry creates the FIFO ledger record for one case. Re-running
// against an already-ingested case is a no-op: the existing entry is left
// untouched, never duplicated. Returns true when a new entry was created.
func BuildQueueEntry(tx *gorm.DB, logger *logrus.Logger, item *models.InvoiceLineItem, c *models.LineItemCase, meta parser.InvoiceMeta) (bool, error) {
	existing, err := models.CountQueueEntriesForCase(tx, c.CaseId)
	if err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}

	entry := models.FifoQueueEntry{
		QueueId:        QueueId(c.CaseId),
		ProductCode:    c.ProductCode,
		CaseId:         c.CaseId,
		InvoiceNumber:  meta.InvoiceNumber,
		InvoiceDate:    utils.NormalizeDate(meta.InvoiceDate),
		CaseNumber:     c.CaseNumber,
		Weight:         c.Weight,
		RemainingQty:   c.Weight,
		UnitCost:       item.UnitPrice,
		PriorityScore:  PriorityScore(meta.InvoiceDate),
		SequenceNumber: c.SequenceNumber,
		Status:         models.QueueStatusAvailable,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return false, err
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"queue_id":       entry.QueueId,
			"product_code":   entry.ProductCode,
			"invoice_number": entry.InvoiceNumber,
			"priority_score": entry.PriorityScore,
			"weight":         entry.Weight.String(),
		}).Debug("fifo.queue.entry_created")
	}
	return true, nil
}

// BuildQueueEntries runs the builder over every case of one line item and
// returns how many new entries were created.
func BuildQueueEntries(tx *gorm.DB, logger *logrus.Logger, item *models.InvoiceLineItem, cases []*models.LineItemCase, meta parser.InvoiceMeta) (int, error) {
	created := 0
	for _, c := range cases {
		ok, err := BuildQueueEntry(tx, logger, item, c, meta)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}
	return created, nil
}
