package workflow

import (
	"context"
	"errors"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/config"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/parser"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// IngestResult summarizes what one document contributed. Unresolvable
// metadata or unparseable lines are counted here, never raised: a malformed
// document degrades to zero extractions and the batch continues.
type IngestResult struct {
	DocumentId    string             `json:"document_id"`
	Resolved      bool               `json:"resolved"`
	InvoiceNumber string             `json:"invoice_number"`
	InvoiceDate   string             `json:"invoice_date"`
	Kind          models.InvoiceKind `json:"kind"`
	LineItems     int                `json:"line_items"`
	Cases         int                `json:"cases"`
	QueueEntries  int                `json:"queue_entries"`
	SkippedLines  int                `json:"skipped_lines"`
}

// IngestInvoiceDocument runs the full pipeline for one stored document:
// metadata resolution, line and case extraction, then queue building, all
// in one transaction with per-product serialization.
func IngestInvoiceDocument(ctx context.Context, db *gorm.DB, logger *logrus.Logger, doc *models.InvoiceDocument) (*IngestResult, error) {
	return ingestDocument(ctx, db, logger, doc, true)
}

func ingestDocument(ctx context.Context, db *gorm.DB, logger *logrus.Logger, doc *models.InvoiceDocument, lockProducts bool) (*IngestResult, error) {
	if logger == nil {
		logger = config.GetLogger()
	}
	ctx = utils.SetDocumentIdInContext(ctx, doc.DocumentId)

	result := &IngestResult{DocumentId: doc.DocumentId}

	meta, ok := parser.ResolveInvoiceMeta(doc.RawText)
	if !ok {
		// AmbiguousMemo: no known invoice/credit/debit layout matched.
		logger.WithFields(logrus.Fields{
			"document_id": doc.DocumentId,
		}).Warn("fifo.ingest.metadata_unresolved")
		return result, nil
	}
	result.Resolved = true
	result.InvoiceNumber = meta.InvoiceNumber
	result.InvoiceDate = meta.ISODate()
	result.Kind = invoiceKindOf(meta.Kind)

	items, stats := parser.ExtractLineItems(doc.RawText)
	result.SkippedLines = stats.TotalSkipped()
	lines := parser.SplitLines(doc.RawText)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := doc.SetResolvedInvoiceMeta(tx, meta.InvoiceNumber, meta.InvoiceDate, result.Kind); err != nil {
			return err
		}

		existing, err := models.GetLineItemsByDocumentId(tx, doc.DocumentId)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			// Already parsed once. Line items and cases are immutable, so
			// only the queue builder re-runs (and is a no-op for cases that
			// already have entries).
			return rebuildEntriesForExisting(ctx, tx, logger, doc, existing, meta, lockProducts, result)
		}

		for i := range items {
			item := items[i]
			caseRecords := parser.ExtractCases(lines, item.LineIndex+1)

			row := models.InvoiceLineItem{
				DocumentId:    doc.DocumentId,
				InvoiceNumber: meta.InvoiceNumber,
				ProductCode:   item.ProductCode,
				Description:   item.Description,
				Quantity:      item.Quantity,
				Unit:          models.UnitOfMeasure(item.Unit),
				PackSize:      item.PackSize,
				Brand:         brandPtr(item.Brand),
				UnitPrice:     item.UnitPrice,
				ExtendedPrice: item.ExtendedPrice,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			result.LineItems++

			if len(caseRecords) == 0 {
				// Bulk / non-case-tracked product: valid, no queue entries.
				continue
			}

			release := func() {}
			if lockProducts {
				release, err = AcquireProductLock(ctx, item.ProductCode)
				if err != nil {
					return err
				}
			}

			created, err := buildCasesAndEntries(tx, logger, &row, caseRecords, meta)
			release()
			if err != nil {
				return err
			}
			result.Cases += len(caseRecords)
			result.QueueEntries += created
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"document_id":    doc.DocumentId,
		"invoice_number": result.InvoiceNumber,
		"invoice_date":   result.InvoiceDate,
		"kind":           string(result.Kind),
		"line_items":     result.LineItems,
		"cases":          result.Cases,
		"queue_entries":  result.QueueEntries,
		"skipped_lines":  result.SkippedLines,
	}).Info("fifo.ingest.document")

	return result, nil
}

func buildCasesAndEntries(tx *gorm.DB, logger *logrus.Logger, item *models.InvoiceLineItem, caseRecords []parser.CaseRecord, meta parser.InvoiceMeta) (int, error) {
	cases := make([]*models.LineItemCase, 0, len(caseRecords))
	for _, cr := range caseRecords {
		caseId := CaseId(meta.InvoiceNumber, item.ProductCode, cr.SequenceNumber)
		c, err := models.GetCaseByCaseId(tx, caseId)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, err
			}
			c = &models.LineItemCase{
				CaseId:         caseId,
				LineItemId:     item.ID,
				ProductCode:    item.ProductCode,
				CaseNumber:     cr.CaseNumber,
				Weight:         cr.Weight,
				SequenceNumber: cr.SequenceNumber,
				Status:         models.CaseStatusInStock,
			}
			if err := tx.Create(c).Error; err != nil {
				return 0, err
			}
		}
		cases = append(cases, c)
	}
	return BuildQueueEntries(tx, logger, item, cases, meta)
}

func rebuildEntriesForExisting(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, doc *models.InvoiceDocument, items []*models.InvoiceLineItem, meta parser.InvoiceMeta, lockProducts bool, result *IngestResult) error {
	cases, err := models.GetCasesForDocument(tx, doc.DocumentId)
	if err != nil {
		return err
	}
	byLineItem := make(map[int][]*models.LineItemCase)
	for _, c := range cases {
		byLineItem[c.LineItemId] = append(byLineItem[c.LineItemId], c)
	}

	result.LineItems = len(items)
	result.Cases = len(cases)

	for _, item := range items {
		itemCases := byLineItem[item.ID]
		if len(itemCases) == 0 {
			continue
		}

		release := func() {}
		if lockProducts {
			release, err = AcquireProductLock(ctx, item.ProductCode)
			if err != nil {
				return err
			}
		}
		created, err := BuildQueueEntries(tx, logger, item, itemCases, meta)
		release()
		if err != nil {
			return err
		}
		result.QueueEntries += created
	}
	return nil
}

// DocumentFailure records one document that could not be processed; the
// rest of the batch is unaffected.
type DocumentFailure struct {
	DocumentId string `json:"document_id"`
	Reason     string `json:"reason"`
}

// BatchSummary aggregates an ingestion run over many documents.
type BatchSummary struct {
	CorrelationId     string            `json:"correlation_id"`
	Documents         int               `json:"documents"`
	Succeeded         int               `json:"succeeded"`
	Unresolved        int               `json:"unresolved"`
	TotalLineItems    int               `json:"total_line_items"`
	TotalCases        int               `json:"total_cases"`
	TotalQueueEntries int               `json:"total_queue_entries"`
	TotalSkippedLines int               `json:"total_skipped_lines"`
	Failures          []DocumentFailure `json:"failures"`
}

// IngestAllDocuments processes every stored invoice document. Documents are
// independent: one failing document is collected into the summary and the
// batch continues.
func IngestAllDocuments(ctx context.Context, db *gorm.DB, logger *logrus.Logger) (*BatchSummary, error) {
	if logger == nil {
		logger = config.GetLogger()
	}
	if _, ok := utils.GetCorrelationIdFromContext(ctx); !ok {
		ctx = utils.SetCorrelationIdInContext(ctx, uuid.NewString())
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	docs, err := models.GetInvoiceDocumentsByInvoiceDate(db)
	if err != nil {
		return nil, err
	}

	summary := &BatchSummary{CorrelationId: correlationId, Documents: len(docs)}
	for _, doc := range docs {
		res, err := IngestInvoiceDocument(ctx, db, logger, doc)
		if err != nil {
			config.LogError(logger, "IngestWorkflow", "IngestAllDocuments", "document failed", doc.DocumentId, err)
			summary.Failures = append(summary.Failures, DocumentFailure{DocumentId: doc.DocumentId, Reason: err.Error()})
			continue
		}
		summary.Succeeded++
		if !res.Resolved {
			summary.Unresolved++
		}
		summary.TotalLineItems += res.LineItems
		summary.TotalCases += res.Cases
		summary.TotalQueueEntries += res.QueueEntries
		summary.TotalSkippedLines += res.SkippedLines
	}

	logger.WithFields(logrus.Fields{
		"correlation_id": correlationId,
		"documents":      summary.Documents,
		"succeeded":      summary.Succeeded,
		"unresolved":     summary.Unresolved,
		"queue_entries":  summary.TotalQueueEntries,
		"failures":       len(summary.Failures),
	}).Info("fifo.ingest.batch")

	return summary, nil
}

func invoiceKindOf(kind parser.DocKind) models.InvoiceKind {
	switch kind {
	case parser.KindCreditMemo:
		return models.InvoiceKindCreditMemo
	case parser.KindDebitMemo:
		return models.InvoiceKindDebitMemo
	default:
		return models.InvoiceKindInvoice
	}
}

func brandPtr(brand string) *string {
	if brand == "" {
		return nil
	}
	return &brand
}
