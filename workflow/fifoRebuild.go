package workflow

import (
	"context"
	"time"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/config"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const lastRebuildCacheKey = "fifo:last_rebuild"

// RebuildSummary is the outcome of a full queue rebuild.
type RebuildSummary struct {
	CorrelationId   string    `json:"correlation_id"`
	Documents       int       `json:"documents"`
	DocumentsFailed int       `json:"documents_failed"`
	TotalLineItems  int       `json:"total_line_items"`
	TotalCases      int       `json:"total_cases"`
	TotalEntries    int       `json:"total_entries"`
	UniqueProducts  int       `json:"unique_products"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Failures        []DocumentFailure
}

// RebuildFifoQueue drops all derived state (line items, cases, queue entries)
// and reprocesses every stored invoice document in invoice-date order.
// Maintenance mode: the rebuild lock excludes ingestion and allocation for
// the whole run, so per-product locks are skipped inside it.
func RebuildFifoQueue(ctx context.Context, db *gorm.DB, logger *logrus.Logger) (*RebuildSummary, error) {
	if logger == nil {
		logger = config.GetLogger()
	}
	if _, ok := utils.GetCorrelationIdFromContext(ctx); !ok {
		ctx = utils.SetCorrelationIdInContext(ctx, uuid.NewString())
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)

	release, err := AcquireRebuildLock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	summary := &RebuildSummary{
		CorrelationId: correlationId,
		StartedAt:     time.Now().UTC(),
	}

	logger.WithFields(logrus.Fields{
		"correlation_id": correlationId,
	}).Info("fifo.rebuild.start")

	// Invalidate the cached summary up front so a failed rebuild does not
	// leave a stale one behind.
	if err := config.RemoveRedisKey(lastRebuildCacheKey); err != nil {
		logger.WithFields(logrus.Fields{
			"correlation_id": correlationId,
			"error":          err.Error(),
		}).Warn("fifo.rebuild.cache_invalidate_failed")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := clearDerivedState(tx); err != nil {
			return err
		}

		docs, err := models.GetInvoiceDocumentsByInvoiceDate(tx)
		if err != nil {
			return err
		}
		summary.Documents = len(docs)

		for _, doc := range docs {
			res, err := ingestDocument(ctx, tx, logger, doc, false)
			if err != nil {
				config.LogError(logger, "FifoRebuild", "RebuildFifoQueue", "document failed", doc.DocumentId, err)
				summary.DocumentsFailed++
				summary.Failures = append(summary.Failures, DocumentFailure{DocumentId: doc.DocumentId, Reason: err.Error()})
				continue
			}
			summary.TotalLineItems += res.LineItems
			summary.TotalCases += res.Cases
			summary.TotalEntries += res.QueueEntries
		}

		var products int64
		if err := tx.Model(&models.FifoQueueEntry{}).Distinct("product_code").Count(&products).Error; err != nil {
			return err
		}
		summary.UniqueProducts = int(products)
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.FinishedAt = time.Now().UTC()

	if config.GetRedisDB() != nil {
		if cacheErr := config.SetRedisObject(lastRebuildCacheKey, summary, 24*time.Hour); cacheErr != nil {
			logger.WithFields(logrus.Fields{
				"correlation_id": correlationId,
				"error":          cacheErr.Error(),
			}).Warn("fifo.rebuild.cache_failed")
		}
	}

	logger.WithFields(logrus.Fields{
		"correlation_id":   correlationId,
		"documents":        summary.Documents,
		"documents_failed": summary.DocumentsFailed,
		"total_cases":      summary.TotalCases,
		"total_entries":    summary.TotalEntries,
		"unique_products":  summary.UniqueProducts,
		"duration_ms":      summary.FinishedAt.Sub(summary.StartedAt).Milliseconds(),
	}).Info("fifo.rebuild.end")

	return summary, nil
}

// LastRebuildSummary returns the cached summary of the most recent rebuild,
// if Redis is configured and a rebuild has completed within the cache TTL.
func LastRebuildSummary() (*RebuildSummary, bool, error) {
	var summary RebuildSummary
	found, err := config.GetRedisObject(lastRebuildCacheKey, &summary)
	if err != nil || !found {
		return nil, false, err
	}
	return &summary, true, nil
}

// clearDerivedState wipes everything rebuilt from raw documents. Order
// matters: queue entries reference cases, cases reference line items.
func clearDerivedState(tx *gorm.DB) error {
	if err := tx.Where("1 = 1").Delete(&models.FifoQueueEntry{}).Error; err != nil {
		return err
	}
	if err := tx.Where("1 = 1").Delete(&models.LineItemCase{}).Error; err != nil {
		return err
	}
	return tx.Where("1 = 1").Delete(&models.InvoiceLineItem{}).Error
}
