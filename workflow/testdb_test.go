package workflow

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/config"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
)

// NOTE: These tests run against in-memory sqlite. They validate engine
// semantics (ordering, splitting, atomicity, idempotency); MySQL-specific
// behavior belongs in an integration environment.

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.InvoiceDocument{},
		&models.InvoiceLineItem{},
		&models.LineItemCase{},
		&models.FifoQueueEntry{},
		&models.ReconciliationReport{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	config.SetDB(db)
	return db
}

func seedEntry(t *testing.T, db *gorm.DB, productCode, caseId string, score, seq int, weight, unitCost string) *models.FifoQueueEntry {
	t.Helper()
	c := &models.LineItemCase{
		CaseId:         caseId,
		LineItemId:     1,
		ProductCode:    productCode,
		CaseNumber:     caseId,
		Weight:         decimal.RequireFromString(weight),
		SequenceNumber: seq,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed case %s: %v", caseId, err)
	}
	entry := &models.FifoQueueEntry{
		QueueId:        QueueId(caseId),
		ProductCode:    productCode,
		CaseId:         caseId,
		InvoiceNumber:  "9020563793",
		InvoiceDate:    time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, score),
		CaseNumber:     caseId,
		Weight:         decimal.RequireFromString(weight),
		UnitCost:       decimal.RequireFromString(unitCost),
		PriorityScore:  score,
		SequenceNumber: seq,
		Status:         models.QueueStatusAvailable,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("seed entry %s: %v", caseId, err)
	}
	return entry
}

func loadEntry(t *testing.T, db *gorm.DB, caseId string) *models.FifoQueueEntry {
	t.Helper()
	entry, err := models.GetQueueEntryByCaseId(db, caseId)
	if err != nil {
		t.Fatalf("load entry %s: %v", caseId, err)
	}
	return entry
}

func decimalEqual(t *testing.T, got decimal.Decimal, want string, what string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", what, got.String(), want)
	}
}
