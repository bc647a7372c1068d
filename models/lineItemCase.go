package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LineItemCase is one physical tracked unit belonging to a line item.
// CaseId is derived as invoice_number + product_code + sequence so the same
// case on the same invoice always maps to the same row.
type LineItemCase struct {
	ID             int             `gorm:"primary_key" json:"id"`
	CaseId         string          `gorm:"uniqueIndex;size:60;not null" json:"case_id"`
	LineItemId     int             `gorm:"index;not null" json:"line_item_id"`
	ProductCode    string          `gorm:"index;size:20;not null" json:"product_code"`
	CaseNumber     string          `gorm:"size:30;not null" json:"case_number"`
	Weight         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"weight"`
	WeightUnit     string          `gorm:"size:10;default:KG" json:"weight_unit"`
	SequenceNumber int             `gorm:"not null" json:"sequence_number"`
	Status         CaseStatus      `gorm:"size:20;default:IN_STOCK" json:"status"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (LineItemCase) TableName() string {
	return "line_item_cases"
}

// BeforeSave enforces internal invariants for case rows.
//
// Case weight is the quantity the FIFO queue conserves across allocations,
// so a negative weight can never be written.
func (c *LineItemCase) BeforeSave(tx *gorm.DB) error {
	_ = tx // signature required by gorm; tx may be nil in tests
	if c == nil {
		return nil
	}
	if c.Status == "" {
		c.Status = CaseStatusInStock
	}
	if c.WeightUnit == "" {
		c.WeightUnit = "KG"
	}
	if c.Weight.IsNegative() {
		return errors.New("case weight cannot be negative")
	}
	return nil
}

func GetCaseByCaseId(tx *gorm.DB, caseId string) (*LineItemCase, error) {
	var c LineItemCase
	if err := tx.Where("case_id = ?", caseId).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCasesForDocument loads every case belonging to a document's line
// items, in appearance order.
func GetCasesForDocument(tx *gorm.DB, documentId string) ([]*LineItemCase, error) {
	var cases []*LineItemCase
	err := tx.Where("line_item_id IN (?)",
		tx.Session(&gorm.Session{NewDB: true}).Model(&InvoiceLineItem{}).Select("id").Where("document_id = ?", documentId)).
		Order("line_item_id ASC, sequence_number ASC").
		Find(&cases).Error
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func UpdateCaseStatus(tx *gorm.DB, caseId string, status CaseStatus) error {
	return tx.Model(&LineItemCase{}).
		Where("case_id = ?", caseId).
		Update("status", status).Error
}
