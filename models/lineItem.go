package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceLineItem is one product entry parsed from one invoice document.
// Rows are written once by the line extractor and never mutated.
type InvoiceLineItem struct {
	ID            int             `gorm:"primary_key" json:"id"`
	DocumentId    string          `gorm:"index;size:100;not null" json:"document_id"`
	InvoiceNumber string          `gorm:"index;size:20;not null" json:"invoice_number"`
	ProductCode   string          `gorm:"index;size:20;not null" json:"product_code"`
	Description   string          `gorm:"size:255;not null" json:"description"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	Unit          UnitOfMeasure   `gorm:"size:10;default:CS" json:"unit"`
	PackSize      string          `gorm:"size:50" json:"pack_size"`
	Brand         *string         `gorm:"size:50" json:"brand"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	ExtendedPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"extended_price"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func GetLineItemsByDocumentId(tx *gorm.DB, documentId string) ([]*InvoiceLineItem, error) {
	var items []*InvoiceLineItem
	err := tx.Where("document_id = ?", documentId).Order("id ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
