package models

import (
	"context"
	"errors"
	"time"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/config"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/utils"
	"gorm.io/gorm"
)

// InvoiceDocument is the stored raw text of one vendor invoice, keyed by the
// document id assigned at upload time. Invoice number, date and kind are
// filled in by the metadata resolver during ingestion; they stay NULL for
// documents that never resolved.
type InvoiceDocument struct {
	ID            int          `gorm:"primary_key" json:"id"`
	DocumentId    string       `gorm:"uniqueIndex;size:100;not null" json:"document_id"`
	Vendor        string       `gorm:"size:100" json:"vendor"`
	RawText       string       `gorm:"type:longtext;not null" json:"raw_text"`
	InvoiceNumber *string      `gorm:"index;size:20" json:"invoice_number"`
	InvoiceDate   *time.Time   `gorm:"index" json:"invoice_date"`
	Kind          *InvoiceKind `gorm:"size:20" json:"kind"`
	ReceivedAt    time.Time    `gorm:"not null" json:"received_at"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvoiceDocument struct {
	DocumentId string `json:"document_id" validate:"required,max=100"`
	Vendor     string `json:"vendor" validate:"max=100"`
	RawText    string `json:"raw_text" validate:"required"`
}

func CreateInvoiceDocument(ctx context.Context, input *NewInvoiceDocument) (*InvoiceDocument, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	doc := InvoiceDocument{
		DocumentId: input.DocumentId,
		Vendor:     input.Vendor,
		RawText:    input.RawText,
		ReceivedAt: time.Now().UTC(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func GetInvoiceDocumentByDocumentId(tx *gorm.DB, documentId string) (*InvoiceDocument, error) {
	var doc InvoiceDocument
	if err := tx.Where("document_id = ?", documentId).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// GetInvoiceDocumentsByInvoiceDate returns every stored document ordered by
// resolved invoice date (unresolved documents last, by received time). This
// is the rebuild order: true receipt chronology, never file timestamps.
func GetInvoiceDocumentsByInvoiceDate(tx *gorm.DB) ([]*InvoiceDocument, error) {
	var docs []*InvoiceDocument
	err := tx.Model(&InvoiceDocument{}).
		Order("invoice_date IS NULL, invoice_date ASC, received_at ASC, id ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// SetResolvedInvoiceMeta records the outcome of the metadata resolver on the
// stored document so later batch runs can order by invoice date without
// reparsing.
func (doc *InvoiceDocument) SetResolvedInvoiceMeta(tx *gorm.DB, invoiceNumber string, invoiceDate time.Time, kind InvoiceKind) error {
	doc.InvoiceNumber = &invoiceNumber
	doc.InvoiceDate = &invoiceDate
	doc.Kind = &kind
	return tx.Model(&InvoiceDocument{}).
		Where("id = ?", doc.ID).
		Updates(map[string]interface{}{
			"invoice_number": invoiceNumber,
			"invoice_date":   invoiceDate,
			"kind":           kind,
		}).Error
}
