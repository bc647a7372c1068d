package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
)

type InvoiceKind string

const (
	InvoiceKindInvoice    InvoiceKind = "Invoice"
	InvoiceKindCreditMemo InvoiceKind = "CreditMemo"
	InvoiceKindDebitMemo  InvoiceKind = "DebitMemo"
)

func (k InvoiceKind) Value() (driver.Value, error) {
	return string(k), nil
}

func (k *InvoiceKind) Scan(v interface{}) error {
	s, err := scanString(v)
	if err != nil {
		return err
	}
	switch InvoiceKind(s) {
	case InvoiceKindInvoice, InvoiceKindCreditMemo, InvoiceKindDebitMemo:
		*k = InvoiceKind(s)
	case "":
		*k = InvoiceKindInvoice
	default:
		return fmt.Errorf("invalid invoice kind %q", s)
	}
	return nil
}

// UnitOfMeasure is the vendor unit code on a parsed product line.
type UnitOfMeasure string

const (
	UnitCase  UnitOfMeasure = "CS"
	UnitEach  UnitOfMeasure = "EA"
	UnitPiece UnitOfMeasure = "PC"
	UnitBox   UnitOfMeasure = "BX"
	UnitPack  UnitOfMeasure = "PK"
)

func IsValidUnit(s string) bool {
	switch UnitOfMeasure(s) {
	case UnitCase, UnitEach, UnitPiece, UnitBox, UnitPack:
		return true
	}
	return false
}

func (u UnitOfMeasure) Value() (driver.Value, error) {
	return string(u), nil
}

func (u *UnitOfMeasure) Scan(v interface{}) error {
	s, err := scanString(v)
	if err != nil {
		return err
	}
	if s != "" && !IsValidUnit(s) {
		return fmt.Errorf("invalid unit of measure %q", s)
	}
	*u = UnitOfMeasure(s)
	return nil
}

type CaseStatus string

const (
	CaseStatusInStock   CaseStatus = "IN_STOCK"
	CaseStatusAllocated CaseStatus = "ALLOCATED"
	CaseStatusConsumed  CaseStatus = "CONSUMED"
)

func (s CaseStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *CaseStatus) Scan(v interface{}) error {
	str, err := scanString(v)
	if err != nil {
		return err
	}
	switch CaseStatus(str) {
	case CaseStatusInStock, CaseStatusAllocated, CaseStatusConsumed:
		*s = CaseStatus(str)
	case "":
		*s = CaseStatusInStock
	default:
		return fmt.Errorf("invalid case status %q", str)
	}
	return nil
}

type QueueStatus string

const (
	QueueStatusAvailable QueueStatus = "AVAILABLE"
	QueueStatusAllocated QueueStatus = "ALLOCATED"
	QueueStatusConsumed  QueueStatus = "CONSUMED"
)

func (s QueueStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *QueueStatus) Scan(v interface{}) error {
	str, err := scanString(v)
	if err != nil {
		return err
	}
	switch QueueStatus(str) {
	case QueueStatusAvailable, QueueStatusAllocated, QueueStatusConsumed:
		*s = QueueStatus(str)
	case "":
		*s = QueueStatusAvailable
	default:
		return fmt.Errorf("invalid queue status %q", str)
	}
	return nil
}

func scanString(v interface{}) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case nil:
		return "", nil
	default:
		return "", errors.New("enum column must scan from string")
	}
}
