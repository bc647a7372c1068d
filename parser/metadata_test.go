package parser

import (
	"testing"
)

func TestResolveInvoiceMeta_CreditMemoPair(t *testing.T) {
	text := invoiceText(
		"ACME FOODS DISTRIBUTION",
		"CREDIT MEMO",
		"Credit Original Invoice 9020563793 2002254859",
		"Credit Date: 04/01/2025",
	)

	meta, ok := ResolveInvoiceMeta(text)
	if !ok {
		t.Fatal("ResolveInvoiceMeta failed")
	}
	if meta.InvoiceNumber != "2002254859" {
		t.Errorf("InvoiceNumber = %q, want the second number 2002254859", meta.InvoiceNumber)
	}
	if meta.Kind != KindCreditMemo {
		t.Errorf("Kind = %q, want CreditMemo", meta.Kind)
	}
	if meta.ISODate() != "2025-04-01" {
		t.Errorf("date = %s, want 2025-04-01", meta.ISODate())
	}
}

func TestResolveInvoiceMeta_DebitMemoPair(t *testing.T) {
	text := invoiceText(
		"DEBIT ADJUSTMENT",
		"Debit Original Invoice 9020563793 3001112224",
		"Debit Date: 05/15/2025",
	)

	meta, ok := ResolveInvoiceMeta(text)
	if !ok {
		t.Fatal("ResolveInvoiceMeta failed")
	}
	if meta.InvoiceNumber != "3001112224" {
		t.Errorf("InvoiceNumber = %q, want 3001112224", meta.InvoiceNumber)
	}
	if meta.Kind != KindDebitMemo {
		t.Errorf("Kind = %q, want DebitMemo", meta.Kind)
	}
	if meta.ISODate() != "2025-05-15" {
		t.Errorf("date = %s, want 2025-05-15", meta.ISODate())
	}
}

func TestResolveInvoiceMeta_ConcatenatedNumberWithAdjacentDate(t *testing.T) {
	text := invoiceText(
		"ACME FOODS DISTRIBUTION",
		"Invoice#9020563793 03/20/2025",
		"Due Date: 04/20/2025",
	)

	meta, ok := ResolveInvoiceMeta(text)
	if !ok {
		t.Fatal("ResolveInvoiceMeta failed")
	}
	if meta.InvoiceNumber != "9020563793" {
		t.Errorf("InvoiceNumber = %q, want 9020563793", meta.InvoiceNumber)
	}
	if meta.Kind != KindInvoice {
		t.Errorf("Kind = %q, want Invoice", meta.Kind)
	}
	if meta.ISODate() != "2025-03-20" {
		t.Errorf("date = %s, want 2025-03-20", meta.ISODate())
	}
}

func TestResolveInvoiceMeta_BareLabelWithStandaloneNumber(t *testing.T) {
	text := invoiceText(
		"ACME FOODS DISTRIBUTION",
		"Invoice",
		"",
		"9020563793",
		"Invoice Date: 03/20/2025",
	)

	meta, ok := ResolveInvoiceMeta(text)
	if !ok {
		t.Fatal("ResolveInvoiceMeta failed")
	}
	if meta.InvoiceNumber != "9020563793" {
		t.Errorf("InvoiceNumber = %q, want 9020563793", meta.InvoiceNumber)
	}
	if meta.ISODate() != "2025-03-20" {
		t.Errorf("date = %s, want 2025-03-20", meta.ISODate())
	}
}

func TestResolveInvoiceDate_NeverReturnsDueDate(t *testing.T) {
	text := invoiceText(
		"Invoice#9020563793",
		"Due Date: 06/10/2025",
		"Invoice Date: 05/10/2025",
	)

	d, ok := ResolveInvoiceDate(text, "9020563793", KindInvoice)
	if !ok {
		t.Fatal("ResolveInvoiceDate failed")
	}
	if got := d.Format("2006-01-02"); got != "2025-05-10" {
		t.Errorf("date = %s, want 2025-05-10 (the due date must never win)", got)
	}
}

func TestResolveInvoiceDate_DueDateOnlyIsRejected(t *testing.T) {
	text := invoiceText(
		"Invoice#9020563793",
		"Due Date: 06/10/2025",
	)

	if _, ok := ResolveInvoiceDate(text, "9020563793", KindInvoice); ok {
		t.Fatal("resolved a date from a document holding only a due date")
	}
}

func TestResolveInvoiceDate_CreditDateBeatsOtherDates(t *testing.T) {
	text := invoiceText(
		"CREDIT MEMO",
		"Credit Original Invoice 9020563793 2002254859",
		"Printed 07/01/2025",
		"Credit Date: 04/01/2025",
	)

	d, ok := ResolveInvoiceDate(text, "2002254859", KindCreditMemo)
	if !ok {
		t.Fatal("ResolveInvoiceDate failed")
	}
	if got := d.Format("2006-01-02"); got != "2025-04-01" {
		t.Errorf("date = %s, want the credit date 2025-04-01", got)
	}
}

func TestResolveInvoiceMeta_UnresolvableText(t *testing.T) {
	if _, ok := ResolveInvoiceMeta("random shipping manifest with no identity"); ok {
		t.Fatal("resolved meta from text with no invoice layout")
	}
}
