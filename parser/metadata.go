package parser

import (
	"regexp"
	"strings"
	"time"
)

// DocKind classifies the document layout the invoice number was found in.
// Credit/debit memos carry their dates in a different place than regular
// invoices, so the kind drives date resolution.
type DocKind string

const (
	KindInvoice    DocKind = "Invoice"
	KindCreditMemo DocKind = "CreditMemo"
	KindDebitMemo  DocKind = "DebitMemo"
)

// InvoiceMeta is the resolved canonical identity of one document.
type InvoiceMeta struct {
	InvoiceNumber string
	InvoiceDate   time.Time
	Kind          DocKind
}

// ISODate renders the invoice date in the normalized YYYY-MM-DD form.
func (m InvoiceMeta) ISODate() string {
	return m.InvoiceDate.Format("2006-01-02")
}

const dateContextRadius = 50

var (
	creditMemoMarkerRe = regexp.MustCompile(`(?i)CREDIT\s+MEMO`)

	// Memo headers carry a number pair; the SECOND number is the operative
	// document number (the first references the original invoice).
	creditPairRe = regexp.MustCompile(`(?i)Credit\s+Original\s+Invoice\D*?(\d{10})\D+?(\d{10})`)
	debitPairRe  = regexp.MustCompile(`(?i)Debit(?:\s+Original)?(?:\s+Invoice)?\D*?(\d{10})\D+?(\d{10})`)

	// Concatenated form: label glued straight onto the number.
	concatInvoiceRe = regexp.MustCompile(`(?i)Invoice[#:]?(\d{10})`)

	// Default form: a bare "Invoice" label line with the number standing
	// alone within a few lines below it.
	bareInvoiceLabelRe = regexp.MustCompile(`(?i)^Invoice\s*$`)
	standaloneNumberRe = regexp.MustCompile(`^(\d{10})$`)

	dateTokenRe      = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`)
	creditDateRe     = regexp.MustCompile(`(?i)Credit\s+Date\D*?(\d{2}/\d{2}/\d{4})`)
	debitDateRe      = regexp.MustCompile(`(?i)Debit\s+Date\D*?(\d{2}/\d{2}/\d{4})`)
	invoiceDateLblRe = regexp.MustCompile(`(?i)Invoice\s+Date\D*?(\d{2}/\d{2}/\d{4})`)
	numberThenDateRe = regexp.MustCompile(`\d{10}\s*[:\-]?\s*(\d{2}/\d{2}/\d{4})`)

	// A date sitting next to any of these markers is a payment due date,
	// which is reliably the wrong date for invoice chronology.
	dueDateMarkerRe = regexp.MustCompile(`(?i)(due\s+date|date\s+due|payment\s+due|amount\s+due|total\s+due|please\s+pay|net\s+\d+)`)
)

const bareLabelWindowLines = 5

// ResolveInvoiceMeta determines the canonical invoice number and invoice
// date from full document text. It returns ok=false for ordinary
// unparseable documents; it never errors.
func ResolveInvoiceMeta(text string) (InvoiceMeta, bool) {
	number, kind, ok := resolveInvoiceNumber(text)
	if !ok {
		return InvoiceMeta{}, false
	}
	date, ok := ResolveInvoiceDate(text, number, kind)
	if !ok {
		return InvoiceMeta{}, false
	}
	return InvoiceMeta{InvoiceNumber: number, InvoiceDate: date, Kind: kind}, true
}

// resolveInvoiceNumber tries document layouts in order, first match wins.
// Memo layouts are structurally different from regular invoices, so they
// are checked before the generic forms to keep the heuristics from
// cross-contaminating.
func resolveInvoiceNumber(text string) (string, DocKind, bool) {
	if creditMemoMarkerRe.MatchString(text) {
		if m := creditPairRe.FindStringSubmatch(text); m != nil {
			return m[2], KindCreditMemo, true
		}
	}
	if m := debitPairRe.FindStringSubmatch(text); m != nil {
		return m[2], KindDebitMemo, true
	}
	if m := concatInvoiceRe.FindStringSubmatch(text); m != nil {
		return m[1], KindInvoice, true
	}
	lines := SplitLines(text)
	for i, line := range lines {
		if !bareInvoiceLabelRe.MatchString(line) {
			continue
		}
		end := i + 1 + bareLabelWindowLines
		if end > len(lines) {
			end = len(lines)
		}
		for j := i + 1; j < end; j++ {
			if m := standaloneNumberRe.FindStringSubmatch(lines[j]); m != nil {
				return m[1], KindInvoice, true
			}
		}
	}
	return "", "", false
}

// ResolveInvoiceDate finds the invoice date for a known invoice number.
// Tiers are tried in order and the due-date exclusion applies at every one
// of them: a single "nearest date" heuristic systematically picks up due
// dates, which are reliably wrong for invoice dating.
func ResolveInvoiceDate(text string, invoiceNumber string, kind DocKind) (time.Time, bool) {
	// (a) explicit memo date labels
	if kind == KindCreditMemo {
		if d, ok := labeledDate(text, creditDateRe); ok {
			return d, true
		}
	}
	if kind == KindDebitMemo {
		if d, ok := labeledDate(text, debitDateRe); ok {
			return d, true
		}
	}

	// (b) a date immediately following the resolved invoice number
	if invoiceNumber != "" {
		if d, ok := dateAfterToken(text, invoiceNumber); ok {
			return d, true
		}
	}

	// (c) any 10-digit-number-then-date pattern, same exclusion
	for _, m := range numberThenDateRe.FindAllStringSubmatchIndex(text, -1) {
		if dateContextHasDueMarker(text, m[0], m[1]) {
			continue
		}
		if d, err := parseDateToken(text[m[2]:m[3]]); err == nil {
			return d, true
		}
	}

	// (d) labeled "Invoice Date"
	if d, ok := labeledDate(text, invoiceDateLblRe); ok {
		return d, true
	}

	// (e) first date token not adjacent to a due-date marker
	for _, m := range dateTokenRe.FindAllStringSubmatchIndex(text, -1) {
		if dateContextHasDueMarker(text, m[0], m[1]) {
			continue
		}
		if d, err := parseDateToken(text[m[2]:m[3]]); err == nil {
			return d, true
		}
	}

	return time.Time{}, false
}

// labeledDate extracts a date via a labeled pattern, still subject to the
// due-date exclusion.
func labeledDate(text string, re *regexp.Regexp) (time.Time, bool) {
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if dateContextHasDueMarker(text, m[2], m[3]) {
			continue
		}
		if d, err := parseDateToken(text[m[2]:m[3]]); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// dateAfterToken looks for a date token right after each occurrence of the
// invoice number, rejecting occurrences whose surrounding context contains
// a due-date or payment-amount marker.
func dateAfterToken(text string, token string) (time.Time, bool) {
	offset := 0
	for {
		idx := strings.Index(text[offset:], token)
		if idx < 0 {
			return time.Time{}, false
		}
		start := offset + idx
		end := start + len(token)

		tail := text[end:]
		loc := dateTokenRe.FindStringSubmatchIndex(tail)
		if loc != nil && loc[0] <= 3 && !dateContextHasDueMarker(text, start, end+loc[1]) {
			if d, err := parseDateToken(tail[loc[2]:loc[3]]); err == nil {
				return d, true
			}
		}
		offset = end
	}
}

// dateContextHasDueMarker reports whether a due-date marker sits near the
// candidate span. The window is clamped to the span's own line so a due
// date printed on an adjacent line does not poison a legitimate date.
func dateContextHasDueMarker(text string, start int, end int) bool {
	lo := start - dateContextRadius
	if lo < 0 {
		lo = 0
	}
	if nl := strings.LastIndex(text[lo:start], "\n"); nl >= 0 {
		lo += nl + 1
	}
	hi := end + dateContextRadius
	if hi > len(text) {
		hi = len(text)
	}
	if nl := strings.Index(text[end:hi], "\n"); nl >= 0 {
		hi = end + nl
	}
	return dueDateMarkerRe.MatchString(text[lo:hi])
}

// parseDateToken normalizes a source MM/DD/YYYY token to a UTC calendar
// date.
func parseDateToken(token string) (time.Time, error) {
	d, err := time.Parse("01/02/2006", token)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
}
