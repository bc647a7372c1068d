package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// LineItem is one product entry recovered from invoice text. Prices are the
// two decimal tokens on the line (unit price then extended price); Quantity
// is the declared case/unit count, always >= 1 for a successful parse.
type LineItem struct {
	ProductCode   string
	Description   string
	Quantity      int
	Unit          string
	PackSize      string
	Brand         string // empty when absent or rejected as noise
	UnitPrice     decimal.Decimal
	ExtendedPrice decimal.Decimal
	LineIndex     int // position in the document, for the case window
}

const (
	// Fragments shorter than this are stray OCR noise even when they start
	// with something that looks like a product code.
	minLineItemLength = 20

	// A recovered brand longer than this is almost always two columns run
	// together, not a real brand.
	maxBrandLength = 25
)

var (
	productCodeRe = regexp.MustCompile(`^(\d{7,9})`)

	// Price tokens carry a trailing currency sign in this invoice family
	// (e.g. "6.50$"). Comma decimals appear on French-layout documents.
	priceTokenRe = regexp.MustCompile(`(\d+(?:[.,]\d{2}))\$`)

	// Section entry: the column heading row naming both the pack-size and
	// brand columns (English or French layout).
	sectionHeaderRe = regexp.MustCompile(`(?i)(pack\s*size.*brand|brand.*pack\s*size|format.*marque)`)

	// Section exit: totals and recap rows that follow the item block.
	sectionTerminalRe = regexp.MustCompile(`(?i)(page\s+total|total\s+page|group\s+(summary|total)|category\s+recap|grand\s+total)`)

	// Tail sub-patterns, tried in order. The pack-size form covers
	// "CS2x1KGWongWing"; the simple form covers "CS6BrandName".
	tailPackSizeRe = regexp.MustCompile(`^(CS|EA|PC|BX|PK)\s*(\d+)\s*[xX]\s*([\d.,]+\s*(?:KG|LB|ML|G|L)?)\s*(.*)$`)
	tailSimpleRe   = regexp.MustCompile(`^(CS|EA|PC|BX|PK)\s*(\d+)\s*(\S.*)?$`)
)

// SplitLines breaks raw invoice text into trimmed lines. The same slice
// feeds the line extractor and the case extractor so line indexes agree.
func SplitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// ExtractLineItems segments raw invoice text into line items. It runs as a
// bounded state machine: candidates are only considered between a column
// heading row and the first totals/recap row, and anything that fails the
// cascade is counted and dropped, never raised.
func ExtractLineItems(text string) ([]LineItem, ExtractStats) {
	lines := SplitLines(text)
	stats := newExtractStats()

	items := make([]LineItem, 0)
	inSection := false

	for i, line := range lines {
		stats.LinesScanned++

		if !inSection {
			if sectionHeaderRe.MatchString(line) {
				inSection = true
			} else if productCodeRe.MatchString(line) {
				stats.skip(SkipOutOfSection)
			}
			continue
		}
		if sectionTerminalRe.MatchString(line) {
			inSection = false
			continue
		}

		codeMatch := productCodeRe.FindStringSubmatch(line)
		if codeMatch == nil {
			continue
		}
		outcome := parseCandidate(line, codeMatch[1], i)
		if outcome.IsMatch() {
			items = append(items, *outcome.Item)
			stats.Matched++
		} else {
			stats.skip(outcome.Reason)
		}
	}

	return items, stats
}

// parseCandidate applies the price/description/tail cascade to one
// in-section line that starts with a product code.
func parseCandidate(line string, productCode string, lineIndex int) Outcome {
	if utf8.RuneCountInString(line) < minLineItemLength {
		return Skipped(SkipShortLine)
	}

	prices := priceTokenRe.FindAllStringSubmatchIndex(line, -1)
	if len(prices) < 2 {
		return Skipped(SkipNoSecondPrice)
	}

	first, second := prices[0], prices[1]

	description := strings.Trim(strings.TrimSpace(line[len(productCode):first[0]]), ".")
	description = strings.TrimSpace(description)
	if description == "" {
		return Skipped(SkipNoDescription)
	}

	unitPrice, err := parseDecimalToken(line[first[2]:first[3]])
	if err != nil {
		return Skipped(SkipNoSecondPrice)
	}
	extendedPrice, err := parseDecimalToken(line[second[2]:second[3]])
	if err != nil {
		return Skipped(SkipNoSecondPrice)
	}

	tail := strings.TrimSpace(line[second[1]:])
	unit, quantity, packSize, brand, ok := parseTail(tail)
	if !ok || quantity < 1 {
		return Skipped(SkipNoQuantity)
	}

	return Matched(LineItem{
		ProductCode:   productCode,
		Description:   description,
		Quantity:      quantity,
		Unit:          unit,
		PackSize:      packSize,
		Brand:         cleanBrand(brand),
		UnitPrice:     unitPrice,
		ExtendedPrice: extendedPrice,
		LineIndex:     lineIndex,
	})
}

// parseTail recovers unit code, quantity, pack size and brand from the span
// after the second price. The pack-size-with-separator pattern wins over the
// simple leading-integer form.
func parseTail(tail string) (unit string, quantity int, packSize string, brand string, ok bool) {
	if m := tailPackSizeRe.FindStringSubmatch(tail); m != nil {
		qty, err := strconv.Atoi(m[2])
		if err != nil {
			return "", 0, "", "", false
		}
		size := strings.TrimSpace(m[3])
		return m[1], qty, m[2] + "x" + size, strings.TrimSpace(m[4]), true
	}
	if m := tailSimpleRe.FindStringSubmatch(tail); m != nil {
		qty, err := strconv.Atoi(m[2])
		if err != nil {
			return "", 0, "", "", false
		}
		return m[1], qty, "", strings.TrimSpace(m[3]), true
	}
	return "", 0, "", "", false
}

// cleanBrand rejects noise tokens: a single letter or an over-long span is
// treated as no brand, not as a parse failure.
func cleanBrand(brand string) string {
	brand = strings.TrimSpace(brand)
	n := utf8.RuneCountInString(brand)
	if n <= 1 || n > maxBrandLength {
		return ""
	}
	return brand
}

func parseDecimalToken(token string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(token, ",", "."))
}
