package parser

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// CaseRecord is one physical unit entry found in the text window after a
// line item.
type CaseRecord struct {
	CaseNumber     string
	Weight         decimal.Decimal
	SequenceNumber int // order of appearance, 1-based
}

// caseWindowLines bounds the look-ahead below a line item. Case rows always
// sit directly under their product line in this invoice family.
const caseWindowLines = 10

var (
	// A case is recognized only by the strict token pair; anything else in
	// the window is ignored.
	caseTokenRe = regexp.MustCompile(`CASE:\s*(\d+)\s+WEIGHT:\s*(\d+(?:[.,]\d+)?)`)

	// The window closes early on the next product line or a totals row so
	// cases never bleed across items.
	caseWindowStopRe = regexp.MustCompile(`(?i)(total\s+weight|weight\s+total|page\s+total|total\s+page)`)
)

// ExtractCases scans the bounded window following the line at start and
// returns the case entries in order of appearance. A line item with zero
// recognized cases is valid (bulk product) and returns an empty slice.
func ExtractCases(lines []string, start int) []CaseRecord {
	cases := make([]CaseRecord, 0)

	end := start + caseWindowLines
	if end > len(lines) {
		end = len(lines)
	}

	seq := 0
	for i := start; i < end; i++ {
		line := lines[i]
		if productCodeRe.MatchString(line) || caseWindowStopRe.MatchString(line) {
			break
		}
		for _, m := range caseTokenRe.FindAllStringSubmatch(line, -1) {
			weight, err := parseDecimalToken(m[2])
			if err != nil {
				continue
			}
			seq++
			cases = append(cases, CaseRecord{
				CaseNumber:     m[1],
				Weight:         weight,
				SequenceNumber: seq,
			})
		}
	}

	return cases
}
