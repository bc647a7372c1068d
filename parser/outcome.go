package parser

// SkipReason says why a candidate line was dropped. Drops are data quality,
// not errors: a partial document parse is an expected outcome.
type SkipReason string

const (
	SkipShortLine     SkipReason = "SHORT_LINE"
	SkipNoSecondPrice SkipReason = "NO_SECOND_PRICE"
	SkipNoQuantity    SkipReason = "NO_QUANTITY"
	SkipNoDescription SkipReason = "NO_DESCRIPTION"
	SkipOutOfSection  SkipReason = "OUT_OF_SECTION"
)

// Outcome is the tagged result of parsing one candidate line: either a
// matched line item or a counted skip.
type Outcome struct {
	Item   *LineItem
	Reason SkipReason
}

func Matched(item LineItem) Outcome {
	return Outcome{Item: &item}
}

func Skipped(reason SkipReason) Outcome {
	return Outcome{Reason: reason}
}

func (o Outcome) IsMatch() bool {
	return o.Item != nil
}

// ExtractStats counts what one extraction pass saw. Skips are surfaced for
// batch summaries; they never abort a document.
type ExtractStats struct {
	LinesScanned int
	Matched      int
	Skipped      map[SkipReason]int
}

func newExtractStats() ExtractStats {
	return ExtractStats{Skipped: make(map[SkipReason]int)}
}

func (s *ExtractStats) skip(reason SkipReason) {
	s.Skipped[reason]++
}

func (s ExtractStats) TotalSkipped() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}
