package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
)

func TestAllocateStock_SplitsLastEntry(t *testing.T) {
	db := testDB(t)
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-001", 100, 1, "10", "2.00")
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-002", 105, 1, "12", "3.00")

	result, err := AllocateStock(context.Background(), db, nil, "APPLE001", decimal.RequireFromString("15"))
	if err != nil {
		t.Fatalf("AllocateStock: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(result.Lines))
	}

	decimalEqual(t, result.Lines[0].QtyDrawn, "10", "first line QtyDrawn")
	if result.Lines[0].PriorityScore != 100 {
		t.Errorf("first line PriorityScore = %d, want 100", result.Lines[0].PriorityScore)
	}
	decimalEqual(t, result.Lines[1].QtyDrawn, "5", "second line QtyDrawn")
	decimalEqual(t, result.Lines[1].SplitRemainder, "7", "second line SplitRemainder")

	first := loadEntry(t, db, "9020563793-APPLE001-001")
	if first.Status != models.QueueStatusAllocated {
		t.Errorf("fully drawn entry status = %s, want ALLOCATED", first.Status)
	}
	decimalEqual(t, first.RemainingQty, "0", "fully drawn RemainingQty")

	second := loadEntry(t, db, "9020563793-APPLE001-002")
	if second.Status != models.QueueStatusAvailable {
		t.Errorf("split entry status = %s, want AVAILABLE", second.Status)
	}
	decimalEqual(t, second.RemainingQty, "7", "split RemainingQty")
	decimalEqual(t, second.ConsumedQty, "5", "split ConsumedQty")
	if second.PriorityScore != 105 {
		t.Errorf("split entry PriorityScore = %d, want the original 105", second.PriorityScore)
	}
}

func TestAllocateStock_SplitRemainderDrawnBeforeNewerStock(t *testing.T) {
	db := testDB(t)
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-001", 100, 1, "10", "2.00")
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-002", 105, 1, "12", "3.00")

	if _, err := AllocateStock(context.Background(), db, nil, "APPLE001", decimal.RequireFromString("4")); err != nil {
		t.Fatalf("first allocation: %v", err)
	}

	result, err := AllocateStock(context.Background(), db, nil, "APPLE001", decimal.RequireFromString("8"))
	if err != nil {
		t.Fatalf("second allocation: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(result.Lines))
	}
	if result.Lines[0].CaseId != "9020563793-APPLE001-001" {
		t.Errorf("first draw came from %s, want the split remainder entry", result.Lines[0].CaseId)
	}
	decimalEqual(t, result.Lines[0].QtyDrawn, "6", "remainder QtyDrawn")
	decimalEqual(t, result.Lines[1].QtyDrawn, "2", "newer stock QtyDrawn")
}

func TestAllocateStock_InsufficientStockIsAtomic(t *testing.T) {
	db := testDB(t)
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-001", 100, 1, "10", "2.00")
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-002", 105, 1, "12", "3.00")

	_, err := AllocateStock(context.Background(), db, nil, "APPLE001", decimal.RequireFromString("1000"))
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	decimalEqual(t, insufficient.Available, "22", "Available")
	decimalEqual(t, insufficient.Shortfall, "978", "Shortfall")

	for _, caseId := range []string{"9020563793-APPLE001-001", "9020563793-APPLE001-002"} {
		entry := loadEntry(t, db, caseId)
		if entry.Status != models.QueueStatusAvailable {
			t.Errorf("entry %s status = %s, want AVAILABLE (no partial allocation)", caseId, entry.Status)
		}
		if !entry.ConsumedQty.IsZero() {
			t.Errorf("entry %s ConsumedQty = %s, want 0", caseId, entry.ConsumedQty)
		}
	}
}

func TestAllocateStock_RejectsNonPositiveQuantity(t *testing.T) {
	db := testDB(t)
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-001", 100, 1, "10", "2.00")

	for _, qty := range []string{"0", "-3"} {
		_, err := AllocateStock(context.Background(), db, nil, "APPLE001", decimal.RequireFromString(qty))
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("qty %s: err = %v, want ErrInvalidQuantity", qty, err)
		}
	}
}

func TestAllocateStock_ConsumesContiguousPriorityPrefix(t *testing.T) {
	db := testDB(t)
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-001", 100, 1, "5", "2.00")
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-002", 100, 2, "5", "2.00")
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-003", 105, 1, "5", "2.00")

	result, err := AllocateStock(context.Background(), db, nil, "APPLE001", decimal.RequireFromString("10"))
	if err != nil {
		t.Fatalf("AllocateStock: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(result.Lines))
	}
	for i, wantSeq := range []int{1, 2} {
		if result.Lines[i].SequenceNumber != wantSeq {
			t.Errorf("line %d SequenceNumber = %d, want %d", i, result.Lines[i].SequenceNumber, wantSeq)
		}
	}

	available, err := models.GetAvailableQueueEntries(db, "APPLE001")
	if err != nil {
		t.Fatalf("GetAvailableQueueEntries: %v", err)
	}
	for _, line := range result.Lines {
		for _, still := range available {
			if still.PriorityScore < line.PriorityScore ||
				(still.PriorityScore == line.PriorityScore && still.SequenceNumber < line.SequenceNumber) {
				t.Errorf("entry %s drawn while older entry %s stayed AVAILABLE", line.CaseId, still.CaseId)
			}
		}
	}
}

func TestAllocateStock_DoesNotCrossProducts(t *testing.T) {
	db := testDB(t)
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-001", 100, 1, "10", "2.00")
	seedEntry(t, db, "PEAR0002", "9020563793-PEAR0002-001", 90, 1, "10", "4.00")

	if _, err := AllocateStock(context.Background(), db, nil, "APPLE001", decimal.RequireFromString("10")); err != nil {
		t.Fatalf("AllocateStock: %v", err)
	}

	other := loadEntry(t, db, "9020563793-PEAR0002-001")
	if other.Status != models.QueueStatusAvailable || !other.ConsumedQty.IsZero() {
		t.Errorf("other product mutated: status=%s consumed=%s", other.Status, other.ConsumedQty)
	}
}

func TestAllocateStock_ConservesWeightAcrossCalls(t *testing.T) {
	db := testDB(t)
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-001", 100, 1, "10.5", "2.00")
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-002", 105, 1, "11.25", "3.00")
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-003", 110, 1, "9.8", "3.10")

	totalWeight := func() decimal.Decimal {
		var entries []*models.FifoQueueEntry
		if err := db.Where("product_code = ?", "APPLE001").Find(&entries).Error; err != nil {
			t.Fatalf("load entries: %v", err)
		}
		sum := decimal.Zero
		for _, e := range entries {
			sum = sum.Add(e.ConsumedQty).Add(e.RemainingQty)
		}
		return sum
	}

	before := totalWeight()
	tolerance := decimal.New(1, -6)

	for _, qty := range []string{"3.3", "8.7", "0.05"} {
		if _, err := AllocateStock(context.Background(), db, nil, "APPLE001", decimal.RequireFromString(qty)); err != nil {
			t.Fatalf("allocate %s: %v", qty, err)
		}
		if diff := totalWeight().Sub(before).Abs(); diff.GreaterThan(tolerance) {
			t.Fatalf("weight drifted by %s after allocating %s", diff, qty)
		}
	}
}

func TestAllocateStock_WeightedUnitCost(t *testing.T) {
	db := testDB(t)
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-001", 100, 1, "10", "2.00")
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-002", 105, 1, "12", "3.00")

	result, err := AllocateStock(context.Background(), db, nil, "APPLE001", decimal.RequireFromString("15"))
	if err != nil {
		t.Fatalf("AllocateStock: %v", err)
	}
	decimalEqual(t, result.TotalCost, "35", "TotalCost")
	decimalEqual(t, result.WeightedUnitCost, "2.3333", "WeightedUnitCost")
}

func TestCheckPriorityOrder(t *testing.T) {
	ordered := []*models.FifoQueueEntry{
		{PriorityScore: 100, SequenceNumber: 1, CaseId: "A-001"},
		{PriorityScore: 100, SequenceNumber: 2, CaseId: "A-002"},
		{PriorityScore: 105, SequenceNumber: 1, CaseId: "A-003"},
	}
	if err := checkPriorityOrder(ordered); err != nil {
		t.Errorf("ordered set rejected: %v", err)
	}

	badScore := []*models.FifoQueueEntry{
		{PriorityScore: 105, SequenceNumber: 1, CaseId: "A-001"},
		{PriorityScore: 100, SequenceNumber: 1, CaseId: "A-002"},
	}
	if !errors.Is(checkPriorityOrder(badScore), ErrPriorityViolation) {
		t.Error("descending scores not rejected")
	}

	badSeq := []*models.FifoQueueEntry{
		{PriorityScore: 100, SequenceNumber: 2, CaseId: "A-001"},
		{PriorityScore: 100, SequenceNumber: 1, CaseId: "A-002"},
	}
	if !errors.Is(checkPriorityOrder(badSeq), ErrPriorityViolation) {
		t.Error("descending sequence within a score not rejected")
	}
}

func TestMarkEntriesConsumed(t *testing.T) {
	db := testDB(t)
	seedEntry(t, db, "APPLE001", "9020563793-APPLE001-001", 100, 1, "10", "2.00")

	result, err := AllocateStock(context.Background(), db, nil, "APPLE001", decimal.RequireFromString("10"))
	if err != nil {
		t.Fatalf("AllocateStock: %v", err)
	}

	if err := MarkEntriesConsumed(db, []string{result.Lines[0].QueueId}); err != nil {
		t.Fatalf("MarkEntriesConsumed: %v", err)
	}

	entry := loadEntry(t, db, "9020563793-APPLE001-001")
	if entry.Status != models.QueueStatusConsumed {
		t.Errorf("entry status = %s, want CONSUMED", entry.Status)
	}
	c, err := models.GetCaseByCaseId(db, "9020563793-APPLE001-001")
	if err != nil {
		t.Fatalf("GetCaseByCaseId: %v", err)
	}
	if c.Status != models.CaseStatusConsumed {
		t.Errorf("case status = %s, want CONSUMED", c.Status)
	}

	// A second pass must refuse: the entry is no longer ALLOCATED.
	if err := MarkEntriesConsumed(db, []string{result.Lines[0].QueueId}); err == nil {
		t.Error("consuming an already-CONSUMED entry did not fail")
	}
}
