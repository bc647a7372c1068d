package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

// NOTE: These tests are DB-free. They validate the save-time invariants the
// allocator depends on; storage-backed behavior is covered by the workflow
// tests.

func TestFifoQueueEntry_BeforeSaveInitializesFreshRow(t *testing.T) {
	e := &FifoQueueEntry{Weight: decimal.RequireFromString("10.5")}
	if err := e.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	if !e.RemainingQty.Equal(e.Weight) {
		t.Errorf("RemainingQty = %s, want the full weight %s", e.RemainingQty, e.Weight)
	}
	if e.Status != QueueStatusAvailable {
		t.Errorf("Status = %s, want AVAILABLE", e.Status)
	}
}

func TestFifoQueueEntry_BeforeSaveRejectsConservationBreak(t *testing.T) {
	e := &FifoQueueEntry{
		Weight:       decimal.RequireFromString("10"),
		RemainingQty: decimal.RequireFromString("4"),
		ConsumedQty:  decimal.RequireFromString("5"),
	}
	if err := e.BeforeSave(nil); err == nil {
		t.Error("consumed + remaining != weight was accepted")
	}
}

func TestFifoQueueEntry_BeforeSaveRejectsNegativeQuantities(t *testing.T) {
	e := &FifoQueueEntry{
		Weight:       decimal.RequireFromString("10"),
		RemainingQty: decimal.RequireFromString("12"),
		ConsumedQty:  decimal.RequireFromString("-2"),
	}
	if err := e.BeforeSave(nil); err == nil {
		t.Error("negative consumed quantity was accepted")
	}
}

func TestLineItemCase_BeforeSaveDefaultsAndWeightGuard(t *testing.T) {
	c := &LineItemCase{Weight: decimal.RequireFromString("9.8")}
	if err := c.BeforeSave(nil); err != nil {
		t.Fatalf("BeforeSave: %v", err)
	}
	if c.Status != CaseStatusInStock {
		t.Errorf("Status = %s, want IN_STOCK", c.Status)
	}
	if c.WeightUnit != "KG" {
		t.Errorf("WeightUnit = %s, want KG", c.WeightUnit)
	}

	bad := &LineItemCase{Weight: decimal.RequireFromString("-1")}
	if err := bad.BeforeSave(nil); err == nil {
		t.Error("negative case weight was accepted")
	}
}
