package memory

import (
	"context"
	"testing"
	"time"

	"vegakash/internal/core"
)

func expense(id int64, title string, cents int64) core.Expense {
	ts := time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)
	return core.Expense{
		ID:        id,
		Title:     title,
		Category:  core.Food,
		Amount:    core.Money{Cents: cents},
		Date:      core.NewDate(2025, 7, 1),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestStoreUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	ref, err := s.Upsert(ctx, expense(4, "Tea", 250))
	if err != nil || ref != "mem:2" {
		t.Fatalf("first upsert: ref=%q err=%v", ref, err)
	}
	if ref, _ = s.Upsert(ctx, expense(9, "Bread", 400)); ref != "mem:3" {
		t.Fatalf("second upsert ref = %q", ref)
	}

	// Updating keeps the row position.
	if ref, _ = s.Upsert(ctx, expense(4, "Green tea", 300)); ref != "mem:2" {
		t.Fatalf("update ref = %q", ref)
	}
	rows := s.Rows()
	if len(rows) != 3 || rows[0][0] != "ID" || rows[1][2] != "Green tea" || rows[1][4] != "3.00" {
		t.Fatalf("rows = %v", rows)
	}

	if err := s.Delete(ctx, 4); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, 4); err != nil {
		t.Fatalf("deleting a missing row: %v", err)
	}
	rows = s.Rows()
	if len(rows) != 2 || rows[1][0] != "9" {
		t.Fatalf("rows after delete = %v", rows)
	}

	if _, err := s.Upsert(ctx, expense(0, "x", 1)); err == nil {
		t.Fatal("expected error for missing id")
	}
}
