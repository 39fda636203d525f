// Package memory is an in-process expense exporter. The worker falls back to
// it when no spreadsheet is configured, so events are still consumed and
// logged.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"vegakash/internal/core"
	"vegakash/internal/sheets"
)

var _ sheets.ExpenseExporter = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items []core.Expense
}

func New() *Store {
	return &Store{}
}

// Upsert replaces the row holding e.ID or appends a new one. Row references
// count the header as row 1, like a real sheet.
func (s *Store) Upsert(ctx context.Context, e core.Expense) (string, error) {
	if e.ID <= 0 {
		return "", fmt.Errorf("expense id must be positive, got %d", e.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(e.ID)
	if idx < 0 {
		s.items = append(s.items, e)
		idx = len(s.items) - 1
	} else {
		s.items[idx] = e
	}
	ref := fmt.Sprintf("mem:%d", idx+2)
	slog.InfoContext(ctx, "Exported expense to memory", "expense_id", e.ID, "row_ref", ref)
	return ref, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	slog.InfoContext(ctx, "Removed expense from memory export", "expense_id", id)
	return nil
}

// Rows returns the exported rows in sheet order, header first.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := [][]any{sheets.HeaderValues()}
	for _, e := range s.items {
		out = append(out, sheets.RowValues(e))
	}
	return out
}

func (s *Store) indexOf(id int64) int {
	for i, e := range s.items {
		if e.ID == id {
			return i
		}
	}
	return -1
}
