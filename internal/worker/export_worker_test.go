package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"vegakash/internal/amqp"
	"vegakash/internal/core"
	"vegakash/internal/sheets/memory"
)

func sampleExpense(id int64, title string) core.Expense {
	at := time.Date(2025, 7, 2, 8, 0, 0, 0, time.UTC)
	return core.Expense{
		ID:        id,
		Title:     title,
		Category:  core.Transportation,
		Amount:    core.Money{Cents: 4500},
		Date:      core.NewDate(2025, 7, 2),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestHandleEventMirrorsLifecycle(t *testing.T) {
	store := memory.New()
	w := NewExportWorker(store)
	ctx := context.Background()

	steps := []*amqp.ExpenseEvent{
		amqp.NewExpenseEvent(amqp.ActionCreated, sampleExpense(1, "Taxi")),
		amqp.NewExpenseEvent(amqp.ActionCreated, sampleExpense(2, "Bus")),
		amqp.NewExpenseEvent(amqp.ActionUpdated, sampleExpense(1, "Taxi home")),
		amqp.NewExpenseEvent(amqp.ActionDeleted, sampleExpense(2, "")),
	}
	for _, ev := range steps {
		if err := w.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("%s %d: %v", ev.Action, ev.ExpenseID, err)
		}
	}

	rows := store.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[1][0] != "1" || rows[1][2] != "Taxi home" || rows[1][4] != "45.00" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestHandleEventDeleteMissingIsNoop(t *testing.T) {
	w := NewExportWorker(memory.New())
	ev := amqp.NewExpenseEvent(amqp.ActionDeleted, sampleExpense(5, ""))
	if err := w.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHandleEventPermanentFailures(t *testing.T) {
	badDate := amqp.NewExpenseEvent(amqp.ActionCreated, sampleExpense(3, "x"))
	badDate.Expense.Date = "02/07/2025"

	noSnapshot := amqp.NewExpenseEvent(amqp.ActionUpdated, sampleExpense(3, "x"))
	noSnapshot.Expense = nil

	mismatch := amqp.NewExpenseEvent(amqp.ActionUpdated, sampleExpense(3, "x"))
	mismatch.ExpenseID = 4

	unknown := amqp.NewExpenseEvent(amqp.ActionCreated, sampleExpense(3, "x"))
	unknown.Action = "archived"

	tests := []struct {
		name string
		ev   *amqp.ExpenseEvent
	}{
		{"bad snapshot date", badDate},
		{"missing snapshot", noSnapshot},
		{"id mismatch", mismatch},
		{"unknown action", unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			err := NewExportWorker(store).HandleEvent(context.Background(), tt.ev)
			if !errors.Is(err, amqp.ErrPermanent) {
				t.Fatalf("err = %v, want permanent", err)
			}
			if len(store.Rows()) != 1 {
				t.Fatalf("store touched: %v", store.Rows())
			}
		})
	}
}

type failingExporter struct{ err error }

func (f failingExporter) Upsert(context.Context, core.Expense) (string, error) { return "", f.err }
func (f failingExporter) Delete(context.Context, int64) error                  { return f.err }

func TestHandleEventExporterErrorIsRetryable(t *testing.T) {
	boom := errors.New("quota exceeded")
	w := NewExportWorker(failingExporter{err: boom})

	for _, action := range []amqp.Action{amqp.ActionCreated, amqp.ActionDeleted} {
		err := w.HandleEvent(context.Background(), amqp.NewExpenseEvent(action, sampleExpense(9, "x")))
		if !errors.Is(err, boom) {
			t.Fatalf("%s: err = %v", action, err)
		}
		if errors.Is(err, amqp.ErrPermanent) {
			t.Fatalf("%s: exporter failure marked permanent", action)
		}
	}
}
