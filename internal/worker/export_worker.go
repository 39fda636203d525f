package worker

import (
	"context"
	"fmt"
	"log/slog"

	"vegakash/internal/amqp"
	"vegakash/internal/sheets"
)

// ExportWorker mirrors expense events into a sheet exporter.
type ExportWorker struct {
	exporter sheets.ExpenseExporter
}

func NewExportWorker(exporter sheets.ExpenseExporter) *ExportWorker {
	return &ExportWorker{exporter: exporter}
}

// HandleEvent applies one expense event. Events that can never succeed
// are wrapped with amqp.ErrPermanent so the broker drops them instead of
// redelivering.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event",
		"message_id", ev.MessageID,
		"action", ev.Action,
		"expense_id", ev.ExpenseID)

	switch ev.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		if ev.Expense == nil {
			return fmt.Errorf("%s event for expense %d has no snapshot: %w", ev.Action, ev.ExpenseID, amqp.ErrPermanent)
		}
		e, err := ev.Expense.Expense()
		if err != nil {
			return fmt.Errorf("decode snapshot: %v: %w", err, amqp.ErrPermanent)
		}
		if e.ID != ev.ExpenseID {
			return fmt.Errorf("snapshot id %d does not match event id %d: %w", e.ID, ev.ExpenseID, amqp.ErrPermanent)
		}
		ref, err := w.exporter.Upsert(ctx, e)
		if err != nil {
			return fmt.Errorf("export expense %d: %w", e.ID, err)
		}
		slog.InfoContext(ctx, "Exported expense", "expense_id", e.ID, "row", ref)
		return nil

	case amqp.ActionDeleted:
		if err := w.exporter.Delete(ctx, ev.ExpenseID); err != nil {
			return fmt.Errorf("delete exported expense %d: %w", ev.ExpenseID, err)
		}
		slog.InfoContext(ctx, "Removed exported expense", "expense_id", ev.ExpenseID)
		return nil

	default:
		return fmt.Errorf("unknown action %q: %w", ev.Action, amqp.ErrPermanent)
	}
}
