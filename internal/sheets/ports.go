package sheets

import (
	"context"

	"vegakash/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseExporter mirrors stored expenses into an external sheet, one row
	// per expense keyed by its id.
	ExpenseExporter interface {
		// Upsert writes e, replacing the row that already holds e.ID.
		Upsert(ctx context.Context, e core.Expense) (rowRef string, err error)
		// Delete removes the row for id. A missing row is not an error.
		Delete(ctx context.Context, id int64) error
	}
)

// Header is the column layout shared by every exporter.
var Header = []string{"ID", "Date", "Title", "Category", "Amount", "Description", "Created At", "Updated At"}
