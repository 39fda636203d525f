package sheets

import (
	"strconv"
	"time"

	"vegakash/internal/core"
)

// RowValues renders e in Header column order. Amounts are plain decimals
// with two places so a sheet parses them as numbers.
func RowValues(e core.Expense) []any {
	return []any{
		strconv.FormatInt(e.ID, 10),
		e.Date.String(),
		e.Title,
		e.Category.String(),
		e.Amount.Decimal().StringFixed(2),
		e.DescriptionOrEmpty(),
		e.CreatedAt.UTC().Format(time.RFC3339),
		e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// HeaderValues returns Header as a sheet row.
func HeaderValues() []any {
	out := make([]any, len(Header))
	for i, h := range Header {
		out[i] = h
	}
	return out
}
