package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Patch holds the fields of a partial update. A nil field is left unchanged.
// ClearDescription removes the description; a Description that normalizes to
// the empty string does the same.
type Patch struct {
	Title            *string
	Category         *string
	Amount           *decimal.Decimal
	Date             *Date
	Description      *string
	ClearDescription bool
}

// IsEmpty reports whether the patch changes no field.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Category == nil && p.Amount == nil &&
		p.Date == nil && p.Description == nil && !p.ClearDescription
}

// Apply validates each supplied field and returns the merged record with
// UpdatedAt set to now. The input record is not modified.
func (p Patch) Apply(e Expense, now time.Time) (Expense, error) {
	var verr ValidationError
	out := e

	if p.Title != nil {
		title, err := normalizeTitle(*p.Title)
		verr.Add("title", err)
		out.Title = title
	}
	if p.Category != nil {
		cat, err := NormalizeCategory(*p.Category)
		verr.Add("category", err)
		out.Category = cat
	}
	if p.Amount != nil {
		amount, err := MoneyFromDecimal(*p.Amount)
		verr.Add("amount", err)
		out.Amount = amount
	}
	if p.Date != nil {
		verr.Add("date", p.Date.Validate())
		out.Date = *p.Date
	}
	switch {
	case p.ClearDescription:
		out.Description = nil
	case p.Description != nil:
		desc, err := normalizeDescription(p.Description)
		verr.Add("description", err)
		out.Description = desc
	}

	if verr.HasErrors() {
		return e, &verr
	}
	out.UpdatedAt = now
	return out, nil
}
