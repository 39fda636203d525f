package storage

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"

	"vegakash/internal/core"
)

// casefold(x) is available in every connection. SQLite's LIKE only folds
// ASCII, so text search compares Unicode-folded forms instead.
func init() {
	sqlite.MustRegisterDeterministicScalarFunction("casefold", 1, casefoldSQL)
}

func casefoldSQL(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return foldCase(v), nil
	case []byte:
		return foldCase(string(v)), nil
	default:
		return v, nil
	}
}

func foldCase(s string) string {
	return cases.Fold().String(s)
}

type SortField string

type SortOrder string

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"
	SortByTitle  SortField = "title"

	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"

	DefaultLimit = 50
	MaxLimit     = 100
)

var sortColumns = map[SortField]string{
	SortByDate:   "date",
	SortByAmount: "amount_cents",
	SortByTitle:  "title",
}

// Filter selects, orders and pages expenses for List.
// Zero values mean "no constraint"; the default order is date descending.
type Filter struct {
	Category       string
	DateFrom       *core.Date
	DateTo         *core.Date
	MinAmountCents *int64
	MaxAmountCents *int64
	Search         string

	SortBy    SortField
	SortOrder SortOrder
	Skip      int
	Limit     int
}

// build renders the WHERE, ORDER BY and LIMIT clauses with positional args.
func (f Filter) build() (string, []any) {
	var (
		where []string
		args  []any
	)

	if c := strings.TrimSpace(f.Category); c != "" {
		where = append(where, `category LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(c))
	}
	if f.DateFrom != nil {
		where = append(where, "date >= ?")
		args = append(args, f.DateFrom.String())
	}
	if f.DateTo != nil {
		where = append(where, "date <= ?")
		args = append(args, f.DateTo.String())
	}
	if f.MinAmountCents != nil {
		where = append(where, "amount_cents >= ?")
		args = append(args, *f.MinAmountCents)
	}
	if f.MaxAmountCents != nil {
		where = append(where, "amount_cents <= ?")
		args = append(args, *f.MaxAmountCents)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, `(casefold(title) LIKE ? ESCAPE '\' OR casefold(description) LIKE ? ESCAPE '\')`)
		p := likePattern(foldCase(s))
		args = append(args, p, p)
	}

	var sb strings.Builder
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = sortColumns[SortByDate]
	}
	dir := "DESC"
	if f.SortOrder == Asc {
		dir = "ASC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s", col, dir, dir)

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	skip := f.Skip
	if skip < 0 {
		skip = 0
	}
	sb.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, skip)

	return sb.String(), args
}

// likePattern wraps s for a case-insensitive substring match, escaping LIKE
// metacharacters so user input matches literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
