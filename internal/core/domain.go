package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 500

	DateLayout = "2006-01-02"
)

type (
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is one stored expense record.
	Expense struct {
		ID          int64
		Title       string
		Category    Category
		Amount      Money
		Date        Date
		Description *string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// NewExpense is the raw payload of a create request, before normalization.
	NewExpense struct {
		Title       string
		Category    string
		Amount      decimal.Decimal
		Date        Date
		Description *string
	}
)

const (
	Food           Category = "Food"
	Transportation Category = "Transportation"
	Entertainment  Category = "Entertainment"
	Shopping       Category = "Shopping"
	Healthcare     Category = "Healthcare"
	Education      Category = "Education"
	Utilities      Category = "Utilities"
	Other          Category = "Other"
)

// Categories lists the canonical categories in display order.
var Categories = []Category{
	Food, Transportation, Entertainment, Shopping, Healthcare, Education, Utilities, Other,
}

var legacyCategories = map[string]Category{
	"food & dining":     Food,
	"bills & utilities": Utilities,
	"others":            Other,
	"travel":            Other,
}

var (
	ErrNotFound        = errors.New("expense not found")
	ErrInvalidAmount   = errors.New("amount must be greater than 0")
	ErrAmountTooLarge  = errors.New("amount must not exceed 1000000")
	ErrAmountPrecision = errors.New("amount has too many digits")
	ErrEmptyTitle      = errors.New("title must not be empty")
	ErrTitleTooLong    = fmt.Errorf("title too long (max %d characters)", MaxTitleLength)
	ErrInvalidCategory = errors.New("category must be one of Food, Transportation, Entertainment, Shopping, Healthcare, Education, Utilities, Other")
	ErrDescriptionLong = fmt.Errorf("description too long (max %d characters)", MaxDescriptionLength)
	ErrMissingDate     = errors.New("date is required")
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
)

func (c Category) String() string {
	return string(c)
}

// NormalizeCategory maps legacy names and case variants onto the canonical set.
func NormalizeCategory(raw string) (Category, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalidCategory
	}
	if c, ok := legacyCategories[strings.ToLower(s)]; ok {
		return c, nil
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket the date belongs to.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Normalize validates the payload and returns the record to store.
// All field problems are reported together in a *ValidationError.
func (in NewExpense) Normalize() (Expense, error) {
	var verr ValidationError
	var e Expense

	title, err := normalizeTitle(in.Title)
	verr.Add("title", err)
	e.Title = title

	cat, err := NormalizeCategory(in.Category)
	verr.Add("category", err)
	e.Category = cat

	amount, err := MoneyFromDecimal(in.Amount)
	verr.Add("amount", err)
	e.Amount = amount

	verr.Add("date", in.Date.Validate())
	e.Date = in.Date

	desc, err := normalizeDescription(in.Description)
	verr.Add("description", err)
	e.Description = desc

	if verr.HasErrors() {
		return Expense{}, &verr
	}
	return e, nil
}

func normalizeTitle(raw string) (string, error) {
	title := strings.Join(strings.Fields(stripControl(raw)), " ")
	if title == "" {
		return "", ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

func normalizeDescription(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	desc := strings.TrimSpace(stripControl(*raw))
	if desc == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return nil, ErrDescriptionLong
	}
	return &desc, nil
}

// stripControl drops control characters except tab, newline and carriage return.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r == 127 {
			return -1
		}
		return r
	}, s)
}

// DescriptionOrEmpty returns the description text, or "" when absent.
func (e Expense) DescriptionOrEmpty() string {
	if e.Description == nil {
		return ""
	}
	return *e.Description
}
