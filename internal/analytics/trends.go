package analytics

import (
	"github.com/shopspring/decimal"

	"vegakash/internal/core"
)

// Window returns the inclusive date range [today-days, today].
func Window(days int, today core.Date) (from, to core.Date) {
	return today.AddDays(-days), today
}

// DailyBuckets sums amounts per YYYY-MM-DD.
func DailyBuckets(records []core.Expense) map[string]core.Money {
	out := map[string]core.Money{}
	for _, r := range records {
		k := r.Date.String()
		out[k] = core.Money{Cents: out[k].Cents + r.Amount.Cents}
	}
	return out
}

// MonthlyBuckets sums amounts per YYYY-MM.
func MonthlyBuckets(records []core.Expense) map[string]core.Money {
	out := map[string]core.Money{}
	for _, r := range records {
		k := r.Date.MonthKey()
		out[k] = core.Money{Cents: out[k].Cents + r.Amount.Cents}
	}
	return out
}

// CategoryBuckets sums amounts per category.
func CategoryBuckets(records []core.Expense) map[string]core.Money {
	out := map[string]core.Money{}
	for _, r := range records {
		k := string(r.Category)
		out[k] = core.Money{Cents: out[k].Cents + r.Amount.Cents}
	}
	return out
}

// AverageBucket returns sum(buckets) / max(len(buckets), 1), rounded to cents.
func AverageBucket(buckets map[string]core.Money) decimal.Decimal {
	var sum int64
	for _, m := range buckets {
		sum += m.Cents
	}
	n := len(buckets)
	if n == 0 {
		n = 1
	}
	return core.Money{Cents: sum}.Decimal().Div(decimal.NewFromInt(int64(n))).Round(2)
}

// MonthlyAverage is the mean spend over the months that have records.
func MonthlyAverage(records []core.Expense) decimal.Decimal {
	if len(records) == 0 {
		return zero
	}
	return AverageBucket(MonthlyBuckets(records))
}

// TrendReport is the time-bucketed view over a trailing window.
type TrendReport struct {
	PeriodDays   int
	Count        int
	Total        core.Money
	Daily        map[string]core.Money
	Monthly      map[string]core.Money
	Categories   map[string]core.Money
	AverageDaily decimal.Decimal
}

// Trends buckets the records that fall inside Window(days, today). Records
// outside the window are ignored.
func Trends(records []core.Expense, days int, today core.Date) TrendReport {
	from, to := Window(days, today)

	in := make([]core.Expense, 0, len(records))
	for _, r := range records {
		if r.Date.Before(from.Time) || r.Date.After(to.Time) {
			continue
		}
		in = append(in, r)
	}

	rep := TrendReport{
		PeriodDays: days,
		Count:      len(in),
		Daily:      DailyBuckets(in),
		Monthly:    MonthlyBuckets(in),
		Categories: CategoryBuckets(in),
	}
	for _, r := range in {
		rep.Total.Cents += r.Amount.Cents
	}
	rep.AverageDaily = AverageBucket(rep.Daily)
	return rep
}
