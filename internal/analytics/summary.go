package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"vegakash/internal/core"
)

// CategoryStat aggregates one category.
type CategoryStat struct {
	Category core.Category
	Count    int
	Total    core.Money
	// Average and Percentage are rounded to two decimals.
	Average    decimal.Decimal
	Percentage decimal.Decimal
}

// Summary is the single-pass reduction every other rule builds on.
type Summary struct {
	Count   int
	Total   core.Money
	Average decimal.Decimal
	// Categories is ordered by total descending, then name ascending.
	Categories []CategoryStat
}

// Summarize totals records overall and per category. An empty input yields
// zero values and an empty (non-nil) category list.
func Summarize(records []core.Expense) Summary {
	s := Summary{Categories: []CategoryStat{}, Average: zero}

	idx := map[core.Category]int{}
	for _, r := range records {
		s.Count++
		s.Total.Cents += r.Amount.Cents

		i, ok := idx[r.Category]
		if !ok {
			i = len(s.Categories)
			idx[r.Category] = i
			s.Categories = append(s.Categories, CategoryStat{Category: r.Category})
		}
		s.Categories[i].Count++
		s.Categories[i].Total.Cents += r.Amount.Cents
	}
	if s.Count == 0 {
		return s
	}

	s.Average = mean(s.Total, s.Count)
	for i := range s.Categories {
		c := &s.Categories[i]
		c.Average = mean(c.Total, c.Count)
		c.Percentage = share(c.Total, s.Total).Round(2)
	}

	sort.SliceStable(s.Categories, func(i, j int) bool {
		a, b := s.Categories[i], s.Categories[j]
		if a.Total.Cents != b.Total.Cents {
			return a.Total.Cents > b.Total.Cents
		}
		return a.Category < b.Category
	})
	return s
}

// Top returns at most n categories in ranking order.
func (s Summary) Top(n int) []CategoryStat {
	if n > len(s.Categories) {
		n = len(s.Categories)
	}
	return s.Categories[:n]
}

// Highest returns the category with the largest total.
func (s Summary) Highest() (CategoryStat, bool) {
	if len(s.Categories) == 0 {
		return CategoryStat{}, false
	}
	return s.Categories[0], true
}

// MostFrequent returns the category with the most entries; ties go to the
// larger total, then to the name.
func (s Summary) MostFrequent() (CategoryStat, bool) {
	if len(s.Categories) == 0 {
		return CategoryStat{}, false
	}
	best := s.Categories[0]
	for _, c := range s.Categories[1:] {
		if c.Count > best.Count {
			best = c
		}
	}
	return best, true
}

// SharesAbove reports whether c is strictly more than pct percent of the
// summary total, using exact integer arithmetic.
func (s Summary) SharesAbove(c CategoryStat, pct int64) bool {
	return c.Total.Cents*100 > s.Total.Cents*pct
}

// TopCategories renders the n largest categories as "Name: ₹123.45".
func (e Engine) TopCategories(s Summary, n int) []string {
	out := []string{}
	for _, c := range s.Top(n) {
		out = append(out, string(c.Category)+": "+e.Money(c.Total))
	}
	return out
}

// Outliers lists records whose amount exceeds k times the mean amount, in
// input order. When none qualify the list holds the NoOutliers sentinel.
func (e Engine) Outliers(records []core.Expense) []string {
	out := []string{}
	if len(records) > 0 {
		var total int64
		for _, r := range records {
			total += r.Amount.Cents
		}
		// amount > k * total / n  <=>  amount * n > k * total
		limit := e.outlierK.Mul(decimal.NewFromInt(total))
		n := decimal.NewFromInt(int64(len(records)))
		for _, r := range records {
			if decimal.NewFromInt(r.Amount.Cents).Mul(n).GreaterThan(limit) {
				out = append(out, "High expense: "+r.Title+" ("+e.Money(r.Amount)+")")
			}
		}
	}
	if len(out) == 0 {
		return []string{NoOutliers}
	}
	return out
}

func mean(total core.Money, n int) decimal.Decimal {
	if n == 0 {
		return zero
	}
	return total.Decimal().Div(decimal.NewFromInt(int64(n))).Round(2)
}

// share returns part/total*100 unrounded; zero when total is zero.
func share(part, total core.Money) decimal.Decimal {
	if total.Cents == 0 {
		return zero
	}
	return decimal.NewFromInt(part.Cents).Mul(hundred).Div(decimal.NewFromInt(total.Cents))
}
