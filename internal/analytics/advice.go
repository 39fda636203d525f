package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"

	"vegakash/internal/core"
)

var (
	tenPercent  = decimal.New(1, -1)
	fivePercent = decimal.New(5, -2)
	budgetShare = decimal.New(9, -1)
)

// Insights is the rule-based insight summary.
type Insights struct {
	TotalSpent    core.Money
	TopCategories []string
	Patterns      []string
	Outliers      []string
	Suggestions   []string
}

// FallbackInsights builds the insight summary from local rules only.
func (e Engine) FallbackInsights(records []core.Expense) Insights {
	if len(records) == 0 {
		return Insights{
			TopCategories: []string{},
			Patterns:      []string{"No spending data available yet"},
			Outliers:      []string{NoOutliers},
			Suggestions:   []string{"Start adding expenses to get personalized insights"},
		}
	}

	s := Summarize(records)
	highest, _ := s.Highest()
	frequent, _ := s.MostFrequent()

	patterns := []string{
		fmt.Sprintf("You've made %d expense entries", s.Count),
		"Average expense amount: " + e.Decimal(s.Average),
		fmt.Sprintf("Highest spending category: %s (%s, %s%% of total)",
			highest.Category, e.Money(highest.Total), Percent(share(highest.Total, s.Total))),
		fmt.Sprintf("Most frequent category: %s (%d entries)", frequent.Category, frequent.Count),
	}

	suggestions := []string{
		"Continue tracking your expenses for better insights",
		"Consider setting a budget for " + string(highest.Category),
		"Review your spending patterns weekly",
		"Look for ways to reduce expenses in your top categories",
	}

	return Insights{
		TotalSpent:    s.Total,
		TopCategories: e.TopCategories(s, TopCategoryCount),
		Patterns:      capList(patterns, MaxListItems),
		Outliers:      capList(e.Outliers(records), MaxListItems),
		Suggestions:   capList(suggestions, MaxListItems),
	}
}

// SavingsReport holds savings advice and the estimated amount saved.
type SavingsReport struct {
	Suggestions      []string
	PotentialSavings decimal.Decimal
	PriorityAreas    []string
}

// Savings applies the share thresholds to the three largest categories.
// A category above 30% of the total is a priority area worth a 10% cut; one
// above 20% is worth 5%.
func (e Engine) Savings(records []core.Expense) SavingsReport {
	if len(records) == 0 {
		return SavingsReport{
			Suggestions:      []string{"Start tracking expenses to get personalized savings suggestions"},
			PotentialSavings: zero,
			PriorityAreas:    []string{},
		}
	}

	s := Summarize(records)
	rep := SavingsReport{
		Suggestions:      []string{},
		PotentialSavings: zero,
		PriorityAreas:    []string{},
	}

	for _, c := range s.Top(TopCategoryCount) {
		amount := c.Total.Decimal()
		switch {
		case s.SharesAbove(c, 30):
			rep.Suggestions = append(rep.Suggestions, fmt.Sprintf(
				"High spending in %s (%s, %s%% of total). Consider reducing by 10-15%%.",
				c.Category, e.Money(c.Total), Percent(share(c.Total, s.Total))))
			rep.PotentialSavings = rep.PotentialSavings.Add(amount.Mul(tenPercent))
			rep.PriorityAreas = append(rep.PriorityAreas, string(c.Category))
		case s.SharesAbove(c, 20):
			cut := amount.Mul(fivePercent)
			rep.Suggestions = append(rep.Suggestions, fmt.Sprintf(
				"%s spending could be optimized. Potential savings: %s", c.Category, e.Decimal(cut)))
			rep.PotentialSavings = rep.PotentialSavings.Add(cut)
		}
	}

	if avg := MonthlyAverage(records); avg.IsPositive() {
		rep.Suggestions = append(rep.Suggestions,
			fmt.Sprintf("Set a monthly budget of %s (10%% reduction)", e.Decimal(avg.Mul(budgetShare))),
			"Track daily expenses to identify impulse purchases",
			"Review subscriptions and recurring payments",
		)
	}

	rep.Suggestions = capList(rep.Suggestions, MaxListItems)
	rep.PriorityAreas = capList(rep.PriorityAreas, TopCategoryCount)
	rep.PotentialSavings = rep.PotentialSavings.Round(2)
	return rep
}
