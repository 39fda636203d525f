// Package analytics reduces a snapshot of expense records to the totals,
// breakdowns and rule-based advice served by the API.
//
// Every function here is pure: it reads the records it is given and returns
// fresh values. Money stays in integer cents; ratios are computed with
// shopspring/decimal and only rounded when rendered.
package analytics

import (
	"github.com/shopspring/decimal"
)

const (
	// NoOutliers is reported instead of an empty outlier list.
	NoOutliers = "No significant outliers detected"

	// MaxListItems caps every rendered advice list.
	MaxListItems = 5

	// TopCategoryCount is how many categories the insight summary ranks.
	TopCategoryCount = 3

	DefaultOutlierMultiplier = 2.0
	DefaultCurrency          = "₹"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Engine carries the tunables shared by the aggregation rules.
type Engine struct {
	outlierK decimal.Decimal
	currency string
}

// New returns an Engine. A non-positive multiplier or empty currency falls
// back to the defaults.
func New(outlierMultiplier float64, currency string) Engine {
	if outlierMultiplier <= 0 {
		outlierMultiplier = DefaultOutlierMultiplier
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return Engine{
		outlierK: decimal.NewFromFloat(outlierMultiplier),
		currency: currency,
	}
}

// Currency returns the symbol used in rendered strings.
func (e Engine) Currency() string {
	return e.currency
}

// OutlierMultiplier returns k in "amount > k x mean".
func (e Engine) OutlierMultiplier() decimal.Decimal {
	return e.outlierK
}

func capList(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
