package insight

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"vegakash/internal/analytics"
	"vegakash/internal/core"
)

const followUp = "For detailed planning, call our toll-free: 1800-VEGAKASH (1800-834-2527)"

// Topic is the advice template chosen for a chat message.
type Topic string

const (
	TopicInvestment Topic = "investment"
	TopicCredit     Topic = "credit"
	TopicROI        Topic = "roi"
	TopicTax        Topic = "tax"
	TopicBudgeting  Topic = "budgeting"
	TopicGeneral    Topic = "general"
)

// topicKeywords is checked in order; the first group with a match wins.
var topicKeywords = []struct {
	topic    Topic
	keywords []string
}{
	{TopicInvestment, []string{"invest", "mutual fund", "sip", "stock", "portfolio"}},
	{TopicCredit, []string{"credit", "loan", "emi", "debt"}},
	{TopicROI, []string{"roi", "compound", "growth", "returns"}},
	{TopicTax, []string{"tax", "80c", "elss", "ppf", "deduction"}},
	{TopicBudgeting, []string{"spending", "expense", "budget", "save", "money", "month"}},
}

// ClassifyTopic picks the advice template for message.
func ClassifyTopic(message string) Topic {
	m := strings.ToLower(message)
	for _, g := range topicKeywords {
		for _, k := range g.keywords {
			if strings.Contains(m, k) {
				return g.topic
			}
		}
	}
	return TopicGeneral
}

var (
	investShare = decimal.New(2, -1)
	sipShare    = decimal.New(7, -1)
	elssShare   = decimal.New(3, -1)
	elssCap     = decimal.NewFromInt(12500)
	needsShare  = decimal.New(5, -1)
	wantsShare  = decimal.New(3, -1)
)

// fallbackReply renders the templated answer for topic.
func fallbackReply(e analytics.Engine, topic Topic, records []core.Expense) string {
	switch topic {
	case TopicInvestment:
		if len(records) == 0 {
			return lines(
				"INVESTMENT STARTER GUIDE:",
				"",
				"Begin with:",
				"- Emergency fund: 6 months of expenses",
				"- SIP in equity funds: "+e.Currency()+"3,000-5,000/month",
				"- ELSS for tax saving: up to "+e.Currency()+"12,500/month",
				"",
				"Start tracking expenses to determine your investment capacity!",
			)
		}
		monthly := analytics.MonthlyAverage(records)
		invest := monthly.Mul(investShare)
		elss := decimal.Min(elssCap, invest.Mul(elssShare))
		return lines(
			"INVESTMENT ADVICE:",
			"",
			fmt.Sprintf("Based on your %s monthly spending, start investing %s (20%%):", e.Rounded(monthly), e.Rounded(invest)),
			"- SIP in equity mutual funds: "+e.Rounded(invest.Mul(sipShare))+"/month",
			"- ELSS for tax saving: "+e.Rounded(elss)+"/month",
			"",
			"Potential: "+e.Rounded(invest.Mul(decimal.NewFromInt(120)))+" invested over 10 years, before returns",
		)

	case TopicCredit:
		return lines(
			"CREDIT OPTIMIZATION:",
			"",
			"Key rules:",
			"- Keep credit utilization below 30%",
			"- Pay the full amount, never the minimum",
			"- Check your credit score quarterly",
			"- Keep total EMIs below 40% of income",
			"",
			"Quick wins: set auto-pay for all bills and keep old cards active.",
		)

	case TopicROI:
		return lines(
			"ROI QUICK GUIDE:",
			"",
			"Expected returns:",
			"- FD/Savings: 3-6% (safe)",
			"- Debt funds: 6-9% (stable)",
			"- Equity funds: 12-15% (growth)",
			"",
			"Power of SIP: "+e.Currency()+"10K monthly at 12% grows to about "+e.Currency()+"23L in 10 years.",
			"Start early, stay consistent and rebalance annually.",
		)

	case TopicTax:
		return lines(
			"TAX SAVING ESSENTIALS:",
			"",
			"Section 80C ("+e.Currency()+"1.5L limit):",
			"- ELSS: best growth with tax saving",
			"- PPF: 15-year safe option",
			"- Home loan principal counts",
			"",
			"Other deductions:",
			"- 80D: health insurance ("+e.Currency()+"25K-50K)",
			"- NPS: extra "+e.Currency()+"50K deduction",
		)

	case TopicBudgeting:
		if len(records) == 0 {
			return lines(
				"BUDGET BASICS:",
				"",
				"- Track expenses for 3 months",
				"- Follow the 50/30/20 rule",
				"- Automate savings first",
				"- Build an emergency fund",
			)
		}
		s := analytics.Summarize(records)
		top, _ := s.Highest()
		monthly := analytics.MonthlyAverage(records)
		return lines(
			"YOUR SPENDING SNAPSHOT:",
			"",
			"- Total expenses: "+e.Rounded(s.Total.Decimal()),
			"- Monthly average: "+e.Rounded(monthly),
			fmt.Sprintf("- Top category: %s (%s)", top.Category, e.Rounded(top.Total.Decimal())),
			"",
			fmt.Sprintf("50/30/20 rule: needs %s | wants %s | savings %s",
				e.Rounded(monthly.Mul(needsShare)), e.Rounded(monthly.Mul(wantsShare)), e.Rounded(monthly.Mul(investShare))),
			"",
			fmt.Sprintf("Focus on optimizing %s expenses first!", top.Category),
		)
	}

	return lines(
		"FINANCIAL GUIDANCE MENU:",
		"",
		"I can help with:",
		"- Budget planning and expense tracking",
		"- Investment strategies (SIP, mutual funds)",
		"- Credit score and debt management",
		"- Tax saving (80C, ELSS, PPF)",
		"- ROI calculations and planning",
	)
}

func lines(parts ...string) string {
	return strings.Join(append(parts, "", followUp), "\n")
}
