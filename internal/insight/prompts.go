package insight

import (
	"fmt"
	"strings"

	"vegakash/internal/analytics"
	"vegakash/internal/core"
)

// maxPromptRecords bounds how many records are serialized into a prompt.
const maxPromptRecords = 200

const (
	insightSystem = "You are a personal finance analyst. Return only JSON."
	savingsSystem = "You are a financial advisor providing specific savings recommendations. Return only JSON."
	chatSystem    = "You are VegaKash AI, a concise personal finance specialist covering budgeting, " +
		"investing, credit, tax planning and savings for users in India. Keep answers under 150 words " +
		"with two or three key points. Always end with: \"" + followUp + "\""
)

type promptRecord struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
}

// promptRecords keeps the most recent records when there are too many.
func promptRecords(records []core.Expense) []promptRecord {
	if len(records) > maxPromptRecords {
		records = records[len(records)-maxPromptRecords:]
	}
	out := make([]promptRecord, 0, len(records))
	for _, r := range records {
		out = append(out, promptRecord{
			Title:       r.Title,
			Category:    string(r.Category),
			Amount:      r.Amount.String(),
			Date:        r.Date.String(),
			Description: r.DescriptionOrEmpty(),
		})
	}
	return out
}

func insightPrompt(e analytics.Engine, s analytics.Summary, records []core.Expense) Prompt {
	var b strings.Builder
	b.WriteString("Analyze the following expense data and provide insights in JSON format.\n")
	b.WriteString("Return ONLY a JSON object with exactly these keys:\n")
	b.WriteString("- \"patterns\": list of 3-5 spending pattern observations\n")
	b.WriteString("- \"outliers\": list of unusual expenses or spending behaviors (may be empty)\n")
	b.WriteString("- \"suggestions\": list of 3-5 actionable money-saving suggestions\n\n")
	fmt.Fprintf(&b, "Expense data (Total: %s, %d entries):\n", e.Money(s.Total), s.Count)
	b.WriteString(compactJSON(promptRecords(records)))
	b.WriteString("\n\nReturn only valid JSON without any markdown or explanations.")

	return Prompt{
		System:      insightSystem,
		User:        b.String(),
		Temperature: 0.7,
		MaxTokens:   1000,
		JSON:        true,
	}
}

func savingsPrompt(e analytics.Engine, s analytics.Summary, records []core.Expense) Prompt {
	top := map[string]string{}
	for _, c := range s.Top(analytics.MaxListItems) {
		top[string(c.Category)] = c.Total.String()
	}
	monthly := map[string]string{}
	for k, m := range analytics.MonthlyBuckets(records) {
		monthly[k] = m.String()
	}

	var b strings.Builder
	b.WriteString("As a financial advisor, analyze this expense data and provide specific savings recommendations.\n\n")
	fmt.Fprintf(&b, "Total spending: %s\n", e.Money(s.Total))
	fmt.Fprintf(&b, "Average monthly: %s\n", e.Decimal(analytics.MonthlyAverage(records)))
	fmt.Fprintf(&b, "Top categories: %s\n", compactJSON(top))
	fmt.Fprintf(&b, "Monthly breakdown: %s\n\n", compactJSON(monthly))
	b.WriteString("Return ONLY a JSON object with exactly these keys:\n")
	b.WriteString("- \"suggestions\": list of specific, actionable savings tips with estimated amounts\n")
	b.WriteString("- \"potential_savings\": estimated total monthly savings as a number\n")
	b.WriteString("- \"priority_areas\": list of categories to focus on first, chosen from: ")
	names := make([]string, len(core.Categories))
	for i, c := range core.Categories {
		names[i] = string(c)
	}
	b.WriteString(strings.Join(names, ", "))
	b.WriteString("\n")

	return Prompt{
		System:      savingsSystem,
		User:        b.String(),
		Temperature: 0.2,
		MaxTokens:   800,
		JSON:        true,
	}
}

func chatPrompt(e analytics.Engine, message string, records []core.Expense) Prompt {
	var b strings.Builder
	b.WriteString(financialContext(e, records))
	b.WriteString("\n\nUSER QUERY: ")
	b.WriteString(message)
	b.WriteString("\n\nGive personalized, actionable advice. Use the user's numbers when relevant.")

	return Prompt{
		System:      chatSystem,
		User:        b.String(),
		Temperature: 0.7,
		MaxTokens:   200,
	}
}

func financialContext(e analytics.Engine, records []core.Expense) string {
	if len(records) == 0 {
		return "USER'S FINANCIAL PROFILE: new user, no expense data tracked yet."
	}
	s := analytics.Summarize(records)

	first, last := records[0].Date, records[0].Date
	for _, r := range records[1:] {
		if r.Date.Before(first.Time) {
			first = r.Date
		}
		if r.Date.After(last.Time) {
			last = r.Date
		}
	}

	var b strings.Builder
	b.WriteString("USER'S FINANCIAL PROFILE:\n")
	fmt.Fprintf(&b, "- Total expenses tracked: %s\n", e.Money(s.Total))
	fmt.Fprintf(&b, "- Number of transactions: %d\n", s.Count)
	fmt.Fprintf(&b, "- Average monthly spending: %s\n", e.Decimal(analytics.MonthlyAverage(records)))
	fmt.Fprintf(&b, "- Top spending categories: %s\n", strings.Join(e.TopCategories(s, analytics.TopCategoryCount), ", "))
	fmt.Fprintf(&b, "- Tracking period: %s to %s\n", first.Format("Jan 2006"), last.Format("Jan 2006"))
	fmt.Fprintf(&b, "- Active categories: %d", len(s.Categories))
	return b.String()
}
