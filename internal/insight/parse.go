package insight

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"vegakash/internal/analytics"
	"vegakash/internal/core"
)

// cleanModelJSON strips Markdown fences and any prose around the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

// decodeStrict decodes exactly one JSON object into v, rejecting unknown
// keys and trailing data.
func decodeStrict(raw string, v any) error {
	dec := json.NewDecoder(strings.NewReader(cleanModelJSON(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("decode model output: trailing data after object")
	}
	return nil
}

type insightPayload struct {
	Patterns    []string  `json:"patterns"`
	Outliers    *[]string `json:"outliers"`
	Suggestions []string  `json:"suggestions"`
}

type modelInsights struct {
	Patterns    []string
	Outliers    []string
	Suggestions []string
}

// parseInsights validates the model's insight object.
func parseInsights(raw string) (modelInsights, error) {
	var p insightPayload
	if err := decodeStrict(raw, &p); err != nil {
		return modelInsights{}, err
	}

	patterns := cleanList(p.Patterns)
	if len(patterns) == 0 {
		return modelInsights{}, errors.New("model output has no patterns")
	}
	suggestions := cleanList(p.Suggestions)
	if len(suggestions) == 0 {
		return modelInsights{}, errors.New("model output has no suggestions")
	}
	if p.Outliers == nil {
		return modelInsights{}, errors.New("model output is missing outliers")
	}
	outliers := cleanList(*p.Outliers)
	if len(outliers) == 0 {
		outliers = []string{analytics.NoOutliers}
	}

	return modelInsights{
		Patterns:    patterns,
		Outliers:    outliers,
		Suggestions: suggestions,
	}, nil
}

type savingsPayload struct {
	Suggestions      []string         `json:"suggestions"`
	PotentialSavings *decimal.Decimal `json:"potential_savings"`
	PriorityAreas    []string         `json:"priority_areas"`
}

// parseSavings validates the model's savings object. Priority areas must
// name canonical categories.
func parseSavings(raw string) (analytics.SavingsReport, error) {
	var p savingsPayload
	if err := decodeStrict(raw, &p); err != nil {
		return analytics.SavingsReport{}, err
	}

	suggestions := cleanList(p.Suggestions)
	if len(suggestions) == 0 {
		return analytics.SavingsReport{}, errors.New("model output has no suggestions")
	}
	if p.PotentialSavings == nil {
		return analytics.SavingsReport{}, errors.New("model output is missing potential_savings")
	}
	if p.PotentialSavings.IsNegative() {
		return analytics.SavingsReport{}, fmt.Errorf("model output has negative potential_savings %s", p.PotentialSavings)
	}

	areas := []string{}
	seen := map[core.Category]bool{}
	for _, raw := range cleanList(p.PriorityAreas) {
		c, err := core.NormalizeCategory(raw)
		if err != nil {
			return analytics.SavingsReport{}, fmt.Errorf("model output has unknown priority area %q", raw)
		}
		if !seen[c] {
			seen[c] = true
			areas = append(areas, string(c))
		}
	}

	return analytics.SavingsReport{
		Suggestions:      suggestions,
		PotentialSavings: p.PotentialSavings.Round(2),
		PriorityAreas:    capTo(areas, analytics.TopCategoryCount),
	}, nil
}

// cleanList trims items, drops blanks and caps the result.
func cleanList(items []string) []string {
	out := []string{}
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return capTo(out, analytics.MaxListItems)
}

func capTo(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// compactJSON is used to embed data in prompts.
func compactJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "{}"
	}
	return strings.TrimSpace(buf.String())
}
