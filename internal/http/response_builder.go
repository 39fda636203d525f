// Package http provides HTTP server and handler implementations.
//
// This file holds the JSON response side: record and report DTOs, the error
// envelope and the mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"vegakash/internal/analytics"
	"vegakash/internal/core"
	"vegakash/internal/insight"
	"vegakash/internal/log"
)

// Error codes carried in the error envelope.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeInternal   = "INTERNAL_SERVER_ERROR"

	detailInternal = "Internal server error"
)

// ErrorBody is the envelope of every non-2xx response.
type ErrorBody struct {
	Detail    string            `json:"detail"`
	ErrorCode string            `json:"error_code"`
	Path      string            `json:"path"`
	Errors    []core.FieldError `json:"errors,omitempty"`
}

// fixed renders a JSON number with exactly two decimals.
type fixed struct {
	d decimal.Decimal
}

func amountOf(m core.Money) fixed       { return fixed{d: m.Decimal()} }
func amountDec(d decimal.Decimal) fixed { return fixed{d: d} }

func (a fixed) MarshalJSON() ([]byte, error) {
	return []byte(a.d.StringFixed(2)), nil
}

type expenseResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Amount      fixed     `json:"amount"`
	Date        core.Date `json:"date"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Title:       e.Title,
		Category:    string(e.Category),
		Amount:      amountOf(e.Amount),
		Date:        e.Date,
		Description: e.Description,
		CreatedAt:   e.CreatedAt.UTC(),
		UpdatedAt:   e.UpdatedAt.UTC(),
	}
}

func toExpenseResponses(items []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(items))
	for _, e := range items {
		out = append(out, toExpenseResponse(e))
	}
	return out
}

type categoryTotals struct {
	Count  int   `json:"count"`
	Amount fixed `json:"amount"`
}

type categoryBreakdown struct {
	Category      string `json:"category"`
	Count         int    `json:"count"`
	TotalAmount   fixed  `json:"total_amount"`
	AverageAmount fixed  `json:"average_amount"`
	Percentage    fixed  `json:"percentage"`
}

type summaryResponse struct {
	TotalExpenses     int                       `json:"total_expenses"`
	TotalAmount       fixed                     `json:"total_amount"`
	AverageAmount     fixed                     `json:"average_amount"`
	Categories        map[string]categoryTotals `json:"categories"`
	CategoryBreakdown []categoryBreakdown       `json:"category_breakdown"`
	ExpenseCount      int                       `json:"expense_count"`
}

func toSummaryResponse(s analytics.Summary) summaryResponse {
	resp := summaryResponse{
		TotalExpenses:     s.Count,
		TotalAmount:       amountOf(s.Total),
		AverageAmount:     amountDec(s.Average),
		Categories:        make(map[string]categoryTotals, len(s.Categories)),
		CategoryBreakdown: make([]categoryBreakdown, 0, len(s.Categories)),
		ExpenseCount:      s.Count,
	}
	for _, c := range s.Categories {
		name := string(c.Category)
		resp.Categories[name] = categoryTotals{Count: c.Count, Amount: amountOf(c.Total)}
		resp.CategoryBreakdown = append(resp.CategoryBreakdown, categoryBreakdown{
			Category:      name,
			Count:         c.Count,
			TotalAmount:   amountOf(c.Total),
			AverageAmount: amountDec(c.Average),
			Percentage:    amountDec(c.Percentage),
		})
	}
	return resp
}

type insightsResponse struct {
	TotalSpent    fixed        `json:"total_spent"`
	TopCategories []string     `json:"top_categories"`
	Patterns      []string     `json:"patterns"`
	Outliers      []string     `json:"outliers"`
	Suggestions   []string     `json:"suggestions"`
	Mode          insight.Mode `json:"mode"`
}

func toInsightsResponse(s insight.InsightSummary) insightsResponse {
	return insightsResponse{
		TotalSpent:    amountOf(s.TotalSpent),
		TopCategories: s.TopCategories,
		Patterns:      s.Patterns,
		Outliers:      s.Outliers,
		Suggestions:   s.Suggestions,
		Mode:          s.Mode,
	}
}

type savingsResponse struct {
	Suggestions      []string     `json:"suggestions"`
	PotentialSavings fixed        `json:"potential_savings"`
	PriorityAreas    []string     `json:"priority_areas"`
	Mode             insight.Mode `json:"mode"`
}

func toSavingsResponse(s insight.SavingsSummary) savingsResponse {
	return savingsResponse{
		Suggestions:      s.Suggestions,
		PotentialSavings: amountDec(s.PotentialSavings),
		PriorityAreas:    s.PriorityAreas,
		Mode:             s.Mode,
	}
}

type trendsResponse struct {
	PeriodDays        int              `json:"period_days"`
	TotalExpenses     int              `json:"total_expenses"`
	TotalAmount       fixed            `json:"total_amount"`
	DailySpending     map[string]fixed `json:"daily_spending"`
	MonthlySpending   map[string]fixed `json:"monthly_spending"`
	CategoryBreakdown map[string]fixed `json:"category_breakdown"`
	AverageDaily      fixed            `json:"average_daily"`
}

func toTrendsResponse(t analytics.TrendReport) trendsResponse {
	return trendsResponse{
		PeriodDays:        t.PeriodDays,
		TotalExpenses:     t.Count,
		TotalAmount:       amountOf(t.Total),
		DailySpending:     amountMap(t.Daily),
		MonthlySpending:   amountMap(t.Monthly),
		CategoryBreakdown: amountMap(t.Categories),
		AverageDaily:      amountDec(t.AverageDaily),
	}
}

func amountMap(in map[string]core.Money) map[string]fixed {
	out := make(map[string]fixed, len(in))
	for k, v := range in {
		out[k] = amountOf(v)
	}
	return out
}

type chatResponse struct {
	Response         string       `json:"response"`
	Timestamp        time.Time    `json:"timestamp"`
	ContextAvailable bool         `json:"context_available"`
	SpecialistMode   insight.Mode `json:"specialist_mode"`
	ResponseType     string       `json:"response_type"`
}

func toChatResponse(c insight.ChatReply) chatResponse {
	return chatResponse{
		Response:         c.Response,
		Timestamp:        c.Timestamp,
		ContextAvailable: c.ContextAvailable,
		SpecialistMode:   c.Mode,
		ResponseType:     c.ResponseType,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON encodes v with status. Encoding errors are logged only, since
// the status line is already on the wire.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

// httpCode is the error_code for plain HTTP errors, e.g. "HTTP_404".
func httpCode(status int) string {
	return "HTTP_" + strconv.Itoa(status)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	code := httpCode(status)
	if status == http.StatusInternalServerError {
		code = CodeInternal
	}
	writeJSON(w, r, status, ErrorBody{Detail: detail, ErrorCode: code, Path: r.URL.Path})
}

func writeValidation(w http.ResponseWriter, r *http.Request, verr *core.ValidationError) {
	writeJSON(w, r, http.StatusUnprocessableEntity, ErrorBody{
		Detail:    verr.Error(),
		ErrorCode: CodeValidation,
		Path:      r.URL.Path,
		Errors:    verr.Fields,
	})
}

// writeServiceError maps err onto the envelope. Unknown errors are logged in
// full and reported as a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, r, verr)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Expense not found")
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(),
			"Request failed", err, log.ComponentHTTP, op,
			log.NewFields().WithErrorType(log.ErrorTypeInternal).WithHTTPRequest(r.Method, r.URL.Path, "", "", ""))
		writeError(w, r, http.StatusInternalServerError, detailInternal)
	}
}
