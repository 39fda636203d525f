package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"vegakash/internal/analytics"
	"vegakash/internal/core"
)

func TestFixedMarshal(t *testing.T) {
	tests := []struct {
		in   fixed
		want string
	}{
		{amountOf(core.Money{Cents: 1250}), "12.50"},
		{amountOf(core.Money{}), "0.00"},
		{amountOf(core.Money{Cents: core.MaxAmountCents}), "1000000.00"},
		{amountDec(decimal.RequireFromString("76.923")), "76.92"},
	}
	for _, tt := range tests {
		b, err := json.Marshal(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != tt.want {
			t.Errorf("marshal = %s, want %s", b, tt.want)
		}
	}
}

func TestExpenseResponseJSON(t *testing.T) {
	created := time.Date(2025, 7, 1, 10, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	e := core.Expense{
		ID:        7,
		Title:     "Groceries",
		Category:  core.Food,
		Amount:    core.Money{Cents: 123450},
		Date:      core.NewDate(2025, 7, 1),
		CreatedAt: created,
		UpdatedAt: created,
	}

	b, err := json.Marshal(toExpenseResponse(e))
	if err != nil {
		t.Fatal(err)
	}
	body := string(b)
	for _, want := range []string{
		`"id":7`,
		`"amount":1234.50`,
		`"date":"2025-07-01"`,
		`"description":null`,
		`"created_at":"2025-07-01T05:00:00Z"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}
}

func TestSummaryResponseEmpty(t *testing.T) {
	b, err := json.Marshal(toSummaryResponse(analytics.Summarize(nil)))
	if err != nil {
		t.Fatal(err)
	}
	body := string(b)
	for _, want := range []string{`"total_amount":0.00`, `"categories":{}`, `"category_breakdown":[]`, `"expense_count":0`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		status   int
		wantCode string
	}{
		{http.StatusBadRequest, "HTTP_400"},
		{http.StatusNotFound, "HTTP_404"},
		{http.StatusTooManyRequests, "HTTP_429"},
		{http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, httptest.NewRequest(http.MethodGet, "/expenses/9", nil), tt.status, "boom")

		var body ErrorBody
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if rec.Code != tt.status || body.ErrorCode != tt.wantCode || body.Path != "/expenses/9" || body.Detail != "boom" {
			t.Errorf("status %d: got %d %+v", tt.status, rec.Code, body)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
	}
}

func TestWriteServiceError(t *testing.T) {
	s := &Server{}
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{"validation", core.NewValidationError("amount", "amount must be greater than 0"), http.StatusUnprocessableEntity, CodeValidation, ""},
		{"wrapped not found", fmt.Errorf("get: %w", core.ErrNotFound), http.StatusNotFound, "HTTP_404", "Expense not found"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, CodeInternal, detailInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/expenses/1", nil), "read", tt.err)

			var body ErrorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.wantStatus || body.ErrorCode != tt.wantCode {
				t.Fatalf("got %d %+v", rec.Code, body)
			}
			if tt.wantDetail != "" && body.Detail != tt.wantDetail {
				t.Fatalf("detail = %q", body.Detail)
			}
			if strings.Contains(body.Detail, "disk") {
				t.Fatal("internal error leaked to client")
			}
			if tt.wantCode == CodeValidation && (len(body.Errors) != 1 || body.Errors[0].Field != "amount") {
				t.Fatalf("errors = %+v", body.Errors)
			}
		})
	}
}
