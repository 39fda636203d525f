package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"vegakash/internal/core"
	"vegakash/internal/storage"
)

func rawFields(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		t.Fatalf("bad test body %q: %v", body, err)
	}
	return fields
}

func fieldNames(err error) []string {
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	out := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestParseNewExpense(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{
			name: "valid with numeric string amount",
			body: `{"title":"Lunch","category":"food","amount":"12.5","date":"2025-07-01"}`,
		},
		{
			name: "valid with description",
			body: `{"title":"Bus","category":"Transportation","amount":2,"date":"2025-07-01","description":"to work"}`,
		},
		{
			name:       "everything missing",
			body:       `{}`,
			wantFields: []string{"title", "category", "amount", "date"},
		},
		{
			name:       "wrong types",
			body:       `{"title":5,"category":"Food","amount":"abc","date":"07/01/2025"}`,
			wantFields: []string{"title", "amount", "date"},
		},
		{
			name:       "type error plus rule error",
			body:       `{"title":"Lunch","category":"Pets","amount":true,"date":"2025-07-01"}`,
			wantFields: []string{"amount", "category"},
		},
		{
			name:       "null required member",
			body:       `{"title":null,"category":"Food","amount":1,"date":"2025-07-01"}`,
			wantFields: []string{"title"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := parseNewExpense(rawFields(t, tt.body))
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if in.Title == "" || in.Date.IsZero() {
					t.Fatalf("incomplete result: %+v", in)
				}
				return
			}
			got := fieldNames(err)
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Fatalf("fields = %v, want %v (err=%v)", got, tt.wantFields, err)
			}
		})
	}
}

func TestParseNewExpenseKeepsDescription(t *testing.T) {
	in, err := parseNewExpense(rawFields(t, `{"title":"A","category":"Other","amount":1,"date":"2025-01-02","description":"note"}`))
	if err != nil {
		t.Fatal(err)
	}
	if in.Description == nil || *in.Description != "note" {
		t.Fatalf("description = %v", in.Description)
	}
	if in.Amount.String() != "1" {
		t.Fatalf("amount = %s", in.Amount)
	}
}

func TestParsePatch(t *testing.T) {
	p, err := parsePatch(rawFields(t, `{}`))
	if err != nil || !p.IsEmpty() {
		t.Fatalf("empty body: patch=%+v err=%v", p, err)
	}

	p, err = parsePatch(rawFields(t, `{"description":null,"amount":"9.99"}`))
	if err != nil {
		t.Fatal(err)
	}
	if !p.ClearDescription || p.Amount == nil || p.Amount.String() != "9.99" {
		t.Fatalf("patch = %+v", p)
	}

	_, err = parsePatch(rawFields(t, `{"title":null,"date":"tomorrow"}`))
	if got := strings.Join(fieldNames(err), ","); got != "title,date" {
		t.Fatalf("fields = %s (err=%v)", got, err)
	}
}

func TestReadObject(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"object", `{"a":1}`, 0},
		{"empty", ``, http.StatusBadRequest},
		{"array", `[1,2]`, http.StatusBadRequest},
		{"broken", `{"a":`, http.StatusBadRequest},
		{"too large", `{"a":"` + strings.Repeat("x", MaxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/expenses", strings.NewReader(tt.body))
			_, err := readObject(rec, r)
			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var rerr *requestError
			if !errors.As(err, &rerr) || rerr.status != tt.wantStatus {
				t.Fatalf("err = %v, want status %d", err, tt.wantStatus)
			}
		})
	}
}

func TestParseListFilter(t *testing.T) {
	f, err := parseListFilter(url.Values{})
	if err != nil {
		t.Fatal(err)
	}
	if f.Limit != storage.DefaultLimit || f.Skip != 0 || f.SortBy != storage.SortByDate || f.SortOrder != storage.Desc {
		t.Fatalf("defaults = %+v", f)
	}

	q := url.Values{
		"skip":       {"10"},
		"limit":      {"5"},
		"category":   {"Food"},
		"date_from":  {"2025-01-01"},
		"date_to":    {"2025-01-31"},
		"min_amount": {"1.5"},
		"max_amount": {"100"},
		"search":     {"coffee"},
		"sort_by":    {"AMOUNT"},
		"sort_order": {"asc"},
	}
	f, err = parseListFilter(q)
	if err != nil {
		t.Fatal(err)
	}
	if f.Skip != 10 || f.Limit != 5 || f.Category != "Food" || f.Search != "coffee" {
		t.Fatalf("filter = %+v", f)
	}
	if f.MinAmountCents == nil || *f.MinAmountCents != 150 || f.MaxAmountCents == nil || *f.MaxAmountCents != 10000 {
		t.Fatalf("amount bounds = %v %v", f.MinAmountCents, f.MaxAmountCents)
	}
	if f.DateFrom == nil || f.DateFrom.String() != "2025-01-01" || f.SortBy != storage.SortByAmount || f.SortOrder != storage.Asc {
		t.Fatalf("filter = %+v", f)
	}

	bad := []struct {
		name  string
		q     url.Values
		field string
	}{
		{"negative skip", url.Values{"skip": {"-1"}}, "skip"},
		{"limit zero", url.Values{"limit": {"0"}}, "limit"},
		{"limit too big", url.Values{"limit": {"101"}}, "limit"},
		{"limit not int", url.Values{"limit": {"ten"}}, "limit"},
		{"sort field", url.Values{"sort_by": {"category"}}, "sort_by"},
		{"sort order", url.Values{"sort_order": {"up"}}, "sort_order"},
		{"bad date", url.Values{"date_from": {"01-01-2025"}}, "date_from"},
		{"negative amount", url.Values{"min_amount": {"-3"}}, "min_amount"},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseListFilter(tt.q)
			if got := fieldNames(err); len(got) != 1 || got[0] != tt.field {
				t.Fatalf("fields = %v, want [%s]", got, tt.field)
			}
		})
	}
}

func TestParseTrendDays(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", DefaultTrendDays, false},
		{"7", 7, false},
		{"3650", 3650, false},
		{"0", 0, true},
		{"3651", 0, true},
		{"week", 0, true},
	}
	for _, tt := range tests {
		q := url.Values{}
		if tt.raw != "" {
			q.Set("days", tt.raw)
		}
		got, err := parseTrendDays(q)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("days=%q: got %d err=%v", tt.raw, got, err)
		}
	}
}

func TestParseChatMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/ai/chat?message=How+do+I+save%3F", nil)
	msg, err := parseChatMessage(rec, r)
	if err != nil || msg != "How do I save?" {
		t.Fatalf("query message = %q err=%v", msg, err)
	}

	r = httptest.NewRequest(http.MethodPost, "/ai/chat", strings.NewReader(`{"message":"  tax tips "}`))
	r.Header.Set("Content-Type", "application/json")
	msg, err = parseChatMessage(rec, r)
	if err != nil || msg != "tax tips" {
		t.Fatalf("body message = %q err=%v", msg, err)
	}

	r = httptest.NewRequest(http.MethodPost, "/ai/chat", nil)
	if _, err := parseChatMessage(rec, r); strings.Join(fieldNames(err), ",") != "message" {
		t.Fatalf("missing message err = %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/ai/chat?message="+strings.Repeat("a", 1001), nil)
	if _, err := parseChatMessage(rec, r); strings.Join(fieldNames(err), ",") != "message" {
		t.Fatalf("long message err = %v", err)
	}
}

func TestParseID(t *testing.T) {
	for _, tt := range []struct {
		raw  string
		want int64
		ok   bool
	}{
		{"1", 1, true},
		{"42", 42, true},
		{"0", 0, false},
		{"-4", 0, false},
		{"abc", 0, false},
	} {
		r := httptest.NewRequest(http.MethodGet, "/expenses/"+tt.raw, nil)
		r.SetPathValue("id", tt.raw)
		got, err := parseID(r)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("parseID(%q) = %d, %v", tt.raw, got, err)
		}
	}
}
