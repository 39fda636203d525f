package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"vegakash/internal/core"
)

const (
	testSpreadsheet = "sheet-123"
	testSheet       = "Expenses"
	testSheetID     = 7
)

// fakeSheets serves the handful of Sheets v4 endpoints the client calls,
// backed by an in-memory grid.
type fakeSheets struct {
	mu       sync.Mutex
	rows     [][]string
	deletes  int
	metaHits int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := "/v4/spreadsheets/" + testSpreadsheet
	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(path, prefix+"/values/"):
		var values [][]string
		for _, row := range f.rows {
			if len(row) == 0 {
				values = append(values, []string{})
				continue
			}
			values = append(values, []string{row[0]})
		}
		writeFake(w, map[string]any{"range": testSheet + "!A:A", "values": values})

	case r.Method == http.MethodPut && strings.HasPrefix(path, prefix+"/values/"):
		rng := strings.TrimPrefix(path, prefix+"/values/")
		row, err := rowOf(rng)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var vr struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil || len(vr.Values) != 1 {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		for len(f.rows) < row {
			f.rows = append(f.rows, nil)
		}
		cells := make([]string, len(vr.Values[0]))
		for i, v := range vr.Values[0] {
			cells[i] = fmt.Sprint(v)
		}
		f.rows[row-1] = cells
		writeFake(w, map[string]any{"updatedRange": rng, "updatedRows": 1})

	case r.Method == http.MethodGet && path == prefix:
		f.metaHits++
		writeFake(w, map[string]any{"sheets": []any{
			map[string]any{"properties": map[string]any{"sheetId": 1, "title": "Other"}},
			map[string]any{"properties": map[string]any{"sheetId": testSheetID, "title": testSheet}},
		}})

	case r.Method == http.MethodPost && path == prefix+":batchUpdate":
		var req gsheet.BatchUpdateSpreadsheetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Requests) != 1 {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		dr := req.Requests[0].DeleteDimension
		if dr == nil || dr.Range.SheetId != testSheetID || dr.Range.Dimension != "ROWS" || dr.Range.EndIndex != dr.Range.StartIndex+1 {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}
		idx := int(dr.Range.StartIndex)
		f.rows = append(f.rows[:idx], f.rows[idx+1:]...)
		f.deletes++
		writeFake(w, map[string]any{"spreadsheetId": testSpreadsheet})

	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func writeFake(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// rowOf extracts the row number from "Sheet!A3:H3".
func rowOf(rng string) (int, error) {
	_, cells, ok := strings.Cut(rng, "!")
	if !ok {
		return 0, fmt.Errorf("range %q has no sheet", rng)
	}
	first, _, _ := strings.Cut(cells, ":")
	return strconv.Atoi(strings.TrimLeft(first, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
}

func newFakeClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return newWithService(svc, Config{SpreadsheetID: testSpreadsheet, SheetName: testSheet}), fake
}

func expense(id int64, title string, cents int64) core.Expense {
	at := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	return core.Expense{
		ID:        id,
		Title:     title,
		Category:  core.Food,
		Amount:    core.Money{Cents: cents},
		Date:      core.NewDate(2025, 7, 1),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestUpsertWritesHeaderThenRows(t *testing.T) {
	c, fake := newFakeClient(t)
	ctx := context.Background()

	ref, err := c.Upsert(ctx, expense(1, "Lunch", 1250))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if ref != "Expenses!A2:H2" {
		t.Errorf("ref = %q", ref)
	}
	if _, err := c.Upsert(ctx, expense(2, "Dinner", 3000)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if len(fake.rows) != 3 {
		t.Fatalf("rows = %v", fake.rows)
	}
	if fake.rows[0][0] != "ID" || fake.rows[0][7] != "Updated At" {
		t.Errorf("header = %v", fake.rows[0])
	}
	want := []string{"1", "2025-07-01", "Lunch", "Food", "12.50", "", "2025-07-01T09:00:00Z", "2025-07-01T09:00:00Z"}
	if strings.Join(fake.rows[1], "|") != strings.Join(want, "|") {
		t.Errorf("row 2 = %v, want %v", fake.rows[1], want)
	}
	if fake.rows[2][0] != "2" || fake.rows[2][4] != "30.00" {
		t.Errorf("row 3 = %v", fake.rows[2])
	}
}

func TestUpsertUpdatesInPlace(t *testing.T) {
	c, fake := newFakeClient(t)
	ctx := context.Background()

	for _, e := range []core.Expense{expense(1, "A", 100), expense(2, "B", 200), expense(3, "C", 300)} {
		if _, err := c.Upsert(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	ref, err := c.Upsert(ctx, expense(2, "B edited", 250))
	if err != nil {
		t.Fatal(err)
	}
	if ref != "Expenses!A3:H3" {
		t.Errorf("ref = %q", ref)
	}
	if len(fake.rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(fake.rows))
	}
	if fake.rows[2][2] != "B edited" || fake.rows[2][4] != "2.50" {
		t.Errorf("row 3 = %v", fake.rows[2])
	}
}

func TestUpsertRejectsUnsavedExpense(t *testing.T) {
	c, fake := newFakeClient(t)
	if _, err := c.Upsert(context.Background(), expense(0, "x", 1)); err == nil {
		t.Fatal("expected error for id 0")
	}
	if len(fake.rows) != 0 {
		t.Fatalf("sheet touched: %v", fake.rows)
	}
}

func TestDeleteRemovesRow(t *testing.T) {
	c, fake := newFakeClient(t)
	ctx := context.Background()

	for _, e := range []core.Expense{expense(1, "A", 100), expense(2, "B", 200)} {
		if _, err := c.Upsert(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fake.rows) != 2 || fake.rows[1][0] != "2" {
		t.Fatalf("rows after delete = %v", fake.rows)
	}

	if err := c.Delete(ctx, 2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if fake.metaHits != 1 {
		t.Errorf("sheet id lookups = %d, want 1", fake.metaHits)
	}
}

func TestDeleteMissingRowIsNoop(t *testing.T) {
	c, fake := newFakeClient(t)
	ctx := context.Background()

	if _, err := c.Upsert(ctx, expense(1, "A", 100)); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, 99); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if fake.deletes != 0 || len(fake.rows) != 2 {
		t.Fatalf("deletes=%d rows=%v", fake.deletes, fake.rows)
	}
}

func TestNewConfigErrors(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"missing spreadsheet", Config{SheetName: "Expenses", CredentialsJSON: "{}"}, "missing spreadsheet id"},
		{"missing sheet", Config{SpreadsheetID: "x", CredentialsJSON: "{}"}, "missing sheet name"},
		{"missing credentials", Config{SpreadsheetID: "x", SheetName: "Expenses"}, "missing service account credentials"},
		{"unreadable file", Config{SpreadsheetID: "x", SheetName: "Expenses", CredentialsFile: filepath.Join(t.TempDir(), "nope.json")}, "read service account file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{{"ID"}, {"4"}, {}, {" 12 "}, {"x"}}
	tests := []struct {
		id   int64
		want int
	}{
		{4, 2},
		{12, 4},
		{5, 0},
	}
	for _, tt := range tests {
		if got := findRow(values, tt.id); got != tt.want {
			t.Errorf("findRow(%d) = %d, want %d", tt.id, got, tt.want)
		}
	}
}
