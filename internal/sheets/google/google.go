package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"vegakash/internal/core"
	"vegakash/internal/sheets"
)

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client exports expenses into one sheet of a spreadsheet, one row per
// expense with the expense id in column A.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// mu serializes the find-then-write sequences so concurrent events
	// never claim the same empty row.
	mu      sync.Mutex
	sheetID *int64
}

// Ensure interface conformance
var _ sheets.ExpenseExporter = (*Client)(nil)

// New creates a Sheets client using service account credentials.
// Extra options are appended after the credentials.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(cfg.SheetName) == "" {
		return nil, errors.New("missing sheet name")
	}

	credentialsJSON, err := loadCredentials(ctx, cfg)
	if err != nil {
		return nil, err
	}

	all := append([]goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)
	svc, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", cfg.SheetName)
	return newWithService(svc, cfg), nil
}

func newWithService(svc *gsheet.Service, cfg Config) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		sheetName:     strings.TrimSpace(cfg.SheetName),
	}
}

// loadCredentials returns the service account key, preferring inline JSON
// over a file and falling back to GOOGLE_APPLICATION_CREDENTIALS.
func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Upsert writes e into the row that holds its id, or into the first row
// after the data when the id is new. The header is written into an empty
// sheet first.
func (c *Client) Upsert(ctx context.Context, e core.Expense) (string, error) {
	if e.ID <= 0 {
		return "", fmt.Errorf("expense id must be positive, got %d", e.ID)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readIDColumn(ctx)
	if err != nil {
		return "", err
	}

	row := findRow(ids, e.ID)
	if row == 0 {
		if len(ids) == 0 {
			if err := c.writeRow(ctx, 1, sheets.HeaderValues()); err != nil {
				return "", fmt.Errorf("write header: %w", err)
			}
			ids = [][]any{{sheets.Header[0]}}
		}
		row = len(ids) + 1
	}

	if err := c.writeRow(ctx, row, sheets.RowValues(e)); err != nil {
		return "", err
	}
	return c.rowRange(row), nil
}

// Delete removes the row holding id, shifting the rows below it up.
func (c *Client) Delete(ctx context.Context, id int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readIDColumn(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, id)
	if row == 0 {
		slog.DebugContext(ctx, "Expense row not found, nothing to delete", "expense_id", id, "sheet", c.sheetName)
		return nil
	}

	sheetID, err := c.lookupSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in sheet %s: %w", row, c.sheetName, err)
	}
	return nil
}

func (c *Client) readIDColumn(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) writeRow(ctx context.Context, row int, values []any) error {
	rng := c.rowRange(row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) rowRange(row int) string {
	last := string(rune('A' + len(sheets.Header) - 1))
	return fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, last, row)
}

// lookupSheetID resolves the numeric id of the export sheet once.
func (c *Client) lookupSheetID(ctx context.Context) (int64, error) {
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			id := sh.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet %s", c.sheetName, c.spreadsheetID)
}

// findRow returns the 1-based row whose first cell is id, or 0.
func findRow(values [][]any, id int64) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		got, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err == nil && got == id {
			return i + 1
		}
	}
	return 0
}
