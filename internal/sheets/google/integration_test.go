//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"vegakash/internal/core"
)

// Integration tests require a real spreadsheet shared with a service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_ExportRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	cfg := Config{
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:       os.Getenv("GOOGLE_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	if cfg.SpreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Expenses"
	}
	if cfg.CredentialsJSON == "" && cfg.CredentialsFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	// High id so a real sheet's data is left alone.
	id := time.Now().Unix()
	now := time.Now().UTC()
	e := core.Expense{
		ID:        id,
		Title:     "integration test",
		Category:  core.Other,
		Amount:    core.Money{Cents: 4242},
		Date:      core.DateOf(now),
		CreatedAt: now,
		UpdatedAt: now,
	}

	first, err := client.Upsert(ctx, e)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	t.Logf("Wrote expense %d to %s", id, first)

	e.Title = "integration test (edited)"
	second, err := client.Upsert(ctx, e)
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if second != first {
		t.Errorf("update moved the row: %s -> %s", first, second)
	}

	if err := client.Delete(ctx, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := client.Delete(ctx, id); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
}
