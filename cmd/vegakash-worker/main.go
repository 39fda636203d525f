package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"vegakash/internal/amqp"
	"vegakash/internal/cli"
	"vegakash/internal/config"
	"vegakash/internal/log"
	"vegakash/internal/sheets"
	gsheet "vegakash/internal/sheets/google"
	"vegakash/internal/sheets/memory"
	"vegakash/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting vegakash-worker")
	cli.MustValidate(logger, cfg.ValidateWorker)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	exporter, err := newExporter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	w := worker.NewExportWorker(exporter)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming expense events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		err := client.Consume(gctx, w.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("Consumer stopped")
		return nil
	})

	return g.Wait()
}

func newExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.ExpenseExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
		return memory.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets exporter initialized",
		slog.String("spreadsheet_id", cfg.GoogleSpreadsheetID),
		slog.String("sheet", cfg.GoogleSheetName))
	return client, nil
}
