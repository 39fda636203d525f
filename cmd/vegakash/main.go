package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"vegakash/internal/analytics"
	"vegakash/internal/backend"
	"vegakash/internal/cli"
	"vegakash/internal/config"
	apphttp "vegakash/internal/http"
	"vegakash/internal/insight"
	"vegakash/internal/log"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.MustValidate(logger, cfg.Validate)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	var llm insight.Completer
	if cfg.AIEnabled() {
		completer, err := insight.NewGenAICompleter(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			logger.Warn("Failed to initialize language model, using rule-based advice", "error", err)
		} else {
			defer completer.Close()
			llm = completer
			logger.Info("Language model enabled", "model", completer.Model(), "timeout", cfg.LLMTimeout)
		}
	} else {
		logger.Info("No language model API key configured, using rule-based advice")
	}

	advisor := insight.NewGenerator(llm,
		analytics.New(cfg.OutlierMultiplier, cfg.CurrencySymbol),
		cfg.LLMTimeout)

	srv := apphttp.NewServer(":"+cfg.Port, result.Service, advisor, apphttp.Options{
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		LLMTimeout:         cfg.LLMTimeout,
		Logger:             logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting vegakash server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"environment", cfg.Environment,
			"ai_enabled", llm != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
