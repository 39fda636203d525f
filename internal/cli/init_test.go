package cli

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"vegakash/internal/config"
	"vegakash/internal/log"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		name      string
		cfg       config.Config
		wantDebug bool
	}{
		{"debug in development", config.Config{LogLevel: "debug", LogFormat: "text", Environment: "development"}, true},
		{"debug suppressed in production", config.Config{LogLevel: "debug", LogFormat: "json", Environment: "production"}, false},
		{"unknown level falls back to info", config.Config{LogLevel: "loud", LogFormat: "text"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := SetupLogger(&tt.cfg, log.ComponentWorker)
			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if logger.Component() != log.ComponentWorker {
				t.Errorf("component = %q", logger.Component())
			}
		})
	}
}

func TestSignalContextCancel(t *testing.T) {
	ctx, cancel := SignalContext(context.Background(), log.New(log.DefaultConfig()))
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}
