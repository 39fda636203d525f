package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vegakash/internal/amqp"
	"vegakash/internal/services"
	"vegakash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the store selected by config, attaches the optional
// event publisher and returns the expense service built on top.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		repo *storage.SQLiteRepository
		err  error
	)
	switch config.Type {
	case SQLiteBackend:
		repo, err = storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		// Each backend gets its own database so parallel instances never share rows.
		repo, err = storage.NewSQLiteRepository(storage.MemoryDSN("vegakash-" + uuid.NewString()))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize in-memory repository: %w", err)
		}
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	publisher := f.createPublisher(config)

	svc := services.NewExpenseService(repo, publisher, services.Options{
		CacheSize: config.CacheSize,
		CacheTTL:  config.CacheTTL,
	})
	svc.StartCacheCleanup(ctx, cleanupInterval(config))

	f.logger.Info("Expense service ready",
		"backend", config.Type,
		"amqp_enabled", publisher != nil,
		"cache_size", config.CacheSize,
		"cache_ttl", config.CacheTTL)

	return &BackendResult{
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}

// createPublisher returns nil when AMQP is disabled or unreachable; events
// are optional and never block startup.
func (f *DefaultFactory) createPublisher(config Config) services.EventPublisher {
	if config.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client
}

func cleanupInterval(config Config) time.Duration {
	if config.CacheTTL > 0 {
		return config.CacheTTL
	}
	return time.Minute
}
