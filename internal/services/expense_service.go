package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"vegakash/internal/amqp"
	"vegakash/internal/cache"
	"vegakash/internal/core"
	"vegakash/internal/storage"
)

// Store is the record store the service persists to.
type Store interface {
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
	Get(ctx context.Context, id int64) (core.Expense, error)
	Update(ctx context.Context, id int64, p core.Patch) (core.Expense, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f storage.Filter) ([]core.Expense, error)
	All(ctx context.Context) ([]core.Expense, error)
	Between(ctx context.Context, from, to core.Date) ([]core.Expense, error)
	Categories(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher announces committed writes. A nil publisher disables events.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.ExpenseEvent) error
	Close() error
}

// Options tunes the read-through caches.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

const categoriesKey = "categories"

// ExpenseService validates writes, persists them, keeps the read caches
// coherent and publishes an event per committed change.
type ExpenseService struct {
	store      Store
	publisher  EventPublisher
	byID       *cache.LRUCache[core.Expense]
	categories *cache.LRUCache[[]string]
	caches     *cache.Manager
}

func NewExpenseService(store Store, publisher EventPublisher, opts Options) *ExpenseService {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	s := &ExpenseService{
		store:      store,
		publisher:  publisher,
		byID:       cache.NewLRUCache[core.Expense](opts.CacheSize, opts.CacheTTL),
		categories: cache.NewLRUCache[[]string](1, opts.CacheTTL),
		caches:     cache.NewManager(),
	}
	s.caches.Register(s.byID)
	s.caches.Register(s.categories)
	return s
}

// StartCacheCleanup sweeps expired cache entries every interval until ctx ends.
func (s *ExpenseService) StartCacheCleanup(ctx context.Context, interval time.Duration) {
	s.caches.StartCleanup(ctx, interval)
}

// CreateExpense normalizes in, stores it and publishes a created event.
func (s *ExpenseService) CreateExpense(ctx context.Context, in core.NewExpense) (core.Expense, error) {
	e, err := in.Normalize()
	if err != nil {
		return core.Expense{}, err
	}

	gen := s.byID.Generation()
	created, err := s.store.Create(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.byID.SetIfGeneration(cacheKey(created.ID), created, gen)
	s.categories.Purge()
	s.publish(ctx, amqp.ActionCreated, created)
	return created, nil
}

// GetExpense returns one record, served from cache when fresh.
func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	if e, ok := s.byID.Get(cacheKey(id)); ok {
		return e, nil
	}
	gen := s.byID.Generation()
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	s.byID.SetIfGeneration(cacheKey(id), e, gen)
	return e, nil
}

// UpdateExpense merges p into the stored record and publishes an updated event.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, p core.Patch) (core.Expense, error) {
	updated, err := s.store.Update(ctx, id, p)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.byID.Delete(cacheKey(id))
		}
		return core.Expense{}, err
	}

	// Concurrent updates can return out of commit order; the next read reloads.
	s.byID.Delete(cacheKey(id))
	if p.Category != nil {
		s.categories.Purge()
	}
	s.publish(ctx, amqp.ActionUpdated, updated)
	return updated, nil
}

// DeleteExpense removes the record and publishes a deleted event.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	err := s.store.Delete(ctx, id)
	s.byID.Delete(cacheKey(id))
	if err != nil {
		return err
	}

	s.categories.Purge()
	s.publish(ctx, amqp.ActionDeleted, core.Expense{ID: id})
	return nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context, f storage.Filter) ([]core.Expense, error) {
	return s.store.List(ctx, f)
}

// AllExpenses returns the full record set used by aggregation.
func (s *ExpenseService) AllExpenses(ctx context.Context) ([]core.Expense, error) {
	return s.store.All(ctx)
}

// ExpensesBetween returns records dated within [from, to].
func (s *ExpenseService) ExpensesBetween(ctx context.Context, from, to core.Date) ([]core.Expense, error) {
	return s.store.Between(ctx, from, to)
}

// Categories returns the distinct categories in use.
func (s *ExpenseService) Categories(ctx context.Context) ([]string, error) {
	if cats, ok := s.categories.Get(categoriesKey); ok {
		return append([]string(nil), cats...), nil
	}
	gen := s.categories.Generation()
	cats, err := s.store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	s.categories.SetIfGeneration(categoriesKey, cats, gen)
	return append([]string(nil), cats...), nil
}

func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish is best effort: the write is already committed locally.
func (s *ExpenseService) publish(ctx context.Context, action amqp.Action, e core.Expense) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping expense event",
			"action", action, "expense_id", e.ID)
		return
	}
	if err := s.publisher.Publish(ctx, amqp.NewExpenseEvent(action, e)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"action", action, "expense_id", e.ID, "error", err)
	}
}

// Close stops cache cleanup and releases the store and publisher.
func (s *ExpenseService) Close() error {
	s.caches.Stop()

	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}
	return nil
}

func cacheKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
