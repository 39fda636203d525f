package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/cors"

	"vegakash/internal/core"
	"vegakash/internal/insight"
	"vegakash/internal/log"
	"vegakash/internal/middleware/ratelimit"
	"vegakash/internal/middleware/security"
	"vegakash/internal/middleware/trace"
	"vegakash/internal/storage"
)

const (
	APIVersion = "1.0.0"

	readTimeout    = 10 * time.Second
	idleTimeout    = 60 * time.Second
	maxHeaderBytes = 64 << 10
)

// ExpenseService is the record store surface the handlers need.
type ExpenseService interface {
	CreateExpense(ctx context.Context, in core.NewExpense) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	UpdateExpense(ctx context.Context, id int64, p core.Patch) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	ListExpenses(ctx context.Context, f storage.Filter) ([]core.Expense, error)
	AllExpenses(ctx context.Context) ([]core.Expense, error)
	ExpensesBetween(ctx context.Context, from, to core.Date) ([]core.Expense, error)
	Categories(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// Options configures NewServer. Zero values select defaults.
type Options struct {
	CORSOrigins        []string
	RateLimitPerMinute int
	LLMTimeout         time.Duration
	Logger             *log.Logger
}

type appMetrics struct {
	expensesCreated int64
	fallbackAnswers int64
	uptime          time.Time
}

// Server is the JSON API server.
type Server struct {
	http.Server
	expenses ExpenseService
	advisor  *insight.Generator
	logger   *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       appMetrics

	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, expenses ExpenseService, advisor *insight.Generator, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	llmTimeout := opts.LLMTimeout
	if llmTimeout <= 0 {
		llmTimeout = insight.DefaultTimeout
	}

	s := &Server{
		expenses:         expenses,
		advisor:          advisor,
		logger:           logger.WithComponent(log.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		appMetrics:       appMetrics{uptime: time.Now()},
		now:              time.Now,
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux, opts.CORSOrigins),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      llmTimeout + 10*time.Second,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	s.handle(mux, "/{$}", map[string]http.HandlerFunc{http.MethodGet: s.handleRoot})
	s.handle(mux, "/health", map[string]http.HandlerFunc{http.MethodGet: s.handleHealth})
	s.handle(mux, "/metrics", map[string]http.HandlerFunc{http.MethodGet: s.handleMetrics})
	s.handle(mux, "/categories", map[string]http.HandlerFunc{http.MethodGet: s.handleCanonicalCategories})

	s.handle(mux, "/expenses", map[string]http.HandlerFunc{
		http.MethodGet:  s.handleListExpenses,
		http.MethodPost: s.handleCreateExpense,
	})
	s.handle(mux, "/expenses/stats/summary", map[string]http.HandlerFunc{http.MethodGet: s.handleSummary})
	s.handle(mux, "/expenses/categories/list", map[string]http.HandlerFunc{http.MethodGet: s.handleCategoriesInUse})
	s.handle(mux, "/expenses/{id}", map[string]http.HandlerFunc{
		http.MethodGet:    s.handleGetExpense,
		http.MethodPut:    s.handleUpdateExpense,
		http.MethodDelete: s.handleDeleteExpense,
	})

	s.handle(mux, "/ai/insights", map[string]http.HandlerFunc{http.MethodPost: s.handleInsights})
	s.handle(mux, "/ai/spending-trends", map[string]http.HandlerFunc{http.MethodGet: s.handleTrends})
	s.handle(mux, "/ai/savings-suggestions", map[string]http.HandlerFunc{http.MethodPost: s.handleSavings})
	s.handle(mux, "/ai/chat", map[string]http.HandlerFunc{http.MethodPost: s.handleChat})

	mux.HandleFunc("/", s.handleNotFound)
}

// handle registers one handler per method on path, plus a method-less
// pattern that answers every other method with 405.
func (s *Server) handle(mux *http.ServeMux, path string, byMethod map[string]http.HandlerFunc) {
	allowed := make([]string, 0, len(byMethod))
	for _, m := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete} {
		if h, ok := byMethod[m]; ok {
			mux.HandleFunc(m+" "+path, h)
			allowed = append(allowed, m)
		}
	}
	allow := strings.Join(allowed, ", ")
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		writeError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
}

// middleware wraps the mux, outermost first: trace, recover, security
// headers, suspicious-request detection, CORS, rate limit.
func (s *Server) middleware(mux http.Handler, origins []string) http.Handler {
	var h http.Handler = mux

	h = s.rateLimiter.Middleware(isAIWrite, s.securityDetector.ExtractClientIP, s.onRateLimited)(h)
	h = cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{trace.HeaderRequestID, "Retry-After"},
		AllowCredentials: true,
	}).Handler(h)
	h = s.securityDetector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.recoverer(h)
	h = s.traceMiddleware.Middleware(h)
	return h
}

func isAIWrite(r *http.Request) bool {
	return r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/ai/")
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path,
		"retry_after", retryAfter.String())
	writeError(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// recoverer turns a handler panic into the generic 500 envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panic",
				"panic", rec,
				"stack", string(debug.Stack()),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			writeError(w, r, http.StatusInternalServerError, detailInternal)
		}()
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) countFallback(mode insight.Mode) {
	if mode == insight.ModeFallback {
		atomic.AddInt64(&s.appMetrics.fallbackAnswers, 1)
	}
}
