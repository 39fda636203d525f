package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"vegakash/internal/core"
	"vegakash/internal/log"
)

const healthTimeout = 5 * time.Second

type rootResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	AIEnabled bool      `json:"ai_enabled"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, rootResponse{
		Message: "Welcome to VegaKash API - Personal Finance Management",
		Version: APIVersion,
		Status:  "healthy",
	})
}

// handleHealth reports liveness plus a database ping; a failed ping
// answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{
		Status:    "healthy",
		Database:  "connected",
		AIEnabled: s.advisor.AIEnabled(),
		Timestamp: s.now().UTC(),
	}
	status := http.StatusOK
	if err := s.expenses.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Health check failed", log.FieldError, err)
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}

// handleCanonicalCategories lists every accepted category, used or not.
func (s *Server) handleCanonicalCategories(w http.ResponseWriter, r *http.Request) {
	out := make([]string, 0, len(core.Categories))
	for _, c := range core.Categories {
		out = append(out, c.String())
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	created := atomic.LoadInt64(&s.appMetrics.expensesCreated)
	fallbacks := atomic.LoadInt64(&s.appMetrics.fallbackAnswers)
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP expenses_created_total Total number of expenses created\n")
	fmt.Fprintf(w, "# TYPE expenses_created_total counter\n")
	fmt.Fprintf(w, "expenses_created_total %d\n\n", created)

	fmt.Fprintf(w, "# HELP advice_fallback_total Advice answered by local rules\n")
	fmt.Fprintf(w, "# TYPE advice_fallback_total counter\n")
	fmt.Fprintf(w, "advice_fallback_total %d\n\n", fallbacks)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP rate_limit_active_clients Clients tracked by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_active_clients gauge\n")
	fmt.Fprintf(w, "rate_limit_active_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP security_suspicious_requests_total Requests flagged as suspicious\n")
	fmt.Fprintf(w, "# TYPE security_suspicious_requests_total counter\n")
	fmt.Fprintf(w, "security_suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", uptime.Seconds())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "Not Found")
}
