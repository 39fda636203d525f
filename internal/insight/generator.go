// Package insight produces spending insights, savings advice and chat
// replies. A language model is consulted when one is configured; every
// failure falls back to the local analytics rules.
package insight

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"vegakash/internal/analytics"
	"vegakash/internal/core"
)

// Mode reports which path produced a result.
type Mode string

const (
	ModeAI       Mode = "ai"
	ModeFallback Mode = "fallback"
)

// ResponseTypeAI is the chat response type when the model answered.
const ResponseTypeAI = "ai_advice"

const DefaultTimeout = 30 * time.Second

// InsightSummary is an insight result tagged with the path that produced it.
type InsightSummary struct {
	analytics.Insights
	Mode Mode
}

// SavingsSummary is a savings result tagged with the path that produced it.
type SavingsSummary struct {
	analytics.SavingsReport
	Mode Mode
}

// ChatReply is the answer to one chat message.
type ChatReply struct {
	Response         string
	Timestamp        time.Time
	ContextAvailable bool
	Mode             Mode
	ResponseType     string
}

// Generator combines the analytics engine with an optional model.
type Generator struct {
	llm     Completer
	engine  analytics.Engine
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewGenerator returns a Generator. A nil llm disables the model path.
func NewGenerator(llm Completer, engine analytics.Engine, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{
		llm:     llm,
		engine:  engine,
		timeout: timeout,
		logger:  slog.Default().With("component", "insight"),
		now:     time.Now,
	}
}

func (g *Generator) AIEnabled() bool {
	return g.llm != nil
}

func (g *Generator) Engine() analytics.Engine {
	return g.engine
}

// Insights never fails. Totals and top categories are always computed
// locally; only patterns, outliers and suggestions come from the model.
func (g *Generator) Insights(ctx context.Context, records []core.Expense) InsightSummary {
	local := g.engine.FallbackInsights(records)
	if g.llm == nil || len(records) == 0 {
		return InsightSummary{Insights: local, Mode: ModeFallback}
	}

	s := analytics.Summarize(records)
	raw, err := g.complete(ctx, insightPrompt(g.engine, s, records))
	if err != nil {
		g.logger.Warn("model insights failed, using local rules", "error", err)
		return InsightSummary{Insights: local, Mode: ModeFallback}
	}
	parsed, err := parseInsights(raw)
	if err != nil {
		g.logger.Warn("model insights rejected, using local rules", "error", err)
		return InsightSummary{Insights: local, Mode: ModeFallback}
	}

	local.Patterns = parsed.Patterns
	local.Outliers = parsed.Outliers
	local.Suggestions = parsed.Suggestions
	return InsightSummary{Insights: local, Mode: ModeAI}
}

// Savings never fails; it follows the same fallback rules as Insights.
func (g *Generator) Savings(ctx context.Context, records []core.Expense) SavingsSummary {
	if g.llm == nil || len(records) == 0 {
		return SavingsSummary{SavingsReport: g.engine.Savings(records), Mode: ModeFallback}
	}

	s := analytics.Summarize(records)
	raw, err := g.complete(ctx, savingsPrompt(g.engine, s, records))
	if err == nil {
		var report analytics.SavingsReport
		if report, err = parseSavings(raw); err == nil {
			return SavingsSummary{SavingsReport: report, Mode: ModeAI}
		}
	}
	g.logger.Warn("model savings failed, using local rules", "error", err)
	return SavingsSummary{SavingsReport: g.engine.Savings(records), Mode: ModeFallback}
}

// Chat answers message with the user's records as context.
func (g *Generator) Chat(ctx context.Context, message string, records []core.Expense) ChatReply {
	reply := ChatReply{
		Timestamp:        g.now().UTC(),
		ContextAvailable: len(records) > 0,
	}

	if g.llm != nil {
		raw, err := g.complete(ctx, chatPrompt(g.engine, message, records))
		if err == nil {
			reply.Response = raw
			reply.Mode = ModeAI
			reply.ResponseType = ResponseTypeAI
			return reply
		}
		g.logger.Warn("model chat failed, using templates", "error", err)
	}

	topic := ClassifyTopic(message)
	reply.Response = fallbackReply(g.engine, topic, records)
	reply.Mode = ModeFallback
	reply.ResponseType = string(topic)
	return reply
}

func (g *Generator) complete(ctx context.Context, p Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.llm.Complete(ctx, p)
	if err != nil {
		return "", err
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if raw = strings.TrimSpace(raw); raw == "" {
		return "", ErrEmptyResponse
	}
	g.logger.Debug("model call completed", "duration", time.Since(start), "chars", len(raw))
	return raw, nil
}
