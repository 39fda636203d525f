package http

import (
	"net/http"

	"vegakash/internal/analytics"
	"vegakash/internal/core"
	"vegakash/internal/log"
)

// The advice handlers never fail because of the model: the generator falls
// back to local rules. Only a store failure produces an error response.

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	records, err := s.expenses.AllExpenses(r.Context())
	if err != nil {
		s.writeServiceError(w, r, log.OpInsights, err)
		return
	}

	summary := s.advisor.Insights(r.Context(), records)
	s.countFallback(summary.Mode)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Insights generated",
		log.FieldInsightMode, summary.Mode,
		log.FieldRecordCount, len(records))
	writeJSON(w, r, http.StatusOK, toInsightsResponse(summary))
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	days, err := parseTrendDays(r.URL.Query())
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	today := core.DateOf(s.now())
	from, to := analytics.Window(days, today)
	records, err := s.expenses.ExpensesBetween(r.Context(), from, to)
	if err != nil {
		s.writeServiceError(w, r, log.OpTrends, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTrendsResponse(analytics.Trends(records, days, today)))
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	records, err := s.expenses.AllExpenses(r.Context())
	if err != nil {
		s.writeServiceError(w, r, log.OpSavings, err)
		return
	}

	report := s.advisor.Savings(r.Context(), records)
	s.countFallback(report.Mode)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Savings suggestions generated",
		log.FieldInsightMode, report.Mode,
		log.FieldRecordCount, len(records))
	writeJSON(w, r, http.StatusOK, toSavingsResponse(report))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	message, err := parseChatMessage(w, r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	records, err := s.expenses.AllExpenses(r.Context())
	if err != nil {
		s.writeServiceError(w, r, log.OpChat, err)
		return
	}

	reply := s.advisor.Chat(r.Context(), message, records)
	s.countFallback(reply.Mode)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Chat answered",
		log.FieldInsightMode, reply.Mode,
		"response_type", reply.ResponseType,
		log.FieldRecordCount, len(records))
	writeJSON(w, r, http.StatusOK, toChatResponse(reply))
}
