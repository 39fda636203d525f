package http

import (
	"net/http"
	"sync/atomic"

	"vegakash/internal/analytics"
	"vegakash/internal/log"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	fields, err := readObject(w, r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	in, err := parseNewExpense(fields)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	created, err := s.expenses.CreateExpense(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, log.OpCreate, err)
		return
	}

	atomic.AddInt64(&s.appMetrics.expensesCreated, 1)
	log.NewStructuredLogger(log.FromContext(r.Context())).LogExpenseChange(r.Context(),
		log.OpCreate, created.ID, string(created.Category), created.Amount.Cents)
	writeJSON(w, r, http.StatusCreated, toExpenseResponse(created))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r.URL.Query())
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	items, err := s.expenses.ListExpenses(r.Context(), f)
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toExpenseResponses(items))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	e, err := s.expenses.GetExpense(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toExpenseResponse(e))
}

// handleUpdateExpense applies a partial update. Members absent from the body
// keep their stored value.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	fields, err := readObject(w, r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	p, err := parsePatch(fields)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	updated, err := s.expenses.UpdateExpense(r.Context(), id, p)
	if err != nil {
		s.writeServiceError(w, r, log.OpUpdate, err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogExpenseChange(r.Context(),
		log.OpUpdate, updated.ID, string(updated.Category), updated.Amount.Cents)
	writeJSON(w, r, http.StatusOK, toExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}
	if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
		s.writeServiceError(w, r, log.OpDelete, err)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogExpenseChange(r.Context(), log.OpDelete, id, "", 0)
	writeJSON(w, r, http.StatusOK, messageResponse{Message: "Expense deleted successfully"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	records, err := s.expenses.AllExpenses(r.Context())
	if err != nil {
		s.writeServiceError(w, r, log.OpSummary, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toSummaryResponse(analytics.Summarize(records)))
}

func (s *Server) handleCategoriesInUse(w http.ResponseWriter, r *http.Request) {
	cats, err := s.expenses.Categories(r.Context())
	if err != nil {
		s.writeServiceError(w, r, log.OpList, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, r, http.StatusOK, cats)
}
