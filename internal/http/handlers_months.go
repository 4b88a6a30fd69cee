package http

import (
	"encoding/json"
	"net/http"

	"github.com/Norfeusz/finance-manager-sub000/internal/core"
)

func (s *Server) handleListMonths(w http.ResponseWriter, r *http.Request) {
	months, err := s.lifecycle.ListMonths(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]map[string]any, 0, len(months))
	for _, m := range months {
		view := map[string]any{
			"id":        m.ID.String(),
			"is_closed": m.IsClosed,
		}
		if m.Budget != nil {
			view["budget"] = m.Budget.String()
			view["budget_cents"] = m.Budget.Cents
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": views})
}

type ensureMonthRequest struct {
	AllowCreate bool `json:"allow_create"`
	AllowReopen bool `json:"allow_reopen"`
}

func (s *Server) handleEnsureMonth(w http.ResponseWriter, r *http.Request) {
	id, err := pathMonthID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	var req ensureMonthRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
			return
		}
	}

	status, err := s.lifecycle.EnsureMonth(r.Context(), id, req.AllowCreate, req.AllowReopen)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if status != "ok" {
		s.invalidateReads(id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": string(status), "month_id": id.String()})
}

func (s *Server) handleCloseMonth(w http.ResponseWriter, r *http.Request) {
	id, err := pathMonthID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	if err := s.lifecycle.CloseMonth(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReads(id)
	writeJSON(w, http.StatusOK, map[string]any{"closed": true, "month_id": id.String()})
}

func (s *Server) handleReopenMonth(w http.ResponseWriter, r *http.Request) {
	id, err := pathMonthID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	if err := s.lifecycle.ReopenMonth(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReads(id)
	writeJSON(w, http.StatusOK, map[string]any{"reopened": true, "month_id": id.String()})
}

type setBudgetRequest struct {
	Amount *string `json:"amount"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathMonthID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	var req setBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	var budget *core.Money
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
			return
		}
		budget = &core.Money{Cents: cents}
	}

	if err := s.lifecycle.SetBudget(r.Context(), id, budget); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true, "month_id": id.String()})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	id, err := pathMonthID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	cacheKey := "stats:" + id.String()
	stats, ok := s.statsCache.Get(cacheKey)
	if !ok {
		stats, err = s.lifecycle.Statistics(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.statsCache.Set(cacheKey, stats)
	}

	views := make([]map[string]any, 0, len(stats))
	for _, stat := range stats {
		views = append(views, statisticView(stat))
	}
	writeJSON(w, http.StatusOK, map[string]any{"month_id": id.String(), "statistics": views})
}

func (s *Server) handleInitialIncomes(w http.ResponseWriter, r *http.Request) {
	id, err := pathMonthID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	suggestions, err := s.lifecycle.SuggestInitialIncomes(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]map[string]any, 0, len(suggestions))
	for _, sg := range suggestions {
		views = append(views, map[string]any{
			"user":            sg.User,
			"prior_paid":      sg.PriorPaid.String(),
			"suggested":       sg.Suggested.String(),
			"suggested_cents": sg.Suggested.Cents,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"month_id": id.String(), "suggestions": views})
}
