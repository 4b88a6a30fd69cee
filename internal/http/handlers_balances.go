package http

import "net/http"

const balancesCacheKey = "balances"

func (s *Server) handleListBalances(w http.ResponseWriter, r *http.Request) {
	balances, ok := s.balancesCache.Get(balancesCacheKey)
	if !ok {
		var err error
		balances, err = s.balances.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.balancesCache.Set(balancesCacheKey, balances)
	}

	views := make([]map[string]any, 0, len(balances))
	for _, b := range balances {
		views = append(views, balanceView(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"balances": views})
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	if err := s.balances.RecalculateAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReads()
	writeJSON(w, http.StatusOK, map[string]any{"recalculated": true})
}
