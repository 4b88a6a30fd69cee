// Package http is the JSON boundary over the ledger engine. Routing
// and decoding stay thin; the engine owns every semantic rule.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Norfeusz/finance-manager-sub000/internal/cache"
	"github.com/Norfeusz/finance-manager-sub000/internal/core"
	"github.com/Norfeusz/finance-manager-sub000/internal/ledger"
)

type Server struct {
	http.Server
	processor *ledger.Processor
	lifecycle *ledger.Lifecycle
	balances  *ledger.Balances

	balancesCache *cache.LRU[[]core.AccountBalance]
	statsCache    *cache.LRU[[]core.Statistic]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and the read caches, returning a
// ready-to-run http.Server.
func NewServer(addr string, processor *ledger.Processor, lifecycle *ledger.Lifecycle, balances *ledger.Balances, cacheTTL time.Duration) *Server {
	mux := http.NewServeMux()

	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		processor:        processor,
		lifecycle:        lifecycle,
		balances:         balances,
		balancesCache:    cache.NewLRU[[]core.AccountBalance](16, cacheTTL),
		statsCache:       cache.NewLRU[[]core.Statistic](100, cacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/entries", s.withTrace(s.handleAddEntries))
	mux.HandleFunc("PUT /api/entries/{id}", s.withTrace(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /api/entries/{id}", s.withTrace(s.handleDeleteEntry))
	mux.HandleFunc("DELETE /api/transfers", s.withTrace(s.handleDeleteTransferPair))

	mux.HandleFunc("GET /api/months", s.withTrace(s.handleListMonths))
	mux.HandleFunc("POST /api/months/{id}/ensure", s.withTrace(s.handleEnsureMonth))
	mux.HandleFunc("POST /api/months/{id}/close", s.withTrace(s.handleCloseMonth))
	mux.HandleFunc("POST /api/months/{id}/reopen", s.withTrace(s.handleReopenMonth))
	mux.HandleFunc("PUT /api/months/{id}/budget", s.withTrace(s.handleSetBudget))
	mux.HandleFunc("GET /api/months/{id}/statistics", s.withTrace(s.handleStatistics))
	mux.HandleFunc("GET /api/months/{id}/initial-incomes", s.withTrace(s.handleInitialIncomes))

	mux.HandleFunc("GET /api/balances", s.withTrace(s.handleListBalances))
	mux.HandleFunc("POST /api/balances/recalculate", s.withTrace(s.handleRecalculate))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			balancesCleaned := s.balancesCache.CleanExpired()
			statsCleaned := s.statsCache.CleanExpired()
			if balancesCleaned > 0 || statsCleaned > 0 {
				slog.Debug("Cache cleanup completed",
					"balance_entries_removed", balancesCleaned,
					"statistic_entries_removed", statsCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutine alongside the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateReads drops cached views touched by a mutation. Statistic
// entries are keyed by month so unrelated months stay cached.
func (s *Server) invalidateReads(monthIDs ...core.MonthID) {
	s.balancesCache.Purge()
	if len(monthIDs) == 0 {
		s.statsCache.Purge()
		return
	}
	for _, id := range monthIDs {
		s.statsCache.DeletePrefix("stats:" + id.String())
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// withTrace tags the request with an id and logs start/completion,
// escalating to error level on 5xx responses.
func (s *Server) withTrace(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		level := slog.LevelInfo
		if rw.statusCode >= 500 {
			level = slog.LevelError
		}
		slog.Log(ctx, level, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
