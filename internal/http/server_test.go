package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Norfeusz/finance-manager-sub000/internal/categories"
	"github.com/Norfeusz/finance-manager-sub000/internal/config"
	"github.com/Norfeusz/finance-manager-sub000/internal/ledger"
	"github.com/Norfeusz/finance-manager-sub000/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.Repository) {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{
		SharedAccount:    "Wspólne",
		BillsAccount:     "Rachunki",
		PersonalAccounts: []string{"Gabi", "Norf"},
		Users:            []string{"Gabi", "Norf"},
		CatchAllCategory: "zakupy",
	}
	lifecycle := ledger.NewLifecycle(repo, cfg, nil)
	processor := ledger.NewProcessor(repo, categories.NewResolver(slog.Default()), cfg, lifecycle, nil)
	balances := ledger.NewBalances(repo)

	s := NewServer(":0", processor, lifecycle, balances, time.Minute)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, repo
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func TestPostEntriesAndReadBalances(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/entries", map[string]any{
		"entries": []map[string]any{
			{
				"type":        "income",
				"account":     "Wspólne",
				"amount":      "150,00",
				"description": "Gabi wpłata",
				"date":        "2026-03-02",
			},
			{
				"type":        "expense",
				"account":     "Wspólne",
				"category":    "jedzenie",
				"amount":      "40.00",
				"description": "biedronka",
				"date":        "2026-03-03",
			},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/entries = %d: %s", rec.Code, rec.Body.String())
	}
	payload := decode(t, rec)
	if payload["success"] != true {
		t.Errorf("payload = %v", payload)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/balances", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/balances = %d", rec.Code)
	}
	balances := decode(t, rec)["balances"].([]any)
	if len(balances) != 1 {
		t.Fatalf("got %d balances, want 1", len(balances))
	}
	b := balances[0].(map[string]any)
	if b["current"] != "110.00" {
		t.Errorf("current = %v, want 110.00", b["current"])
	}
}

func TestPostInvalidEntryRejected(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/entries", map[string]any{
		"entries": []map[string]any{{
			"type":        "expense",
			"account":     "Wspólne",
			"amount":      "abc",
			"description": "broken",
			"date":        "2026-03-03",
		}},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestClosedMonthConflict(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/entries", map[string]any{
		"entries": []map[string]any{{
			"type":        "income",
			"account":     "Wspólne",
			"amount":      "10.00",
			"description": "wpłata",
			"date":        "2026-03-02",
		}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed entry = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/months/2026-03/close", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/entries", map[string]any{
		"entries": []map[string]any{{
			"type":        "income",
			"account":     "Wspólne",
			"amount":      "5.00",
			"description": "spóźniona",
			"date":        "2026-03-20",
		}},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	payload := decode(t, rec)
	if payload["needs_confirmation"] != true || payload["action"] != "reopen_month" {
		t.Errorf("payload = %v", payload)
	}
}

func TestEnsureMonthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/months/2026-03/ensure", map[string]any{})
	if rec.Code != http.StatusConflict {
		t.Fatalf("ensure without allow_create = %d, want 409", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/months/2026-03/ensure", map[string]any{"allow_create": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("ensure = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["status"]; got != "created" {
		t.Errorf("status = %v, want created", got)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/months", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list months = %d", rec.Code)
	}
	months := decode(t, rec)["months"].([]any)
	if len(months) != 1 {
		t.Fatalf("got %d months", len(months))
	}
}

func TestStatisticsEndpointInvalidatedByMutation(t *testing.T) {
	s, _ := newTestServer(t)

	post := func(amount string) {
		t.Helper()
		rec := doJSON(t, s, http.MethodPost, "/api/entries", map[string]any{
			"entries": []map[string]any{{
				"type":        "expense",
				"account":     "Wspólne",
				"category":    "zakupy",
				"amount":      amount,
				"description": "zakupy",
				"date":        "2026-03-05",
			}},
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("post expense = %d", rec.Code)
		}
	}
	post("10.00")

	rec := doJSON(t, s, http.MethodGet, "/api/months/2026-03/statistics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("statistics = %d", rec.Code)
	}
	stats := decode(t, rec)["statistics"].([]any)
	first := stats[0].(map[string]any)
	if first["amount"] != "10.00" {
		t.Fatalf("amount = %v, want 10.00", first["amount"])
	}

	// A second expense must be visible immediately, the cached view is
	// dropped by the mutation.
	post("5.00")
	rec = doJSON(t, s, http.MethodGet, "/api/months/2026-03/statistics", nil)
	stats = decode(t, rec)["statistics"].([]any)
	found := false
	for _, raw := range stats {
		stat := raw.(map[string]any)
		if stat["category"] == "zakupy" && stat["subcategory"] == "" {
			found = true
			if stat["amount"] != "15.00" {
				t.Errorf("amount = %v, want 15.00", stat["amount"])
			}
		}
	}
	if !found {
		t.Error("zakupy statistic missing")
	}
}

func TestDeleteEntryEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/entries", map[string]any{
		"entries": []map[string]any{{
			"type":        "income",
			"account":     "Wspólne",
			"amount":      "25.00",
			"description": "wpłata",
			"date":        "2026-03-02",
		}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post = %d", rec.Code)
	}
	ids := decode(t, rec)["ids"].([]any)
	id := int64(ids[0].(float64))

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/entries/%d", id), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/entries/%d", id), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", rec.Code)
	}
}

func TestRecalculateEndpoint(t *testing.T) {
	s, repo := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/entries", map[string]any{
		"entries": []map[string]any{{
			"type":        "income",
			"account":     "Wspólne",
			"amount":      "30.00",
			"description": "wpłata",
			"date":        "2026-03-02",
		}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post = %d", rec.Code)
	}

	// Corrupt the cache directly, then repair through the endpoint.
	ctx := context.Background()
	q := repo.Queries()
	account, err := q.GetAccountByName(ctx, "Wspólne")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if err := q.SetCurrentBalance(ctx, account.ID, 999_99); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/balances/recalculate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("recalculate = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/balances", nil)
	balances := decode(t, rec)["balances"].([]any)
	if got := balances[0].(map[string]any)["current"]; got != "30.00" {
		t.Errorf("current = %v, want 30.00", got)
	}
}
