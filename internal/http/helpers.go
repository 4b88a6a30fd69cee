package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Norfeusz/finance-manager-sub000/internal/core"
	"github.com/Norfeusz/finance-manager-sub000/internal/ledger"
	"github.com/Norfeusz/finance-manager-sub000/internal/storage"
)

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps engine errors to HTTP statuses. Ask-before-mutate
// conditions come back as 409 with the action the caller must confirm.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if nc, ok := ledger.AsNeedsConfirmation(err); ok {
		writeJSON(w, http.StatusConflict, map[string]any{
			"needs_confirmation": true,
			"action":             string(nc.Action),
			"month_id":           nc.MonthID.String(),
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, ledger.ErrMonthNotFound),
		errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrTransferPairNotFound),
		errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrNegativeBalanceDenied):
		status = http.StatusConflict
	case errors.Is(err, ledger.ErrDerivedEntry),
		errors.Is(err, ledger.ErrNoBudget),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyAccount),
		errors.Is(err, core.ErrSameAccount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrZeroDate):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// pathMonthID parses the {id} path segment as a month id.
func pathMonthID(r *http.Request) (core.MonthID, error) {
	return core.ParseMonthID(r.PathValue("id"))
}

// entryItem is one element of a POST /api/entries batch.
type entryItem struct {
	Type             string `json:"type"`
	Account          string `json:"account"`
	ToAccount        string `json:"to_account"`
	Category         string `json:"category"`
	Subcategory      string `json:"subcategory"`
	Amount           string `json:"amount"`
	Description      string `json:"description"`
	ExtraDescription string `json:"extra_description"`
	Date             string `json:"date"`
	BalanceOption    string `json:"balance_option"`
}

// toNewEntry converts the wire item to the engine's batch item. The
// amount arrives as a decimal string and is parsed to cents.
func (it entryItem) toNewEntry() (core.NewEntry, error) {
	cents, err := core.ParseDecimalToCents(it.Amount)
	if err != nil {
		return core.NewEntry{}, fmt.Errorf("amount %q: %w", it.Amount, err)
	}
	var date time.Time
	if it.Date != "" {
		date, err = core.ParseDate(it.Date)
		if err != nil {
			return core.NewEntry{}, fmt.Errorf("date %q: %w", it.Date, err)
		}
	}
	return core.NewEntry{
		Type:             core.EntryType(sanitizeInput(it.Type)),
		Account:          sanitizeInput(it.Account),
		ToAccount:        sanitizeInput(it.ToAccount),
		Category:         sanitizeInput(it.Category),
		Subcategory:      sanitizeInput(it.Subcategory),
		Amount:           core.Money{Cents: cents},
		Description:      sanitizeInput(it.Description),
		ExtraDescription: sanitizeInput(it.ExtraDescription),
		Date:             date,
		BalanceOption:    core.BalanceOption(sanitizeInput(it.BalanceOption)),
	}, nil
}

func balanceView(b core.AccountBalance) map[string]any {
	return map[string]any{
		"account":       b.Account,
		"initial":       b.Initial.String(),
		"initial_cents": b.Initial.Cents,
		"current":       b.Current.String(),
		"current_cents": b.Current.Cents,
	}
}

func statisticView(s core.Statistic) map[string]any {
	return map[string]any{
		"month_id":     s.MonthID.String(),
		"category":     s.Category,
		"subcategory":  s.Subcategory,
		"amount":       s.Amount.String(),
		"amount_cents": s.Amount.Cents,
		"is_open":      s.IsOpen,
	}
}
