package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Norfeusz/finance-manager-sub000/internal/core"
	"github.com/Norfeusz/finance-manager-sub000/internal/ledger"
)

type addEntriesRequest struct {
	Entries      []entryItem `json:"entries"`
	DenyNegative bool        `json:"deny_negative"`
}

func (s *Server) handleAddEntries(w http.ResponseWriter, r *http.Request) {
	var req addEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	if len(req.Entries) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": "empty batch"})
		return
	}

	batch := make([]core.NewEntry, 0, len(req.Entries))
	months := make([]core.MonthID, 0, 1)
	for i, item := range req.Entries {
		entry, err := item.toNewEntry()
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error": fmt.Sprintf("item %d: %v", i, err),
			})
			return
		}
		batch = append(batch, entry)
		months = append(months, core.MonthOf(entry.Date))
	}

	result, err := s.processor.AddEntries(r.Context(), batch, req.DenyNegative)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReads(months...)

	response := map[string]any{
		"success": true,
		"ids":     result.IDs,
	}
	if len(result.Warnings) > 0 {
		response["warnings"] = result.Warnings
	}
	if result.PendingTransfer {
		response["pending_transfer"] = true
	}
	writeJSON(w, http.StatusCreated, response)
}

type updateEntryRequest struct {
	Account          *string `json:"account"`
	ToAccount        *string `json:"to_account"`
	Amount           *string `json:"amount"`
	Description      *string `json:"description"`
	ExtraDescription *string `json:"extra_description"`
	Date             *string `json:"date"`
	Category         *string `json:"category"`
	Subcategory      *string `json:"subcategory"`
	BalanceOption    *string `json:"balance_option"`
	DenyNegative     bool    `json:"deny_negative"`
}

func (r updateEntryRequest) toFields() (ledger.UpdateFields, error) {
	fields := ledger.UpdateFields{
		Account:          r.Account,
		ToAccount:        r.ToAccount,
		Description:      r.Description,
		ExtraDescription: r.ExtraDescription,
		Category:         r.Category,
		Subcategory:      r.Subcategory,
	}
	if r.Amount != nil {
		cents, err := core.ParseDecimalToCents(*r.Amount)
		if err != nil {
			return ledger.UpdateFields{}, fmt.Errorf("amount %q: %w", *r.Amount, err)
		}
		fields.Amount = &core.Money{Cents: cents}
	}
	if r.Date != nil {
		date, err := core.ParseDate(*r.Date)
		if err != nil {
			return ledger.UpdateFields{}, fmt.Errorf("date %q: %w", *r.Date, err)
		}
		fields.Date = &date
	}
	if r.BalanceOption != nil {
		option := core.BalanceOption(sanitizeInput(*r.BalanceOption))
		fields.BalanceOption = &option
	}
	return fields, nil
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid entry id"})
		return
	}

	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	fields, err := req.toFields()
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
		return
	}

	if err := s.processor.UpdateEntry(r.Context(), id, fields, req.DenyNegative); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReads()
	writeJSON(w, http.StatusOK, map[string]any{"updated": true, "id": id})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid entry id"})
		return
	}

	if err := s.processor.DeleteEntry(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReads()
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
}

type deleteTransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

func (s *Server) handleDeleteTransferPair(w http.ResponseWriter, r *http.Request) {
	var req deleteTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": fmt.Sprintf("amount %q: %v", req.Amount, err)})
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": fmt.Sprintf("date %q: %v", req.Date, err)})
		return
	}

	err = s.processor.DeleteTransferPair(r.Context(),
		sanitizeInput(req.From), sanitizeInput(req.To), core.Money{Cents: cents}, date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateReads(core.MonthOf(date))
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
