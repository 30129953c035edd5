package http

import (
	"net/http"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

type budgetLineResponse struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"categoryId"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amountCents"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
}

func toLineResponse(l core.BudgetLine) budgetLineResponse {
	return budgetLineResponse{
		ID:          l.ID,
		CategoryID:  l.CategoryID,
		Name:        l.Name,
		Amount:      l.Amount.String(),
		AmountCents: l.Amount.Cents,
		Month:       l.Month,
		Year:        l.Year,
	}
}

func toLineResponses(lines []core.BudgetLine) []budgetLineResponse {
	out := make([]budgetLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, toLineResponse(l))
	}
	return out
}

func (s *Server) handleListLines(w http.ResponseWriter, r *http.Request) {
	year, _ := parseYearMonth(r)
	lines, err := s.repo.Queries().ListLines(r.Context(), householdFrom(r), year)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toLineResponses(lines))
}

func (s *Server) handleCreateLine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		CategoryID    int64  `json:"categoryId"`
		Amount        string `json:"amount"`
		Month         int    `json:"month"`
		Year          int    `json:"year"`
		ApplyToFuture bool   `json:"applyToFuture"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.propagator.Create(r.Context(), householdFrom(r), services.CreateLineParams{
		Name:          req.Name,
		CategoryID:    req.CategoryID,
		AmountCents:   cents,
		Month:         req.Month,
		Year:          req.Year,
		ApplyToFuture: req.ApplyToFuture,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSnapshot(householdFrom(r), req.Year)
	respondJSON(w, http.StatusCreated, toLineResponses(created))
}

func (s *Server) handleRenameLines(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OldName string `json:"oldName"`
		NewName string `json:"newName"`
		Year    int    `json:"year"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.propagator.Rename(r.Context(), householdFrom(r), req.OldName, req.NewName, req.Year); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSnapshot(householdFrom(r), req.Year)

	lines, err := s.repo.Queries().ListLinesByName(r.Context(), householdFrom(r), req.Year, req.NewName)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toLineResponses(lines))
}

func (s *Server) handleLineTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.repo.Queries().GetLine(r.Context(), householdFrom(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	txns, err := s.repo.Queries().ListTransactionsForLine(r.Context(), householdFrom(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponses(txns))
}

func (s *Server) handleRetargetLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount        string `json:"amount"`
		ApplyToFuture bool   `json:"applyToFuture"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}

	line, err := s.repo.Queries().GetLine(r.Context(), householdFrom(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.propagator.Retarget(r.Context(), householdFrom(r), id, cents, req.ApplyToFuture); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSnapshot(householdFrom(r), line.Year)
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	mode := core.DeleteMode(strings.ToUpper(r.URL.Query().Get("mode")))
	if mode == "" {
		mode = core.DeleteSingle
	}

	line, err := s.repo.Queries().GetLine(r.Context(), householdFrom(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.propagator.Delete(r.Context(), householdFrom(r), id, mode); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSnapshot(householdFrom(r), line.Year)
	respondJSON(w, http.StatusNoContent, nil)
}
