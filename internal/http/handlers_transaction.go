package http

import (
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

type transactionResponse struct {
	ID          int64  `json:"id"`
	LineID      int64  `json:"budgetLineId,omitempty"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amountCents"`
	Date        string `json:"date"`
	Source      string `json:"source,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		LineID:      t.LineID,
		Description: t.Description,
		Amount:      t.Amount.String(),
		AmountCents: t.Amount.Cents,
		Date:        t.Date.Format(dateLayout),
		Source:      t.Source,
	}
}

func toTransactionResponses(txns []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

type lineActualResponse struct {
	Line        budgetLineResponse `json:"line"`
	Actual      string             `json:"actual"`
	ActualCents int64              `json:"actualCents"`
}

func toActualResponses(actuals []core.LineActual) []lineActualResponse {
	out := make([]lineActualResponse, 0, len(actuals))
	for _, a := range actuals {
		out = append(out, lineActualResponse{
			Line:        toLineResponse(a.Line),
			Actual:      a.Actual.String(),
			ActualCents: a.Actual.Cents,
		})
	}
	return out
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, _ := parseYearMonth(r)
	txns, err := s.repo.Queries().ListTransactionsForYear(r.Context(), householdFrom(r), year)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionResponses(txns))
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
		Amount      string `json:"amount"`
		Date        string `json:"date"`
		LineID      int64  `json:"budgetLineId"`
		Source      string `json:"source"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, r, core.ErrInvalidDate)
		return
	}
	source := req.Source
	if source == "" {
		source = "manual"
	}

	saved, actuals, err := s.ledger.AddTransaction(r.Context(), householdFrom(r), services.AddTransactionParams{
		Description: req.Description,
		AmountCents: cents,
		Date:        date,
		LineID:      req.LineID,
		Source:      source,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSnapshot(householdFrom(r), date.Year())

	respondJSON(w, http.StatusCreated, struct {
		Transaction transactionResponse  `json:"transaction"`
		MonthLines  []lineActualResponse `json:"monthLines"`
	}{toTransactionResponse(saved), toActualResponses(actuals)})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	txn, err := s.repo.Queries().GetTransaction(r.Context(), householdFrom(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	actuals, err := s.ledger.DeleteTransaction(r.Context(), householdFrom(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSnapshot(householdFrom(r), txn.Date.Year())
	respondJSON(w, http.StatusOK, struct {
		MonthLines []lineActualResponse `json:"monthLines"`
	}{toActualResponses(actuals)})
}

type ruleResponse struct {
	ID       int64  `json:"id"`
	Pattern  string `json:"pattern"`
	LineID   int64  `json:"budgetLineId"`
	LineName string `json:"budgetLineName"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.repo.Queries().ListRules(r.Context(), householdFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]ruleResponse, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleResponse{ID: rule.ID, Pattern: rule.Pattern, LineID: rule.LineID, LineName: rule.LineName})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.repo.Queries().DeleteRule(r.Context(), householdFrom(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
