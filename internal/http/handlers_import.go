package http

import (
	"io"
	"net/http"

	"bilancio/internal/services"
)

// maxStatementSize caps uploaded statement documents at 10 MiB.
const maxStatementSize = 10 << 20

type suggestionResponse struct {
	Name     string `json:"name"`
	Distance int    `json:"distance"`
}

type proposalResponse struct {
	Date        string               `json:"date"`
	Description string               `json:"description"`
	AmountCents int64                `json:"amountCents"`
	LineID      int64                `json:"budgetLineId,omitempty"`
	LineName    string               `json:"budgetLineName,omitempty"`
	RuleID      int64                `json:"ruleId,omitempty"`
	Suggestions []suggestionResponse `json:"suggestions,omitempty"`
}

func (s *Server) handlePrepareImport(w http.ResponseWriter, r *http.Request) {
	pdf, err := io.ReadAll(io.LimitReader(r.Body, maxStatementSize))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "failed to read statement body")
		return
	}
	if len(pdf) == 0 {
		respondMessage(w, http.StatusBadRequest, "empty statement body")
		return
	}

	proposals, err := s.importer.Prepare(r.Context(), householdFrom(r), pdf)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]proposalResponse, 0, len(proposals))
	for _, p := range proposals {
		pr := proposalResponse{
			Date:        p.Date.Format(dateLayout),
			Description: p.Description,
			AmountCents: p.AmountCents,
			LineID:      p.LineID,
			LineName:    p.LineName,
			RuleID:      p.RuleID,
		}
		for _, sg := range p.Suggestions {
			pr.Suggestions = append(pr.Suggestions, suggestionResponse{Name: sg.Name, Distance: sg.Distance})
		}
		out = append(out, pr)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCommitImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decisions []struct {
			Description     string `json:"description"`
			AmountCents     int64  `json:"amountCents"`
			Date            string `json:"date"`
			LineID          int64  `json:"budgetLineId"`
			Source          string `json:"source"`
			Ignored         bool   `json:"ignored"`
			RememberPattern string `json:"rememberPattern"`
		} `json:"decisions"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	decisions := make([]services.Decision, 0, len(req.Decisions))
	for _, d := range req.Decisions {
		date, err := parseDate(d.Date)
		if err != nil && !d.Ignored {
			respondMessage(w, http.StatusBadRequest, "invalid date: "+d.Date)
			return
		}
		source := d.Source
		if source == "" {
			source = "import"
		}
		decisions = append(decisions, services.Decision{
			Description:     d.Description,
			AmountCents:     d.AmountCents,
			Date:            date,
			LineID:          d.LineID,
			Source:          source,
			Ignored:         d.Ignored,
			RememberPattern: d.RememberPattern,
		})
	}

	batchID, inserted, err := s.importer.Commit(r.Context(), householdFrom(r), decisions)
	if err != nil {
		respondError(w, r, err)
		return
	}
	for _, d := range decisions {
		if !d.Ignored {
			s.invalidateSnapshot(householdFrom(r), d.Date.Year())
		}
	}
	respondJSON(w, http.StatusCreated, struct {
		BatchID  string `json:"batchId"`
		Inserted int    `json:"inserted"`
	}{batchID, inserted})
}
