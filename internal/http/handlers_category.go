package http

import (
	"net/http"

	"bilancio/internal/core"
)

type categoryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color,omitempty"`
	IsIncome  bool   `json:"isIncome"`
	IsSavings bool   `json:"isSavings"`
	IsFixed   bool   `json:"isFixed"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		IsIncome:  c.IsIncome,
		IsSavings: c.IsSavings,
		IsFixed:   c.IsFixed,
	}
}

type categoryRequest struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsIncome  bool   `json:"isIncome"`
	IsSavings bool   `json:"isSavings"`
	IsFixed   bool   `json:"isFixed"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.Queries().ListCategories(r.Context(), householdFrom(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cat := core.Category{
		Household: householdFrom(r),
		Name:      req.Name,
		Color:     req.Color,
		IsIncome:  req.IsIncome,
		IsSavings: req.IsSavings,
		IsFixed:   req.IsFixed,
	}
	if err := cat.Validate(); err != nil {
		respondError(w, r, err)
		return
	}

	created, err := s.repo.Queries().CreateCategory(r.Context(), cat)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCategoryResponse(created))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cat := core.Category{
		ID:        id,
		Household: householdFrom(r),
		Name:      req.Name,
		Color:     req.Color,
		IsIncome:  req.IsIncome,
		IsSavings: req.IsSavings,
		IsFixed:   req.IsFixed,
	}
	if err := cat.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.repo.Queries().UpdateCategory(r.Context(), cat); err != nil {
		respondError(w, r, err)
		return
	}
	// Category flags shape reports for every year, so drop all snapshots.
	s.snapshots.Purge()
	respondJSON(w, http.StatusOK, toCategoryResponse(cat))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.repo.Queries().DeleteCategory(r.Context(), householdFrom(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.snapshots.Purge()
	respondJSON(w, http.StatusNoContent, nil)
}
