package http

import (
	"io"
	"net/http"
	"strconv"
)

func (s *Server) handleExportBackup(w http.ResponseWriter, r *http.Request) {
	year, _ := parseYearMonth(r)

	data, err := s.backup.ExportJSON(r.Context(), householdFrom(r), year)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="bilancio-`+strconv.Itoa(year)+`.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	year, _ := parseYearMonth(r)

	data, err := io.ReadAll(io.LimitReader(r.Body, maxStatementSize))
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "failed to read template body")
		return
	}

	if err := s.backup.RestoreJSON(r.Context(), householdFrom(r), year, data); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSnapshot(householdFrom(r), year)
	respondJSON(w, http.StatusNoContent, nil)
}
