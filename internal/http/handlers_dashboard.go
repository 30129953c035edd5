package http

import (
	"net/http"
	"time"

	"bilancio/internal/core"
)

type sourceTotalResponse struct {
	Source     string `json:"source"`
	Total      string `json:"total"`
	TotalCents int64  `json:"totalCents"`
}

type outlierResponse struct {
	Name            string `json:"name"`
	Actual          string `json:"actual"`
	ActualCents     int64  `json:"actualCents"`
	Historical      string `json:"historicalAverage"`
	HistoricalCents int64  `json:"historicalAverageCents"`
}

type monthReportResponse struct {
	Month       int                   `json:"month"`
	Target      string                `json:"target"`
	TargetCents int64                 `json:"targetCents"`
	Actual      string                `json:"actual"`
	ActualCents int64                 `json:"actualCents"`
	Income      string                `json:"income"`
	IncomeCents int64                 `json:"incomeCents"`
	NetCashFlow string                `json:"netCashFlow"`
	NetCents    int64                 `json:"netCashFlowCents"`
	SavingsRate float64               `json:"savingsRate"`
	Projected   string                `json:"projectedEndOfMonth"`
	Velocity    float64               `json:"velocity"`
	Pace        string                `json:"pace"`
	BySource    []sourceTotalResponse `json:"bySource"`
	Outliers    []outlierResponse     `json:"outliers"`
	Lines       []lineActualResponse  `json:"lines,omitempty"`
}

func toMonthReportResponse(r core.MonthReport) monthReportResponse {
	out := monthReportResponse{
		Month:       r.Month,
		Target:      r.Target.String(),
		TargetCents: r.Target.Cents,
		Actual:      r.Actual.String(),
		ActualCents: r.Actual.Cents,
		Income:      r.Income.String(),
		IncomeCents: r.Income.Cents,
		NetCashFlow: r.NetCashFlow.String(),
		NetCents:    r.NetCashFlow.Cents,
		SavingsRate: r.SavingsRate,
		Projected:   r.Projected.String(),
		Velocity:    r.Velocity,
		Pace:        string(r.Pace),
	}
	out.BySource = make([]sourceTotalResponse, 0, len(r.BySource))
	for _, st := range r.BySource {
		out.BySource = append(out.BySource, sourceTotalResponse{
			Source:     st.Source,
			Total:      st.Total.String(),
			TotalCents: st.Total.Cents,
		})
	}
	out.Outliers = make([]outlierResponse, 0, len(r.Outliers))
	for _, o := range r.Outliers {
		out.Outliers = append(out.Outliers, outlierResponse{
			Name:            o.Name,
			Actual:          o.Actual.String(),
			ActualCents:     o.Actual.Cents,
			Historical:      o.Historical.String(),
			HistoricalCents: o.Historical.Cents,
		})
	}
	return out
}

func (s *Server) handleMonthDashboard(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)

	snap, err := s.loadSnapshot(r, year)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Projection and velocity depend on where in the month today falls.
	// Months other than the current one are reported as complete.
	now := time.Now()
	daysInMonth := core.DaysInMonth(year, month)
	dayOfMonth := daysInMonth
	if year == now.Year() && month == int(now.Month()) {
		dayOfMonth = now.Day()
	}

	report := toMonthReportResponse(snap.ReportMonth(month, dayOfMonth, daysInMonth))
	report.Lines = toActualResponses(snap.LineActuals(month))
	respondJSON(w, http.StatusOK, report)
}

type yearReportResponse struct {
	Year        int                   `json:"year"`
	Months      []monthReportResponse `json:"months"`
	TotalTarget string                `json:"totalTarget"`
	TotalActual string                `json:"totalActual"`
	TotalNet    string                `json:"totalNet"`
	FixedShare  float64               `json:"fixedShare"`
}

func (s *Server) handleYearDashboard(w http.ResponseWriter, r *http.Request) {
	year, _ := parseYearMonth(r)

	snap, err := s.loadSnapshot(r, year)
	if err != nil {
		respondError(w, r, err)
		return
	}

	yr := snap.ReportYear()
	out := yearReportResponse{
		Year:        yr.Year,
		TotalTarget: yr.TotalTarget.String(),
		TotalActual: yr.TotalActual.String(),
		TotalNet:    yr.TotalNet.String(),
		FixedShare:  yr.FixedShare,
	}
	out.Months = make([]monthReportResponse, 0, len(yr.Months))
	for _, mr := range yr.Months {
		out.Months = append(out.Months, toMonthReportResponse(mr))
	}
	respondJSON(w, http.StatusOK, out)
}
