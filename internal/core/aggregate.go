package core

import (
	"sort"
	"time"
)

const (
	PaceHighVelocity Pace = "High Velocity"
	PaceUnderSpeed   Pace = "Under Speed"
	PaceOnTrack      Pace = "On Track"
)

// Outlier guards: current actual must exceed the historical per-month average
// by the relative factor AND by the absolute floor. Both are required so small,
// statistically noisy names are not flagged.
const (
	outlierFactor     = 1.2
	outlierFloorCents = 5000
)

type (
	Pace string

	// SourceTotal is the transaction sum for one source tag. Grouping is
	// case-sensitive on the stored source string.
	SourceTotal struct {
		Source string
		Total  Money
	}

	// Outlier flags a recurring item whose current-month spend is well above
	// its historical per-month average.
	Outlier struct {
		Name       string
		Actual     Money
		Historical Money
	}

	// LineActual pairs a budget line with its recomputed transaction total.
	LineActual struct {
		Line   BudgetLine
		Actual Money
	}

	// MonthReport bundles the derived metrics for one month. Projection and
	// velocity are only meaningful for the current month; callers pass the
	// day-of-month they want the to-date metrics evaluated at.
	MonthReport struct {
		Month       int
		Target      Money
		Actual      Money
		Income      Money
		NetCashFlow Money
		SavingsRate float64
		Projected   Money
		Velocity    float64
		Pace        Pace
		BySource    []SourceTotal
		Outliers    []Outlier
	}

	// YearReport is the annual rollup behind the dashboard.
	YearReport struct {
		Year        int
		Months      []MonthReport
		TotalTarget Money
		TotalActual Money
		TotalNet    Money
		FixedShare  float64
	}
)

// MonthTarget sums budget line targets for the month, excluding income categories.
func (s Snapshot) MonthTarget(month int) Money {
	cats := s.categoryByID()
	var cents int64
	for _, l := range s.Lines {
		if l.Month != month {
			continue
		}
		if cats[l.CategoryID].IsIncome {
			continue
		}
		cents += l.Amount.Cents
	}
	return Money{Cents: cents}
}

// MonthActual sums linked transaction amounts over the month's non-income lines.
func (s Snapshot) MonthActual(month int) Money {
	return s.monthTransactionTotal(month, false)
}

// MonthIncome sums linked transaction amounts over the month's income lines.
func (s Snapshot) MonthIncome(month int) Money {
	return s.monthTransactionTotal(month, true)
}

func (s Snapshot) monthTransactionTotal(month int, income bool) Money {
	cats := s.categoryByID()
	actuals := s.actualByLine()
	var cents int64
	for _, l := range s.Lines {
		if l.Month != month {
			continue
		}
		if cats[l.CategoryID].IsIncome != income {
			continue
		}
		cents += actuals[l.ID]
	}
	return Money{Cents: cents}
}

// NetCashFlow is the signed month balance: income actuals add, everything
// else subtracts.
func (s Snapshot) NetCashFlow(month int) Money {
	return Money{Cents: s.MonthIncome(month).Cents - s.MonthActual(month).Cents}
}

// SavingsRate is the net cash flow as a percentage of monthly income.
// Zero income yields 0 by policy, not an error.
func (s Snapshot) SavingsRate(month int) float64 {
	income := s.MonthIncome(month).Cents
	if income == 0 {
		return 0
	}
	return float64(s.NetCashFlow(month).Cents) / float64(income) * 100
}

// ProjectedEndOfMonth extrapolates the month-end spend from the spend so far.
// Day 0 yields 0 (degenerate calendar edge case).
func (s Snapshot) ProjectedEndOfMonth(month, dayOfMonth, daysInMonth int) Money {
	if dayOfMonth == 0 {
		return Money{}
	}
	actual := s.MonthActual(month).Cents
	return Money{Cents: int64(float64(actual) / float64(dayOfMonth) * float64(daysInMonth))}
}

// Velocity compares spend-to-date against the pro-rated target. A month with
// no target-to-date reports 0 and On Track.
func (s Snapshot) Velocity(month, dayOfMonth, daysInMonth int) (float64, Pace) {
	if daysInMonth == 0 {
		return 0, PaceOnTrack
	}
	targetToDate := float64(s.MonthTarget(month).Cents) / float64(daysInMonth) * float64(dayOfMonth)
	if targetToDate == 0 {
		return 0, PaceOnTrack
	}
	v := float64(s.MonthActual(month).Cents) / targetToDate
	switch {
	case v > 1.1:
		return v, PaceHighVelocity
	case v < 0.9:
		return v, PaceUnderSpeed
	}
	return v, PaceOnTrack
}

// FixedShare is the percentage of the annual non-income, non-savings target
// attributable to categories flagged fixed.
func (s Snapshot) FixedShare() float64 {
	cats := s.categoryByID()
	var total, fixed int64
	for _, l := range s.Lines {
		c := cats[l.CategoryID]
		if c.IsIncome || c.IsSavings {
			continue
		}
		total += l.Amount.Cents
		if c.IsFixed {
			fixed += l.Amount.Cents
		}
	}
	if total == 0 {
		return 0
	}
	return float64(fixed) / float64(total) * 100
}

// Outliers flags names whose current-month actual exceeds 1.2x their
// historical per-month average and tops it by more than 50 currency units.
// History is the average actual over earlier months of the year in which the
// name has a line; names without history are never flagged.
func (s Snapshot) Outliers(month int) []Outlier {
	cats := s.categoryByID()
	actuals := s.actualByLine()

	current := make(map[string]int64)
	histSum := make(map[string]int64)
	histMonths := make(map[string]int)
	for _, l := range s.Lines {
		if cats[l.CategoryID].IsIncome {
			continue
		}
		switch {
		case l.Month == month:
			current[l.Name] += actuals[l.ID]
		case l.Month < month:
			histSum[l.Name] += actuals[l.ID]
			histMonths[l.Name]++
		}
	}

	var out []Outlier
	for name, actual := range current {
		n := histMonths[name]
		if n == 0 {
			continue
		}
		avg := float64(histSum[name]) / float64(n)
		if float64(actual) > avg*outlierFactor && float64(actual)-avg > outlierFloorCents {
			out = append(out, Outlier{
				Name:       name,
				Actual:     Money{Cents: actual},
				Historical: Money{Cents: int64(avg)},
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SourceTotals groups all transaction amounts by source tag, case-sensitive,
// sorted by source for stable output.
func (s Snapshot) SourceTotals() []SourceTotal {
	sums := make(map[string]int64)
	for _, t := range s.Transactions {
		sums[t.Source] += t.Amount.Cents
	}
	out := make([]SourceTotal, 0, len(sums))
	for src, cents := range sums {
		out = append(out, SourceTotal{Source: src, Total: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// MonthSourceTotals groups the month's transaction amounts by source tag.
func (s Snapshot) MonthSourceTotals(month int) []SourceTotal {
	lines := s.lineByID()
	sums := make(map[string]int64)
	for _, t := range s.Transactions {
		l, ok := lines[t.LineID]
		if !ok || l.Month != month {
			continue
		}
		sums[t.Source] += t.Amount.Cents
	}
	out := make([]SourceTotal, 0, len(sums))
	for src, cents := range sums {
		out = append(out, SourceTotal{Source: src, Total: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// LineActuals returns the month's lines with recomputed actuals, ordered by
// name. This is what mutating ledger calls hand back so views refresh without
// a second fetch.
func (s Snapshot) LineActuals(month int) []LineActual {
	actuals := s.actualByLine()
	var out []LineActual
	for _, l := range s.Lines {
		if l.Month != month {
			continue
		}
		out = append(out, LineActual{Line: l, Actual: Money{Cents: actuals[l.ID]}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Line.Name < out[j].Line.Name })
	return out
}

// ReportMonth assembles the full month view. dayOfMonth/daysInMonth position
// the to-date metrics; callers pass the full month length for months already
// over, making projection equal actual.
func (s Snapshot) ReportMonth(month, dayOfMonth, daysInMonth int) MonthReport {
	velocity, pace := s.Velocity(month, dayOfMonth, daysInMonth)
	return MonthReport{
		Month:       month,
		Target:      s.MonthTarget(month),
		Actual:      s.MonthActual(month),
		Income:      s.MonthIncome(month),
		NetCashFlow: s.NetCashFlow(month),
		SavingsRate: s.SavingsRate(month),
		Projected:   s.ProjectedEndOfMonth(month, dayOfMonth, daysInMonth),
		Velocity:    velocity,
		Pace:        pace,
		BySource:    s.MonthSourceTotals(month),
		Outliers:    s.Outliers(month),
	}
}

// DaysInMonth returns the calendar length of the month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ReportYear assembles the annual rollup: one report per month plus totals.
// Every month is reported as complete, so projection equals actual and
// velocity compares against the full-month target, the same treatment the
// month view gives months other than the current one.
func (s Snapshot) ReportYear() YearReport {
	r := YearReport{Year: s.Year, FixedShare: s.FixedShare()}
	for m := 1; m <= 12; m++ {
		days := DaysInMonth(s.Year, m)
		mr := s.ReportMonth(m, days, days)
		r.Months = append(r.Months, mr)
		r.TotalTarget.Cents += mr.Target.Cents
		r.TotalActual.Cents += mr.Actual.Cents
		r.TotalNet.Cents += mr.NetCashFlow.Cents
	}
	return r
}
