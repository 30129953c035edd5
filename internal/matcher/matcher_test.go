package matcher

import (
	"testing"
	"time"

	"bilancio/internal/core"
)

func coffeeLines() []core.BudgetLine {
	var lines []core.BudgetLine
	for m := 1; m <= 12; m++ {
		lines = append(lines, core.BudgetLine{
			ID: int64(m), CategoryID: 1, Name: "Coffee",
			Amount: core.Money{Cents: 5000}, Month: m, Year: 2026,
		})
	}
	return lines
}

// Scenario: a rule created against January's "Coffee" line categorizes an
// April transaction into April's instance.
func TestMatchPivotsToTransactionMonth(t *testing.T) {
	lines := coffeeLines()
	rules := []core.TransactionRule{{ID: 1, Pattern: "STARBUCKS", LineID: 1}}
	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	line, rule := Match("STARBUCKS #4521", date, rules, lines)
	if line == nil || rule == nil {
		t.Fatal("expected a match")
	}
	if line.Month != 4 || line.Name != "Coffee" {
		t.Fatalf("expected April Coffee line, got month %d name %q", line.Month, line.Name)
	}
	if rule.ID != 1 {
		t.Fatalf("expected rule 1, got %d", rule.ID)
	}
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	lines := coffeeLines()
	rules := []core.TransactionRule{{ID: 1, Pattern: "starbucks", LineID: 3}}
	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	line, _ := Match("Starbucks Reserve", date, rules, lines)
	if line == nil || line.Month != 6 {
		t.Fatalf("expected June match, got %+v", line)
	}
}

func TestMatchFirstRuleWins(t *testing.T) {
	lines := append(coffeeLines(), core.BudgetLine{
		ID: 20, CategoryID: 1, Name: "Eating Out", Amount: core.Money{Cents: 10000}, Month: 4, Year: 2026,
	})
	rules := []core.TransactionRule{
		{ID: 1, Pattern: "STAR", LineID: 1},
		{ID: 2, Pattern: "STARBUCKS", LineID: 20}, // longer but later; never consulted
	}
	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	line, rule := Match("STARBUCKS #4521", date, rules, lines)
	if rule == nil || rule.ID != 1 {
		t.Fatalf("expected first rule to win, got %+v", rule)
	}
	if line == nil || line.Name != "Coffee" {
		t.Fatalf("expected Coffee, got %+v", line)
	}
}

func TestMatchNoRuleLeavesUncategorized(t *testing.T) {
	lines := coffeeLines()
	rules := []core.TransactionRule{{ID: 1, Pattern: "STARBUCKS", LineID: 1}}
	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	line, rule := Match("SHELL FUEL 22", date, rules, lines)
	if line != nil || rule != nil {
		t.Fatalf("expected no match, got line=%v rule=%v", line, rule)
	}
}

func TestMatchMissingPivotMonthStaysUncategorized(t *testing.T) {
	// Only January..March instances exist.
	lines := coffeeLines()[:3]
	rules := []core.TransactionRule{{ID: 1, Pattern: "STARBUCKS", LineID: 1}}
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	line, rule := Match("STARBUCKS #4521", date, rules, lines)
	if line != nil {
		t.Fatalf("expected nil line, got %+v", line)
	}
	if rule == nil || rule.ID != 1 {
		t.Fatalf("the matching rule should still be reported, got %+v", rule)
	}
}

// Scenario: a rule learned against a 2026 line categorizes a 2027
// transaction. The anchor id is absent from 2027's lines, so resolution
// runs on the stored target name.
func TestMatchResolvesTargetAcrossYears(t *testing.T) {
	var lines []core.BudgetLine
	for m := 1; m <= 12; m++ {
		lines = append(lines, core.BudgetLine{
			ID: int64(100 + m), CategoryID: 1, Name: "Coffee",
			Amount: core.Money{Cents: 5000}, Month: m, Year: 2027,
		})
	}
	rules := []core.TransactionRule{{ID: 1, Pattern: "STARBUCKS", LineID: 1, LineName: "Coffee"}}
	date := time.Date(2027, 2, 3, 0, 0, 0, 0, time.UTC)

	line, rule := Match("STARBUCKS #4521", date, rules, lines)
	if line == nil || rule == nil {
		t.Fatal("expected a cross-year match")
	}
	if line.Month != 2 || line.Year != 2027 {
		t.Fatalf("expected February 2027 instance, got %+v", line)
	}
}

// Matcher idempotence: same inputs, same result.
func TestMatchIsDeterministic(t *testing.T) {
	lines := coffeeLines()
	rules := []core.TransactionRule{{ID: 1, Pattern: "STARBUCKS", LineID: 1}}
	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		line, rule := Match("STARBUCKS #4521", date, rules, lines)
		if line == nil || line.Month != 4 || rule == nil || rule.ID != 1 {
			t.Fatalf("iteration %d diverged: line=%v rule=%v", i, line, rule)
		}
	}
}

func TestSuggestRanksByDistance(t *testing.T) {
	lines := []core.BudgetLine{
		{ID: 1, Name: "Coffee", Month: 1, Year: 2026, CategoryID: 1},
		{ID: 2, Name: "Coffee", Month: 2, Year: 2026, CategoryID: 1},
		{ID: 3, Name: "Groceries", Month: 1, Year: 2026, CategoryID: 1},
	}
	got := Suggest("COFFEE SHOP", lines, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].Name != "Coffee" {
		t.Fatalf("expected Coffee first, got %q", got[0].Name)
	}
}

func TestSuggestEmptyInput(t *testing.T) {
	if got := Suggest("  ", coffeeLines(), 3); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
