// Package matcher resolves free-text transaction descriptions to budget lines
// using saved substring rules.
package matcher

import (
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"bilancio/internal/core"
)

// Match resolves a description against the rule set. Rules are tried in list
// order; the first whose pattern is contained case-insensitively in the
// description wins. The winning rule's target line is month-pivoted: the
// returned line is the one sharing the target's name in the month of the
// transaction's own date, so a rule learned against January still categorizes
// a June transaction into June's instance. Returns (nil, nil) when no rule
// matches or the pivot month has no instance of the name.
func Match(desc string, date time.Time, rules []core.TransactionRule, lines []core.BudgetLine) (*core.BudgetLine, *core.TransactionRule) {
	upper := strings.ToUpper(desc)
	byID := make(map[int64]core.BudgetLine, len(lines))
	for _, l := range lines {
		byID[l.ID] = l
	}

	for i, r := range rules {
		if r.Pattern == "" || !strings.Contains(upper, strings.ToUpper(r.Pattern)) {
			continue
		}
		// The rule's anchor line may belong to another year, so pivot on the
		// stored target name and fall back to an id lookup when a caller
		// built the rule without one.
		name := r.LineName
		if name == "" {
			target, ok := byID[r.LineID]
			if !ok {
				continue
			}
			name = target.Name
		}
		for j, l := range lines {
			if l.Name == name && l.Year == date.Year() && l.Month == int(date.Month()) {
				return &lines[j], &rules[i]
			}
		}
		// First match wins even when the pivot month has no instance:
		// the transaction stays uncategorized rather than falling through
		// to a weaker rule.
		return nil, &rules[i]
	}
	return nil, nil
}

// Suggestion is a candidate budget line name for manual review, ranked by
// edit distance to the transaction description.
type Suggestion struct {
	Name     string
	Distance int
}

// Suggest ranks distinct budget line names by levenshtein distance to the
// description, closest first, up to max entries. Suggestions are an aid for
// the review dialog only; they never auto-assign.
func Suggest(desc string, lines []core.BudgetLine, max int) []Suggestion {
	upper := strings.ToUpper(strings.TrimSpace(desc))
	if upper == "" || max <= 0 {
		return nil
	}
	best := make(map[string]int)
	for _, l := range lines {
		d := levenshtein.ComputeDistance(upper, strings.ToUpper(l.Name))
		if cur, ok := best[l.Name]; !ok || d < cur {
			best[l.Name] = d
		}
	}
	out := make([]Suggestion, 0, len(best))
	for name, d := range best {
		out = append(out, Suggestion{Name: name, Distance: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}
