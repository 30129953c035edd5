package storage

import (
	"context"
	"fmt"

	"bilancio/internal/core"
)

// UpsertRule saves a learned pattern. A pattern already known to the
// household is repointed at the new target line.
func (q *Queries) UpsertRule(ctx context.Context, r core.TransactionRule) (core.TransactionRule, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transaction_rules (household_id, pattern, budget_line_id)
		VALUES (?, ?, ?)
		ON CONFLICT (household_id, pattern)
		DO UPDATE SET budget_line_id = excluded.budget_line_id`,
		r.Household, r.Pattern, r.LineID)
	if err != nil {
		return core.TransactionRule{}, fmt.Errorf("upsert transaction rule: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		r.ID = id
	}
	return r, nil
}

// ListRules returns the household's rules in list order (creation order);
// the matcher's first-match-wins contract depends on this ordering. The
// target line's name is joined in so matching can pivot across years.
func (q *Queries) ListRules(ctx context.Context, household string) ([]core.TransactionRule, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT r.id, r.household_id, r.pattern, r.budget_line_id, l.name
		FROM transaction_rules r
		JOIN budget_lines l ON l.id = r.budget_line_id
		WHERE r.household_id = ? ORDER BY r.id`,
		household)
	if err != nil {
		return nil, fmt.Errorf("list transaction rules: %w", err)
	}
	defer rows.Close()

	var out []core.TransactionRule
	for rows.Next() {
		var r core.TransactionRule
		if err := rows.Scan(&r.ID, &r.Household, &r.Pattern, &r.LineID, &r.LineName); err != nil {
			return nil, fmt.Errorf("scan transaction rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteRule(ctx context.Context, household string, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM transaction_rules WHERE household_id = ? AND id = ?`, household, id)
	if err != nil {
		return fmt.Errorf("delete transaction rule: %w", err)
	}
	return requireRow(res, core.ErrRuleNotFound)
}
