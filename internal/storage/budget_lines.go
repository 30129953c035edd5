package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bilancio/internal/core"
)

const lineColumns = "id, household_id, category_id, name, amount_cents, month, year"

func scanLine(row interface{ Scan(...any) error }) (core.BudgetLine, error) {
	var l core.BudgetLine
	err := row.Scan(&l.ID, &l.Household, &l.CategoryID, &l.Name, &l.Amount.Cents, &l.Month, &l.Year)
	return l, err
}

func (q *Queries) InsertLine(ctx context.Context, l core.BudgetLine) (core.BudgetLine, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO budget_lines (household_id, category_id, name, amount_cents, month, year)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.Household, l.CategoryID, l.Name, l.Amount.Cents, l.Month, l.Year)
	if err != nil {
		if isUniqueViolation(err) {
			return core.BudgetLine{}, core.ErrNameTaken
		}
		return core.BudgetLine{}, fmt.Errorf("insert budget line: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.BudgetLine{}, fmt.Errorf("budget line id: %w", err)
	}
	l.ID = id
	return l, nil
}

// UpsertLine creates the month instance or overwrites an existing one with
// the same name. Forward propagation uses this so re-propagating a name never
// duplicates a month's row.
func (q *Queries) UpsertLine(ctx context.Context, l core.BudgetLine) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO budget_lines (household_id, category_id, name, amount_cents, month, year)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (household_id, year, month, name)
		DO UPDATE SET amount_cents = excluded.amount_cents, category_id = excluded.category_id`,
		l.Household, l.CategoryID, l.Name, l.Amount.Cents, l.Month, l.Year)
	if err != nil {
		return fmt.Errorf("upsert budget line: %w", err)
	}
	return nil
}

func (q *Queries) GetLine(ctx context.Context, household string, id int64) (core.BudgetLine, error) {
	l, err := scanLine(q.db.QueryRowContext(ctx,
		`SELECT `+lineColumns+` FROM budget_lines WHERE household_id = ? AND id = ?`,
		household, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetLine{}, core.ErrLineNotFound
	}
	if err != nil {
		return core.BudgetLine{}, fmt.Errorf("get budget line: %w", err)
	}
	return l, nil
}

func (q *Queries) ListLines(ctx context.Context, household string, year int) ([]core.BudgetLine, error) {
	return q.listLines(ctx, `
		SELECT `+lineColumns+` FROM budget_lines
		WHERE household_id = ? AND year = ?
		ORDER BY month, name`, household, year)
}

func (q *Queries) ListLinesByName(ctx context.Context, household string, year int, name string) ([]core.BudgetLine, error) {
	return q.listLines(ctx, `
		SELECT `+lineColumns+` FROM budget_lines
		WHERE household_id = ? AND year = ? AND name = ?
		ORDER BY month`, household, year, name)
}

func (q *Queries) listLines(ctx context.Context, query string, args ...any) ([]core.BudgetLine, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budget lines: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CountNameConflicts reports how many months would collide if oldName were
// renamed to newName: months that hold both names at once.
func (q *Queries) CountNameConflicts(ctx context.Context, household string, year int, oldName, newName string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM budget_lines a
		WHERE a.household_id = ? AND a.year = ? AND a.name = ?
		  AND EXISTS (
			SELECT 1 FROM budget_lines b
			WHERE b.household_id = a.household_id AND b.year = a.year
			  AND b.month = a.month AND b.name = ?
		  )`,
		household, year, oldName, newName).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count rename conflicts: %w", err)
	}
	return n, nil
}

func (q *Queries) RenameLines(ctx context.Context, household string, year int, oldName, newName string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE budget_lines SET name = ?
		WHERE household_id = ? AND year = ? AND name = ?`,
		newName, household, year, oldName)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, core.ErrNameTaken
		}
		return 0, fmt.Errorf("rename budget lines: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func (q *Queries) UpdateLineAmount(ctx context.Context, household string, id, cents int64) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE budget_lines SET amount_cents = ?
		WHERE household_id = ? AND id = ?`,
		cents, household, id)
	if err != nil {
		return fmt.Errorf("update budget line amount: %w", err)
	}
	return requireRow(res, core.ErrLineNotFound)
}

// UpdateAmountForward retargets every instance of name from fromMonth to
// December. Months before fromMonth are never touched.
func (q *Queries) UpdateAmountForward(ctx context.Context, household string, year int, name string, fromMonth int, cents int64) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE budget_lines SET amount_cents = ?
		WHERE household_id = ? AND year = ? AND name = ? AND month >= ?`,
		cents, household, year, name, fromMonth)
	if err != nil {
		return fmt.Errorf("propagate budget line amount: %w", err)
	}
	return nil
}

func (q *Queries) DeleteLine(ctx context.Context, household string, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM budget_lines WHERE household_id = ? AND id = ?`, household, id)
	if err != nil {
		return fmt.Errorf("delete budget line: %w", err)
	}
	return requireRow(res, core.ErrLineNotFound)
}

// DeleteLinesByName removes every instance of name with month >= fromMonth.
// fromMonth 1 clears the whole year.
func (q *Queries) DeleteLinesByName(ctx context.Context, household string, year int, name string, fromMonth int) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM budget_lines
		WHERE household_id = ? AND year = ? AND name = ? AND month >= ?`,
		household, year, name, fromMonth)
	if err != nil {
		return 0, fmt.Errorf("delete budget lines by name: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
