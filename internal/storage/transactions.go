package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bilancio/internal/core"
)

const dateLayout = "2006-01-02"

func (q *Queries) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	lineID := sql.NullInt64{Int64: t.LineID, Valid: t.LineID != 0}
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (household_id, budget_line_id, description, amount_cents, date, source)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Household, lineID, t.Description, t.Amount.Cents, t.Date.Format(dateLayout), t.Source)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	t.ID = id
	return t, nil
}

func (q *Queries) GetTransaction(ctx context.Context, household string, id int64) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, household_id, budget_line_id, description, amount_cents, date, source
		FROM transactions WHERE household_id = ? AND id = ?`,
		household, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (q *Queries) DeleteTransaction(ctx context.Context, household string, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE household_id = ? AND id = ?`, household, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res, core.ErrTransactionNotFound)
}

// ListTransactionsForYear returns the year's transactions: everything dated
// inside it, categorized or not.
func (q *Queries) ListTransactionsForYear(ctx context.Context, household string, year int) ([]core.Transaction, error) {
	from := fmt.Sprintf("%04d-01-01", year)
	to := fmt.Sprintf("%04d-01-01", year+1)
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, household_id, budget_line_id, description, amount_cents, date, source
		FROM transactions
		WHERE household_id = ? AND date >= ? AND date < ?
		ORDER BY date, id`,
		household, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (q *Queries) ListTransactionsForLine(ctx context.Context, household string, lineID int64) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, household_id, budget_line_id, description, amount_cents, date, source
		FROM transactions
		WHERE household_id = ? AND budget_line_id = ?
		ORDER BY date, id`,
		household, lineID)
	if err != nil {
		return nil, fmt.Errorf("list line transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t       core.Transaction
		lineID  sql.NullInt64
		dateStr string
	)
	if err := row.Scan(&t.ID, &t.Household, &lineID, &t.Description, &t.Amount.Cents, &dateStr, &t.Source); err != nil {
		return core.Transaction{}, err
	}
	if lineID.Valid {
		t.LineID = lineID.Int64
	}
	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
	}
	t.Date = date
	return t, nil
}
