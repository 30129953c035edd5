package services

import (
	"context"
	"log/slog"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// Ledger attaches transactions to budget lines. Mutations return the
// affected month's lines with recomputed actuals so views refresh without a
// second fetch.
type Ledger struct {
	repo *storage.Repository
}

func NewLedger(repo *storage.Repository) *Ledger {
	return &Ledger{repo: repo}
}

type AddTransactionParams struct {
	Description string
	AmountCents int64
	Date        time.Time
	LineID      int64
	Source      string
}

// AddTransaction records one transaction against a budget line of the same
// household. The amount sign is stored verbatim.
func (l *Ledger) AddTransaction(ctx context.Context, household string, params AddTransactionParams) (core.Transaction, []core.LineActual, error) {
	txn := core.Transaction{
		Household:   household,
		LineID:      params.LineID,
		Description: params.Description,
		Amount:      core.Money{Cents: params.AmountCents},
		Date:        params.Date,
		Source:      params.Source,
	}
	if err := txn.Validate(); err != nil {
		return core.Transaction{}, nil, err
	}
	if params.LineID == 0 {
		return core.Transaction{}, nil, core.ErrUnknownLine
	}

	var (
		saved core.Transaction
		line  core.BudgetLine
	)
	err := l.repo.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		line, err = q.GetLine(ctx, household, params.LineID)
		if err != nil {
			return err
		}
		saved, err = q.InsertTransaction(ctx, txn)
		return err
	})
	if err != nil {
		return core.Transaction{}, nil, err
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"household", household,
		"line_id", params.LineID,
		"amount_cents", params.AmountCents,
		"source", params.Source)

	actuals, err := l.monthActuals(ctx, household, line.Year, line.Month)
	return saved, actuals, err
}

// BulkEntry is one reviewed candidate in an import batch. Ignored entries
// are skipped and never persisted. LineID 0 keeps the entry uncategorized.
type BulkEntry struct {
	Description string
	AmountCents int64
	Date        time.Time
	LineID      int64
	Source      string
	Ignored     bool
}

// BulkAdd commits the batch in one transaction: either every non-ignored
// entry is persisted or none is. Returns the number inserted.
func (l *Ledger) BulkAdd(ctx context.Context, household string, entries []BulkEntry) (int, error) {
	inserted := 0
	err := l.repo.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		inserted, err = insertBatch(ctx, q, household, entries)
		return err
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Bulk transactions committed",
		"household", household,
		"inserted", inserted,
		"skipped", len(entries)-inserted)
	return inserted, nil
}

// insertBatch is the validate/ownership/insert loop behind BulkAdd and the
// import commit. Both run it against their own transaction so the
// all-or-nothing batch semantics live in one place.
func insertBatch(ctx context.Context, q *storage.Queries, household string, entries []BulkEntry) (int, error) {
	inserted := 0
	for _, e := range entries {
		if e.Ignored {
			continue
		}
		txn := core.Transaction{
			Household:   household,
			LineID:      e.LineID,
			Description: e.Description,
			Amount:      core.Money{Cents: e.AmountCents},
			Date:        e.Date,
			Source:      e.Source,
		}
		if err := txn.Validate(); err != nil {
			return 0, err
		}
		if e.LineID != 0 {
			if _, err := q.GetLine(ctx, household, e.LineID); err != nil {
				return 0, err
			}
		}
		if _, err := q.InsertTransaction(ctx, txn); err != nil {
			return 0, err
		}
		inserted++
	}
	return inserted, nil
}

// DeleteTransaction removes one transaction and returns the owning month's
// recomputed actuals (nil when it was uncategorized).
func (l *Ledger) DeleteTransaction(ctx context.Context, household string, id int64) ([]core.LineActual, error) {
	var line *core.BudgetLine
	err := l.repo.WithTx(ctx, func(q *storage.Queries) error {
		txn, err := q.GetTransaction(ctx, household, id)
		if err != nil {
			return err
		}
		if txn.LineID != 0 {
			owned, err := q.GetLine(ctx, household, txn.LineID)
			if err != nil {
				return err
			}
			line = &owned
		}
		return q.DeleteTransaction(ctx, household, id)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Transaction deleted", "household", household, "id", id)

	if line == nil {
		return nil, nil
	}
	return l.monthActuals(ctx, household, line.Year, line.Month)
}

func (l *Ledger) monthActuals(ctx context.Context, household string, year, month int) ([]core.LineActual, error) {
	snap, err := l.repo.Queries().LoadSnapshot(ctx, household, year)
	if err != nil {
		return nil, err
	}
	return snap.LineActuals(month), nil
}
