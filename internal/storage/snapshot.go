package storage

import (
	"context"
	"fmt"

	"bilancio/internal/core"
)

// LoadSnapshot reads the household's full year of raw data for the
// aggregation engine. It is a plain read; derived metrics are computed by the
// caller from the returned snapshot.
func (q *Queries) LoadSnapshot(ctx context.Context, household string, year int) (core.Snapshot, error) {
	cats, err := q.ListCategories(ctx, household)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("snapshot categories: %w", err)
	}
	lines, err := q.ListLines(ctx, household, year)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("snapshot budget lines: %w", err)
	}
	txns, err := q.ListTransactionsForYear(ctx, household, year)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("snapshot transactions: %w", err)
	}
	return core.Snapshot{
		Year:         year,
		Categories:   cats,
		Lines:        lines,
		Transactions: txns,
	}, nil
}
