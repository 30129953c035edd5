package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

const testHousehold = "hh-test"

func newTestRepo(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "bilancio.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedCategory(t *testing.T, repo *storage.Repository, name string) core.Category {
	t.Helper()
	cat, err := repo.Queries().CreateCategory(context.Background(), core.Category{
		Household: testHousehold,
		Name:      name,
	})
	if err != nil {
		t.Fatalf("seed category %q: %v", name, err)
	}
	return cat
}

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func linesByMonth(lines []core.BudgetLine) map[int]core.BudgetLine {
	out := make(map[int]core.BudgetLine, len(lines))
	for _, l := range lines {
		out[l.Month] = l
	}
	return out
}
