package services

import (
	"context"
	"errors"
	"testing"

	"bilancio/internal/core"
)

func TestCreatePropagatesForward(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Housing")
	p := NewPropagator(repo, nil)

	created, err := p.Create(context.Background(), testHousehold, CreateLineParams{
		Name:          "Rent",
		CategoryID:    cat.ID,
		AmountCents:   150000,
		Month:         3,
		Year:          2026,
		ApplyToFuture: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created) != 10 {
		t.Fatalf("expected instances for months 3-12, got %d", len(created))
	}
	byMonth := linesByMonth(created)
	for m := 3; m <= 12; m++ {
		l, ok := byMonth[m]
		if !ok {
			t.Fatalf("missing instance for month %d", m)
		}
		if l.Amount.Cents != 150000 {
			t.Errorf("month %d amount = %d, want 150000", m, l.Amount.Cents)
		}
	}
	for _, m := range []int{1, 2} {
		if _, ok := byMonth[m]; ok {
			t.Errorf("month %d should not have an instance", m)
		}
	}
}

func TestCreateSingleMonth(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Extra")
	p := NewPropagator(repo, nil)

	created, err := p.Create(context.Background(), testHousehold, CreateLineParams{
		Name:        "Bonus",
		CategoryID:  cat.ID,
		AmountCents: 5000,
		Month:       6,
		Year:        2026,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created) != 1 || created[0].Month != 6 {
		t.Fatalf("expected one June instance, got %+v", created)
	}
}

func TestCreateOverwritesFutureDuplicates(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Housing")
	p := NewPropagator(repo, nil)
	ctx := context.Background()

	if _, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Rent", CategoryID: cat.ID, AmountCents: 100000, Month: 8, Year: 2026,
	}); err != nil {
		t.Fatalf("seed august: %v", err)
	}

	created, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Rent", CategoryID: cat.ID, AmountCents: 150000, Month: 5, Year: 2026, ApplyToFuture: true,
	})
	if err != nil {
		t.Fatalf("create from may: %v", err)
	}
	if len(created) != 8 {
		t.Fatalf("expected 8 instances (may-dec), got %d", len(created))
	}
	if aug := linesByMonth(created)[8]; aug.Amount.Cents != 150000 {
		t.Fatalf("august should be overwritten to 150000, got %d", aug.Amount.Cents)
	}
}

func TestCreateRejections(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Housing")
	p := NewPropagator(repo, nil)
	ctx := context.Background()

	if _, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Rent", CategoryID: cat.ID, AmountCents: 100000, Month: 3, Year: 2026,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tests := []struct {
		name   string
		params CreateLineParams
		want   error
	}{
		{"duplicate month", CreateLineParams{Name: "Rent", CategoryID: cat.ID, AmountCents: 1, Month: 3, Year: 2026}, core.ErrConflict},
		{"empty name", CreateLineParams{Name: "  ", CategoryID: cat.ID, AmountCents: 1, Month: 1, Year: 2026}, core.ErrEmptyName},
		{"name too long", CreateLineParams{Name: "An Extremely Long Name", CategoryID: cat.ID, AmountCents: 1, Month: 1, Year: 2026}, core.ErrNameTooLong},
		{"month zero", CreateLineParams{Name: "Gym", CategoryID: cat.ID, AmountCents: 1, Month: 0, Year: 2026}, core.ErrInvalidMonth},
		{"month thirteen", CreateLineParams{Name: "Gym", CategoryID: cat.ID, AmountCents: 1, Month: 13, Year: 2026}, core.ErrInvalidMonth},
		{"negative amount", CreateLineParams{Name: "Gym", CategoryID: cat.ID, AmountCents: -1, Month: 1, Year: 2026}, core.ErrInvalidAmount},
		{"unknown category", CreateLineParams{Name: "Gym", CategoryID: 9999, AmountCents: 1, Month: 1, Year: 2026}, core.ErrUnknownCategory},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Create(ctx, testHousehold, tc.params)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRenameWholeYear(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Food")
	p := NewPropagator(repo, nil)
	ctx := context.Background()

	if _, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Groceries", CategoryID: cat.ID, AmountCents: 40000, Month: 1, Year: 2026, ApplyToFuture: true,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := p.Rename(ctx, testHousehold, "Groceries", "Food", 2026); err != nil {
		t.Fatalf("rename: %v", err)
	}

	renamed, err := repo.Queries().ListLinesByName(ctx, testHousehold, 2026, "Food")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(renamed) != 12 {
		t.Fatalf("expected 12 renamed rows, got %d", len(renamed))
	}
	old, err := repo.Queries().ListLinesByName(ctx, testHousehold, 2026, "Groceries")
	if err != nil {
		t.Fatalf("list old: %v", err)
	}
	if len(old) != 0 {
		t.Fatalf("old name still has %d rows", len(old))
	}
}

func TestRenameCollisionAnyMonth(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Food")
	p := NewPropagator(repo, nil)
	ctx := context.Background()

	if _, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Groceries", CategoryID: cat.ID, AmountCents: 40000, Month: 1, Year: 2026, ApplyToFuture: true,
	}); err != nil {
		t.Fatalf("seed groceries: %v", err)
	}
	// A single colliding month is enough to veto the whole rename.
	if _, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Food", CategoryID: cat.ID, AmountCents: 10000, Month: 7, Year: 2026,
	}); err != nil {
		t.Fatalf("seed collision: %v", err)
	}

	err := p.Rename(ctx, testHousehold, "Groceries", "Food", 2026)
	if !errors.Is(err, core.ErrNameTaken) {
		t.Fatalf("got %v, want ErrNameTaken", err)
	}

	// Nothing moved.
	remaining, err := repo.Queries().ListLinesByName(ctx, testHousehold, 2026, "Groceries")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 12 {
		t.Fatalf("rename should have rolled back, got %d groceries rows", len(remaining))
	}
}

func TestRenameMissingLine(t *testing.T) {
	repo := newTestRepo(t)
	p := NewPropagator(repo, nil)

	err := p.Rename(context.Background(), testHousehold, "Nothing", "Something", 2026)
	if !errors.Is(err, core.ErrLineNotFound) {
		t.Fatalf("got %v, want ErrLineNotFound", err)
	}
}

func TestRetargetForwardOnly(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Utilities")
	p := NewPropagator(repo, nil)
	ctx := context.Background()

	created, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Power", CategoryID: cat.ID, AmountCents: 8000, Month: 1, Year: 2026, ApplyToFuture: true,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	june := linesByMonth(created)[6]

	if err := p.Retarget(ctx, testHousehold, june.ID, 9500, true); err != nil {
		t.Fatalf("retarget: %v", err)
	}

	after, err := repo.Queries().ListLinesByName(ctx, testHousehold, 2026, "Power")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, l := range after {
		want := int64(8000)
		if l.Month >= 6 {
			want = 9500
		}
		if l.Amount.Cents != want {
			t.Errorf("month %d amount = %d, want %d", l.Month, l.Amount.Cents, want)
		}
	}
}

func TestRetargetSingleMonth(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Utilities")
	p := NewPropagator(repo, nil)
	ctx := context.Background()

	created, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Power", CategoryID: cat.ID, AmountCents: 8000, Month: 1, Year: 2026, ApplyToFuture: true,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	june := linesByMonth(created)[6]

	if err := p.Retarget(ctx, testHousehold, june.ID, 9500, false); err != nil {
		t.Fatalf("retarget: %v", err)
	}

	after, err := repo.Queries().ListLinesByName(ctx, testHousehold, 2026, "Power")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, l := range after {
		want := int64(8000)
		if l.Month == 6 {
			want = 9500
		}
		if l.Amount.Cents != want {
			t.Errorf("month %d amount = %d, want %d", l.Month, l.Amount.Cents, want)
		}
	}
}

func TestDeleteModes(t *testing.T) {
	tests := []struct {
		name       string
		mode       core.DeleteMode
		fromMonth  int
		wantMonths []int
	}{
		{"single", core.DeleteSingle, 6, []int{1, 2, 3, 4, 5, 7, 8, 9, 10, 11, 12}},
		{"future", core.DeleteFuture, 6, []int{1, 2, 3, 4, 5}},
		{"all", core.DeleteAll, 6, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newTestRepo(t)
			cat := seedCategory(t, repo, "Food")
			p := NewPropagator(repo, nil)
			ctx := context.Background()

			created, err := p.Create(ctx, testHousehold, CreateLineParams{
				Name: "Groceries", CategoryID: cat.ID, AmountCents: 40000, Month: 1, Year: 2026, ApplyToFuture: true,
			})
			if err != nil {
				t.Fatalf("seed: %v", err)
			}
			target := linesByMonth(created)[tc.fromMonth]

			if err := p.Delete(ctx, testHousehold, target.ID, tc.mode); err != nil {
				t.Fatalf("delete: %v", err)
			}

			after, err := repo.Queries().ListLinesByName(ctx, testHousehold, 2026, "Groceries")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			var months []int
			for _, l := range after {
				months = append(months, l.Month)
			}
			if len(months) != len(tc.wantMonths) {
				t.Fatalf("months after delete = %v, want %v", months, tc.wantMonths)
			}
			for i, m := range tc.wantMonths {
				if months[i] != m {
					t.Fatalf("months after delete = %v, want %v", months, tc.wantMonths)
				}
			}
		})
	}
}

func TestDeleteCascadesTransactions(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Food")
	p := NewPropagator(repo, nil)
	ctx := context.Background()

	created, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Groceries", CategoryID: cat.ID, AmountCents: 40000, Month: 3, Year: 2026,
	})
	if err != nil {
		t.Fatalf("seed line: %v", err)
	}
	line := created[0]

	ledger := NewLedger(repo)
	saved, _, err := ledger.AddTransaction(ctx, testHousehold, AddTransactionParams{
		Description: "Supermarket",
		AmountCents: 2350,
		Date:        date(2026, 3, 10),
		LineID:      line.ID,
		Source:      "manual",
	})
	if err != nil {
		t.Fatalf("add transaction: %v", err)
	}

	if err := p.Delete(ctx, testHousehold, line.ID, core.DeleteSingle); err != nil {
		t.Fatalf("delete line: %v", err)
	}

	_, err = repo.Queries().GetTransaction(ctx, testHousehold, saved.ID)
	if !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("transaction should cascade, got %v", err)
	}
}

func TestDeleteInvalidMode(t *testing.T) {
	repo := newTestRepo(t)
	p := NewPropagator(repo, nil)

	err := p.Delete(context.Background(), testHousehold, 1, core.DeleteMode("SOME"))
	if !errors.Is(err, core.ErrInvalidDeleteMode) {
		t.Fatalf("got %v, want ErrInvalidDeleteMode", err)
	}
}

func TestHouseholdIsolation(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Food")
	p := NewPropagator(repo, nil)
	ctx := context.Background()

	created, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Groceries", CategoryID: cat.ID, AmountCents: 40000, Month: 1, Year: 2026,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	err = p.Retarget(ctx, "hh-other", created[0].ID, 1, false)
	if !errors.Is(err, core.ErrLineNotFound) {
		t.Fatalf("other household should not see the line, got %v", err)
	}
}
