package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/statement"
)

type stubParser struct {
	candidates []statement.Candidate
	err        error
}

func (s stubParser) Parse(ctx context.Context, pdf []byte) ([]statement.Candidate, error) {
	return s.candidates, s.err
}

func TestPrepareMatchesAndSuggests(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Food")
	p := NewPropagator(repo, nil)
	ctx := context.Background()

	created, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Coffee", CategoryID: cat.ID, AmountCents: 5000, Month: 1, Year: 2026, ApplyToFuture: true,
	})
	if err != nil {
		t.Fatalf("seed coffee: %v", err)
	}
	january := linesByMonth(created)[1]
	if _, err := repo.Queries().UpsertRule(ctx, core.TransactionRule{
		Household: testHousehold, Pattern: "STARBUCKS", LineID: january.ID,
	}); err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	parser := stubParser{candidates: []statement.Candidate{
		{Date: date(2026, 4, 10), Description: "STARBUCKS #4521", AmountCents: -675},
		{Date: date(2026, 4, 11), Description: "Coffe shop", AmountCents: -300},
	}}
	im := NewImporter(repo, parser, nil)

	proposals, err := im.Prepare(ctx, testHousehold, []byte("pdf"))
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if len(proposals) != 2 {
		t.Fatalf("proposals = %d, want 2", len(proposals))
	}

	// The rule pivots to April's instance, not January's.
	matched := proposals[0]
	if matched.LineName != "Coffee" {
		t.Fatalf("matched line name = %q, want Coffee", matched.LineName)
	}
	april := linesByMonth(created)[4]
	if matched.LineID != april.ID {
		t.Fatalf("matched line id = %d, want April's %d", matched.LineID, april.ID)
	}
	if matched.RuleID == 0 {
		t.Fatal("matched proposal should carry the rule id")
	}

	unmatched := proposals[1]
	if unmatched.LineID != 0 {
		t.Fatalf("second proposal should be uncategorized, got line %d", unmatched.LineID)
	}
	if len(unmatched.Suggestions) == 0 || unmatched.Suggestions[0].Name != "Coffee" {
		t.Fatalf("expected Coffee as closest suggestion, got %+v", unmatched.Suggestions)
	}
}

func TestProposeMatchesRuleFromEarlierYear(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Food")
	p := NewPropagator(repo, nil)
	ctx := context.Background()

	old, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Coffee", CategoryID: cat.ID, AmountCents: 5000, Month: 1, Year: 2026,
	})
	if err != nil {
		t.Fatalf("seed 2026: %v", err)
	}
	next, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Coffee", CategoryID: cat.ID, AmountCents: 5000, Month: 1, Year: 2027, ApplyToFuture: true,
	})
	if err != nil {
		t.Fatalf("seed 2027: %v", err)
	}
	if _, err := repo.Queries().UpsertRule(ctx, core.TransactionRule{
		Household: testHousehold, Pattern: "STARBUCKS", LineID: old[0].ID,
	}); err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	im := NewImporter(repo, nil, nil)
	proposals, err := im.Propose(ctx, testHousehold, []statement.Candidate{
		{Date: date(2027, 3, 5), Description: "STARBUCKS #99", AmountCents: -450},
	})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	march := linesByMonth(next)[3]
	if len(proposals) != 1 || proposals[0].LineID != march.ID {
		t.Fatalf("expected March 2027 line %d, got %+v", march.ID, proposals)
	}
}

func TestPrepareDegradesOnParserFailure(t *testing.T) {
	repo := newTestRepo(t)
	im := NewImporter(repo, stubParser{err: fmt.Errorf("%w: model unavailable", core.ErrExternalService)}, nil)

	proposals, err := im.Prepare(context.Background(), testHousehold, []byte("pdf"))
	if err != nil {
		t.Fatalf("external failure must degrade, got %v", err)
	}
	if proposals != nil {
		t.Fatalf("expected no proposals, got %d", len(proposals))
	}
}

func TestPrepareWithoutParser(t *testing.T) {
	repo := newTestRepo(t)
	im := NewImporter(repo, nil, nil)

	proposals, err := im.Prepare(context.Background(), testHousehold, []byte("pdf"))
	if err != nil || proposals != nil {
		t.Fatalf("nil parser should yield nothing, got %v / %v", proposals, err)
	}
}

func TestCommitPersistsBatchAndRules(t *testing.T) {
	repo := newTestRepo(t)
	cat := seedCategory(t, repo, "Food")
	p := NewPropagator(repo, nil)
	ctx := context.Background()

	created, err := p.Create(ctx, testHousehold, CreateLineParams{
		Name: "Coffee", CategoryID: cat.ID, AmountCents: 5000, Month: 4, Year: 2026,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	line := created[0]
	im := NewImporter(repo, nil, nil)

	decisions := []Decision{
		{Description: "STARBUCKS #4521", AmountCents: -675, Date: date(2026, 4, 10), LineID: line.ID, Source: "import", RememberPattern: "STARBUCKS"},
		{Description: "Unknown vendor", AmountCents: -120, Date: date(2026, 4, 11), Source: "import"},
		{Description: "Noise", AmountCents: -1, Date: date(2026, 4, 12), Ignored: true},
	}
	batchID, inserted, err := im.Commit(ctx, testHousehold, decisions)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if batchID == "" {
		t.Fatal("commit should mint a batch id")
	}
	if inserted != 2 {
		t.Fatalf("inserted = %d, want 2", inserted)
	}

	rules, err := repo.Queries().ListRules(ctx, testHousehold)
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	if len(rules) != 1 || rules[0].Pattern != "STARBUCKS" || rules[0].LineID != line.ID {
		t.Fatalf("remembered rule = %+v", rules)
	}
}

// Commit runs the same batch loop as BulkAdd, so an invalid entry fails the
// whole import exactly as it would fail a bulk add.
func TestCommitValidatesLikeBulkAdd(t *testing.T) {
	repo := newTestRepo(t)
	im := NewImporter(repo, nil, nil)
	ctx := context.Background()

	decisions := []Decision{
		{Description: "Fine", AmountCents: -100, Date: date(2026, 4, 10), Source: "import"},
		{Description: "   ", AmountCents: -200, Date: date(2026, 4, 11), Source: "import"},
	}
	_, _, err := im.Commit(ctx, testHousehold, decisions)
	if !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("got %v, want ErrEmptyDescription", err)
	}

	txns, err := repo.Queries().ListTransactionsForYear(ctx, testHousehold, 2026)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 0 {
		t.Fatalf("invalid entry must fail the batch, found %d rows", len(txns))
	}
}

func TestCommitRollsBackOnBadLine(t *testing.T) {
	repo := newTestRepo(t)
	im := NewImporter(repo, nil, nil)
	ctx := context.Background()

	decisions := []Decision{
		{Description: "Fine", AmountCents: -100, Date: date(2026, 4, 10), Source: "import"},
		{Description: "Broken", AmountCents: -200, Date: date(2026, 4, 11), LineID: 404, Source: "import"},
	}
	_, _, err := im.Commit(ctx, testHousehold, decisions)
	if !errors.Is(err, core.ErrLineNotFound) {
		t.Fatalf("got %v, want ErrLineNotFound", err)
	}

	txns, err := repo.Queries().ListTransactionsForYear(ctx, testHousehold, 2026)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txns) != 0 {
		t.Fatalf("commit must be atomic, found %d rows", len(txns))
	}
}
