package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/events"
	"bilancio/internal/matcher"
	"bilancio/internal/statement"
	"bilancio/internal/storage"
)

const maxSuggestions = 3

// Importer drives the statement import flow: parse the document with the
// external AI service, auto-categorize candidates with saved rules, and
// commit the reviewed batch atomically.
type Importer struct {
	repo   *storage.Repository
	parser statement.Parser
	events *events.Client
}

func NewImporter(repo *storage.Repository, parser statement.Parser, eventsClient *events.Client) *Importer {
	return &Importer{repo: repo, parser: parser, events: eventsClient}
}

// Proposal is one candidate transaction prepared for review, with the
// matcher's resolution attached. LineID 0 means uncategorized; Suggestions
// then offer closest line names as a manual aid.
type Proposal struct {
	Date        time.Time
	Description string
	AmountCents int64
	LineID      int64
	LineName    string
	RuleID      int64
	Suggestions []matcher.Suggestion
}

// Prepare parses the statement and runs every candidate through the rule
// matcher. A failing or empty parser degrades to an empty proposal list;
// a session never dies because a statement could not be read.
func (im *Importer) Prepare(ctx context.Context, household string, pdf []byte) ([]Proposal, error) {
	if im.parser == nil {
		return nil, nil
	}
	candidates, err := im.parser.Parse(ctx, pdf)
	if err != nil {
		if errors.Is(err, core.ErrExternalService) {
			slog.WarnContext(ctx, "Statement parsing failed, nothing to import",
				"household", household, "error", err)
			return nil, nil
		}
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return im.Propose(ctx, household, candidates)
}

// Propose runs candidates through the matcher against the household's rules
// and budget lines. Candidates are matched per their own date's year.
func (im *Importer) Propose(ctx context.Context, household string, candidates []statement.Candidate) ([]Proposal, error) {
	q := im.repo.Queries()
	rules, err := q.ListRules(ctx, household)
	if err != nil {
		return nil, err
	}

	linesByYear := make(map[int][]core.BudgetLine)
	proposals := make([]Proposal, 0, len(candidates))
	for _, c := range candidates {
		year := c.Date.Year()
		lines, ok := linesByYear[year]
		if !ok {
			lines, err = q.ListLines(ctx, household, year)
			if err != nil {
				return nil, err
			}
			linesByYear[year] = lines
		}

		p := Proposal{
			Date:        c.Date,
			Description: c.Description,
			AmountCents: c.AmountCents,
		}
		line, rule := matcher.Match(c.Description, c.Date, rules, lines)
		if rule != nil {
			p.RuleID = rule.ID
		}
		if line != nil {
			p.LineID = line.ID
			p.LineName = line.Name
		} else {
			p.Suggestions = matcher.Suggest(c.Description, lines, maxSuggestions)
		}
		proposals = append(proposals, p)
	}

	slog.InfoContext(ctx, "Import proposals prepared",
		"household", household,
		"candidates", len(candidates),
		"rules", len(rules))
	return proposals, nil
}

// Decision is the reviewer's verdict on one proposal. RememberPattern, when
// non-empty, is saved as a rule targeting the chosen line for future imports.
type Decision struct {
	Description     string
	AmountCents     int64
	Date            time.Time
	LineID          int64
	Source          string
	Ignored         bool
	RememberPattern string
}

// Commit persists the reviewed batch and any remembered patterns in one
// transaction. Ignored entries are skipped entirely. The inserts go through
// the ledger's batch loop so import and bulk add share the same semantics.
func (im *Importer) Commit(ctx context.Context, household string, decisions []Decision) (string, int, error) {
	batchID := uuid.NewString()
	inserted := 0

	entries := make([]BulkEntry, 0, len(decisions))
	for _, d := range decisions {
		entries = append(entries, BulkEntry{
			Description: d.Description,
			AmountCents: d.AmountCents,
			Date:        d.Date,
			LineID:      d.LineID,
			Source:      d.Source,
			Ignored:     d.Ignored,
		})
	}

	err := im.repo.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		inserted, err = insertBatch(ctx, q, household, entries)
		if err != nil {
			return err
		}

		for _, d := range decisions {
			if d.Ignored || d.RememberPattern == "" || d.LineID == 0 {
				continue
			}
			rule := core.TransactionRule{
				Household: household,
				Pattern:   d.RememberPattern,
				LineID:    d.LineID,
			}
			if err := rule.Validate(); err != nil {
				return err
			}
			if _, err := q.UpsertRule(ctx, rule); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}

	slog.InfoContext(ctx, "Import batch committed",
		"household", household,
		"batch_id", batchID,
		"inserted", inserted,
		"reviewed", len(decisions))

	if im.events != nil {
		if err := im.events.PublishTransactionsImported(ctx, household, batchID, inserted); err != nil {
			slog.WarnContext(ctx, "Failed to publish import event",
				"batch_id", batchID, "error", err)
		}
	}
	return batchID, inserted, nil
}
