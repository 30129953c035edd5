// Package services orchestrates the budgeting operations: recurrence
// propagation, the transaction ledger, statement imports and template
// backups. Every mutation runs in one storage transaction.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/events"
	"bilancio/internal/storage"
)

// Propagator creates, amends and removes a named budget line across a span
// of months within a year. Cross-month identity is the line name.
type Propagator struct {
	repo   *storage.Repository
	events *events.Client
}

func NewPropagator(repo *storage.Repository, eventsClient *events.Client) *Propagator {
	return &Propagator{repo: repo, events: eventsClient}
}

type CreateLineParams struct {
	Name          string
	CategoryID    int64
	AmountCents   int64
	Month         int
	Year          int
	ApplyToFuture bool
}

// Create inserts the month instance, plus one instance per later month of the
// year when ApplyToFuture is set. Later months are overwritten, never
// duplicated; the starting month must not already exist.
func (p *Propagator) Create(ctx context.Context, household string, params CreateLineParams) ([]core.BudgetLine, error) {
	line := core.BudgetLine{
		Household:  household,
		CategoryID: params.CategoryID,
		Name:       params.Name,
		Amount:     core.Money{Cents: params.AmountCents},
		Month:      params.Month,
		Year:       params.Year,
	}
	if err := line.Validate(); err != nil {
		return nil, err
	}

	var created []core.BudgetLine
	err := p.repo.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetCategory(ctx, household, params.CategoryID); err != nil {
			if errors.Is(err, core.ErrCategoryNotFound) {
				return core.ErrUnknownCategory
			}
			return err
		}

		if _, err := q.InsertLine(ctx, line); err != nil {
			return err
		}
		if params.ApplyToFuture {
			for m := params.Month + 1; m <= 12; m++ {
				next := line
				next.Month = m
				if err := q.UpsertLine(ctx, next); err != nil {
					return err
				}
			}
		}

		lines, err := q.ListLinesByName(ctx, household, params.Year, params.Name)
		if err != nil {
			return err
		}
		created = lines
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Budget line created",
		"household", household,
		"name", params.Name,
		"month", params.Month,
		"year", params.Year,
		"apply_to_future", params.ApplyToFuture,
		"instances", len(created))
	p.publish(ctx, household, params.Year, params.Name, "create")
	return created, nil
}

// Rename changes every instance of oldName in the household+year to newName.
// It fails with a conflict when newName already denotes a distinct line in
// any month being renamed, and with not-found when oldName has no instances.
func (p *Propagator) Rename(ctx context.Context, household, oldName, newName string, year int) error {
	if strings.TrimSpace(newName) == "" {
		return core.ErrEmptyName
	}
	if len(newName) > core.MaxNameLen {
		return core.ErrNameTooLong
	}
	if oldName == newName {
		return nil
	}

	err := p.repo.WithTx(ctx, func(q *storage.Queries) error {
		conflicts, err := q.CountNameConflicts(ctx, household, year, oldName, newName)
		if err != nil {
			return err
		}
		if conflicts > 0 {
			return core.ErrNameTaken
		}

		n, err := q.RenameLines(ctx, household, year, oldName, newName)
		if err != nil {
			return err
		}
		if n == 0 {
			return core.ErrLineNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget line renamed",
		"household", household, "old_name", oldName, "new_name", newName, "year", year)
	p.publish(ctx, household, year, newName, "rename")
	return nil
}

// Retarget updates the instance's amount, and with applyToFuture also every
// same-named instance from that month forward. Earlier months are untouched.
func (p *Propagator) Retarget(ctx context.Context, household string, id, newAmountCents int64, applyToFuture bool) error {
	if newAmountCents < 0 {
		return core.ErrInvalidAmount
	}

	var name string
	var year int
	err := p.repo.WithTx(ctx, func(q *storage.Queries) error {
		line, err := q.GetLine(ctx, household, id)
		if err != nil {
			return err
		}
		name, year = line.Name, line.Year

		if applyToFuture {
			return q.UpdateAmountForward(ctx, household, line.Year, line.Name, line.Month, newAmountCents)
		}
		return q.UpdateLineAmount(ctx, household, id, newAmountCents)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget line retargeted",
		"household", household, "id", id, "amount_cents", newAmountCents, "apply_to_future", applyToFuture)
	p.publish(ctx, household, year, name, "retarget")
	return nil
}

// Delete removes instances per the mode: SINGLE removes row id, FUTURE every
// same-named row with month >= the row's month, ALL every month of the year.
// Linked transactions cascade; callers confirm destructive intent before
// invoking.
func (p *Propagator) Delete(ctx context.Context, household string, id int64, mode core.DeleteMode) error {
	if err := mode.Validate(); err != nil {
		return err
	}

	var name string
	var year int
	err := p.repo.WithTx(ctx, func(q *storage.Queries) error {
		line, err := q.GetLine(ctx, household, id)
		if err != nil {
			return err
		}
		name, year = line.Name, line.Year

		switch mode {
		case core.DeleteSingle:
			return q.DeleteLine(ctx, household, id)
		case core.DeleteFuture:
			_, err := q.DeleteLinesByName(ctx, household, line.Year, line.Name, line.Month)
			return err
		default: // core.DeleteAll
			_, err := q.DeleteLinesByName(ctx, household, line.Year, line.Name, 1)
			return err
		}
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget line deleted",
		"household", household, "id", id, "mode", string(mode), "name", name)
	p.publish(ctx, household, year, name, "delete")
	return nil
}

func (p *Propagator) publish(ctx context.Context, household string, year int, name, op string) {
	if p.events == nil {
		return
	}
	if err := p.events.PublishBudgetChanged(ctx, household, year, name, op); err != nil {
		// Events are best effort; the mutation already committed.
		slog.WarnContext(ctx, "Failed to publish budget event",
			"op", op, "name", name, "error", err)
	}
}
