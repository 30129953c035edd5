package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// TemplateCategory is the backup wire shape: one category with its recurring
// line names and amounts, deduplicated across months. Amounts travel as
// currency units so exported files stay hand-editable.
type TemplateCategory struct {
	Name          string             `json:"name"`
	Color         string             `json:"color,omitempty"`
	IsIncome      bool               `json:"isIncome,omitempty"`
	IsSavings     bool               `json:"isSavings,omitempty"`
	IsFixed       bool               `json:"isFixed,omitempty"`
	Subcategories []TemplateLineItem `json:"subcategories"`
}

type TemplateLineItem struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Backup exports and restores a household's budget template. Transactions
// and per-month amount overrides are intentionally not part of the format.
type Backup struct {
	repo *storage.Repository
}

func NewBackup(repo *storage.Repository) *Backup {
	return &Backup{repo: repo}
}

// Export collects the year's budget template. Each recurring name appears
// once; when months disagree on the amount, the latest month wins.
func (b *Backup) Export(ctx context.Context, household string, year int) ([]TemplateCategory, error) {
	q := b.repo.Queries()
	categories, err := q.ListCategories(ctx, household)
	if err != nil {
		return nil, err
	}
	lines, err := q.ListLines(ctx, household, year)
	if err != nil {
		return nil, err
	}

	type latest struct {
		month int
		cents int64
	}
	byCategory := make(map[int64]map[string]latest)
	for _, l := range lines {
		items, ok := byCategory[l.CategoryID]
		if !ok {
			items = make(map[string]latest)
			byCategory[l.CategoryID] = items
		}
		if cur, ok := items[l.Name]; !ok || l.Month > cur.month {
			items[l.Name] = latest{month: l.Month, cents: l.Amount.Cents}
		}
	}

	out := make([]TemplateCategory, 0, len(categories))
	for _, c := range categories {
		tc := TemplateCategory{
			Name:      c.Name,
			Color:     c.Color,
			IsIncome:  c.IsIncome,
			IsSavings: c.IsSavings,
			IsFixed:   c.IsFixed,
		}
		items := byCategory[c.ID]
		tc.Subcategories = make([]TemplateLineItem, 0, len(items))
		for name, it := range items {
			tc.Subcategories = append(tc.Subcategories, TemplateLineItem{
				Name:   name,
				Amount: float64(it.cents) / 100,
			})
		}
		sort.Slice(tc.Subcategories, func(i, j int) bool {
			return tc.Subcategories[i].Name < tc.Subcategories[j].Name
		})
		out = append(out, tc)
	}

	slog.InfoContext(ctx, "Budget template exported",
		"household", household, "year", year, "categories", len(out))
	return out, nil
}

// ExportJSON is Export serialized for the CLI and the HTTP handler.
func (b *Backup) ExportJSON(ctx context.Context, household string, year int) ([]byte, error) {
	template, err := b.Export(ctx, household, year)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(template, "", "  ")
}

// Restore seeds the target year from a template in a single transaction.
// Categories are matched by name and created when missing; every line is
// upserted for all twelve months, so an existing year converges on the
// template instead of accumulating duplicates.
func (b *Backup) Restore(ctx context.Context, household string, year int, template []TemplateCategory) error {
	restored := 0
	err := b.repo.WithTx(ctx, func(q *storage.Queries) error {
		for _, tc := range template {
			cat := core.Category{
				Household: household,
				Name:      tc.Name,
				Color:     tc.Color,
				IsIncome:  tc.IsIncome,
				IsSavings: tc.IsSavings,
				IsFixed:   tc.IsFixed,
			}
			if err := cat.Validate(); err != nil {
				return err
			}
			existing, err := q.GetCategoryByName(ctx, household, tc.Name)
			switch {
			case err == nil:
				cat = existing
			case errors.Is(err, core.ErrCategoryNotFound):
				cat, err = q.CreateCategory(ctx, cat)
				if err != nil {
					return err
				}
			default:
				return err
			}

			for _, item := range tc.Subcategories {
				cents := int64(item.Amount*100 + 0.5)
				for month := 1; month <= 12; month++ {
					line := core.BudgetLine{
						Household:  household,
						CategoryID: cat.ID,
						Name:       item.Name,
						Amount:     core.Money{Cents: cents},
						Month:      month,
						Year:       year,
					}
					if err := line.Validate(); err != nil {
						return err
					}
					if err := q.UpsertLine(ctx, line); err != nil {
						return err
					}
				}
				restored++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Budget template restored",
		"household", household, "year", year, "lines", restored)
	return nil
}

// RestoreJSON decodes a template document and restores it.
func (b *Backup) RestoreJSON(ctx context.Context, household string, year int, data []byte) error {
	var template []TemplateCategory
	if err := json.Unmarshal(data, &template); err != nil {
		return fmt.Errorf("%w: malformed template: %v", core.ErrValidation, err)
	}
	return b.Restore(ctx, household, year, template)
}
