package core

import (
	"strings"
	"time"
)

const (
	// DeleteSingle removes only the targeted month instance.
	DeleteSingle DeleteMode = "SINGLE"
	// DeleteFuture removes the targeted month and every later month with the same name.
	DeleteFuture DeleteMode = "FUTURE"
	// DeleteAll removes every month instance with the same name in the year.
	DeleteAll DeleteMode = "ALL"
)

// MaxNameLen is the upper bound for budget line names.
const MaxNameLen = 20

type (
	DeleteMode string

	Money struct {
		Cents int64
	}

	// Category is a top-level budget grouping owned by a household.
	Category struct {
		ID        int64
		Household string
		Name      string
		Color     string
		IsIncome  bool
		IsSavings bool
		IsFixed   bool
	}

	// BudgetLine is one month's instance of a named budget item. Instances
	// sharing a name across months of the same year are the same recurring item.
	BudgetLine struct {
		ID         int64
		Household  string
		CategoryID int64
		Name       string
		Amount     Money
		Month      int // 1-12
		Year       int
	}

	// Transaction is a single monetary movement. Amount sign is preserved
	// verbatim from ingestion; consumers interpret it via the owning
	// category's IsIncome/IsSavings flags.
	Transaction struct {
		ID          int64
		Household   string
		LineID      int64 // 0 = uncategorized
		Description string
		Amount      Money
		Date        time.Time
		Source      string
	}

	// TransactionRule maps a case-insensitive substring pattern to a target
	// budget line for auto-categorization of imports. LineName is the target
	// line's name, filled on reads; the matcher pivots on it so a rule learned
	// in one year still resolves into another year's instances.
	TransactionRule struct {
		ID        int64
		Household string
		Pattern   string
		LineID    int64
		LineName  string
	}
)

func (m DeleteMode) Validate() error {
	switch m {
	case DeleteSingle, DeleteFuture, DeleteAll:
		return nil
	}
	return ErrInvalidDeleteMode
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 50 {
		return ErrNameTooLong
	}
	return nil
}

func (b BudgetLine) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if len(b.Name) > MaxNameLen {
		return ErrNameTooLong
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if b.CategoryID == 0 {
		return ErrUnknownCategory
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (r TransactionRule) Validate() error {
	if strings.TrimSpace(r.Pattern) == "" {
		return ErrEmptyPattern
	}
	if r.LineID == 0 {
		return ErrUnknownLine
	}
	return nil
}
