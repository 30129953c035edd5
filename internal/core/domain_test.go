package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBudgetLineValidate(t *testing.T) {
	valid := BudgetLine{Name: "Rent", CategoryID: 1, Amount: Money{Cents: 150000}, Month: 3, Year: 2026}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid line rejected: %v", err)
	}

	cases := []struct {
		name string
		mut  func(*BudgetLine)
		want error
	}{
		{"empty name", func(b *BudgetLine) { b.Name = "  " }, ErrEmptyName},
		{"name too long", func(b *BudgetLine) { b.Name = strings.Repeat("x", MaxNameLen+1) }, ErrNameTooLong},
		{"month zero", func(b *BudgetLine) { b.Month = 0 }, ErrInvalidMonth},
		{"month thirteen", func(b *BudgetLine) { b.Month = 13 }, ErrInvalidMonth},
		{"negative target", func(b *BudgetLine) { b.Amount.Cents = -1 }, ErrInvalidAmount},
		{"no category", func(b *BudgetLine) { b.CategoryID = 0 }, ErrUnknownCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := valid
			tc.mut(&b)
			if err := b.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidationErrorsAreClassified(t *testing.T) {
	for _, err := range []error{ErrEmptyName, ErrNameTooLong, ErrInvalidMonth, ErrInvalidAmount, ErrInvalidDeleteMode} {
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%v should classify as validation", err)
		}
	}
	if !errors.Is(ErrNameTaken, ErrConflict) {
		t.Fatal("ErrNameTaken should classify as conflict")
	}
	if !errors.Is(ErrLineNotFound, ErrNotFound) {
		t.Fatal("ErrLineNotFound should classify as not found")
	}
}

func TestTransactionValidate(t *testing.T) {
	txn := Transaction{Description: "STARBUCKS #4521", Amount: Money{Cents: 675}, Date: time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)}
	if err := txn.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}
	txn.Date = time.Time{}
	if err := txn.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDeleteModeValidate(t *testing.T) {
	for _, m := range []DeleteMode{DeleteSingle, DeleteFuture, DeleteAll} {
		if err := m.Validate(); err != nil {
			t.Fatalf("%s rejected: %v", m, err)
		}
	}
	if err := DeleteMode("SOME").Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
