package statement

import (
	"errors"
	"testing"

	"bilancio/internal/core"
)

func TestDecodeCandidates(t *testing.T) {
	data := []byte(`[
		{"date": "2026-04-10", "description": "STARBUCKS #4521", "amount": 6.75},
		{"Date": "2026-04-11", "desc": "REFUND ACME", "value": -12.5},
		{"transaction_date": "2026-04-12", "memo": "PAYROLL", "amount_cents": 300000}
	]`)
	got, err := DecodeCandidates(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	if got[0].AmountCents != 675 || got[0].Description != "STARBUCKS #4521" {
		t.Fatalf("candidate 0 wrong: %+v", got[0])
	}
	if got[1].AmountCents != -1250 {
		t.Fatalf("candidate 1 amount: expected -1250, got %d", got[1].AmountCents)
	}
	if got[2].AmountCents != 300000 || got[2].Date.Month() != 4 || got[2].Date.Day() != 12 {
		t.Fatalf("candidate 2 wrong: %+v", got[2])
	}
}

func TestDecodeCandidatesRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing date", `[{"description": "X", "amount": 1}]`},
		{"bad date", `[{"date": "10/04/2026", "description": "X", "amount": 1}]`},
		{"missing description", `[{"date": "2026-04-10", "amount": 1}]`},
		{"missing amount", `[{"date": "2026-04-10", "description": "X"}]`},
		{"not an array", `{"date": "2026-04-10"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeCandidates([]byte(tc.data))
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCleanModelJSON(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"[]", "[]"},
		{"```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"```\n[1,2]\n```", "[1,2]"},
		{"Here you go:\n[1,2]\nthanks", "[1,2]"},
		{"  [1] ", "[1]"},
	}
	for _, tc := range cases {
		if got := CleanModelJSON(tc.in); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
