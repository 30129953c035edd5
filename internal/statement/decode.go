package statement

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"bilancio/internal/core"
)

// Candidate is one raw transaction extracted from a statement, normalized to
// the canonical shape before anything touches the ledger.
type Candidate struct {
	Date        time.Time
	Description string
	AmountCents int64
}

// rawRecord tolerates the loose key aliases that statement exports and model
// output use. Exactly one alias per field may be set; the decoder normalizes
// or rejects.
type rawRecord struct {
	Date     string       `json:"date"`
	DateAlt  string       `json:"Date"`
	TxnDate  string       `json:"transaction_date"`
	Desc     string       `json:"description"`
	DescAlt  string       `json:"desc"`
	Memo     string       `json:"memo"`
	Narr     string       `json:"narrative"`
	Amount   *json.Number `json:"amount"`
	Value    *json.Number `json:"value"`
	RawCents *json.Number `json:"amount_cents"`
}

// DecodeCandidates parses a JSON array of loosely-keyed records into
// canonical candidates. Malformed records fail the whole batch with a
// validation error; imports never carry untyped data past this boundary.
func DecodeCandidates(data []byte) ([]Candidate, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()

	var raws []rawRecord
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("%w: statement records: %v", core.ErrValidation, err)
	}

	out := make([]Candidate, 0, len(raws))
	for i, r := range raws {
		c, err := r.normalize()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r rawRecord) normalize() (Candidate, error) {
	dateStr := firstNonEmpty(r.Date, r.DateAlt, r.TxnDate)
	if dateStr == "" {
		return Candidate{}, core.ErrInvalidDate
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w (%q)", core.ErrInvalidDate, dateStr)
	}

	desc := strings.TrimSpace(firstNonEmpty(r.Desc, r.DescAlt, r.Memo, r.Narr))
	if desc == "" {
		return Candidate{}, core.ErrEmptyDescription
	}

	cents, err := r.cents()
	if err != nil {
		return Candidate{}, err
	}

	return Candidate{Date: date, Description: desc, AmountCents: cents}, nil
}

func (r rawRecord) cents() (int64, error) {
	if r.RawCents != nil {
		v, err := r.RawCents.Int64()
		if err != nil {
			return 0, core.ErrInvalidAmount
		}
		return v, nil
	}
	num := r.Amount
	if num == nil {
		num = r.Value
	}
	if num == nil {
		return 0, core.ErrInvalidAmount
	}
	f, err := num.Float64()
	if err != nil {
		return 0, core.ErrInvalidAmount
	}
	return int64(math.Round(f * 100)), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
