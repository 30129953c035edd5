package events

import (
	"encoding/json"
	"time"
)

// Routing keys on the direct exchange.
const (
	KeyBudgetChanged        = "budget.changed"
	KeyTransactionsImported = "transactions.imported"
)

// BudgetChangedMessage announces a recurrence mutation so downstream
// consumers can refresh their views. It carries identifiers only; consumers
// fetch current state themselves.
type BudgetChangedMessage struct {
	Household string    `json:"household"`
	Year      int       `json:"year"`
	Name      string    `json:"name"`
	Op        string    `json:"op"` // create, rename, retarget, delete
	Timestamp time.Time `json:"timestamp"`
}

// TransactionsImportedMessage announces a committed import batch.
type TransactionsImportedMessage struct {
	Household string    `json:"household"`
	BatchID   string    `json:"batch_id"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func (m BudgetChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m TransactionsImportedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
