package events

import (
	"encoding/json"
	"time"
)

// Routing keys for ledger events.
const (
	KeyExpenseRecorded = "expense.recorded"
	KeyDebtSettled     = "debt.settled"
)

// ExpenseRecordedMessage announces a newly recorded expense. Consumers fetch
// the full expense from storage; the message carries only identifiers.
type ExpenseRecordedMessage struct {
	ExpenseID string    `json:"expense_id"`
	GroupID   string    `json:"group_id"`
	PayerID   string    `json:"payer_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
}

// DebtSettledMessage announces a debt entry marked settled.
type DebtSettledMessage struct {
	EntryID    string    `json:"entry_id"`
	GroupID    string    `json:"group_id"`
	DebtorID   string    `json:"debtor_id"`
	CreditorID string    `json:"creditor_id"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Timestamp  time.Time `json:"timestamp"`
}

func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func (m *DebtSettledMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }
