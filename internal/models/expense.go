package models

// Expense represents a payment made by one group member on behalf of several.
//
// Expenses are immutable once recorded. Corrections void the expense, which
// voids or reverses its debt entries; amounts are never edited in place.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is a short human-readable label (e.g. "Dinner").
	Description string

	// Amount is the total paid, always positive.
	Amount Money

	// PayerID is the member who paid. The payer's own share is forgiven:
	// no debt entry is recorded from the payer to themselves.
	PayerID string

	// Participants are the member IDs sharing the expense, in the order
	// they were supplied. Order decides who absorbs split remainders.
	Participants []string

	// SplitPolicy records how shares were computed ("equal" or "custom").
	SplitPolicy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// VoidedAt is the Unix timestamp when the expense was voided,
	// or 0 while it is in force.
	VoidedAt int64
}

// DebtEntry is a single directional debt between two group members, derived
// from one expense. One entry exists per non-payer participant.
type DebtEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string

	// ExpenseID is the owning expense.
	ExpenseID string

	// GroupID denormalizes the expense's group for per-group queries.
	GroupID string

	// DebtorID owes the amount. Never equal to CreditorID.
	DebtorID string

	// CreditorID is owed the amount.
	CreditorID string

	// Amount is the debtor's share, always positive.
	Amount Money

	// Settled marks the debt as resolved out-of-band. This is the only
	// mutable field on an entry.
	Settled bool

	// SettledAt is the Unix timestamp of settlement, 0 until settled.
	SettledAt int64

	// Void marks entries cancelled by voiding their expense. Void entries
	// are excluded from balance aggregation.
	Void bool

	// CreatedAt is the Unix timestamp when the entry was recorded.
	CreatedAt int64
}
