// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/splitbook/splitbook/internal/models"
)

// Store defines the persistence operations for the ledger and its supporting
// entities. The abstraction allows swapping storage backends (SQLite,
// PostgreSQL) without changing the service layer.
//
// Contract notes:
//   - RecordExpense persists an expense and its debt entries atomically; a
//     partial write must never be observable by a reader.
//   - MarkSettled is conditional: of two concurrent callers, exactly one
//     succeeds and the other gets models.ErrAlreadySettled.
//   - Collaborator failures are wrapped with models.ErrStorageUnavailable and
//     surfaced as-is; retry policy belongs to the caller.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns (nil, nil) when no account exists for the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// UpdateUser rewrites the user's mutable profile fields and UpdatedAt.
	UpdateUser(ctx context.Context, user *models.User) error

	// Groups. CreateGroup assigns the ID and records the creator as the
	// first member in the same transaction.
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)

	// Invitations. AcceptInvitation flips the status and appends the member
	// in one transaction; membership stays a set (duplicates rejected).
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitation(ctx context.Context, invitationID string) (*models.Invitation, error)
	ListInvitationsByEmail(ctx context.Context, email string) ([]*models.Invitation, error)
	AcceptInvitation(ctx context.Context, invitationID, userID string) error
	RejectInvitation(ctx context.Context, invitationID string) error

	// Ledger entries.
	RecordExpense(ctx context.Context, expense *models.Expense, entries []*models.DebtEntry) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
	// VoidExpense stamps the expense, voids its unsettled entries and
	// inserts reversal entries for the settled ones, all in one transaction.
	VoidExpense(ctx context.Context, expenseID string, voidedAt int64) error

	GetDebtEntry(ctx context.Context, entryID string) (*models.DebtEntry, error)
	ListUnsettledEntries(ctx context.Context, groupID string) ([]*models.DebtEntry, error)
	ListUnsettledEntriesBetween(ctx context.Context, groupID, memberA, memberB string) ([]*models.DebtEntry, error)
	MarkSettled(ctx context.Context, entryID string, settledAt int64) error

	// Close releases any resources held by the store.
	Close() error
}
