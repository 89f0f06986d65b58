// Package service implements the application operations on top of the
// storage layer: recording and voiding expenses, computing balances,
// settlements, groups and authentication.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/splitbook/splitbook/internal/events"
	"github.com/splitbook/splitbook/internal/ledger"
	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/storage"
)

// LedgerService records expenses, derives debt entries and serves balance
// views for a group.
type LedgerService struct {
	store     storage.Store
	publisher events.Publisher
}

// NewLedgerService creates a LedgerService. publisher may be a NopPublisher.
func NewLedgerService(store storage.Store, publisher events.Publisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

// RecordExpense validates the request, computes shares and persists the
// expense with one debt entry per non-payer participant, atomically. The
// payer's own share is forgiven. All validation happens before any write.
func (s *LedgerService) RecordExpense(
	ctx context.Context,
	userID, groupID, description string,
	total models.Money,
	payerID string,
	participants []string,
	policy ledger.Policy,
	customShares []ledger.Share,
) (*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotAMember)
	}
	if !group.HasMember(payerID) {
		return nil, fmt.Errorf("payer %s: %w", payerID, models.ErrNotAMember)
	}
	for _, p := range participants {
		if !group.HasMember(p) {
			return nil, fmt.Errorf("participant %s: %w", p, models.ErrNotAMember)
		}
	}

	shares, err := ledger.Split(total, participants, policy, customShares)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	expense := &models.Expense{
		GroupID:      groupID,
		Description:  description,
		Amount:       total,
		PayerID:      payerID,
		Participants: participants,
		SplitPolicy:  string(policy),
		CreatedAt:    now,
	}

	var entries []*models.DebtEntry
	for _, share := range shares {
		if share.MemberID == payerID || share.Amount.IsZero() {
			continue
		}
		entries = append(entries, &models.DebtEntry{
			GroupID:    groupID,
			DebtorID:   share.MemberID,
			CreditorID: payerID,
			Amount:     share.Amount,
			CreatedAt:  now,
		})
	}

	if err := s.store.RecordExpense(ctx, expense, entries); err != nil {
		slog.Error("RecordExpense failed", "group_id", groupID, "error", err)
		return nil, err
	}
	slog.Info("Expense recorded",
		"expense_id", expense.ID,
		"group_id", groupID,
		"amount", total.String(),
		"entries", len(entries),
	)

	if err := s.publisher.ExpenseRecorded(ctx, expense); err != nil {
		slog.Warn("Failed to publish expense event", "expense_id", expense.ID, "error", err)
	}
	return expense, nil
}

// VoidExpense cancels an expense. The caller must be a member of the
// expense's group. Unsettled entries are voided; settled ones are reversed
// with offsetting entries. Voiding twice is a no-op.
func (s *LedgerService) VoidExpense(ctx context.Context, userID, expenseID string) error {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	group, err := s.store.GetGroup(ctx, expense.GroupID)
	if err != nil {
		return err
	}
	if !group.HasMember(userID) {
		return fmt.Errorf("user %s: %w", userID, models.ErrNotAMember)
	}

	if err := s.store.VoidExpense(ctx, expenseID, time.Now().Unix()); err != nil {
		slog.Error("VoidExpense failed", "expense_id", expenseID, "error", err)
		return err
	}
	slog.Info("Expense voided", "expense_id", expenseID, "group_id", expense.GroupID)
	return nil
}

// GetExpense retrieves an expense; the caller must be a group member.
func (s *LedgerService) GetExpense(ctx context.Context, userID, expenseID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, userID, expense.GroupID); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses retrieves a group's expenses; the caller must be a member.
func (s *LedgerService) ListExpenses(ctx context.Context, userID, groupID string) ([]*models.Expense, error) {
	if err := s.requireMember(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.store.ListExpensesByGroup(ctx, groupID)
}

// ListUnsettledEntries returns the group's open debt entries so a client can
// render them and settle an individual one. The caller must be a member.
func (s *LedgerService) ListUnsettledEntries(ctx context.Context, userID, groupID string) ([]*models.DebtEntry, error) {
	if err := s.requireMember(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.store.ListUnsettledEntries(ctx, groupID)
}

// NetBalances folds the group's unsettled entries into net pairwise
// balances. A group with no entries yields an empty result.
func (s *LedgerService) NetBalances(ctx context.Context, userID, groupID string) ([]ledger.NetBalance, error) {
	if err := s.requireMember(ctx, userID, groupID); err != nil {
		return nil, err
	}
	entries, err := s.store.ListUnsettledEntries(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return ledger.NetBalances(entries)
}

// SettleUpSuggestions returns the minimal transfers that would clear the
// group's net positions. Advisory only; nothing is written.
func (s *LedgerService) SettleUpSuggestions(ctx context.Context, userID, groupID string) ([]ledger.Transfer, error) {
	if err := s.requireMember(ctx, userID, groupID); err != nil {
		return nil, err
	}
	entries, err := s.store.ListUnsettledEntries(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return ledger.SimplifyDebts(entries)
}

func (s *LedgerService) requireMember(ctx context.Context, userID, groupID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.HasMember(userID) {
		return fmt.Errorf("user %s: %w", userID, models.ErrNotAMember)
	}
	return nil
}
