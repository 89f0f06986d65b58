package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/splitbook/splitbook/internal/events"
	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/storage"
)

// SettlementService marks debt entries as settled. Settlement is a flag flip,
// never an amount edit, and flips exactly once per entry.
type SettlementService struct {
	store     storage.Store
	publisher events.Publisher
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(store storage.Store, publisher events.Publisher) *SettlementService {
	return &SettlementService{store: store, publisher: publisher}
}

// SettleResult reports the outcome for one entry in a settlement request.
type SettleResult struct {
	Entry *models.DebtEntry
	// AlreadySettled is true when the entry was settled before this call,
	// including by a concurrent caller. Not an error.
	AlreadySettled bool
}

// Settle marks a single debt entry settled. Only the entry's debtor or
// creditor may settle it. A concurrent duplicate loses the conditional
// update and is reported as AlreadySettled rather than failing.
func (s *SettlementService) Settle(ctx context.Context, userID, entryID string) (*SettleResult, error) {
	entry, err := s.store.GetDebtEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if userID != entry.DebtorID && userID != entry.CreditorID {
		return nil, fmt.Errorf("user %s is not a party to entry %s: %w", userID, entryID, models.ErrUnauthorized)
	}
	if entry.Settled {
		return &SettleResult{Entry: entry, AlreadySettled: true}, nil
	}

	settledAt := time.Now().Unix()
	err = s.store.MarkSettled(ctx, entryID, settledAt)
	if errors.Is(err, models.ErrAlreadySettled) {
		// Lost the race to another caller; re-read for the caller's view.
		entry, rerr := s.store.GetDebtEntry(ctx, entryID)
		if rerr != nil {
			return nil, rerr
		}
		return &SettleResult{Entry: entry, AlreadySettled: true}, nil
	}
	if err != nil {
		slog.Error("MarkSettled failed", "entry_id", entryID, "error", err)
		return nil, err
	}

	entry.Settled = true
	entry.SettledAt = settledAt
	slog.Info("Debt settled",
		"entry_id", entryID,
		"group_id", entry.GroupID,
		"debtor_id", entry.DebtorID,
		"creditor_id", entry.CreditorID,
		"amount", entry.Amount.String(),
	)

	if perr := s.publisher.DebtSettled(ctx, entry); perr != nil {
		slog.Warn("Failed to publish settlement event", "entry_id", entryID, "error", perr)
	}
	return &SettleResult{Entry: entry}, nil
}

// SettleBetween settles every open entry between two members of a group, in
// either direction. The caller must be one of the two members. Each entry is
// settled independently; entries that raced to settled are reported, not
// failed. Returns the per-entry results in creation order.
func (s *SettlementService) SettleBetween(ctx context.Context, userID, groupID, otherID string) ([]*SettleResult, error) {
	if userID == otherID {
		return nil, fmt.Errorf("cannot settle with self: %w", models.ErrUnauthorized)
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotAMember)
	}
	if !group.HasMember(otherID) {
		return nil, fmt.Errorf("user %s: %w", otherID, models.ErrNotAMember)
	}

	entries, err := s.store.ListUnsettledEntriesBetween(ctx, groupID, userID, otherID)
	if err != nil {
		return nil, err
	}

	results := make([]*SettleResult, 0, len(entries))
	for _, entry := range entries {
		res, err := s.Settle(ctx, userID, entry.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	slog.Info("Settled between members",
		"group_id", groupID,
		"user_id", userID,
		"other_id", otherID,
		"entries", len(results),
	)
	return results, nil
}
