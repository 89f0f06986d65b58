package service

import (
	"context"
	"errors"
	"testing"

	"github.com/splitbook/splitbook/internal/models"
)

func TestSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("debtor settles an entry", func(t *testing.T) {
		f := setup(t)
		f.record(t, 2000, f.alice, f.alice, f.bob)

		entries, err := f.store.ListUnsettledEntries(ctx, f.group.ID)
		if err != nil {
			t.Fatalf("ListUnsettledEntries failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("got %d entries, want 1", len(entries))
		}

		res, err := f.settlement.Settle(ctx, f.bob.ID, entries[0].ID)
		if err != nil {
			t.Fatalf("Settle failed: %v", err)
		}
		if res.AlreadySettled {
			t.Error("first settle reported AlreadySettled")
		}
		if !res.Entry.Settled || res.Entry.SettledAt == 0 {
			t.Errorf("entry = settled %v at %d, want settled with timestamp", res.Entry.Settled, res.Entry.SettledAt)
		}

		balances, err := f.ledger.NetBalances(ctx, f.alice.ID, f.group.ID)
		if err != nil {
			t.Fatalf("NetBalances failed: %v", err)
		}
		if len(balances) != 0 {
			t.Errorf("got %d balances after settle, want 0", len(balances))
		}
	})

	t.Run("second settle reports AlreadySettled without error", func(t *testing.T) {
		f := setup(t)
		f.record(t, 2000, f.alice, f.alice, f.bob)

		entries, _ := f.store.ListUnsettledEntries(ctx, f.group.ID)
		first, err := f.settlement.Settle(ctx, f.bob.ID, entries[0].ID)
		if err != nil {
			t.Fatalf("First settle failed: %v", err)
		}

		second, err := f.settlement.Settle(ctx, f.alice.ID, entries[0].ID)
		if err != nil {
			t.Fatalf("Second settle failed: %v", err)
		}
		if !second.AlreadySettled {
			t.Error("second settle did not report AlreadySettled")
		}
		if second.Entry.SettledAt != first.Entry.SettledAt {
			t.Errorf("SettledAt changed: %d then %d", first.Entry.SettledAt, second.Entry.SettledAt)
		}
	})

	t.Run("third party cannot settle", func(t *testing.T) {
		f := setup(t)
		f.record(t, 2000, f.alice, f.alice, f.bob)

		entries, _ := f.store.ListUnsettledEntries(ctx, f.group.ID)
		_, err := f.settlement.Settle(ctx, f.carol.ID, entries[0].ID)
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Errorf("error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("missing entry returns ErrNotFound", func(t *testing.T) {
		f := setup(t)
		_, err := f.settlement.Settle(ctx, f.alice.ID, "missing")
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestSettleBetween(t *testing.T) {
	ctx := context.Background()

	t.Run("settles every open entry in both directions", func(t *testing.T) {
		f := setup(t)
		f.record(t, 2000, f.alice, f.alice, f.bob)
		f.record(t, 1000, f.bob, f.alice, f.bob)
		f.record(t, 3000, f.alice, f.alice, f.carol) // carol's debt stays open

		results, err := f.settlement.SettleBetween(ctx, f.alice.ID, f.group.ID, f.bob.ID)
		if err != nil {
			t.Fatalf("SettleBetween failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}
		for _, res := range results {
			if !res.Entry.Settled {
				t.Errorf("entry %s not settled", res.Entry.ID)
			}
		}

		open, err := f.store.ListUnsettledEntries(ctx, f.group.ID)
		if err != nil {
			t.Fatalf("ListUnsettledEntries failed: %v", err)
		}
		if len(open) != 1 {
			t.Fatalf("got %d open entries, want carol's only", len(open))
		}
		if open[0].DebtorID != f.carol.ID {
			t.Errorf("remaining debtor = %s, want %s", open[0].DebtorID, f.carol.ID)
		}
	})

	t.Run("caller must be a party", func(t *testing.T) {
		f := setup(t)
		_, err := f.settlement.SettleBetween(ctx, f.carol.ID, f.group.ID, f.carol.ID)
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Errorf("error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("non-member counterparty is rejected", func(t *testing.T) {
		f := setup(t)
		outsider := models.NewUser("dave@example.com", "Dave", "hash")
		if err := f.store.CreateUser(ctx, outsider); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		_, err := f.settlement.SettleBetween(ctx, f.alice.ID, f.group.ID, outsider.ID)
		if !errors.Is(err, models.ErrNotAMember) {
			t.Errorf("error = %v, want ErrNotAMember", err)
		}
	})
}
