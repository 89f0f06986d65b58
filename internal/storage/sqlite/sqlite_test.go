package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/splitbook/splitbook/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, store *SQLiteStore, email, name string) *models.User {
	t.Helper()
	user := models.NewUser(email, name, "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return user
}

func createGroup(t *testing.T, store *SQLiteStore, creator *models.User, members ...*models.User) *models.Group {
	t.Helper()
	group := &models.Group{Name: "Trip", CreatedBy: creator.ID}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	for _, m := range members {
		inv := &models.Invitation{
			GroupID:      group.ID,
			InviterID:    creator.ID,
			InviteeEmail: m.Email,
			Status:       models.InvitationPending,
		}
		if err := store.CreateInvitation(context.Background(), inv); err != nil {
			t.Fatalf("CreateInvitation failed: %v", err)
		}
		if err := store.AcceptInvitation(context.Background(), inv.ID, m.ID); err != nil {
			t.Fatalf("AcceptInvitation failed: %v", err)
		}
	}
	fresh, err := store.GetGroup(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	return fresh
}

func TestSQLiteStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateUser and GetUserByEmail", func(t *testing.T) {
		user := createUser(t, store, "alice@example.com", "Alice")

		got, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got == nil || got.ID != user.ID {
			t.Errorf("GetUserByEmail = %+v, want ID %s", got, user.ID)
		}
	})

	t.Run("UpdateUser rewrites display name and UpdatedAt", func(t *testing.T) {
		user := createUser(t, store, "update@example.com", "Before")
		user.DisplayName = "After"
		user.UpdatedAt = user.UpdatedAt + 100

		if err := store.UpdateUser(ctx, user); err != nil {
			t.Fatalf("UpdateUser failed: %v", err)
		}

		got, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if got.DisplayName != "After" || got.UpdatedAt != user.UpdatedAt {
			t.Errorf("got name %q updated %d, want %q updated %d",
				got.DisplayName, got.UpdatedAt, "After", user.UpdatedAt)
		}
	})

	t.Run("UpdateUser on missing user returns ErrNotFound", func(t *testing.T) {
		ghost := models.NewUser("ghost@example.com", "Ghost", "hash")
		err := store.UpdateUser(ctx, ghost)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("UpdateUser error = %v, want ErrNotFound", err)
		}
	})

	t.Run("GetUserByEmail returns nil for unknown email", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil user, got %+v", got)
		}
	})
}

func TestSQLiteStore_Groups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.com", "Alice")
	bob := createUser(t, store, "bob@example.com", "Bob")

	t.Run("CreateGroup records creator as first member", func(t *testing.T) {
		group := createGroup(t, store, alice)
		if len(group.Members) != 1 || group.Members[0] != alice.ID {
			t.Errorf("Members = %v, want [%s]", group.Members, alice.ID)
		}
	})

	t.Run("AcceptInvitation appends member and flips status", func(t *testing.T) {
		group := createGroup(t, store, alice, bob)
		if !group.HasMember(bob.ID) {
			t.Errorf("Expected %s in members %v", bob.ID, group.Members)
		}

		invitations, err := store.ListInvitationsByEmail(ctx, bob.Email)
		if err != nil {
			t.Fatalf("ListInvitationsByEmail failed: %v", err)
		}
		for _, inv := range invitations {
			if inv.GroupID == group.ID && inv.Status != models.InvitationAccepted {
				t.Errorf("Invitation status = %s, want accepted", inv.Status)
			}
		}
	})

	t.Run("AcceptInvitation twice fails", func(t *testing.T) {
		group := &models.Group{Name: "Dinner", CreatedBy: alice.ID}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		inv := &models.Invitation{
			GroupID:      group.ID,
			InviterID:    alice.ID,
			InviteeEmail: bob.Email,
			Status:       models.InvitationPending,
		}
		if err := store.CreateInvitation(ctx, inv); err != nil {
			t.Fatalf("CreateInvitation failed: %v", err)
		}
		if err := store.AcceptInvitation(ctx, inv.ID, bob.ID); err != nil {
			t.Fatalf("First accept failed: %v", err)
		}
		if err := store.AcceptInvitation(ctx, inv.ID, bob.ID); err == nil {
			t.Error("Expected error accepting an already accepted invitation")
		}
	})

	t.Run("ListGroupsByMember", func(t *testing.T) {
		groups, err := store.ListGroupsByMember(ctx, bob.ID)
		if err != nil {
			t.Fatalf("ListGroupsByMember failed: %v", err)
		}
		if len(groups) == 0 {
			t.Error("Expected at least one group for bob")
		}
	})
}

func TestSQLiteStore_Expenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.com", "Alice")
	bob := createUser(t, store, "bob@example.com", "Bob")
	carol := createUser(t, store, "carol@example.com", "Carol")
	group := createGroup(t, store, alice, bob, carol)

	recordExpense := func(t *testing.T, payer *models.User, debtors ...*models.User) *models.Expense {
		t.Helper()
		participants := []string{payer.ID}
		var entries []*models.DebtEntry
		for _, d := range debtors {
			participants = append(participants, d.ID)
			entries = append(entries, &models.DebtEntry{
				GroupID:    group.ID,
				DebtorID:   d.ID,
				CreditorID: payer.ID,
				Amount:     models.NewMoney(1000, "USD"),
			})
		}
		expense := &models.Expense{
			GroupID:      group.ID,
			Description:  "Dinner",
			Amount:       models.NewMoney(int64(1000*(len(debtors)+1)), "USD"),
			PayerID:      payer.ID,
			Participants: participants,
			SplitPolicy:  "equal",
		}
		if err := store.RecordExpense(ctx, expense, entries); err != nil {
			t.Fatalf("RecordExpense failed: %v", err)
		}
		return expense
	}

	t.Run("RecordExpense assigns IDs and preserves participant order", func(t *testing.T) {
		expense := recordExpense(t, alice, bob, carol)
		if expense.ID == "" {
			t.Error("Expected expense ID to be generated")
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		want := []string{alice.ID, bob.ID, carol.ID}
		if len(got.Participants) != len(want) {
			t.Fatalf("Participants = %v, want %v", got.Participants, want)
		}
		for i := range want {
			if got.Participants[i] != want[i] {
				t.Errorf("Participants[%d] = %s, want %s", i, got.Participants[i], want[i])
			}
		}
	})

	t.Run("MarkSettled is a one-shot flip", func(t *testing.T) {
		recordExpense(t, alice, bob)
		entries, err := store.ListUnsettledEntriesBetween(ctx, group.ID, alice.ID, bob.ID)
		if err != nil {
			t.Fatalf("ListUnsettledEntriesBetween failed: %v", err)
		}
		if len(entries) == 0 {
			t.Fatal("Expected at least one unsettled entry")
		}
		entry := entries[0]

		if err := store.MarkSettled(ctx, entry.ID, 1234); err != nil {
			t.Fatalf("First MarkSettled failed: %v", err)
		}
		err = store.MarkSettled(ctx, entry.ID, 5678)
		if !errors.Is(err, models.ErrAlreadySettled) {
			t.Errorf("Second MarkSettled error = %v, want ErrAlreadySettled", err)
		}

		got, err := store.GetDebtEntry(ctx, entry.ID)
		if err != nil {
			t.Fatalf("GetDebtEntry failed: %v", err)
		}
		if !got.Settled || got.SettledAt != 1234 {
			t.Errorf("Entry = settled %v at %d, want settled at 1234", got.Settled, got.SettledAt)
		}
	})

	t.Run("concurrent MarkSettled has exactly one winner", func(t *testing.T) {
		recordExpense(t, alice, carol)
		entries, err := store.ListUnsettledEntriesBetween(ctx, group.ID, alice.ID, carol.ID)
		if err != nil {
			t.Fatalf("ListUnsettledEntriesBetween failed: %v", err)
		}
		if len(entries) == 0 {
			t.Fatal("Expected at least one unsettled entry")
		}
		entry := entries[0]

		errs := make(chan error, 2)
		for i := 0; i < 2; i++ {
			go func() { errs <- store.MarkSettled(ctx, entry.ID, 4242) }()
		}

		var wins, already int
		for i := 0; i < 2; i++ {
			switch err := <-errs; {
			case err == nil:
				wins++
			case errors.Is(err, models.ErrAlreadySettled):
				already++
			default:
				t.Fatalf("MarkSettled returned unexpected error: %v", err)
			}
		}
		if wins != 1 || already != 1 {
			t.Errorf("got %d successes and %d ErrAlreadySettled, want exactly one of each", wins, already)
		}
	})

	t.Run("MarkSettled on missing entry returns ErrNotFound", func(t *testing.T) {
		err := store.MarkSettled(ctx, "missing", 1)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("MarkSettled error = %v, want ErrNotFound", err)
		}
	})

	t.Run("VoidExpense voids unsettled entries", func(t *testing.T) {
		expense := recordExpense(t, alice, bob)
		if err := store.VoidExpense(ctx, expense.ID, 99); err != nil {
			t.Fatalf("VoidExpense failed: %v", err)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.VoidedAt != 99 {
			t.Errorf("VoidedAt = %d, want 99", got.VoidedAt)
		}

		entries, err := store.ListUnsettledEntries(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListUnsettledEntries failed: %v", err)
		}
		for _, e := range entries {
			if e.ExpenseID == expense.ID {
				t.Errorf("Entry %s of voided expense still listed as unsettled", e.ID)
			}
		}
	})

	t.Run("VoidExpense reverses settled entries", func(t *testing.T) {
		expense := recordExpense(t, alice, bob)
		entries, err := store.ListUnsettledEntriesBetween(ctx, group.ID, alice.ID, bob.ID)
		if err != nil {
			t.Fatalf("ListUnsettledEntriesBetween failed: %v", err)
		}
		var settled *models.DebtEntry
		for _, e := range entries {
			if e.ExpenseID == expense.ID {
				settled = e
				break
			}
		}
		if settled == nil {
			t.Fatal("Expected an entry for the expense")
		}
		if err := store.MarkSettled(ctx, settled.ID, 100); err != nil {
			t.Fatalf("MarkSettled failed: %v", err)
		}

		if err := store.VoidExpense(ctx, expense.ID, 200); err != nil {
			t.Fatalf("VoidExpense failed: %v", err)
		}

		// The reversal must swap debtor and creditor at the same amount.
		open, err := store.ListUnsettledEntriesBetween(ctx, group.ID, alice.ID, bob.ID)
		if err != nil {
			t.Fatalf("ListUnsettledEntriesBetween failed: %v", err)
		}
		found := false
		for _, e := range open {
			if e.ExpenseID == expense.ID &&
				e.DebtorID == settled.CreditorID &&
				e.CreditorID == settled.DebtorID &&
				e.Amount.Amount == settled.Amount.Amount {
				found = true
			}
		}
		if !found {
			t.Error("Expected a reversal entry with swapped debtor and creditor")
		}
	})

	t.Run("VoidExpense twice is a no-op", func(t *testing.T) {
		expense := recordExpense(t, alice, bob)
		if err := store.VoidExpense(ctx, expense.ID, 10); err != nil {
			t.Fatalf("First VoidExpense failed: %v", err)
		}
		if err := store.VoidExpense(ctx, expense.ID, 20); err != nil {
			t.Fatalf("Second VoidExpense failed: %v", err)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.VoidedAt != 10 {
			t.Errorf("VoidedAt = %d, want original stamp 10", got.VoidedAt)
		}
	})

	t.Run("VoidExpense on missing expense returns ErrNotFound", func(t *testing.T) {
		err := store.VoidExpense(ctx, "missing", 1)
		if !errors.Is(err, models.ErrNotFound) {
			t.Errorf("VoidExpense error = %v, want ErrNotFound", err)
		}
	})
}
