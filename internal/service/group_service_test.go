package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/storage/sqlite"
)

func TestGroupService(t *testing.T) {
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := NewGroupService(store)

	alice := models.NewUser("alice@example.com", "Alice", "hash")
	bob := models.NewUser("bob@example.com", "Bob", "hash")
	for _, u := range []*models.User{alice, bob} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	t.Run("CreateGroup requires a name", func(t *testing.T) {
		_, err := svc.CreateGroup(ctx, alice.ID, "   ")
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	group, err := svc.CreateGroup(ctx, alice.ID, "Roommates")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	t.Run("creator is the first member", func(t *testing.T) {
		got, err := svc.GetGroup(ctx, alice.ID, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(got.Members) != 1 || got.Members[0] != alice.ID {
			t.Errorf("Members = %v, want [%s]", got.Members, alice.ID)
		}
	})

	t.Run("non-member cannot read the group", func(t *testing.T) {
		_, err := svc.GetGroup(ctx, bob.ID, group.ID)
		if !errors.Is(err, models.ErrNotAMember) {
			t.Errorf("error = %v, want ErrNotAMember", err)
		}
	})

	t.Run("non-member cannot invite", func(t *testing.T) {
		_, err := svc.Invite(ctx, bob.ID, group.ID, "someone@example.com")
		if !errors.Is(err, models.ErrNotAMember) {
			t.Errorf("error = %v, want ErrNotAMember", err)
		}
	})

	inv, err := svc.Invite(ctx, alice.ID, group.ID, "BOB@example.com")
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	t.Run("invitation email is normalized", func(t *testing.T) {
		if inv.InviteeEmail != "bob@example.com" {
			t.Errorf("InviteeEmail = %s, want bob@example.com", inv.InviteeEmail)
		}
	})

	t.Run("only the invitee can respond", func(t *testing.T) {
		_, err := svc.Respond(ctx, alice.ID, alice.Email, inv.ID, true)
		if !errors.Is(err, models.ErrUnauthorized) {
			t.Errorf("error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("accepting adds the member", func(t *testing.T) {
		got, err := svc.Respond(ctx, bob.ID, bob.Email, inv.ID, true)
		if err != nil {
			t.Fatalf("Respond failed: %v", err)
		}
		if got.Status != models.InvitationAccepted {
			t.Errorf("Status = %s, want accepted", got.Status)
		}

		fresh, err := svc.GetGroup(ctx, bob.ID, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if !fresh.HasMember(bob.ID) {
			t.Errorf("Expected %s in members %v", bob.ID, fresh.Members)
		}
	})

	t.Run("responding twice fails", func(t *testing.T) {
		_, err := svc.Respond(ctx, bob.ID, bob.Email, inv.ID, true)
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("inviting an existing member fails", func(t *testing.T) {
		_, err := svc.Invite(ctx, alice.ID, group.ID, bob.Email)
		if !errors.Is(err, models.ErrDuplicateParticipant) {
			t.Errorf("error = %v, want ErrDuplicateParticipant", err)
		}
	})

	t.Run("rejecting never adds the member", func(t *testing.T) {
		carol := models.NewUser("carol@example.com", "Carol", "hash")
		if err := store.CreateUser(ctx, carol); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		inv, err := svc.Invite(ctx, alice.ID, group.ID, carol.Email)
		if err != nil {
			t.Fatalf("Invite failed: %v", err)
		}
		got, err := svc.Respond(ctx, carol.ID, carol.Email, inv.ID, false)
		if err != nil {
			t.Fatalf("Respond failed: %v", err)
		}
		if got.Status != models.InvitationRejected {
			t.Errorf("Status = %s, want rejected", got.Status)
		}

		fresh, err := svc.GetGroup(ctx, alice.ID, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if fresh.HasMember(carol.ID) {
			t.Errorf("Rejected invitee %s should not be a member", carol.ID)
		}
	})

	t.Run("ListGroups returns memberships", func(t *testing.T) {
		groups, err := svc.ListGroups(ctx, bob.ID)
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(groups) != 1 || groups[0].ID != group.ID {
			t.Errorf("ListGroups = %v, want the one group", groups)
		}
	})
}
