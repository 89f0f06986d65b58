package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/storage"
)

// GroupService manages groups and membership. Members join through
// invitations only; membership is append-only.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a GroupService.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group with the creator as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, userID, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("group name required: %w", models.ErrInvalidInput)
	}

	group := &models.Group{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedBy: userID,
		Members:   []string{userID},
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "name", name, "error", err)
		return nil, err
	}
	slog.Info("Group created", "group_id", group.ID, "name", name, "created_by", userID)
	return group, nil
}

// GetGroup retrieves a group; the caller must be a member.
func (s *GroupService) GetGroup(ctx context.Context, userID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotAMember)
	}
	return group, nil
}

// ListGroups returns the groups the user belongs to.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	return s.store.ListGroupsByMember(ctx, userID)
}

// Invite sends an invitation to join the group, addressed by email. The
// inviter must be a member. Inviting a current member fails.
func (s *GroupService) Invite(ctx context.Context, userID, groupID, inviteeEmail string) (*models.Invitation, error) {
	inviteeEmail = strings.ToLower(strings.TrimSpace(inviteeEmail))
	if inviteeEmail == "" {
		return nil, fmt.Errorf("invitee email required: %w", models.ErrInvalidInput)
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotAMember)
	}

	// An invitee with an account who is already a member gets rejected up
	// front instead of failing at acceptance.
	if invitee, err := s.store.GetUserByEmail(ctx, inviteeEmail); err == nil && invitee != nil {
		if group.HasMember(invitee.ID) {
			return nil, fmt.Errorf("user %s already in group: %w", invitee.ID, models.ErrDuplicateParticipant)
		}
	}

	inv := &models.Invitation{
		ID:           uuid.New().String(),
		GroupID:      groupID,
		InviterID:    userID,
		InviteeEmail: inviteeEmail,
		Status:       models.InvitationPending,
		CreatedAt:    time.Now().Unix(),
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		slog.Error("CreateInvitation failed", "group_id", groupID, "error", err)
		return nil, err
	}
	slog.Info("Invitation sent", "invitation_id", inv.ID, "group_id", groupID, "invitee", inviteeEmail)
	return inv, nil
}

// ListInvitations returns pending invitations addressed to the user's email.
func (s *GroupService) ListInvitations(ctx context.Context, email string) ([]*models.Invitation, error) {
	return s.store.ListInvitationsByEmail(ctx, email)
}

// Respond accepts or rejects an invitation. Only the addressed invitee may
// respond, and only while the invitation is pending. Accepting appends the
// user to the group's members in the same transaction as the status flip.
func (s *GroupService) Respond(ctx context.Context, userID, email, invitationID string, accept bool) (*models.Invitation, error) {
	inv, err := s.store.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(inv.InviteeEmail, email) {
		return nil, fmt.Errorf("invitation %s is not addressed to %s: %w", invitationID, email, models.ErrUnauthorized)
	}
	if inv.Status != models.InvitationPending {
		return nil, fmt.Errorf("invitation %s already %s: %w", invitationID, inv.Status, models.ErrInvalidInput)
	}

	if accept {
		if err := s.store.AcceptInvitation(ctx, invitationID, userID); err != nil {
			slog.Error("AcceptInvitation failed", "invitation_id", invitationID, "error", err)
			return nil, err
		}
		inv.Status = models.InvitationAccepted
		slog.Info("Invitation accepted", "invitation_id", invitationID, "group_id", inv.GroupID, "user_id", userID)
	} else {
		if err := s.store.RejectInvitation(ctx, invitationID); err != nil {
			slog.Error("RejectInvitation failed", "invitation_id", invitationID, "error", err)
			return nil, err
		}
		inv.Status = models.InvitationRejected
		slog.Info("Invitation rejected", "invitation_id", invitationID, "group_id", inv.GroupID)
	}
	return inv, nil
}
