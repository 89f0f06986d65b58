package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitbook/splitbook/internal/models"
)

// CreateInvitation persists a pending invitation.
func (s *SQLiteStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CreatedAt == 0 {
		inv.CreatedAt = time.Now().Unix()
	}
	if inv.Status == "" {
		inv.Status = models.InvitationPending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invitations (id, group_id, inviter_id, invitee_email, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.GroupID, inv.InviterID, inv.InviteeEmail, inv.Status, inv.CreatedAt,
	)
	if err != nil {
		return storeErr("create invitation", err)
	}
	return nil
}

// GetInvitation retrieves an invitation by ID.
func (s *SQLiteStore) GetInvitation(ctx context.Context, invitationID string) (*models.Invitation, error) {
	inv := &models.Invitation{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, inviter_id, invitee_email, status, created_at
		 FROM invitations WHERE id = ?`, invitationID,
	).Scan(&inv.ID, &inv.GroupID, &inv.InviterID, &inv.InviteeEmail, &inv.Status, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invitation %s: %w", invitationID, models.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("get invitation", err)
	}
	return inv, nil
}

// ListInvitationsByEmail retrieves pending invitations addressed to an email.
func (s *SQLiteStore) ListInvitationsByEmail(ctx context.Context, email string) ([]*models.Invitation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, inviter_id, invitee_email, status, created_at
		 FROM invitations WHERE invitee_email = ? AND status = ?
		 ORDER BY created_at DESC`, email, models.InvitationPending,
	)
	if err != nil {
		return nil, storeErr("list invitations", err)
	}
	defer rows.Close()

	var invitations []*models.Invitation
	for rows.Next() {
		inv := &models.Invitation{}
		if err := rows.Scan(&inv.ID, &inv.GroupID, &inv.InviterID, &inv.InviteeEmail, &inv.Status, &inv.CreatedAt); err != nil {
			return nil, storeErr("scan invitation", err)
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate invitations", err)
	}
	return invitations, nil
}

// AcceptInvitation flips the invitation to accepted and appends the invitee
// to the group's members in the same transaction. A second acceptance, or a
// race with membership added another way, fails without partial state.
func (s *SQLiteStore) AcceptInvitation(ctx context.Context, invitationID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin accept invitation", err)
	}
	defer tx.Rollback()

	var groupID string
	err = tx.QueryRowContext(ctx,
		"SELECT group_id FROM invitations WHERE id = ? AND status = ?",
		invitationID, models.InvitationPending,
	).Scan(&groupID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("pending invitation %s: %w", invitationID, models.ErrNotFound)
	}
	if err != nil {
		return storeErr("lookup invitation", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE invitations SET status = ? WHERE id = ?",
		models.InvitationAccepted, invitationID,
	)
	if err != nil {
		return storeErr("update invitation", err)
	}

	// Primary key on (group_id, user_id) keeps membership a set.
	_, err = tx.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
		groupID, userID, time.Now().Unix(),
	)
	if err != nil {
		return storeErr("append group member", err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit accept invitation", err)
	}
	return nil
}

// RejectInvitation marks a pending invitation rejected.
func (s *SQLiteStore) RejectInvitation(ctx context.Context, invitationID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE invitations SET status = ? WHERE id = ? AND status = ?",
		models.InvitationRejected, invitationID, models.InvitationPending,
	)
	if err != nil {
		return storeErr("reject invitation", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("reject invitation", err)
	}
	if n == 0 {
		return fmt.Errorf("pending invitation %s: %w", invitationID, models.ErrNotFound)
	}
	return nil
}
