// Package postgres provides a PostgreSQL-backed implementation of the
// storage.Store interface via database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/splitbook/splitbook/internal/models"
	"github.com/splitbook/splitbook/internal/storage"
)

// Ensure PostgresStore implements storage.Store.
var _ storage.Store = (*PostgresStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_by TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS group_members (
    group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    joined_at BIGINT NOT NULL,
    PRIMARY KEY (group_id, user_id)
);

CREATE TABLE IF NOT EXISTS invitations (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
    inviter_id TEXT NOT NULL,
    invitee_email TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL REFERENCES groups(id),
    description TEXT NOT NULL,
    amount BIGINT NOT NULL,
    currency TEXT NOT NULL,
    payer_id TEXT NOT NULL,
    split_policy TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    voided_at BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS expense_participants (
    expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (expense_id, user_id)
);

CREATE TABLE IF NOT EXISTS debt_entries (
    id TEXT PRIMARY KEY,
    expense_id TEXT NOT NULL REFERENCES expenses(id),
    group_id TEXT NOT NULL,
    debtor_id TEXT NOT NULL,
    creditor_id TEXT NOT NULL,
    amount BIGINT NOT NULL,
    currency TEXT NOT NULL,
    settled BOOLEAN NOT NULL DEFAULT FALSE,
    settled_at BIGINT NOT NULL DEFAULT 0,
    void BOOLEAN NOT NULL DEFAULT FALSE,
    created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_group_members_user_id ON group_members(user_id);
CREATE INDEX IF NOT EXISTS idx_invitations_invitee_email ON invitations(invitee_email);
CREATE INDEX IF NOT EXISTS idx_expenses_group_id ON expenses(group_id);
CREATE INDEX IF NOT EXISTS idx_debt_entries_group_settled ON debt_entries(group_id, settled, void);
CREATE INDEX IF NOT EXISTS idx_debt_entries_expense_id ON debt_entries(expense_id);
`

// PostgresStore implements storage.Store using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// New opens a connection with the given DSN, pings it and ensures the schema
// exists.
func New(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, models.ErrStorageUnavailable, err)
}

// CreateUser inserts a new user.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.DisplayName, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return storeErr("create user", err)
	}
	return nil
}

// UpdateUser rewrites the user's display name and UpdatedAt stamp.
func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET display_name = $1, updated_at = $2 WHERE id = $3",
		user.DisplayName, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return storeErr("update user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update user", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", user.ID, models.ErrNotFound)
	}
	return nil
}

// GetUserByEmail retrieves a user by email. Returns (nil, nil) when no
// account exists for the address.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

// GetUserByID retrieves a user by ID. Returns (nil, nil) when not found.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *PostgresStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at, updated_at
		 FROM users WHERE `+column+` = $1`, value,
	).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return user, nil
}

// CreateGroup persists a group and its creator as the first member in one
// transaction.
func (s *PostgresStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if len(group.Members) == 0 {
		group.Members = []string{group.CreatedBy}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin create group", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, created_by, created_at) VALUES ($1, $2, $3, $4)",
		group.ID, group.Name, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return storeErr("insert group", err)
	}
	for i, member := range group.Members {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id, joined_at) VALUES ($1, $2, $3)",
			group.ID, member, group.CreatedAt+int64(i),
		)
		if err != nil {
			return storeErr("insert group member", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit create group", err)
	}
	return nil
}

// GetGroup retrieves a group with its members in join order.
func (s *PostgresStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_by, created_at FROM groups WHERE id = $1", groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %s: %w", groupID, models.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("get group", err)
	}

	members, err := s.groupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.Members = members
	return group, nil
}

func (s *PostgresStore) groupMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM group_members WHERE group_id = $1 ORDER BY joined_at, user_id", groupID,
	)
	if err != nil {
		return nil, storeErr("get group members", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("scan group member", err)
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate group members", err)
	}
	return members, nil
}

// ListGroupsByMember retrieves all groups the user belongs to.
func (s *PostgresStore) ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.created_by, g.created_at
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = $1
		 ORDER BY g.created_at DESC`, userID,
	)
	if err != nil {
		return nil, storeErr("list groups by member", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt); err != nil {
			return nil, storeErr("scan group", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate groups", err)
	}

	for _, group := range groups {
		members, err := s.groupMembers(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		group.Members = members
	}
	return groups, nil
}

// CreateInvitation persists a pending invitation.
func (s *PostgresStore) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
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
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		inv.ID, inv.GroupID, inv.InviterID, inv.InviteeEmail, inv.Status, inv.CreatedAt,
	)
	if err != nil {
		return storeErr("create invitation", err)
	}
	return nil
}

// GetInvitation retrieves an invitation by ID.
func (s *PostgresStore) GetInvitation(ctx context.Context, invitationID string) (*models.Invitation, error) {
	inv := &models.Invitation{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, inviter_id, invitee_email, status, created_at
		 FROM invitations WHERE id = $1`, invitationID,
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
func (s *PostgresStore) ListInvitationsByEmail(ctx context.Context, email string) ([]*models.Invitation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, inviter_id, invitee_email, status, created_at
		 FROM invitations WHERE invitee_email = $1 AND status = $2
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

// AcceptInvitation flips the invitation to accepted and appends the member
// in one transaction.
func (s *PostgresStore) AcceptInvitation(ctx context.Context, invitationID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin accept invitation", err)
	}
	defer tx.Rollback()

	var groupID string
	err = tx.QueryRowContext(ctx,
		"SELECT group_id FROM invitations WHERE id = $1 AND status = $2",
		invitationID, models.InvitationPending,
	).Scan(&groupID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("pending invitation %s: %w", invitationID, models.ErrNotFound)
	}
	if err != nil {
		return storeErr("lookup invitation", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE invitations SET status = $1 WHERE id = $2",
		models.InvitationAccepted, invitationID,
	)
	if err != nil {
		return storeErr("update invitation", err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id, joined_at) VALUES ($1, $2, $3)",
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
func (s *PostgresStore) RejectInvitation(ctx context.Context, invitationID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE invitations SET status = $1 WHERE id = $2 AND status = $3",
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
