package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitbook/splitbook/internal/models"
)

// RecordExpense persists an expense and its debt entries as a single atomic
// unit.
func (s *PostgresStore) RecordExpense(ctx context.Context, expense *models.Expense, entries []*models.DebtEntry) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin record expense", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, currency, payer_id, split_policy, created_at, voided_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)`,
		expense.ID, expense.GroupID, expense.Description,
		expense.Amount.Amount, expense.Amount.Currency,
		expense.PayerID, expense.SplitPolicy, expense.CreatedAt,
	)
	if err != nil {
		return storeErr("insert expense", err)
	}

	for i, participant := range expense.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, user_id, position) VALUES ($1, $2, $3)",
			expense.ID, participant, i,
		)
		if err != nil {
			return storeErr("insert expense participant", err)
		}
	}

	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}
		entry.ExpenseID = expense.ID
		if entry.CreatedAt == 0 {
			entry.CreatedAt = expense.CreatedAt
		}
		if err := insertEntry(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit record expense", err)
	}
	return nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, entry *models.DebtEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO debt_entries (id, expense_id, group_id, debtor_id, creditor_id, amount, currency, settled, settled_at, void, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.ExpenseID, entry.GroupID, entry.DebtorID, entry.CreditorID,
		entry.Amount.Amount, entry.Amount.Currency,
		entry.Settled, entry.SettledAt, entry.Void, entry.CreatedAt,
	)
	if err != nil {
		return storeErr("insert debt entry", err)
	}
	return nil
}

// GetExpense retrieves an expense with its participants in supplied order.
func (s *PostgresStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, description, amount, currency, payer_id, split_policy, created_at, voided_at
		 FROM expenses WHERE id = $1`, expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.Description,
		&expense.Amount.Amount, &expense.Amount.Currency,
		&expense.PayerID, &expense.SplitPolicy, &expense.CreatedAt, &expense.VoidedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, models.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("get expense", err)
	}

	participants, err := s.expenseParticipants(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	expense.Participants = participants
	return expense, nil
}

func (s *PostgresStore) expenseParticipants(ctx context.Context, expenseID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM expense_participants WHERE expense_id = $1 ORDER BY position", expenseID,
	)
	if err != nil {
		return nil, storeErr("get expense participants", err)
	}
	defer rows.Close()

	var participants []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("scan expense participant", err)
		}
		participants = append(participants, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate expense participants", err)
	}
	return participants, nil
}

// ListExpensesByGroup retrieves all expenses for a group, newest first.
func (s *PostgresStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, description, amount, currency, payer_id, split_policy, created_at, voided_at
		 FROM expenses WHERE group_id = $1 ORDER BY created_at DESC, id`, groupID,
	)
	if err != nil {
		return nil, storeErr("list expenses", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		if err := rows.Scan(&expense.ID, &expense.GroupID, &expense.Description,
			&expense.Amount.Amount, &expense.Amount.Currency,
			&expense.PayerID, &expense.SplitPolicy, &expense.CreatedAt, &expense.VoidedAt); err != nil {
			return nil, storeErr("scan expense", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate expenses", err)
	}

	for _, expense := range expenses {
		participants, err := s.expenseParticipants(ctx, expense.ID)
		if err != nil {
			return nil, err
		}
		expense.Participants = participants
	}
	return expenses, nil
}

// VoidExpense cancels an expense in one transaction; see the sqlite backend
// for the void/reversal semantics, which are identical.
func (s *PostgresStore) VoidExpense(ctx context.Context, expenseID string, voidedAt int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin void expense", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET voided_at = $1 WHERE id = $2 AND voided_at = 0",
		voidedAt, expenseID,
	)
	if err != nil {
		return storeErr("void expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("void expense", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM expenses WHERE id = $1", expenseID).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("expense %s: %w", expenseID, models.ErrNotFound)
		}
		if err != nil {
			return storeErr("check expense", err)
		}
		return nil // already voided
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE debt_entries SET void = TRUE WHERE expense_id = $1 AND settled = FALSE AND void = FALSE",
		expenseID,
	)
	if err != nil {
		return storeErr("void debt entries", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT group_id, debtor_id, creditor_id, amount, currency
		 FROM debt_entries WHERE expense_id = $1 AND settled = TRUE AND void = FALSE`, expenseID,
	)
	if err != nil {
		return storeErr("list settled entries", err)
	}
	var reversals []*models.DebtEntry
	for rows.Next() {
		var groupID, debtor, creditor, currency string
		var amount int64
		if err := rows.Scan(&groupID, &debtor, &creditor, &amount, &currency); err != nil {
			rows.Close()
			return storeErr("scan settled entry", err)
		}
		reversals = append(reversals, &models.DebtEntry{
			ID:         uuid.New().String(),
			ExpenseID:  expenseID,
			GroupID:    groupID,
			DebtorID:   creditor,
			CreditorID: debtor,
			Amount:     models.NewMoney(amount, currency),
			CreatedAt:  voidedAt,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return storeErr("iterate settled entries", err)
	}

	for _, reversal := range reversals {
		if err := insertEntry(ctx, tx, reversal); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit void expense", err)
	}
	return nil
}

const entryColumns = "id, expense_id, group_id, debtor_id, creditor_id, amount, currency, settled, settled_at, void, created_at"

func scanEntry(row interface{ Scan(...any) error }) (*models.DebtEntry, error) {
	entry := &models.DebtEntry{}
	err := row.Scan(&entry.ID, &entry.ExpenseID, &entry.GroupID,
		&entry.DebtorID, &entry.CreditorID,
		&entry.Amount.Amount, &entry.Amount.Currency,
		&entry.Settled, &entry.SettledAt, &entry.Void, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// GetDebtEntry retrieves a debt entry by ID.
func (s *PostgresStore) GetDebtEntry(ctx context.Context, entryID string) (*models.DebtEntry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM debt_entries WHERE id = $1", entryID,
	)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("debt entry %s: %w", entryID, models.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("get debt entry", err)
	}
	return entry, nil
}

// ListUnsettledEntries retrieves all unsettled, non-void entries for a group.
func (s *PostgresStore) ListUnsettledEntries(ctx context.Context, groupID string) ([]*models.DebtEntry, error) {
	return s.listEntries(ctx,
		"SELECT "+entryColumns+" FROM debt_entries WHERE group_id = $1 AND settled = FALSE AND void = FALSE ORDER BY created_at, id",
		groupID,
	)
}

// ListUnsettledEntriesBetween retrieves unsettled entries between two members
// in either direction.
func (s *PostgresStore) ListUnsettledEntriesBetween(ctx context.Context, groupID, memberA, memberB string) ([]*models.DebtEntry, error) {
	return s.listEntries(ctx,
		`SELECT `+entryColumns+` FROM debt_entries
		 WHERE group_id = $1 AND settled = FALSE AND void = FALSE
		   AND ((debtor_id = $2 AND creditor_id = $3) OR (debtor_id = $4 AND creditor_id = $5))
		 ORDER BY created_at, id`,
		groupID, memberA, memberB, memberB, memberA,
	)
}

func (s *PostgresStore) listEntries(ctx context.Context, query string, args ...any) ([]*models.DebtEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list debt entries", err)
	}
	defer rows.Close()

	var entries []*models.DebtEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, storeErr("scan debt entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate debt entries", err)
	}
	return entries, nil
}

// MarkSettled settles an entry with a compare-and-set update.
func (s *PostgresStore) MarkSettled(ctx context.Context, entryID string, settledAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE debt_entries SET settled = TRUE, settled_at = $1 WHERE id = $2 AND settled = FALSE AND void = FALSE",
		settledAt, entryID,
	)
	if err != nil {
		return storeErr("mark settled", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("mark settled", err)
	}
	if n > 0 {
		return nil
	}

	var settled, void bool
	err = s.db.QueryRowContext(ctx, "SELECT settled, void FROM debt_entries WHERE id = $1", entryID).Scan(&settled, &void)
	if err == sql.ErrNoRows {
		return fmt.Errorf("debt entry %s: %w", entryID, models.ErrNotFound)
	}
	if err != nil {
		return storeErr("check debt entry", err)
	}
	if void {
		return fmt.Errorf("debt entry %s is void: %w", entryID, models.ErrNotFound)
	}
	return fmt.Errorf("debt entry %s: %w", entryID, models.ErrAlreadySettled)
}
