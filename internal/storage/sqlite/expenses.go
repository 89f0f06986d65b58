package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitbook/splitbook/internal/models"
)

// RecordExpense persists an expense and its debt entries as a single atomic
// unit. Entries are never visible before the expense; on any failure nothing
// is visible at all.
func (s *SQLiteStore) RecordExpense(ctx context.Context, expense *models.Expense, entries []*models.DebtEntry) error {
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
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		expense.ID, expense.GroupID, expense.Description,
		expense.Amount.Amount, expense.Amount.Currency,
		expense.PayerID, expense.SplitPolicy, expense.CreatedAt,
	)
	if err != nil {
		return storeErr("insert expense", err)
	}

	for i, participant := range expense.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, user_id, position) VALUES (?, ?, ?)",
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
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ExpenseID, entry.GroupID, entry.DebtorID, entry.CreditorID,
		entry.Amount.Amount, entry.Amount.Currency,
		boolToInt(entry.Settled), entry.SettledAt, boolToInt(entry.Void), entry.CreatedAt,
	)
	if err != nil {
		return storeErr("insert debt entry", err)
	}
	return nil
}

// GetExpense retrieves an expense with its participants in supplied order.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, description, amount, currency, payer_id, split_policy, created_at, voided_at
		 FROM expenses WHERE id = ?`, expenseID,
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

func (s *SQLiteStore) expenseParticipants(ctx context.Context, expenseID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM expense_participants WHERE expense_id = ? ORDER BY position", expenseID,
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

// ListExpensesByGroup retrieves all expenses for a group, newest first,
// including voided ones so history stays auditable.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, description, amount, currency, payer_id, split_policy, created_at, voided_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at DESC, id`, groupID,
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

// VoidExpense cancels an expense in one transaction: the expense is stamped,
// unsettled entries are marked void, and each settled entry gets an
// offsetting reversal entry so money that actually moved stays on the books.
// Amounts are never edited in place. Voiding twice is a no-op.
func (s *SQLiteStore) VoidExpense(ctx context.Context, expenseID string, voidedAt int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin void expense", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET voided_at = ? WHERE id = ? AND voided_at = 0",
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
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM expenses WHERE id = ?", expenseID).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("expense %s: %w", expenseID, models.ErrNotFound)
		}
		if err != nil {
			return storeErr("check expense", err)
		}
		return nil // already voided
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE debt_entries SET void = 1 WHERE expense_id = ? AND settled = 0 AND void = 0",
		expenseID,
	)
	if err != nil {
		return storeErr("void debt entries", err)
	}

	// Settled entries represent money that moved; reverse them instead.
	rows, err := tx.QueryContext(ctx,
		`SELECT group_id, debtor_id, creditor_id, amount, currency
		 FROM debt_entries WHERE expense_id = ? AND settled = 1 AND void = 0`, expenseID,
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
