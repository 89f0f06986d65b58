package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/splitbook/splitbook/internal/models"
)

const entryColumns = "id, expense_id, group_id, debtor_id, creditor_id, amount, currency, settled, settled_at, void, created_at"

func scanEntry(row interface{ Scan(...any) error }) (*models.DebtEntry, error) {
	entry := &models.DebtEntry{}
	var settled, void int
	err := row.Scan(&entry.ID, &entry.ExpenseID, &entry.GroupID,
		&entry.DebtorID, &entry.CreditorID,
		&entry.Amount.Amount, &entry.Amount.Currency,
		&settled, &entry.SettledAt, &void, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	entry.Settled = settled != 0
	entry.Void = void != 0
	return entry, nil
}

// GetDebtEntry retrieves a debt entry by ID.
func (s *SQLiteStore) GetDebtEntry(ctx context.Context, entryID string) (*models.DebtEntry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM debt_entries WHERE id = ?", entryID,
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
func (s *SQLiteStore) ListUnsettledEntries(ctx context.Context, groupID string) ([]*models.DebtEntry, error) {
	return s.listEntries(ctx,
		"SELECT "+entryColumns+" FROM debt_entries WHERE group_id = ? AND settled = 0 AND void = 0 ORDER BY created_at, id",
		groupID,
	)
}

// ListUnsettledEntriesBetween retrieves unsettled entries where the two
// members are debtor and creditor, in either direction.
func (s *SQLiteStore) ListUnsettledEntriesBetween(ctx context.Context, groupID, memberA, memberB string) ([]*models.DebtEntry, error) {
	return s.listEntries(ctx,
		`SELECT `+entryColumns+` FROM debt_entries
		 WHERE group_id = ? AND settled = 0 AND void = 0
		   AND ((debtor_id = ? AND creditor_id = ?) OR (debtor_id = ? AND creditor_id = ?))
		 ORDER BY created_at, id`,
		groupID, memberA, memberB, memberB, memberA,
	)
}

func (s *SQLiteStore) listEntries(ctx context.Context, query string, args ...any) ([]*models.DebtEntry, error) {
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

// MarkSettled settles an entry with a compare-and-set update: of two
// concurrent callers exactly one succeeds, the other observes zero affected
// rows and gets models.ErrAlreadySettled.
func (s *SQLiteStore) MarkSettled(ctx context.Context, entryID string, settledAt int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE debt_entries SET settled = 1, settled_at = ? WHERE id = ? AND settled = 0 AND void = 0",
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

	var settled, void int
	err = s.db.QueryRowContext(ctx, "SELECT settled, void FROM debt_entries WHERE id = ?", entryID).Scan(&settled, &void)
	if err == sql.ErrNoRows {
		return fmt.Errorf("debt entry %s: %w", entryID, models.ErrNotFound)
	}
	if err != nil {
		return storeErr("check debt entry", err)
	}
	if void != 0 {
		return fmt.Errorf("debt entry %s is void: %w", entryID, models.ErrNotFound)
	}
	return fmt.Errorf("debt entry %s: %w", entryID, models.ErrAlreadySettled)
}
