package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
)

const expenseColumns = `id, group_id, description, amount, paid_by, category, date`

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var date int64
	if err := row.Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.Description,
		&expense.Amount,
		&expense.PaidBy,
		&expense.Category,
		&date,
	); err != nil {
		return nil, err
	}
	expense.Date = time.Unix(date, 0).UTC()
	return expense, nil
}

// CreateExpense persists a new expense and its splits.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC().Truncate(time.Second)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	participants, err := s.groupParticipants(ctx, tx, expense.GroupID)
	if err != nil {
		return err
	}
	if err := storage.RequireParticipants(expense.GroupID, participants, storage.ExpenseUsers(expense)); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.Description, expense.Amount,
		expense.PaidBy, expense.Category, expense.Date.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", mapConstraint(err, "expense "+expense.ID))
	}

	if err := insertSplits(ctx, tx, expense.ID, expense.Splits); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertSplits(ctx context.Context, tx *sql.Tx, expenseID string, splits []models.Split) error {
	for i, split := range splits {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, user_id, amount, position) VALUES (?, ?, ?, ?)",
			expenseID, split.UserID, split.Amount, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", mapConstraint(err, "split for "+split.UserID))
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, expenseID))
	if isNoRows(err) {
		return nil, notFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	splits, err := s.querySplits(ctx,
		"SELECT expense_id, user_id, amount FROM expense_splits WHERE expense_id = ? ORDER BY position",
		expenseID,
	)
	if err != nil {
		return nil, err
	}
	expense.Splits = splits[expenseID]
	return expense, nil
}

func (s *SQLiteStore) querySplits(ctx context.Context, query string, args ...any) (map[string][]models.Split, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	splits := make(map[string][]models.Split)
	for rows.Next() {
		var expenseID string
		var split models.Split
		if err := rows.Scan(&expenseID, &split.UserID, &split.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits[expenseID] = append(splits[expenseID], split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}

// UpdateExpense replaces an expense's fields and splits. The group never changes.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var groupID string
	err = tx.QueryRowContext(ctx, "SELECT group_id FROM expenses WHERE id = ?", expense.ID).Scan(&groupID)
	if isNoRows(err) {
		return notFound("expense", expense.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to get expense: %w", err)
	}
	participants, err := s.groupParticipants(ctx, tx, groupID)
	if err != nil {
		return err
	}
	if err := storage.RequireParticipants(groupID, participants, storage.ExpenseUsers(expense)); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount = ?, paid_by = ?, category = ?, date = ? WHERE id = ?`,
		expense.Description, expense.Amount, expense.PaidBy, expense.Category, expense.Date.Unix(), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if err := checkAffected(res, "expense", expense.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear splits: %w", err)
	}
	if err := insertSplits(ctx, tx, expense.ID, expense.Splits); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense by ID. Splits go with it.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return checkAffected(res, "expense", expenseID)
}

// ListGroupExpenses retrieves all expenses for a group in insertion order.
func (s *SQLiteStore) ListGroupExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE group_id = ? ORDER BY rowid`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	splits, err := s.querySplits(ctx,
		`SELECT s.expense_id, s.user_id, s.amount
		 FROM expense_splits s JOIN expenses e ON e.id = s.expense_id
		 WHERE e.group_id = ? ORDER BY s.expense_id, s.position`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	for _, expense := range expenses {
		expense.Splits = splits[expense.ID]
	}
	return expenses, nil
}
