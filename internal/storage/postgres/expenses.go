package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
)

const expenseColumns = `id, group_id, description, amount, paid_by, category, date`

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	if err := row.Scan(
		&expense.ID,
		&expense.GroupID,
		&expense.Description,
		&expense.Amount,
		&expense.PaidBy,
		&expense.Category,
		&expense.Date,
	); err != nil {
		return nil, err
	}
	expense.Date = expense.Date.UTC()
	return expense, nil
}

// CreateExpense inserts an expense and its splits in one transaction.
func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.Date.IsZero() {
		expense.Date = time.Now().UTC().Truncate(time.Second)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		participants, err := lockParticipants(ctx, tx, expense.GroupID, false)
		if err != nil {
			return err
		}
		if err := storage.RequireParticipants(expense.GroupID, participants, storage.ExpenseUsers(expense)); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO expenses (`+expenseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			expense.ID, expense.GroupID, expense.Description, expense.Amount,
			expense.PaidBy, expense.Category, expense.Date,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", mapPQError(err, "expense "+expense.ID, expense.GroupID))
		}
		return insertSplits(ctx, tx, expense)
	})
}

func insertSplits(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	for i, split := range expense.Splits {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expense_splits (expense_id, user_id, amount, position) VALUES ($1, $2, $3, $4)`,
			expense.ID, split.UserID, split.Amount, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", mapPQError(err, "split for "+split.UserID, expense.GroupID))
		}
	}
	return nil
}

// GetExpense retrieves an expense with its splits.
func (s *PostgresStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, expenseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	splits, err := s.loadSplits(ctx, []string{expenseID})
	if err != nil {
		return nil, err
	}
	expense.Splits = splits[expenseID]
	return expense, nil
}

func (s *PostgresStore) loadSplits(ctx context.Context, expenseIDs []string) (map[string][]models.Split, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT expense_id, user_id, amount FROM expense_splits
		 WHERE expense_id = ANY($1) ORDER BY expense_id, position`,
		pq.Array(expenseIDs),
	)
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
	return splits, rows.Err()
}

// UpdateExpense replaces an expense's fields and splits. The group never changes.
func (s *PostgresStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var groupID string
		err := tx.QueryRowContext(ctx, `SELECT group_id FROM expenses WHERE id = $1`, expense.ID).Scan(&groupID)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("expense", expense.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to get expense: %w", err)
		}
		participants, err := lockParticipants(ctx, tx, groupID, false)
		if err != nil {
			return err
		}
		if err := storage.RequireParticipants(groupID, participants, storage.ExpenseUsers(expense)); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE expenses SET description = $1, amount = $2, paid_by = $3, category = $4, date = $5 WHERE id = $6`,
			expense.Description, expense.Amount, expense.PaidBy, expense.Category, expense.Date, expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if err := checkAffected(res, "expense", expense.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM expense_splits WHERE expense_id = $1`, expense.ID); err != nil {
			return fmt.Errorf("failed to clear splits: %w", err)
		}
		return insertSplits(ctx, tx, expense)
	})
}

// DeleteExpense removes an expense and, by cascade, its splits.
func (s *PostgresStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return checkAffected(res, "expense", expenseID)
}

// ListGroupExpenses retrieves a group's expenses in insertion order.
func (s *PostgresStore) ListGroupExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE group_id = $1 ORDER BY seq`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}

	var expenses []*models.Expense
	var ids []string
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
		ids = append(ids, expense.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	splits, err := s.loadSplits(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, expense := range expenses {
		expense.Splits = splits[expense.ID]
	}
	return expenses, nil
}
