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

const settlementColumns = `id, group_id, from_user_id, to_user_id, amount, method, notes, date, created_by`

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var notes sql.NullString
	var date int64
	if err := row.Scan(
		&settlement.ID,
		&settlement.GroupID,
		&settlement.FromUserID,
		&settlement.ToUserID,
		&settlement.Amount,
		&settlement.Method,
		&notes,
		&date,
		&settlement.CreatedBy,
	); err != nil {
		return nil, err
	}
	if notes.Valid {
		settlement.Notes = notes.String
	}
	settlement.Date = time.Unix(date, 0).UTC()
	return settlement, nil
}

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.Date.IsZero() {
		settlement.Date = time.Now().UTC().Truncate(time.Second)
	}

	var notes any
	if settlement.Notes != "" {
		notes = settlement.Notes
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	participants, err := s.groupParticipants(ctx, tx, settlement.GroupID)
	if err != nil {
		return err
	}
	if err := storage.RequireParticipants(settlement.GroupID, participants, storage.SettlementUsers(settlement)); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settlements (`+settlementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount, settlement.Method, notes, settlement.Date.Unix(), settlement.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", mapConstraint(err, "settlement "+settlement.ID))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement, err := scanSettlement(s.db.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id = ?`, settlementID))
	if isNoRows(err) {
		return nil, notFound("settlement", settlementID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

// ListGroupSettlements retrieves all settlements for a group in insertion order.
func (s *SQLiteStore) ListGroupSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE group_id = ? ORDER BY rowid`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// DeleteSettlement removes a settlement by ID.
func (s *SQLiteStore) DeleteSettlement(ctx context.Context, settlementID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", settlementID)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	return checkAffected(res, "settlement", settlementID)
}
