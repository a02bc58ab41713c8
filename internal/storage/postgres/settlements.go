package postgres

import (
	"context"
	"database/sql"
	"errors"
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
	if err := row.Scan(
		&settlement.ID,
		&settlement.GroupID,
		&settlement.FromUserID,
		&settlement.ToUserID,
		&settlement.Amount,
		&settlement.Method,
		&notes,
		&settlement.Date,
		&settlement.CreatedBy,
	); err != nil {
		return nil, err
	}
	settlement.Notes = notes.String
	settlement.Date = settlement.Date.UTC()
	return settlement, nil
}

// CreateSettlement inserts a settlement.
func (s *PostgresStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.Date.IsZero() {
		settlement.Date = time.Now().UTC().Truncate(time.Second)
	}
	notes := sql.NullString{String: settlement.Notes, Valid: settlement.Notes != ""}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		participants, err := lockParticipants(ctx, tx, settlement.GroupID, false)
		if err != nil {
			return err
		}
		if err := storage.RequireParticipants(settlement.GroupID, participants, storage.SettlementUsers(settlement)); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO settlements (`+settlementColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			settlement.ID, settlement.GroupID, settlement.FromUserID, settlement.ToUserID,
			settlement.Amount, settlement.Method, notes, settlement.Date, settlement.CreatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement: %w", mapPQError(err, "settlement "+settlement.ID, settlement.GroupID))
		}
		return nil
	})
}

// GetSettlement retrieves a settlement by ID.
func (s *PostgresStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement, err := scanSettlement(s.db.QueryRowContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id = $1`, settlementID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("settlement", settlementID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

// ListGroupSettlements retrieves a group's settlements in insertion order.
func (s *PostgresStore) ListGroupSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE group_id = $1 ORDER BY seq`, groupID)
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
	return settlements, rows.Err()
}

// DeleteSettlement removes a settlement by ID.
func (s *PostgresStore) DeleteSettlement(ctx context.Context, settlementID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM settlements WHERE id = $1`, settlementID)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	return checkAffected(res, "settlement", settlementID)
}
