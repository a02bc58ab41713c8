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

const groupColumns = `id, name, description, created_by, participants, created_at`

func scanGroup(row rowScanner) (*models.Group, error) {
	group := &models.Group{}
	var participants pq.StringArray
	if err := row.Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.CreatedBy,
		&participants,
		&group.CreatedAt,
	); err != nil {
		return nil, err
	}
	group.Participants = []string(participants)
	if group.Participants == nil {
		group.Participants = []string{}
	}
	return group, nil
}

// CreateGroup inserts a new group. Participants live in a TEXT[] column.
func (s *PostgresStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (`+groupColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		group.ID, group.Name, group.Description, group.CreatedBy,
		pq.Array(group.Participants), group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", mapPQError(err, "group "+group.ID, group.ID))
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *PostgresStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := scanGroup(s.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = $1`, groupID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// UpdateGroup replaces the group's name, description and participants.
// Participants that existing expenses or settlements reference must stay.
func (s *PostgresStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := lockParticipants(ctx, tx, group.ID, true); err != nil {
			return err
		}

		inUse, err := referenced(ctx, tx, group.ID)
		if err != nil {
			return err
		}
		if err := storage.RequireRetained(group.ID, group.Participants, inUse); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE groups SET name = $1, description = $2, participants = $3 WHERE id = $4`,
			group.Name, group.Description, pq.Array(group.Participants), group.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update group: %w", err)
		}
		return nil
	})
}

// referenced lists every user the group's expenses and settlements name.
func referenced(ctx context.Context, tx *sql.Tx, groupID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT paid_by FROM expenses WHERE group_id = $1
		 UNION SELECT s.user_id FROM expense_splits s JOIN expenses e ON e.id = s.expense_id WHERE e.group_id = $1
		 UNION SELECT from_user_id FROM settlements WHERE group_id = $1
		 UNION SELECT to_user_id FROM settlements WHERE group_id = $1`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get referenced users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan referenced user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListGroups retrieves every group in creation order.
func (s *PostgresStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.queryGroups(ctx, `SELECT `+groupColumns+` FROM groups ORDER BY seq`)
}

// ListUserGroups retrieves the groups a user participates in or created.
func (s *PostgresStore) ListUserGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	return s.queryGroups(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE created_by = $1 OR $1 = ANY(participants) ORDER BY seq`,
		userID,
	)
}

func (s *PostgresStore) queryGroups(ctx context.Context, query string, args ...any) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}
