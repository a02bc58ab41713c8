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

const groupColumns = `id, name, description, created_by, created_at`

// CreateGroup persists a new group and its ordered participant list.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Description, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", mapConstraint(err, "group "+group.ID))
	}

	if err := insertParticipants(ctx, tx, group.ID, group.Participants); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertParticipants(ctx context.Context, tx *sql.Tx, groupID string, participants []string) error {
	for i, userID := range participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO group_participants (group_id, user_id, position) VALUES (?, ?, ?)",
			groupID, userID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", mapConstraint(err, "participant "+userID))
		}
	}
	return nil
}

// GetGroup retrieves a group by ID, including its participants.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = ?`, groupID,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy, &group.CreatedAt)
	if isNoRows(err) {
		return nil, notFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if group.Participants, err = s.participants(ctx, s.db, groupID); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *SQLiteStore) participants(ctx context.Context, q querier, groupID string) ([]string, error) {
	participants, err := queryStrings(ctx, q,
		"SELECT user_id FROM group_participants WHERE group_id = ? ORDER BY position",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	return participants, nil
}

// groupParticipants returns the participants of an existing group.
func (s *SQLiteStore) groupParticipants(ctx context.Context, tx *sql.Tx, groupID string) ([]string, error) {
	var exists int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", groupID).Scan(&exists)
	if isNoRows(err) {
		return nil, notFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check group existence: %w", err)
	}
	return s.participants(ctx, tx, groupID)
}

// referenced lists every user the group's expenses and settlements name.
func referenced(ctx context.Context, tx *sql.Tx, groupID string) ([]string, error) {
	ids, err := queryStrings(ctx, tx,
		`SELECT paid_by FROM expenses WHERE group_id = ?
		 UNION SELECT s.user_id FROM expense_splits s JOIN expenses e ON e.id = s.expense_id WHERE e.group_id = ?
		 UNION SELECT from_user_id FROM settlements WHERE group_id = ?
		 UNION SELECT to_user_id FROM settlements WHERE group_id = ?`,
		groupID, groupID, groupID, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get referenced users: %w", err)
	}
	return ids, nil
}

// UpdateGroup replaces the group's name, description and participants.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE groups SET name = ?, description = ? WHERE id = ?",
		group.Name, group.Description, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if err := checkAffected(res, "group", group.ID); err != nil {
		return err
	}

	inUse, err := referenced(ctx, tx, group.ID)
	if err != nil {
		return err
	}
	if err := storage.RequireRetained(group.ID, group.Participants, inUse); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM group_participants WHERE group_id = ?", group.ID); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	if err := insertParticipants(ctx, tx, group.ID, group.Participants); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListGroups retrieves every group, oldest first.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.queryGroups(ctx, `SELECT `+groupColumns+` FROM groups ORDER BY created_at, rowid`)
}

// ListUserGroups retrieves the groups a user participates in or created.
func (s *SQLiteStore) ListUserGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	return s.queryGroups(ctx,
		`SELECT `+groupColumns+` FROM groups
		 WHERE created_by = ? OR id IN (SELECT group_id FROM group_participants WHERE user_id = ?)
		 ORDER BY created_at, rowid`,
		userID, userID,
	)
}

func (s *SQLiteStore) queryGroups(ctx context.Context, query string, args ...any) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy, &group.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	// Participants are loaded after the cursor is closed: the store runs on one connection.
	for _, group := range groups {
		if group.Participants, err = s.participants(ctx, s.db, group.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}
