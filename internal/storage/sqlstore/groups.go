package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/models"
)

const groupColumns = `id, name, description, created_by, created_at`

// CreateGroup persists a new group with its creator as the first member.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO expense_groups (`+groupColumns+`)
			VALUES (?, ?, ?, ?, ?)
		`), group.ID, group.Name, group.Description, group.CreatedBy, group.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		if err := insertMember(ctx, tx, group.ID, group.CreatedBy, group.CreatedAt); err != nil {
			return err
		}
		group.Members = []string{group.CreatedBy}
		return nil
	})
}

// GetGroup retrieves a group by ID, including its members.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return getGroup(ctx, s.db, groupID)
}

// ListGroupsByUser returns every group userID belongs to, oldest first.
func (s *Store) ListGroupsByUser(ctx context.Context, userID string) ([]*models.Group, error) {
	var groups []*models.Group
	err := s.db.SelectContext(ctx, &groups, s.db.Rebind(`
		SELECT g.id, g.name, g.description, g.created_by, g.created_at
		FROM expense_groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.created_at, g.id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	for _, g := range groups {
		if g.Members, err = groupMembers(ctx, s.db, g.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// DeleteGroup removes a group together with its expenses and balances.
func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM expense_groups WHERE id = ?`), groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return expectRows(res, "group", groupID)
}

// AddMember adds userID to a group.
func (s *Store) AddMember(ctx context.Context, groupID, userID string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var one int
		if err := tx.GetContext(ctx, &one, tx.Rebind(`SELECT 1 FROM expense_groups WHERE id = ?`), groupID); err != nil {
			return notFound(err, "group", groupID)
		}
		if err := tx.GetContext(ctx, &one, tx.Rebind(`SELECT 1 FROM users WHERE id = ?`), userID); err != nil {
			return notFound(err, "user", userID)
		}

		err := tx.GetContext(ctx, &one,
			tx.Rebind(`SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?`), groupID, userID)
		if err == nil {
			return ledger.Errorf(ledger.KindDuplicateMember, "user %s is already a member of group %s", userID, groupID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check membership: %w", err)
		}

		return insertMember(ctx, tx, groupID, userID, time.Now().Unix())
	})
}

// RemoveMember removes userID from a group. Recorded expenses and the
// member's balance row are kept.
func (s *Store) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`), groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return expectRows(res, "member", userID)
}

func insertMember(ctx context.Context, q queryer, groupID, userID string, joinedAt int64) error {
	_, err := q.ExecContext(ctx,
		q.Rebind(`INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)`),
		groupID, userID, joinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

func getGroup(ctx context.Context, q queryer, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := q.GetContext(ctx, group, q.Rebind(`SELECT `+groupColumns+` FROM expense_groups WHERE id = ?`), groupID)
	if err != nil {
		return nil, notFound(err, "group", groupID)
	}
	if group.Members, err = groupMembers(ctx, q, groupID); err != nil {
		return nil, err
	}
	return group, nil
}

func groupMembers(ctx context.Context, q queryer, groupID string) ([]string, error) {
	members := []string{}
	err := q.SelectContext(ctx, &members,
		q.Rebind(`SELECT user_id FROM group_members WHERE group_id = ? ORDER BY user_id`), groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	return members, nil
}
