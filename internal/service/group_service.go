package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/grouppay/internal/ledger"
	"github.com/mmynk/grouppay/internal/metrics"
	"github.com/mmynk/grouppay/internal/models"
	"github.com/mmynk/grouppay/internal/storage"
)

// GroupService manages groups and their membership.
type GroupService struct {
	store    storage.Store
	lock     groupLock
	notifier *NotificationService
	logger   *slog.Logger
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, locker ledger.Locker, notifier *NotificationService, m *metrics.Metrics, logger *slog.Logger) *GroupService {
	return &GroupService{
		store:    store,
		lock:     groupLock{locker: locker, metrics: m},
		notifier: notifier,
		logger:   logger,
	}
}

// CreateGroup creates a new group with creatorID as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID, name, description string) (*models.Group, error) {
	s.logger.Info("CreateGroup request received", "name", name, "user_id", creatorID)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ledger.Errorf(ledger.KindInvalidInput, "group name is required")
	}

	group := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   creatorID,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		s.logger.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	s.logger.Info("Group created", "group_id", group.ID)
	return group, nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.store.GetGroup(ctx, groupID)
}

// ListUserGroups returns the groups userID belongs to.
func (s *GroupService) ListUserGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	groups, err := s.store.ListGroupsByUser(ctx, userID)
	if err != nil {
		s.logger.Error("ListUserGroups failed", "user_id", userID, "error", err)
		return nil, err
	}
	return groups, nil
}

// DeleteGroup removes a group with all of its expenses and balances.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID string) error {
	err := s.lock.with(ctx, groupID, func(ctx context.Context) error {
		return s.store.DeleteGroup(ctx, groupID)
	})
	if err != nil {
		s.logger.Warn("DeleteGroup failed", "group_id", groupID, "error", err)
		return err
	}
	s.logger.Info("Group deleted", "group_id", groupID)
	return nil
}

// AddMember adds userID to a group and notifies them.
func (s *GroupService) AddMember(ctx context.Context, groupID, userID string) (*models.Group, error) {
	var group *models.Group
	err := s.lock.with(ctx, groupID, func(ctx context.Context) error {
		if err := s.store.AddMember(ctx, groupID, userID); err != nil {
			return err
		}
		var err error
		group, err = s.store.GetGroup(ctx, groupID)
		return err
	})
	if err != nil {
		s.logger.Warn("AddMember failed", "group_id", groupID, "user_id", userID, "error", err)
		return nil, err
	}

	s.logger.Info("Member added", "group_id", groupID, "user_id", userID)
	s.notifier.notifyQuietly(ctx, userID, models.NotificationSystem,
		"Added to Group", fmt.Sprintf("You have been added to the group: %s", group.Name))
	return group, nil
}

// RemoveMember removes userID from a group. Their recorded shares and
// balance stay in the ledger.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, userID string) error {
	err := s.lock.with(ctx, groupID, func(ctx context.Context) error {
		return s.store.RemoveMember(ctx, groupID, userID)
	})
	if err != nil {
		s.logger.Warn("RemoveMember failed", "group_id", groupID, "user_id", userID, "error", err)
		return err
	}
	s.logger.Info("Member removed", "group_id", groupID, "user_id", userID)
	return nil
}
