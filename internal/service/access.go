package service

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/splitsettle/internal/auth"
	"github.com/mmynk/splitsettle/internal/authz"
	"github.com/mmynk/splitsettle/internal/middleware"
	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
)

// caller loads the authenticated user. A token for a user that no longer
// exists is treated as unauthenticated.
func caller(ctx context.Context, users storage.Store) (*models.User, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	user, err := users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("user %s no longer exists", userID))
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// authorize returns a PermissionDenied error unless user may act on res.
func authorize(user *models.User, action authz.Action, res authz.Resource) error {
	if authz.CanPerform(user, action, res) {
		return nil
	}
	target := string(res.Kind)
	if res.Group != nil {
		target += " in group " + res.Group.ID
	}
	return fmt.Errorf("%w: %s cannot %s %s", errPermissionDenied, user.ID, action, target)
}

// groupAccess loads a group and checks that user may perform action on a
// record of kind inside it.
func groupAccess(ctx context.Context, store storage.Store, user *models.User, groupID string, action authz.Action, kind authz.Kind) (*models.Group, error) {
	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group_id required"))
	}
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := authorize(user, action, authz.Resource{Kind: kind, Group: group}); err != nil {
		return nil, err
	}
	return group, nil
}
