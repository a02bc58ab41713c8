package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/splitsettle/internal/authz"
	"github.com/mmynk/splitsettle/internal/ledger"
	"github.com/mmynk/splitsettle/internal/models"
	"github.com/mmynk/splitsettle/internal/storage"
	"github.com/mmynk/splitsettle/pkg/api"
	"github.com/mmynk/splitsettle/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new group. The caller is always a participant.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"participants_count", len(req.Msg.Participants),
	)

	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := authorize(user, authz.ActionCreate, authz.Resource{Kind: authz.KindGroup}); err != nil {
		return nil, toConnectError(err)
	}

	participants, err := s.participants(ctx, user.ID, req.Msg.Name, req.Msg.Participants)
	if err != nil {
		return nil, toConnectError(err)
	}

	group := &models.Group{
		Name:         strings.TrimSpace(req.Msg.Name),
		Description:  req.Msg.Description,
		CreatedBy:    user.ID,
		Participants: participants,
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// participants validates the group name and participant list, puts the
// caller first when missing and drops duplicates.
func (s *GroupService) participants(ctx context.Context, callerID, name string, requested []string) ([]string, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ledger.ValidationError{Field: "name", Reason: "required"}
	}

	out := make([]string, 0, len(requested)+1)
	seen := make(map[string]bool, len(requested)+1)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	if !contains(requested, callerID) {
		add(callerID)
	}
	for _, id := range requested {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, &ledger.ValidationError{Field: "participants", Reason: "empty user id"}
		}
		add(id)
	}

	for _, id := range out {
		if _, err := s.store.GetUser(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, &ledger.ValidationError{Field: "participants", Reason: "unknown user " + id}
			}
			return nil, err
		}
	}
	return out, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	group, err := groupAccess(ctx, s.store, user, req.Msg.GroupID, authz.ActionRead, authz.KindGroup)
	if err != nil {
		slog.Warn("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups returns the caller's groups. Admins see every group.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}

	var groups []*models.Group
	if user.Role == models.RoleAdmin {
		groups, err = s.store.ListGroups(ctx)
	} else {
		groups, err = s.store.ListUserGroups(ctx, user.ID)
	}
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Group, 0, len(groups))
	for _, g := range groups {
		if authz.CanPerform(user, authz.ActionRead, authz.Resource{Kind: authz.KindGroup, Group: g}) {
			out = append(out, toAPIGroup(g))
		}
	}

	slog.Info("ListGroups successful", "user_id", user.ID, "count", len(out))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// UpdateGroup replaces a group's name, description and participants. A
// participant who still appears in the group's expenses or settlements cannot
// be removed.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	slog.Info("UpdateGroup request received",
		"group_id", req.Msg.GroupID,
		"name", req.Msg.Name,
		"participants_count", len(req.Msg.Participants),
	)

	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	group, err := groupAccess(ctx, s.store, user, req.Msg.GroupID, authz.ActionUpdate, authz.KindGroup)
	if err != nil {
		return nil, toConnectError(err)
	}

	requested := req.Msg.Participants
	if len(requested) == 0 {
		requested = group.Participants
	}
	participants, err := s.participants(ctx, group.CreatedBy, req.Msg.Name, requested)
	if err != nil {
		return nil, toConnectError(err)
	}

	updated := &models.Group{
		ID:           group.ID,
		Name:         strings.TrimSpace(req.Msg.Name),
		Description:  req.Msg.Description,
		CreatedBy:    group.CreatedBy,
		Participants: participants,
		CreatedAt:    group.CreatedAt,
	}

	// The store rejects removing anyone the ledger still references, in the
	// same transaction as the update.
	if err := s.store.UpdateGroup(ctx, updated); err != nil {
		if errors.Is(err, storage.ErrParticipantInUse) {
			slog.Warn("UpdateGroup rejected", "group_id", group.ID, "error", err)
		} else {
			slog.Error("UpdateGroup failed", "error", err)
		}
		return nil, toConnectError(err)
	}

	slog.Info("Group updated", "group_id", group.ID)
	return connect.NewResponse(&api.UpdateGroupResponse{Group: toAPIGroup(updated)}), nil
}

// ListUsers returns every registered user.
func (s *GroupService) ListUsers(ctx context.Context, req *connect.Request[api.ListUsersRequest]) (*connect.Response[api.ListUsersResponse], error) {
	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := authorize(user, authz.ActionRead, authz.Resource{Kind: authz.KindUser}); err != nil {
		return nil, toConnectError(err)
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		slog.Error("ListUsers failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.User, len(users))
	for i, u := range users {
		out[i] = toAPIUser(u)
	}
	return connect.NewResponse(&api.ListUsersResponse{Users: out}), nil
}

// GetUser returns one user's public profile.
func (s *GroupService) GetUser(ctx context.Context, req *connect.Request[api.GetUserRequest]) (*connect.Response[api.GetUserResponse], error) {
	if req.Msg.UserID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("user_id required"))
	}
	user, err := caller(ctx, s.store)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := authorize(user, authz.ActionRead, authz.Resource{Kind: authz.KindUser}); err != nil {
		return nil, toConnectError(err)
	}

	found, err := s.store.GetUser(ctx, req.Msg.UserID)
	if err != nil {
		slog.Warn("GetUser failed", "user_id", req.Msg.UserID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetUserResponse{User: toAPIUser(found)}), nil
}
