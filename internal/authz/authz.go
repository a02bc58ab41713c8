// Package authz decides whether a user may perform an action on a resource.
// Decisions come from a static rule table keyed by role, so the rules can be
// read (and tested) without any transport or storage in the way.
package authz

import "github.com/mmynk/splitsettle/internal/models"

// Action is something a caller wants to do.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Kind is the type of record being acted on.
type Kind string

const (
	KindUser       Kind = "user"
	KindGroup      Kind = "group"
	KindExpense    Kind = "expense"
	KindSettlement Kind = "settlement"
)

// Resource describes the target of an action. Group is the group the record
// belongs to (or the group itself); it is nil when creating a group.
type Resource struct {
	Kind  Kind
	Group *models.Group
}

// scope restricts where a rule applies.
type scope int

const (
	anywhere scope = iota
	ownGroups
)

type rule struct {
	kind    Kind
	actions []Action
	scope   scope
}

var allActions = []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}

var rules = map[models.Role][]rule{
	models.RoleAdmin: {
		{KindUser, allActions, anywhere},
		{KindGroup, allActions, anywhere},
		{KindExpense, allActions, anywhere},
		{KindSettlement, allActions, anywhere},
	},
	models.RoleMember: {
		{KindUser, []Action{ActionRead}, anywhere},
		{KindGroup, []Action{ActionCreate}, anywhere},
		{KindGroup, []Action{ActionRead, ActionUpdate}, ownGroups},
		{KindExpense, allActions, ownGroups},
		{KindSettlement, []Action{ActionRead, ActionCreate, ActionDelete}, ownGroups},
	},
	models.RoleViewer: {
		{KindUser, []Action{ActionRead}, anywhere},
		{KindGroup, []Action{ActionRead}, ownGroups},
		{KindExpense, []Action{ActionRead}, ownGroups},
		{KindSettlement, []Action{ActionRead}, ownGroups},
	},
}

// CanPerform reports whether user may perform action on res.
// A nil user or an unknown role is never allowed anything.
func CanPerform(user *models.User, action Action, res Resource) bool {
	if user == nil {
		return false
	}
	for _, r := range rules[user.Role] {
		if r.kind != res.Kind || !hasAction(r.actions, action) {
			continue
		}
		if r.scope == anywhere || inGroup(user.ID, res.Group) {
			return true
		}
	}
	return false
}

func hasAction(actions []Action, action Action) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

func inGroup(userID string, group *models.Group) bool {
	if group == nil {
		return false
	}
	return group.CreatedBy == userID || group.HasParticipant(userID)
}
