package services

import "github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"

type Action string

const (
	ActionRequestCreate       Action = "request:create"
	ActionRequestRead         Action = "request:read"
	ActionRequestReadPublic   Action = "request:read-public"
	ActionRequestListOwn      Action = "request:list-own"
	ActionRequestUpdate       Action = "request:update"
	ActionRequestDelete       Action = "request:delete"
	ActionRequestChangeStatus Action = "request:change-status"
	ActionRequestDonate       Action = "request:donate"
	ActionRequestListAll      Action = "request:list-all"

	ActionUserReadProfile   Action = "user:read-profile"
	ActionUserUpdateProfile Action = "user:update-profile"
	ActionUserList          Action = "user:list"
	ActionUserChangeStatus  Action = "user:change-status"
	ActionUserChangeRole    Action = "user:change-role"

	ActionBlogCreate  Action = "blog:create"
	ActionBlogUpdate  Action = "blog:update"
	ActionBlogDelete  Action = "blog:delete"
	ActionBlogToggle  Action = "blog:toggle"
	ActionBlogListAll Action = "blog:list-all"
	ActionBlogReadAny Action = "blog:read-any"

	ActionDashboardView Action = "dashboard:view"

	ActionFundCreate          Action = "fund:create"
	ActionFundList            Action = "fund:list"
	ActionPaymentCreateIntent Action = "payment:create-intent"
)

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Actor is the caller as loaded from the store, never from token claims.
type Actor struct {
	Email  string
	Role   domain.Role
	Status domain.UserStatus
}

func ActorFromUser(u domain.User) Actor {
	return Actor{Email: u.Email, Role: u.Role, Status: u.Status}
}

type rule struct {
	minRole domain.Role
	// owned rules compare the actor with the resource owner unless the actor
	// ranks at or above bypass. An empty bypass means nobody skips the check.
	owned    bool
	bypass   domain.Role
	mutating bool
}

// rules is closed: an action missing here is denied to everyone.
var rules = map[Action]rule{
	ActionRequestCreate:       {minRole: domain.RoleDonor, mutating: true},
	ActionRequestRead:         {minRole: domain.RoleDonor, owned: true, bypass: domain.RoleVolunteer},
	ActionRequestReadPublic:   {minRole: domain.RoleDonor},
	ActionRequestListOwn:      {minRole: domain.RoleDonor, owned: true, bypass: domain.RoleAdmin},
	ActionRequestUpdate:       {minRole: domain.RoleDonor, owned: true, bypass: domain.RoleAdmin, mutating: true},
	ActionRequestDelete:       {minRole: domain.RoleDonor, owned: true, bypass: domain.RoleAdmin, mutating: true},
	ActionRequestChangeStatus: {minRole: domain.RoleDonor, owned: true, bypass: domain.RoleVolunteer, mutating: true},
	ActionRequestDonate:       {minRole: domain.RoleDonor, mutating: true},
	ActionRequestListAll:      {minRole: domain.RoleVolunteer},

	ActionUserReadProfile:   {minRole: domain.RoleDonor, owned: true, bypass: domain.RoleAdmin},
	ActionUserUpdateProfile: {minRole: domain.RoleDonor, owned: true, mutating: true},
	ActionUserList:          {minRole: domain.RoleAdmin},
	ActionUserChangeStatus:  {minRole: domain.RoleAdmin, mutating: true},
	ActionUserChangeRole:    {minRole: domain.RoleAdmin, mutating: true},

	ActionBlogCreate:  {minRole: domain.RoleAdmin, mutating: true},
	ActionBlogUpdate:  {minRole: domain.RoleAdmin, mutating: true},
	ActionBlogDelete:  {minRole: domain.RoleAdmin, mutating: true},
	ActionBlogToggle:  {minRole: domain.RoleAdmin, mutating: true},
	ActionBlogListAll: {minRole: domain.RoleAdmin},
	ActionBlogReadAny: {minRole: domain.RoleAdmin},

	ActionDashboardView: {minRole: domain.RoleVolunteer},

	ActionFundCreate:          {minRole: domain.RoleDonor, mutating: true},
	ActionFundList:            {minRole: domain.RoleDonor},
	ActionPaymentCreateIntent: {minRole: domain.RoleDonor, mutating: true},
}

func rank(r domain.Role) int {
	switch r {
	case domain.RoleDonor:
		return 1
	case domain.RoleVolunteer:
		return 2
	case domain.RoleAdmin:
		return 3
	default:
		return 0
	}
}

// Authorize decides whether actor may perform action on a resource owned by
// ownerEmail. It is a pure function of its arguments.
func Authorize(actor Actor, action Action, ownerEmail string) Decision {
	r, ok := rules[action]
	if !ok || actor.Email == "" {
		return Deny
	}
	have := rank(actor.Role)
	if have == 0 || have < rank(r.minRole) {
		return Deny
	}
	if r.mutating && actor.Status != domain.UserActive {
		return Deny
	}
	if r.owned && !BypassesOwnership(actor, action) && actor.Email != ownerEmail {
		return Deny
	}
	return Allow
}

// BypassesOwnership reports whether actor's role skips the owner comparison
// for action, so the resource need not be loaded to authorize it.
func BypassesOwnership(actor Actor, action Action) bool {
	r, ok := rules[action]
	if !ok {
		return false
	}
	if !r.owned {
		return true
	}
	return r.bypass != "" && rank(actor.Role) >= rank(r.bypass)
}
