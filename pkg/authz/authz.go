package authz

import (
	"fmt"

	"github.com/platformkit/notifyhub/pkg/notification"
)

// Context identifies the authenticated producer of a message attempt.
type Context struct {
	UserID    string
	Role      Role
	SessionID string
}

// route is one routing table entry. adminOnly namespaces require the
// producer to hold RoleAdmin regardless of anything else.
type route struct {
	namespace Namespace
	adminOnly bool
}

// routes is the closed category routing table. Every category maps to
// exactly one category namespace; admin and security are admin-only.
// Adding a category means extending both the Category enum and this table,
// which keeps routing changes reviewable.
var routes = map[notification.Category]route{
	notification.CategorySystem:      {namespace: CategoryNamespace(notification.CategorySystem)},
	notification.CategoryAdmin:       {namespace: CategoryNamespace(notification.CategoryAdmin), adminOnly: true},
	notification.CategoryUser:        {namespace: CategoryNamespace(notification.CategoryUser)},
	notification.CategorySecurity:    {namespace: CategoryNamespace(notification.CategorySecurity), adminOnly: true},
	notification.CategoryMaintenance: {namespace: CategoryNamespace(notification.CategoryMaintenance)},
	notification.CategoryJob:         {namespace: CategoryNamespace(notification.CategoryJob)},
}

// AdminOnly reports whether the category routes to an admin-only
// namespace.
func AdminOnly(c notification.Category) bool {
	return routes[c].adminOnly
}

// Authorize maps a validated message to the namespaces permitted to
// receive it, or fails with ErrUnauthorizedDelivery. Rules, in order:
//
//   - admin-only categories require the producer to hold RoleAdmin,
//     independent of scope;
//   - cross-user addressing (producer targeting another specific user)
//     requires RoleModerator or above;
//   - user-scoped messages route to the recipient's user namespace,
//     role/broadcast-scoped messages route to the category namespace.
//
// A message that fails here is dropped and logged by the caller, never
// retried under a different scope.
func Authorize(producer Context, msg *notification.Message) ([]Namespace, error) {
	rt, ok := routes[msg.Category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, msg.Category)
	}

	if rt.adminOnly && !producer.Role.AtLeast(RoleAdmin) {
		return nil, fmt.Errorf("%w: category %q requires role %q",
			ErrUnauthorizedDelivery, msg.Category, RoleAdmin)
	}

	switch msg.Scope.Kind {
	case notification.ScopeKindUser:
		if msg.Scope.UserID != producer.UserID && !producer.Role.AtLeast(RoleModerator) {
			return nil, fmt.Errorf("%w: cross-user delivery requires role %q or above",
				ErrUnauthorizedDelivery, RoleModerator)
		}
		return []Namespace{UserNamespace(msg.Scope.UserID)}, nil

	case notification.ScopeKindRole, notification.ScopeKindBroadcast:
		return []Namespace{rt.namespace}, nil

	default:
		return nil, fmt.Errorf("%w: unknown scope kind %q",
			ErrUnauthorizedDelivery, msg.Scope.Kind)
	}
}

// NamespacesForRole returns the category namespaces a connection with the
// given role may join at handshake, plus nothing user-specific; the caller
// adds the connection's own user namespace.
func NamespacesForRole(role Role) []Namespace {
	out := make([]Namespace, 0, len(routes))
	for _, c := range notification.Categories() {
		rt := routes[c]
		if rt.adminOnly && !role.AtLeast(RoleAdmin) {
			continue
		}
		out = append(out, rt.namespace)
	}
	return out
}
