package notification

import (
	"encoding/json"
	"fmt"
)

// Type represents the notification type/severity.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Valid reports whether the type is one of the known values.
func (t Type) Valid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// Category determines default namespace routing for a message.
// Categories form a closed set: adding one is a reviewable change that must
// also extend the routing table in pkg/authz.
type Category string

const (
	CategorySystem      Category = "system"
	CategoryAdmin       Category = "admin"
	CategoryUser        Category = "user"
	CategorySecurity    Category = "security"
	CategoryMaintenance Category = "maintenance"
	CategoryJob         Category = "job"
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategorySystem, CategoryAdmin, CategoryUser, CategorySecurity,
		CategoryMaintenance, CategoryJob:
		return true
	}
	return false
}

// Categories returns all known categories in a stable order.
func Categories() []Category {
	return []Category{
		CategorySystem,
		CategoryAdmin,
		CategoryUser,
		CategorySecurity,
		CategoryMaintenance,
		CategoryJob,
	}
}

// Priority represents the notification priority level. Priorities are
// ordered: higher values sort ahead in queue ordering and select the
// rate-limit bucket.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Valid reports whether the priority is within the known range.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// MarshalJSON encodes the priority as its string name so wire frames stay
// readable and independent of the internal ordering.
func (p Priority) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid priority %d", int(p))
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a priority from its string name.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "low":
		*p = PriorityLow
	case "normal":
		*p = PriorityNormal
	case "high":
		*p = PriorityHigh
	case "critical":
		*p = PriorityCritical
	default:
		return fmt.Errorf("unknown priority %q", s)
	}
	return nil
}

// ScopeKind discriminates the recipient scope variants.
type ScopeKind string

const (
	ScopeKindUser      ScopeKind = "user"
	ScopeKindRole      ScopeKind = "role"
	ScopeKindBroadcast ScopeKind = "broadcast"
)

// Scope identifies the recipients of a message: a specific user, every
// connection holding a role, or every authorized connection.
type Scope struct {
	Kind   ScopeKind `json:"kind"`
	UserID string    `json:"user_id,omitempty"`
	Role   string    `json:"role,omitempty"`
}

// UserScope addresses a single user.
func UserScope(userID string) Scope {
	return Scope{Kind: ScopeKindUser, UserID: userID}
}

// RoleScope addresses every connection holding the given role.
func RoleScope(role string) Scope {
	return Scope{Kind: ScopeKindRole, Role: role}
}

// BroadcastScope addresses every authorized connection.
func BroadcastScope() Scope {
	return Scope{Kind: ScopeKindBroadcast}
}

// Valid reports whether the scope is structurally complete.
func (s Scope) Valid() bool {
	switch s.Kind {
	case ScopeKindUser:
		return s.UserID != ""
	case ScopeKindRole:
		return s.Role != ""
	case ScopeKindBroadcast:
		return true
	}
	return false
}
