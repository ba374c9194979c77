package ratelimit

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platformkit/notifyhub/pkg/notification"
)

// ErrInvalidTiers reports a tier table that fails validation.
var ErrInvalidTiers = errors.New("invalid tier table")

// RoleTier holds the base quota for one producer role.
type RoleTier struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// Tiers maps producer roles and message priorities to effective limits.
// Roles carry a base limit over a window; priorities scale that base via a
// multiplier. Critical traffic gets a relaxed multiplier rather than a
// bypass, so even critical producers stay bounded. The IP ceiling is an
// independent limit applied alongside the per-user one, which keeps a single
// source from flooding through many accounts.
type Tiers struct {
	Roles       map[string]RoleTier `yaml:"roles"`
	Multipliers map[string]float64  `yaml:"multipliers"`
	Fallback    RoleTier            `yaml:"fallback"`
	IP          RoleTier            `yaml:"ip"`
}

// DefaultTiers returns the built-in tier table: regular users get a modest
// quota, moderators more, admins the most, with an IP ceiling sized to cover
// a handful of accounts behind one NAT.
func DefaultTiers() Tiers {
	return Tiers{
		Roles: map[string]RoleTier{
			"user":      {Limit: 10, Window: time.Minute},
			"moderator": {Limit: 30, Window: time.Minute},
			"admin":     {Limit: 100, Window: time.Minute},
		},
		Multipliers: map[string]float64{
			notification.PriorityLow.String():      0.5,
			notification.PriorityNormal.String():   1.0,
			notification.PriorityHigh.String():     1.5,
			notification.PriorityCritical.String(): 3.0,
		},
		Fallback: RoleTier{Limit: 10, Window: time.Minute},
		IP:       RoleTier{Limit: 60, Window: time.Minute},
	}
}

// LoadTiers reads a YAML tier table. Sections absent from the document keep
// their defaults, so a deployment can override only the roles it cares about.
func LoadTiers(r io.Reader) (Tiers, error) {
	t := DefaultTiers()

	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return Tiers{}, fmt.Errorf("%w: %v", ErrInvalidTiers, err)
	}
	if err := t.Validate(); err != nil {
		return Tiers{}, err
	}
	return t, nil
}

// Validate checks every entry carries a positive limit and window and every
// multiplier is positive.
func (t Tiers) Validate() error {
	check := func(name string, rt RoleTier) error {
		if rt.Limit <= 0 {
			return fmt.Errorf("%w: %s: limit must be positive", ErrInvalidTiers, name)
		}
		if rt.Window <= 0 {
			return fmt.Errorf("%w: %s: window must be positive", ErrInvalidTiers, name)
		}
		return nil
	}

	for role, rt := range t.Roles {
		if err := check("role "+role, rt); err != nil {
			return err
		}
	}
	for prio, m := range t.Multipliers {
		if m <= 0 {
			return fmt.Errorf("%w: multiplier %s must be positive", ErrInvalidTiers, prio)
		}
	}
	if err := check("fallback", t.Fallback); err != nil {
		return err
	}
	return check("ip", t.IP)
}

// tierFor resolves the base tier for a role, falling back for unknown roles.
func (t Tiers) tierFor(role string) RoleTier {
	if rt, ok := t.Roles[role]; ok {
		return rt
	}
	return t.Fallback
}

// LimitFor returns the effective per-user limit for a role and priority:
// the role's base limit scaled by the priority multiplier, rounded up, never
// below one.
func (t Tiers) LimitFor(role string, priority notification.Priority) int {
	base := t.tierFor(role).Limit

	mult := 1.0
	if m, ok := t.Multipliers[priority.String()]; ok {
		mult = m
	}

	limit := int(math.Ceil(float64(base) * mult))
	if limit < 1 {
		limit = 1
	}
	return limit
}

// WindowFor returns the sliding-window size for a role.
func (t Tiers) WindowFor(role string) time.Duration {
	return t.tierFor(role).Window
}

// UserKey builds the store key for a per-user check. Priority class is part
// of the key so one priority exhausting its quota never starves another.
func UserKey(userID string, priority notification.Priority) string {
	return "user:" + userID + "|prio:" + priority.String()
}

// IPKey builds the store key for the per-source ceiling.
func IPKey(addr string) string {
	return "ip:" + addr
}
