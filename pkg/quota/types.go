package quota

import (
	"fmt"
	"time"
)

// WindowMode determines when a counting window resets.
type WindowMode string

const (
	// WindowWeekly resets at the start of each ISO week (Monday, UTC).
	WindowWeekly WindowMode = "weekly"

	// WindowLifetime never resets; usage accumulates until an external
	// action (such as account deletion) clears the stored record.
	WindowLifetime WindowMode = "lifetime"

	// WindowDuration resets a fixed interval after the window started.
	WindowDuration WindowMode = "duration"
)

// ParseWindowMode converts a config string to a WindowMode.
func ParseWindowMode(s string) (WindowMode, error) {
	switch s {
	case "weekly":
		return WindowWeekly, nil
	case "lifetime":
		return WindowLifetime, nil
	case "duration":
		return WindowDuration, nil
	default:
		return "", fmt.Errorf("unknown window mode: %s", s)
	}
}

// Policy is the static quota configuration for one feature.
type Policy struct {
	// Limit is the maximum number of uses per window.
	Limit int

	// Mode determines when the window resets.
	Mode WindowMode

	// Duration is the window length for WindowDuration mode.
	Duration time.Duration
}

// Validate checks the policy.
func (p Policy) Validate() error {
	if p.Limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", p.Limit)
	}
	switch p.Mode {
	case WindowWeekly, WindowLifetime:
	case WindowDuration:
		if p.Duration <= 0 {
			return fmt.Errorf("duration must be positive for duration mode")
		}
	default:
		return fmt.Errorf("unknown window mode: %s", p.Mode)
	}
	return nil
}

// Window is one counting period for one (feature, owner) pair.
// Used only grows within a window; a reset is a new Window value with a
// new start, never a decrement.
type Window struct {
	OwnerKey    string    `json:"owner_key,omitempty"`
	WindowStart time.Time `json:"window_start"`
	Used        int       `json:"used"`
}

// Owner identifies the subject whose usage is tracked. The zero value is
// the anonymous state: no authenticated identity, usage never persisted.
type Owner struct {
	key string
}

// Scoped returns an Owner for an authenticated identity.
// An empty key yields the anonymous owner.
func Scoped(key string) Owner {
	return Owner{key: key}
}

// Anonymous returns the owner representing "no authenticated identity".
func Anonymous() Owner {
	return Owner{}
}

// IsAnonymous reports whether this owner has no stable identity.
func (o Owner) IsAnonymous() bool {
	return o.key == ""
}

// Key returns the owner's identifier, empty for anonymous.
func (o Owner) Key() string {
	return o.key
}

func (o Owner) String() string {
	if o.IsAnonymous() {
		return "anonymous"
	}
	return o.key
}
