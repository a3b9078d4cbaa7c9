// Package catalog holds the in-memory collection of tagged video clips.
// The catalog is the source of truth for clips: ingestion creates them,
// retagging mutates them, removal destroys them. Mutations never fail;
// operations on an absent id are no-ops.
package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the part a clip plays inside an assembled sequence.
type Role string

const (
	RoleHook         Role = "hook"
	RoleSellingPoint Role = "selling_point"
	RoleCTA          Role = "cta"
)

// ParseRole validates a user-supplied role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleHook, RoleSellingPoint, RoleCTA:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown clip role %q", s)
	}
}

// Clip is one uploaded video asset. Name and Duration are fixed at
// ingestion; only Role is mutable afterwards. Path points at the clip's
// bytes on disk and may be empty, in which case exporting any sequence
// that references the clip fails.
type Clip struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Duration  float64   `json:"duration_s"`
	Role      Role      `json:"role"`
	Path      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// NewID returns a fresh clip identifier.
func NewID() string {
	return uuid.NewString()
}
