package models

import (
	"fmt"
	"time"
)

// Gift is a fulfilled order: the completed payload plus its access grant.
// The grant fields (AccessEnabled, ExpiresAt, PermanentlyDeleted, DeletedAt)
// form an independent state machine from the request lifecycle: they are
// created when a request completes and mutated only by operator actions.
type Gift struct {
	ID         string
	UserRef    string
	RequestRef string // originating request, empty for admin-created gifts
	TemplateID TemplateID
	Occasion   Occasion
	Plan       Plan
	Scenarios  []string
	Photos     []UploadRef
	Audio      *UploadRef
	Lyrics     string
	Message    string

	AccessEnabled      bool
	ExpiresAt          *time.Time
	PermanentlyDeleted bool
	DeletedAt          *time.Time

	AssignedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EffectiveAccess is the single viewability rule shared by the admin
// display and the viewer gate. A permanently deleted gift is never
// viewable, whatever the other fields say.
func (g Gift) EffectiveAccess(now time.Time) bool {
	if g.PermanentlyDeleted {
		return false
	}
	if !g.AccessEnabled {
		return false
	}
	if g.ExpiresAt != nil && !now.Before(*g.ExpiresAt) {
		return false
	}
	return true
}

// RemainingAccess renders the grant state for the operator view. It is
// display-only; EffectiveAccess is the gate.
func (g Gift) RemainingAccess(now time.Time) string {
	if g.PermanentlyDeleted {
		return "Deleted"
	}
	if g.ExpiresAt == nil {
		return "No expiry"
	}
	left := g.ExpiresAt.Sub(now)
	if left <= 0 {
		return "Expired"
	}
	minutes := int(left / time.Minute)
	days := minutes / (60 * 24)
	hours := (minutes % (60 * 24)) / 60
	minutes = minutes % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
