package session

import (
	"time"

	"github.com/academyos/console/core/subscription"
)

// Verdict is the cached belief about the center's subscription standing.
type Verdict struct {
	Status    subscription.Status `json:"status"`
	CheckedAt time.Time           `json:"checkedAt"`
}

// FreshAt reports whether the verdict is younger than window at now.
func (v *Verdict) FreshAt(now time.Time, window time.Duration) bool {
	if v == nil || v.CheckedAt.IsZero() {
		return false
	}
	return now.Sub(v.CheckedAt) < window
}

// State is a copy of the store's content at one point in time.
type State struct {
	Identity   *Identity
	Credential string
	Verdict    *Verdict
	LockHint   bool
}

// Authenticated requires both an identity and a credential.
func (s State) Authenticated() bool {
	return s.Identity != nil && s.Credential != ""
}
