// Package subscription holds the subscription vocabulary shared by the session store,
// the access gate and the backend client.
package subscription

import (
	"context"
	"strings"
)

// Status is the normalized subscription standing of a center.
type Status string

const (
	StatusActive       Status = "active"
	StatusPaid         Status = "paid"
	StatusTrial        Status = "trial"
	StatusTrialExpired Status = "trial_expired"
	StatusExpired      Status = "expired"
	StatusDeactivated  Status = "deactivated"
	StatusSuspended    Status = "suspended"
	StatusUnknown      Status = "unknown"
)

var knownStatuses = map[Status]struct{}{
	StatusActive:       {},
	StatusPaid:         {},
	StatusTrial:        {},
	StatusTrialExpired: {},
	StatusExpired:      {},
	StatusDeactivated:  {},
	StatusSuspended:    {},
	StatusUnknown:      {},
}

// ParseStatus normalizes a raw status token from the backend.
// Empty and unrecognized tokens map to StatusUnknown.
func ParseStatus(raw string) Status {
	st := Status(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownStatuses[st]; ok {
		return st
	}
	return StatusUnknown
}

// Locked reports whether the status blocks every view but the upgrade page.
func (s Status) Locked() bool {
	switch s {
	case StatusTrialExpired, StatusExpired, StatusDeactivated, StatusSuspended:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Details is the subscription metadata returned by the backend.
// Only Status takes part in locking; the rest is used for messaging.
type Details struct {
	Status   Status `json:"status"`
	Plan     string `json:"plan,omitempty"`
	StartAt  string `json:"startAt,omitempty"`
	EndAt    string `json:"endAt,omitempty"`
	TrialEnd string `json:"trialEnd,omitempty"`
}

// Differs compares the five metadata fields as trimmed strings; empty and absent are equal.
// Status is compared case-insensitively.
func (d Details) Differs(other Details) bool {
	return strings.ToLower(norm(string(d.Status))) != strings.ToLower(norm(string(other.Status))) ||
		norm(d.Plan) != norm(other.Plan) ||
		norm(d.StartAt) != norm(other.StartAt) ||
		norm(d.EndAt) != norm(other.EndAt) ||
		norm(d.TrialEnd) != norm(other.TrialEnd)
}

func norm(s string) string { return strings.TrimSpace(s) }

// Oracle returns the authoritative subscription of the caller's center.
type Oracle interface {
	FetchStatus(ctx context.Context, credential string) (Details, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, credential string) (Details, error)

func (f OracleFunc) FetchStatus(ctx context.Context, credential string) (Details, error) {
	return f(ctx, credential)
}
