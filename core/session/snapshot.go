package session

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/academyos/console/core/subscription"
)

// ErrNoSnapshot is returned by a Persister holding no snapshot.
var ErrNoSnapshot = errors.New("no session snapshot")

// Persister keeps the encoded session snapshot under one fixed key.
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Delete(ctx context.Context) error
	Close(ctx context.Context) error
}

// Snapshot is the durable shape of a session. The verdict cache is not part of it.
type Snapshot struct {
	Identity                *Identity `json:"identity"`
	Credential              string    `json:"credential"`
	IsAuthenticated         bool      `json:"isAuthenticated"`
	SubscriptionVerdictHint bool      `json:"subscriptionVerdictHint"`
}

func encodeSnapshot(s State) ([]byte, error) {
	return json.Marshal(Snapshot{
		Identity:                s.Identity,
		Credential:              s.Credential,
		IsAuthenticated:         s.Authenticated(),
		SubscriptionVerdictHint: s.LockHint,
	})
}

// decodeSnapshot ignores unknown fields and defaults missing ones.
// An identity with an invalid role or without a credential loads as unauthenticated.
// Role and subscription status are normalized.
func decodeSnapshot(data []byte) (State, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return State{}, err
	}
	st := State{LockHint: snap.SubscriptionVerdictHint}
	if snap.Identity == nil || snap.Credential == "" {
		return st, nil
	}
	role, err := ParseRole(string(snap.Identity.Role))
	if err != nil {
		return st, nil
	}
	id := *snap.Identity
	id.Role = role
	if id.Subscription.Status != "" {
		id.Subscription.Status = subscription.ParseStatus(string(id.Subscription.Status))
	}
	st.Identity = &id
	st.Credential = snap.Credential
	return st, nil
}
