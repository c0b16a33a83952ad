package session

import (
	"context"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/pkg/errors"

	"github.com/academyos/console/core"
	"github.com/academyos/console/core/subscription"
)

// Event topics published by the Store.
const (
	TopicChanged  = "session:changed"   // handler: func(State)
	TopicLockHint = "session:lock-hint" // handler: func(bool)
	TopicCleared  = "session:cleared"   // handler: func()
)

var persistTimeout = 5 * time.Second

// Store is the single source of truth for the console session.
// All mutations are atomic; the durable snapshot is written while holding the lock
// so that writes reach the Persister in mutation order.
type Store struct {
	mu         sync.RWMutex
	identity   *Identity
	credential string
	verdict    *Verdict
	lockHint   bool

	persister Persister
	bus       evbus.Bus
	logger    core.Logger
	nowFunc   func() time.Time
}

type Option func(*Store)

// WithBus publishes session events on bus.
func WithBus(bus evbus.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

func WithLogger(logger core.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock overrides time.Now; used for CheckedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.nowFunc = now }
}

// Open initializes a Store from the snapshot held by p.
// A missing or unreadable snapshot starts an empty session.
func Open(ctx context.Context, p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		persister: p,
		bus:       evbus.New(),
		logger:    core.NewNopLogger(),
		nowFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := p.Load(ctx)
	switch {
	case errors.Cause(err) == ErrNoSnapshot:
		return s, nil
	case err != nil:
		return nil, errors.Wrap(err, "loading session snapshot")
	}

	st, err := decodeSnapshot(data)
	if err != nil {
		s.logger.Warn("discarding unreadable session snapshot", err)
		return s, nil
	}
	s.identity, s.credential, s.lockHint = st.Identity, st.Credential, st.LockHint
	return s, nil
}

// Close releases the persistence driver.
func (s *Store) Close(ctx context.Context) error {
	return s.persister.Close(ctx)
}

// Bus returns the event bus session events are published on.
func (s *Store) Bus() evbus.Bus { return s.bus }

// State returns a copy of the current session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state()
}

func (s *Store) state() State {
	st := State{Credential: s.credential, LockHint: s.lockHint}
	if s.identity != nil {
		id := *s.identity
		st.Identity = &id
	}
	if s.verdict != nil {
		v := *s.verdict
		st.Verdict = &v
	}
	return st
}

// SetSession replaces the identity and credential, sets the provisional lock hint and
// resets the verdict cache.
func (s *Store) SetSession(identity Identity, credential string, lockHint bool) error {
	if !identity.Role.Valid() || credential == "" {
		return ErrInvalidIdentity
	}

	s.mu.Lock()
	s.identity = &identity
	s.credential = credential
	s.verdict = nil
	s.lockHint = lockHint
	st := s.state()
	s.persist(st)
	s.mu.Unlock()

	s.bus.Publish(TopicChanged, st)
	s.bus.Publish(TopicLockHint, lockHint)
	return nil
}

// UpdateIdentityFields merges the non-nil fields into the identity; the credential is untouched.
// It reports false (and does nothing) when there is no identity.
func (s *Store) UpdateIdentityFields(fields IdentityFields) bool {
	return s.updateIdentityFields(nil, fields)
}

// UpdateIdentityFieldsFor is UpdateIdentityFields for the session holding credential only.
func (s *Store) UpdateIdentityFieldsFor(credential string, fields IdentityFields) bool {
	return s.updateIdentityFields(&credential, fields)
}

func (s *Store) updateIdentityFields(credential *string, fields IdentityFields) bool {
	s.mu.Lock()
	if s.identity == nil || !s.holds(credential) {
		s.mu.Unlock()
		return false
	}
	id := *s.identity
	fields.apply(&id)
	s.identity = &id
	st := s.state()
	s.persist(st)
	s.mu.Unlock()

	s.bus.Publish(TopicChanged, st)
	return true
}

// CacheVerdict stores status and stamps it with the current time.
// CheckedAt never goes backwards.
func (s *Store) CacheVerdict(status subscription.Status) Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cacheVerdict(status)
}

// CacheVerdictFor is CacheVerdict for the session holding credential only.
// A verdict fetched for a session that has since been cleared or replaced is not cached.
func (s *Store) CacheVerdictFor(credential string, status subscription.Status) (Verdict, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.holds(&credential) {
		return Verdict{}, false
	}
	return s.cacheVerdict(status), true
}

func (s *Store) cacheVerdict(status subscription.Status) Verdict {
	now := s.nowFunc()
	if s.verdict != nil && now.Before(s.verdict.CheckedAt) {
		now = s.verdict.CheckedAt
	}
	v := Verdict{Status: status, CheckedAt: now}
	s.verdict = &v
	return v
}

// SetLockHint sets the banner hint. The access gate never reads it.
func (s *Store) SetLockHint(locked bool) {
	s.setLockHint(nil, locked)
}

// SetLockHintFor is SetLockHint for the session holding credential only.
func (s *Store) SetLockHintFor(credential string, locked bool) bool {
	return s.setLockHint(&credential, locked)
}

func (s *Store) setLockHint(credential *string, locked bool) bool {
	s.mu.Lock()
	if !s.holds(credential) {
		s.mu.Unlock()
		return false
	}
	changed := s.lockHint != locked
	s.lockHint = locked
	if changed {
		s.persist(s.state())
	}
	s.mu.Unlock()

	if changed {
		s.bus.Publish(TopicLockHint, locked)
	}
	return true
}

// holds must be called with s.mu held. A nil credential matches any session.
func (s *Store) holds(credential *string) bool {
	return credential == nil || (*credential != "" && *credential == s.credential)
}

// Clear wipes the session and its durable snapshot.
func (s *Store) Clear() {
	s.mu.Lock()
	s.identity = nil
	s.credential = ""
	s.verdict = nil
	s.lockHint = false

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	if err := s.persister.Delete(ctx); err != nil {
		s.logger.Error("deleting session snapshot", errors.Wrap(err, "clear"))
	}
	cancel()
	s.mu.Unlock()

	s.bus.Publish(TopicCleared)
}

// persist must be called with s.mu held.
func (s *Store) persist(st State) {
	data, err := encodeSnapshot(st)
	if err != nil {
		s.logger.Error("encoding session snapshot", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err = s.persister.Save(ctx, data); err != nil {
		s.logger.Error("saving session snapshot", err)
	}
}
