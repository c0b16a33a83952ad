// Package banner derives the subscription banner shown above console views.
// It follows session events and never takes part in access decisions.
package banner

import (
	"fmt"
	"sync"

	"github.com/academyos/console/core/session"
	"github.com/academyos/console/core/subscription"
)

// Levels
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelDanger  = "danger"
)

type Message struct {
	Level  string `json:"level"`
	Text   string `json:"text"`
	Locked bool   `json:"locked"`
}

// Derive returns the banner for st, if any.
func Derive(st session.State) (Message, bool) {
	if !st.Authenticated() || st.Identity.IsSuperAdmin() {
		return Message{}, false
	}
	sub := st.Identity.Subscription

	switch sub.Status {
	case subscription.StatusTrialExpired:
		return Message{Level: LevelDanger, Locked: true, Text: "Your free trial has ended. Choose a plan to keep using AcademyOS."}, true
	case subscription.StatusExpired:
		text := "Your subscription has expired. Renew it to restore access."
		if sub.EndAt != "" {
			text = fmt.Sprintf("Your %s subscription expired on %s. Renew it to restore access.", planName(sub.Plan), sub.EndAt)
		}
		return Message{Level: LevelDanger, Locked: true, Text: text}, true
	case subscription.StatusSuspended:
		return Message{Level: LevelDanger, Locked: true, Text: "Your center's subscription is suspended. Settle pending invoices to restore access."}, true
	case subscription.StatusDeactivated:
		return Message{Level: LevelDanger, Locked: true, Text: "Your center has been deactivated. Contact AcademyOS support."}, true
	}

	// the lock hint, until the first verdict comes in
	if st.LockHint {
		return Message{Level: LevelWarning, Locked: true, Text: lockHintText(sub.Status)}, true
	}
	if sub.Status == subscription.StatusTrial {
		text := "You are on a free trial."
		if sub.TrialEnd != "" {
			text = fmt.Sprintf("You are on a free trial until %s.", sub.TrialEnd)
		}
		return Message{Level: LevelInfo, Text: text}, true
	}
	return Message{}, false
}

// lockHintText words the hint after the status it was raised for.
// Only the login response's trial flag sets it without a status.
func lockHintText(status subscription.Status) string {
	switch status {
	case "", subscription.StatusTrial:
		return "Your free trial has ended. Choose a plan to keep using AcademyOS."
	}
	return "Your subscription needs attention. Choose a plan to keep using AcademyOS."
}

func planName(plan string) string {
	if plan == "" {
		return "AcademyOS"
	}
	return plan
}

// Banner keeps the current message in sync with a session.Store.
type Banner struct {
	store *session.Store

	mu      sync.RWMutex
	message Message
	shown   bool
}

// New subscribes a Banner to the store's events.
func New(store *session.Store) (*Banner, error) {
	b := &Banner{store: store}
	b.refresh()

	bus := store.Bus()
	if err := bus.Subscribe(session.TopicChanged, b.onChanged); err != nil {
		return nil, err
	}
	if err := bus.Subscribe(session.TopicLockHint, b.onLockHint); err != nil {
		return nil, err
	}
	if err := bus.Subscribe(session.TopicCleared, b.onCleared); err != nil {
		return nil, err
	}
	return b, nil
}

// Close unsubscribes from the store's events.
func (b *Banner) Close() {
	bus := b.store.Bus()
	_ = bus.Unsubscribe(session.TopicChanged, b.onChanged)
	_ = bus.Unsubscribe(session.TopicLockHint, b.onLockHint)
	_ = bus.Unsubscribe(session.TopicCleared, b.onCleared)
}

func (b *Banner) Current() (Message, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.message, b.shown
}

func (b *Banner) onChanged(st session.State) { b.set(Derive(st)) }

func (b *Banner) onLockHint(bool) { b.refresh() }

func (b *Banner) onCleared() { b.set(Message{}, false) }

func (b *Banner) refresh() { b.set(Derive(b.store.State())) }

func (b *Banner) set(msg Message, shown bool) {
	b.mu.Lock()
	b.message, b.shown = msg, shown
	b.mu.Unlock()
}
