package access

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/academyos/console/core"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/core/subscription"
)

// SessionStore is the part of session.Store the gate reads and mutates.
type SessionStore interface {
	State() session.State
	CacheVerdictFor(credential string, status subscription.Status) (session.Verdict, bool)
	UpdateIdentityFieldsFor(credential string, fields session.IdentityFields) bool
	SetLockHintFor(credential string, locked bool) bool
}

var _ SessionStore = (*session.Store)(nil)

// Gate evaluates navigations and refreshes the subscription verdict when it is stale.
type Gate struct {
	store   SessionStore
	oracle  subscription.Oracle
	routes  *Routes
	logger  core.Logger
	nowFunc func() time.Time

	flight singleflight.Group
}

type GateOption func(*Gate)

func WithGateLogger(logger core.Logger) GateOption {
	return func(g *Gate) { g.logger = logger }
}

func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.nowFunc = now }
}

func NewGate(store SessionStore, oracle subscription.Oracle, routes *Routes, opts ...GateOption) *Gate {
	g := &Gate{
		store:   store,
		oracle:  oracle,
		routes:  routes,
		logger:  core.NewNopLogger(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) Routes() *Routes { return g.routes }

// maxRefreshes bounds the Oracle calls of one navigation when the session is replaced mid-check.
const maxRefreshes = 2

// Check decides the outcome of navigating to rawPath. It blocks while the verdict is refreshed
// and never fails: Oracle errors degrade to an unknown (unlocked) verdict.
func (g *Gate) Check(nav *Navigation, rawPath string) Decision {
	req := g.routes.Request(rawPath)
	st := g.store.State()
	now := g.nowFunc()

	for i := 0; ; i++ {
		d := Evaluate(g.routes, st, req, now)
		if d.Outcome != Refresh {
			return d
		}
		if i == maxRefreshes {
			st.Verdict = &session.Verdict{Status: subscription.StatusUnknown, CheckedAt: now}
			return Evaluate(g.routes, st, req, now)
		}

		verdict := g.refresh(nav, st)
		if !nav.Alive() {
			st.Verdict = &verdict
			return Evaluate(g.routes, st, req, now)
		}
		cur := g.store.State()
		if cur.Credential != st.Credential {
			// signed out or replaced during the call; the verdict belonged to the old session
			st = cur
			continue
		}
		st = cur
		if !st.Verdict.FreshAt(now, FreshnessWindow) {
			// reset by a re-login with the same credential
			st.Verdict = &verdict
		}
		return Evaluate(g.routes, st, req, now)
	}
}

// refresh asks the Oracle once and, while nav is alive and the session still holds the credential
// the call was made with, caches the verdict and folds changed subscription metadata into the
// identity. Concurrent refreshes for one credential share a call.
func (g *Gate) refresh(nav *Navigation, st session.State) session.Verdict {
	// abandonment suppresses the result; it does not cancel the call
	ctx := context.WithoutCancel(nav.Context())
	res, err, _ := g.flight.Do(st.Credential, func() (interface{}, error) {
		return g.oracle.FetchStatus(ctx, st.Credential)
	})

	details, _ := res.(subscription.Details)
	details.Status = subscription.ParseStatus(string(details.Status))
	status := details.Status
	if err != nil {
		g.logger.Warn("subscription check failed, continuing with unknown status", err, *st.Identity,
			map[string]interface{}{"navigation": nav.ID})
		status = subscription.StatusUnknown
	}
	local := session.Verdict{Status: status, CheckedAt: g.nowFunc()}

	if !nav.Alive() {
		g.logger.Debug("navigation abandoned, dropping subscription verdict", map[string]interface{}{"navigation": nav.ID})
		return local
	}
	verdict, ok := g.store.CacheVerdictFor(st.Credential, status)
	if !ok {
		g.logger.Debug("session changed during subscription check, dropping verdict", map[string]interface{}{"navigation": nav.ID})
		return local
	}
	if err != nil {
		return verdict
	}

	if !nav.Alive() {
		return verdict
	}
	if cur := g.store.State(); cur.Credential == st.Credential && cur.Identity != nil && cur.Identity.Subscription.Differs(details) {
		g.store.UpdateIdentityFieldsFor(st.Credential, session.IdentityFields{Subscription: &details})
	}

	if !nav.Alive() {
		return verdict
	}
	g.store.SetLockHintFor(st.Credential, status.Locked())
	return verdict
}
