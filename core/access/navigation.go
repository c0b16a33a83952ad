package access

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// Navigation scopes one gate check. Once abandoned (explicitly or by its context ending)
// the gate stops writing to the session store on its behalf.
type Navigation struct {
	ID string

	ctx       context.Context
	abandoned atomic.Bool
}

func NewNavigation(ctx context.Context) *Navigation {
	return &Navigation{ID: uuid.NewString(), ctx: ctx}
}

func (n *Navigation) Abandon() { n.abandoned.Store(true) }

func (n *Navigation) Alive() bool {
	return !n.abandoned.Load() && n.ctx.Err() == nil
}

func (n *Navigation) Context() context.Context { return n.ctx }
