// Package sessionstore holds the persistence drivers of the console session snapshot.
package sessionstore

import (
	"context"
	"fmt"

	"github.com/academyos/console/core"
	"github.com/academyos/console/core/session"
)

// Driver identifiers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// New returns the Persister selected by conf.Driver (memory by default).
func New(ctx context.Context, conf core.SessionConfig) (session.Persister, error) {
	switch conf.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(conf)
	case DriverRedis:
		return NewRedis(ctx, conf)
	default:
		return nil, fmt.Errorf("unsupported session driver: %s", conf.Driver)
	}
}
