// Package locker provides exclusive claims on string keys. The execution
// coordinator claims an (event, market) key for the duration of both legs so
// two concurrently detected opportunities can never stake against the same
// event twice.
package locker

import (
	"context"
	"errors"
	"time"
)

// ErrHeld is returned when the key is already claimed by another holder.
var ErrHeld = errors.New("locker: key already held")

// Locker grants exclusive, TTL-bounded claims on keys.
type Locker interface {
	// Acquire claims the key. On success it returns a release function that
	// must be called when the holder is done; the release function is safe to
	// call more than once. Returns ErrHeld if the key is claimed elsewhere.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
