// Package ports defines the contracts the governor needs from its collaborators.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/ports_mock.go -package=mocks

import (
	"context"
	"errors"
	"time"
)

// ErrStoreFull is returned by bounded stores that cannot track a new key
// without dropping a live saturated counter.
var ErrStoreFull = errors.New("counter store full")

// CounterStore holds fixed-window counters keyed by limit key.
// Implementations own expiry: a counter vanishes once its TTL elapses.
type CounterStore interface {
	// Get returns the live count for key; found is false if absent or expired.
	Get(ctx context.Context, key string) (count int, found bool, err error)

	// IncrementWithTTL atomically increments key and returns the new count.
	// A newly created counter expires after ttl; existing counters keep their expiry.
	IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int, error)

	// Decrement returns one unit to key without touching its expiry and
	// returns the new count. A counter that reaches zero is removed; an absent
	// key is left absent.
	Decrement(ctx context.Context, key string) (int, error)

	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// TTL returns the remaining lifetime of key; found is false if absent.
	TTL(ctx context.Context, key string) (remaining time.Duration, found bool, err error)
}

// ConditionalIncrementer is implemented by stores that can check and increment in one atomic step.
type ConditionalIncrementer interface {
	// IncrementBelow increments key only while its count is below limit.
	// It returns the resulting count and whether the increment happened.
	IncrementBelow(ctx context.Context, key string, limit int, ttl time.Duration) (count int, allowed bool, err error)
}
