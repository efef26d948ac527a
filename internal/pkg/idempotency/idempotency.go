// Package idempotency guards event handling with a Redis key per event.
//
// A key moves from absent to in_progress (claimed) to completed. A claim that
// is released or expires makes the event processable again, which is how a
// broker redelivery after a crash gets handled exactly once.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "idempotency:"

// ErrInvalidState is returned when the stored value is not a known State.
var ErrInvalidState = errors.New("idempotency: invalid state")

type State string

const (
	StateNone       State = "none" // the caller owns the key
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

func (s State) String() string { return string(s) }

func parseState(v string) (State, error) {
	switch State(v) {
	case StateInProgress, StateCompleted:
		return State(v), nil
	}
	return StateError, fmt.Errorf("%w %q", ErrInvalidState, v)
}

// Tracker is the subset used by consumers.
type Tracker interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// claimScript sets the key when absent and otherwise returns the stored
// value, in one round trip.
var claimScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur then
	return cur
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return ""
`)

// releaseScript only drops an in-progress claim so a completed mark survives
// a late release.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// StateTracker implements Tracker.
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

// New returns a StateTracker that namespaces keys with prefix, or
// "idempotency:" when prefix is empty.
func New(client redis.UniversalClient, prefix string) *StateTracker {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &StateTracker{client: client, prefix: prefix}
}

// Acquire claims key for lockDuration. StateNone means the caller owns it.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	ms := max(lockDuration.Milliseconds(), 1)

	cur, err := claimScript.Run(ctx, s.client, []string{s.prefix + key}, StateInProgress.String(), ms).Text()
	if err != nil {
		return StateError, fmt.Errorf("idempotency: claim %q: %w", key, err)
	}
	if cur == "" {
		return StateNone, nil
	}
	return parseState(cur)
}

// MarkCompleted records key as done for ttl, overwriting any claim.
func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, StateCompleted.String(), ttl).Err(); err != nil {
		return fmt.Errorf("idempotency: complete %q: %w", key, err)
	}
	return nil
}

// Release drops an in-progress claim so a redelivery can process key again.
func (s *StateTracker) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.prefix + key}, StateInProgress.String()).Err(); err != nil {
		return fmt.Errorf("idempotency: release %q: %w", key, err)
	}
	return nil
}
