package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultSubmissionTTL bounds how long a crashed submission can hold its
// lock.
const DefaultSubmissionTTL = 30 * time.Second

// releaseLock deletes the lock only while it still carries the holder's token,
// so a submission that outlived the TTL cannot free its successor's lock.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SubmissionGuard admits one submission per (session, action) at a time. It
// is the server side counterpart of disabling a submit button while a
// request is pending. It does not deduplicate sequential submissions.
type SubmissionGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSubmissionGuard constructs the guard. A non-positive ttl selects
// DefaultSubmissionTTL.
func NewSubmissionGuard(client *redis.Client, ttl time.Duration) *SubmissionGuard {
	if ttl <= 0 {
		ttl = DefaultSubmissionTTL
	}
	return &SubmissionGuard{client: client, ttl: ttl}
}

// Acquire claims the action for the session. It returns ErrSubmissionInFlight
// when another submission holds it. The returned release must be called once
// the submission finished.
func (g *SubmissionGuard) Acquire(ctx context.Context, sessionID, action string) (func(), error) {
	key := SubmissionLockKey(sessionID, action)
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSubmissionInFlight
	}
	return func() {
		_ = releaseLock.Run(context.WithoutCancel(ctx), g.client, []string{key}, token).Err()
	}, nil
}
