package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another holder owns the lease.
var ErrNotAcquired = errors.New("lease held by another runner")

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out leases stored as Redis keys with an expiry, so a crashed
// holder loses the lease after its TTL.
type Locker struct {
	client redis.UniversalClient
	prefix string
}

func NewLocker(client redis.UniversalClient, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

type Lease struct {
	client redis.UniversalClient
	key    string
	token  string
}

// Acquire takes the lease named name for ttl, or returns ErrNotAcquired.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	lease := &Lease{
		client: l.client,
		key:    l.prefix + name,
		token:  uuid.NewString(),
	}
	ok, err := l.client.SetNX(ctx, lease.key, lease.token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return lease, nil
}

// Release drops the lease if it is still ours. Releasing an expired or
// stolen lease is a no-op.
func (l *Lease) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}
