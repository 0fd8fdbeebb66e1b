package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeRegistry reserves lobby codes in Redis so multiple service instances
// never hand out the same live code. Keys carry a TTL as a liveness bound:
// a crashed instance's reservations age out instead of leaking forever.
type CodeRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCodeRegistry(client *redis.Client, ttl time.Duration) *CodeRegistry {
	return &CodeRegistry{client: client, ttl: ttl}
}

// Reserve claims the code with SETNX semantics. Redis errors fail open: the
// store's by-code lookup is still authoritative, the registry only narrows
// the race window.
func (r *CodeRegistry) Reserve(ctx context.Context, code int) bool {
	ok, err := r.client.SetNX(ctx, r.key(code), "1", r.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

func (r *CodeRegistry) Release(ctx context.Context, code int) {
	_ = r.client.Del(ctx, r.key(code)).Err()
}

func (r *CodeRegistry) key(code int) string {
	return "lobby:code:" + strconv.Itoa(code)
}
