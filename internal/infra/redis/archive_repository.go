package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ArchiveRepository caches archived match summaries in Redis (one JSON value
// per lobby code) and falls back to a loader on cache miss. Summaries are
// stored as: SET match:archive:{code} {json} with TTL.
type ArchiveRepository struct {
	client *redis.Client
	loader memory.ArchiveLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewArchiveRepository(client *redis.Client, loader memory.ArchiveLoader, ttl time.Duration) *ArchiveRepository {
	return &ArchiveRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ArchiveRepository) GetSummary(ctx context.Context, code int) (domain.MatchSummary, error) {
	key := r.key(code)

	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
		var summary domain.MatchSummary
		if err := json.Unmarshal(raw, &summary); err == nil {
			return summary, nil
		}
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
			var summary domain.MatchSummary
			if err := json.Unmarshal(raw, &summary); err == nil {
				return summary, nil
			}
		}

		summary, err := r.loader.LoadSummary(ctx, code)
		if err != nil {
			return domain.MatchSummary{}, err
		}

		if raw, err := json.Marshal(summary); err == nil {
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return summary, nil
	})
	if err != nil {
		return domain.MatchSummary{}, err
	}
	return result.(domain.MatchSummary), nil
}

func (r *ArchiveRepository) key(code int) string {
	return "match:archive:" + strconv.Itoa(code)
}

func (r *ArchiveRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
