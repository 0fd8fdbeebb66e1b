package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"trivia-match-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ArchiveLoader fetches archived match summaries from a backing store
// (e.g., Postgres).
type ArchiveLoader interface {
	LoadSummary(ctx context.Context, code int) (domain.MatchSummary, error)
}

// ArchiveRepository caches summaries with TTL to avoid repeated store hits.
// Archived matches never change, so the TTL only bounds memory growth.
type ArchiveRepository struct {
	loader ArchiveLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int]cachedSummary
}

type cachedSummary struct {
	summary   domain.MatchSummary
	expiresAt time.Time
}

func NewArchiveRepository(loader ArchiveLoader, ttl time.Duration) *ArchiveRepository {
	return &ArchiveRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int]cachedSummary),
	}
}

func (r *ArchiveRepository) GetSummary(ctx context.Context, code int) (domain.MatchSummary, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[code]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.summary, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(keyForCode(code), func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[code]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.summary, nil
		}
		r.mu.RUnlock()

		summary, err := r.loader.LoadSummary(ctx, code)
		if err != nil {
			return domain.MatchSummary{}, err
		}

		r.mu.Lock()
		r.cache[code] = cachedSummary{
			summary:   summary,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return summary, nil
	})
	if err != nil {
		return domain.MatchSummary{}, err
	}
	return result.(domain.MatchSummary), nil
}

func keyForCode(code int) string {
	return strconv.Itoa(code)
}

func (r *ArchiveRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// ArchiveStore is a map-backed archive for redis/postgres-less runs and
// tests: it accepts writes like an app.Archiver and serves reads like an
// ArchiveLoader.
type ArchiveStore struct {
	mu        sync.RWMutex
	summaries map[int]domain.MatchSummary
}

func NewArchiveStore() *ArchiveStore {
	return &ArchiveStore{summaries: make(map[int]domain.MatchSummary)}
}

func (s *ArchiveStore) RecordMatch(_ context.Context, summary domain.MatchSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.Code] = summary
	return nil
}

func (s *ArchiveStore) LoadSummary(_ context.Context, code int) (domain.MatchSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if summary, ok := s.summaries[code]; ok {
		return summary, nil
	}
	return domain.MatchSummary{}, domain.ErrArchiveNotFound
}
