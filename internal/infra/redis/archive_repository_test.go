package redis

import (
	"context"
	"testing"
	"time"

	"trivia-match-service/internal/domain"
	"trivia-match-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestArchiveRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	store := memory.NewArchiveStore()
	_ = store.RecordMatch(context.Background(), domain.MatchSummary{
		Code:          123456,
		QuestionCount: 6,
		WinnerIDs:     []string{"u1"},
	})
	loader := &countingLoader{ArchiveLoader: store}
	repo := NewArchiveRepository(client, loader, time.Minute)

	summary, err := repo.GetSummary(context.Background(), 123456)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.QuestionCount != 6 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}

	// Second call should hit the redis value, loader not incremented.
	_, _ = repo.GetSummary(context.Background(), 123456)
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if !mr.Exists("match:archive:123456") {
		t.Fatalf("expected cached key in redis")
	}
}

func TestArchiveRepositoryMissPropagates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewArchiveRepository(newClient(mr), memory.NewArchiveStore(), time.Minute)
	if _, err := repo.GetSummary(context.Background(), 999999); err != domain.ErrArchiveNotFound {
		t.Fatalf("expected ErrArchiveNotFound, got %v", err)
	}
}

type countingLoader struct {
	memory.ArchiveLoader
	calls int
}

func (l *countingLoader) LoadSummary(ctx context.Context, code int) (domain.MatchSummary, error) {
	l.calls++
	return l.ArchiveLoader.LoadSummary(ctx, code)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
