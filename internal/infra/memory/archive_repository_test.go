package memory

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"trivia-match-service/internal/domain"
)

type countingLoader struct {
	inner *ArchiveStore
	calls int64
}

func (l *countingLoader) LoadSummary(ctx context.Context, code int) (domain.MatchSummary, error) {
	atomic.AddInt64(&l.calls, 1)
	return l.inner.LoadSummary(ctx, code)
}

func TestArchiveRepositoryCachesSummaries(t *testing.T) {
	ctx := context.Background()
	store := NewArchiveStore()
	_ = store.RecordMatch(ctx, domain.MatchSummary{Code: 123456, QuestionCount: 6})

	loader := &countingLoader{inner: store}
	repo := NewArchiveRepository(loader, time.Minute)

	for i := 0; i < 3; i++ {
		summary, err := repo.GetSummary(ctx, 123456)
		if err != nil {
			t.Fatalf("get summary: %v", err)
		}
		if summary.QuestionCount != 6 {
			t.Fatalf("unexpected summary: %+v", summary)
		}
	}
	if got := atomic.LoadInt64(&loader.calls); got != 1 {
		t.Fatalf("expected one loader hit, got %d", got)
	}
}

func TestArchiveRepositoryExpiresEntries(t *testing.T) {
	ctx := context.Background()
	store := NewArchiveStore()
	_ = store.RecordMatch(ctx, domain.MatchSummary{Code: 654321})

	loader := &countingLoader{inner: store}
	repo := NewArchiveRepository(loader, 10*time.Millisecond)

	if _, err := repo.GetSummary(ctx, 654321); err != nil {
		t.Fatalf("get summary: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if _, err := repo.GetSummary(ctx, 654321); err != nil {
		t.Fatalf("get summary after expiry: %v", err)
	}
	if got := atomic.LoadInt64(&loader.calls); got != 2 {
		t.Fatalf("expected reload after TTL, got %d loader hits", got)
	}
}

func TestArchiveRepositoryPropagatesNotFound(t *testing.T) {
	repo := NewArchiveRepository(&countingLoader{inner: NewArchiveStore()}, time.Minute)
	if _, err := repo.GetSummary(context.Background(), 999999); err != domain.ErrArchiveNotFound {
		t.Fatalf("expected ErrArchiveNotFound, got %v", err)
	}
}

func TestCodeRegistryReserveRelease(t *testing.T) {
	ctx := context.Background()
	reg := NewCodeRegistry()

	if !reg.Reserve(ctx, 123456) {
		t.Fatalf("fresh code must reserve")
	}
	if reg.Reserve(ctx, 123456) {
		t.Fatalf("double reservation must fail")
	}
	reg.Release(ctx, 123456)
	if !reg.Reserve(ctx, 123456) {
		t.Fatalf("released code must reserve again")
	}
}
