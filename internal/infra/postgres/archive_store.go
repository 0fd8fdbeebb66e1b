package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"trivia-match-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ArchiveStore persists finished-match summaries as JSONB rows. It serves
// both sides of the archive path: app.Archiver for writes at match end and
// memory.ArchiveLoader for reads behind the caches.
type ArchiveStore struct {
	pool *pgxpool.Pool
}

func NewArchiveStore(pool *pgxpool.Pool) *ArchiveStore {
	return &ArchiveStore{pool: pool}
}

// RecordMatch upserts the summary for a lobby code. Codes are recycled
// across matches, so a later match under the same code replaces the row.
func (s *ArchiveStore) RecordMatch(ctx context.Context, summary domain.MatchSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO match_archive (code, data, finished_at_sec)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (code) DO UPDATE SET data = EXCLUDED.data, finished_at_sec = EXCLUDED.finished_at_sec`,
		summary.Code, data, summary.FinishedAtSec)
	if err != nil {
		return fmt.Errorf("record match: %w", err)
	}
	return nil
}

func (s *ArchiveStore) LoadSummary(ctx context.Context, code int) (domain.MatchSummary, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM match_archive WHERE code=$1`, code).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.MatchSummary{}, domain.ErrArchiveNotFound
	}
	if err != nil {
		return domain.MatchSummary{}, fmt.Errorf("load summary: %w", err)
	}
	var summary domain.MatchSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return domain.MatchSummary{}, fmt.Errorf("unmarshal summary: %w", err)
	}
	return summary, nil
}
