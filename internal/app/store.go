package app

import (
	"context"
	"time"

	"trivia-match-service/internal/domain"
)

// Store abstracts the transactional document store backing all game state
// (in-memory, or anything providing the same atomicity). Every public
// operation of the service runs as exactly one Update call; the
// implementation must apply the transaction's writes all-or-nothing and must
// not interleave two transactions.
type Store interface {
	// Update runs fn inside a read-write transaction. If fn returns an
	// error, none of the transaction's writes are applied.
	Update(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn inside a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes typed accessors over the document tables. Reads always observe
// the freshest committed state plus the transaction's own writes; invariant
// checks (nonce, phase, ownership) therefore never act on data cached across
// operations.
type Tx interface {
	GetSession(id string) (domain.Session, bool)
	SessionByCode(code int) (domain.Session, bool)
	InsertSession(s domain.Session) string
	PutSession(s domain.Session)

	GetPlayer(id string) (domain.Player, bool)
	InsertPlayer(p domain.Player) string
	PutPlayer(p domain.Player)
	PlayersInSession(sessionID string) []domain.Player

	GetQuestion(id string) (domain.Question, bool)
	InsertQuestion(q domain.Question) string
	PutQuestion(q domain.Question)
	QuestionsInSession(sessionID string) []domain.Question

	GetResponse(id string) (domain.Response, bool)
	InsertResponse(r domain.Response) string
	PutResponse(r domain.Response)
	ResponsesForQuestion(questionID string) []domain.Response
	ResponseByResponder(questionID, responderID string) (domain.Response, bool)
}

// CallbackRunner is the delayed-callback facility: run fn after roughly d.
// Delivery is at-least-once and may be late or duplicated; there is no
// cancellation. Scheduled handlers must be idempotent, which the round engine
// guarantees via the phase nonce.
type CallbackRunner interface {
	RunAfter(d time.Duration, fn func())
}

// CodeRegistry tracks which lobby codes are currently claimed, so freshly
// generated codes never collide with a live lobby (redis-backed in
// multi-instance deployments, in-memory otherwise). Reservations are
// best-effort liveness markers, not the source of truth; the store's by-code
// lookup remains authoritative.
type CodeRegistry interface {
	// Reserve claims code; it returns false if another lobby holds it.
	Reserve(ctx context.Context, code int) bool
	// Release frees the code once the lobby ends.
	Release(ctx context.Context, code int)
}

// Archiver persists the summary of a finished match. Archive failures are
// surfaced to the caller for logging but never roll back the match's ENDED
// transition.
type Archiver interface {
	RecordMatch(ctx context.Context, summary domain.MatchSummary) error
}

// ArchiveRepository serves archived match summaries (typically cached over an
// ArchiveLoader).
type ArchiveRepository interface {
	GetSummary(ctx context.Context, code int) (domain.MatchSummary, error)
}
