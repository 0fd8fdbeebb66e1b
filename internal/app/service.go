package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"trivia-match-service/internal/domain"
)

// GameService contains the match use cases: lobby management, question
// authoring, the round lifecycle engine, and the end screen.
type GameService struct {
	store    Store
	codes    CodeRegistry
	archiver Archiver // optional; nil disables archiving
	phases   *phaseScheduler
	events   *Broadcaster
	now      func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// NewGameService wires the service against a store, a delayed-callback
// runner, and a lobby-code registry. archiver may be nil.
func NewGameService(store Store, runner CallbackRunner, codes CodeRegistry, archiver Archiver) *GameService {
	return newGameServiceWithClock(store, runner, codes, archiver, time.Now)
}

// NewGameServiceWithClock is test-only for deterministic timestamps.
func NewGameServiceWithClock(store Store, runner CallbackRunner, codes CodeRegistry, archiver Archiver, now func() time.Time) *GameService {
	return newGameServiceWithClock(store, runner, codes, archiver, now)
}

func newGameServiceWithClock(store Store, runner CallbackRunner, codes CodeRegistry, archiver Archiver, now func() time.Time) *GameService {
	s := &GameService{
		store:    store,
		codes:    codes,
		archiver: archiver,
		events:   NewBroadcaster(),
		now:      now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.phases = &phaseScheduler{runner: runner, onDeadline: s.advanceOnTimer}
	return s
}

// nowSec returns the current time in whole seconds since the epoch.
func (s *GameService) nowSec() int64 {
	return s.now().Unix()
}

func (s *GameService) intn(n int) int {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.rnd.Intn(n)
}

func (s *GameService) shuffleRand() *rand.Rand {
	// Callers run inside a store transaction, which already serializes use.
	return s.rnd
}

// questionDurationSeconds returns the phase window length. The rating window
// is double the answering window to cover the owner's review workload.
func questionDurationSeconds(phase domain.RoundPhase, timePerQSec int64) int64 {
	if phase == domain.PhaseRating {
		return timePerQSec * 2
	}
	return timePerQSec
}

// phaseScheduler arms deadline callbacks tagged with a session id and phase
// nonce. There is no cancellation: superseding a deadline means arming a new
// callback under a newer (or, for acceleration, the same) nonce and letting
// the loser of the race hit the stale-nonce guard.
type phaseScheduler struct {
	runner     CallbackRunner
	onDeadline func(sessionID string, expectedNonce int64)
}

// Arm schedules onDeadline(sessionID, nonce) after max(0, delaySec) seconds.
func (p *phaseScheduler) Arm(sessionID string, nonce int64, delaySec int64) {
	if delaySec < 0 {
		delaySec = 0
	}
	p.runner.RunAfter(time.Duration(delaySec)*time.Second, func() {
		p.onDeadline(sessionID, nonce)
	})
}

// armRequest is a deadline to arm once the surrounding transaction has
// committed. Arming early could let the callback fire against not-yet-written
// state and lose the transition.
type armRequest struct {
	sessionID string
	nonce     int64
	delaySec  int64
}

func (s *GameService) armAll(arms []armRequest) {
	for _, a := range arms {
		s.phases.Arm(a.sessionID, a.nonce, a.delaySec)
	}
}

// advanceOnTimer is the scheduled-deadline entry point. Stale nonces are the
// expected outcome of the no-cancellation design, so they are logged and
// swallowed, never surfaced.
func (s *GameService) advanceOnTimer(sessionID string, expectedNonce int64) {
	result, err := s.OnDeadline(context.Background(), sessionID, expectedNonce)
	if err != nil {
		log.Printf("phase timer for session %s: %v", sessionID, err)
		return
	}
	if !result.Advanced && result.Reason != ReasonStaleNonce && result.Reason != ReasonNotInPlay {
		log.Printf("phase timer for session %s skipped: %s", sessionID, result.Reason)
	}
}

// OnDeadline applies one phase transition if expectedNonce still identifies
// the live phase. It is safe to invoke any number of times with any nonce.
func (s *GameService) OnDeadline(ctx context.Context, sessionID string, expectedNonce int64) (AdvanceResult, error) {
	var (
		result AdvanceResult
		fx     advanceEffects
	)
	err := s.store.Update(ctx, func(tx Tx) error {
		result, fx = s.advanceRound(tx, sessionID, expectedNonce)
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	s.runEffects(ctx, fx)
	if result.Advanced {
		s.notifySession(ctx, sessionID)
	}
	return result, nil
}

// notifySession publishes a state-change event for the session's lobby code.
func (s *GameService) notifySession(ctx context.Context, sessionID string) {
	var change StateChange
	ok := false
	_ = s.store.View(ctx, func(tx Tx) error {
		session, found := tx.GetSession(sessionID)
		if !found {
			return nil
		}
		ok = true
		change = StateChange{Code: session.Code, State: session.State, Nonce: session.PhaseNonce}
		if session.Round != nil {
			change.Phase = session.Round.Phase
		}
		return nil
	})
	if ok {
		s.events.Publish(change.Code, change)
	}
}

// Subscribe returns a channel of state-change events for a lobby code. The
// caller must invoke cancel to avoid leaks.
func (s *GameService) Subscribe(code int) (<-chan StateChange, func()) {
	return s.events.Subscribe(code)
}
