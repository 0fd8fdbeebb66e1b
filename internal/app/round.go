package app

import (
	"context"
	"log"

	"trivia-match-service/internal/domain"
)

// AdvanceSkipReason explains why an advance call applied no transition.
type AdvanceSkipReason string

const (
	// ReasonNone means the advance was applied.
	ReasonNone AdvanceSkipReason = ""
	// ReasonNotInPlay means the session is not in PLAY.
	ReasonNotInPlay AdvanceSkipReason = "not_in_play"
	// ReasonStaleNonce means another trigger already won this phase instance.
	ReasonStaleNonce AdvanceSkipReason = "stale_nonce"
	// ReasonMissingPhaseState means a PLAY session carried no live round.
	ReasonMissingPhaseState AdvanceSkipReason = "missing_phase_state"
	// ReasonMissingQuestion means the live question vanished; the match is
	// force-ended rather than left stuck.
	ReasonMissingQuestion AdvanceSkipReason = "missing_question"
)

// AdvancePhase labels what the applied transition produced.
type AdvancePhase string

const (
	AdvancedToRating         AdvancePhase = "RATING"
	AdvancedToAnsweringOrEnd AdvancePhase = "ANSWERING_OR_END"
)

// AdvanceResult reports the outcome of one advance attempt.
type AdvanceResult struct {
	Advanced bool              `json:"advanced"`
	Phase    AdvancePhase      `json:"phase,omitempty"`
	Reason   AdvanceSkipReason `json:"reason,omitempty"`
}

// advanceEffects carries side effects out of the transaction: deadlines are
// armed and summaries archived only after the writes have committed, so a
// callback can never observe (or a failure never roll back) in-flight state.
type advanceEffects struct {
	arms    []armRequest
	summary *domain.MatchSummary // set when this transition ended the match
}

// runEffects applies post-commit side effects.
func (s *GameService) runEffects(ctx context.Context, fx advanceEffects) {
	s.armAll(fx.arms)
	if fx.summary == nil {
		return
	}
	if s.codes != nil {
		s.codes.Release(ctx, fx.summary.Code)
	}
	if s.archiver != nil {
		if err := s.archiver.RecordMatch(ctx, *fx.summary); err != nil {
			log.Printf("archive match %d: %v", fx.summary.Code, err)
		}
	}
}

// advanceRound is the state-transition function. The expectedNonce comparison
// is the optimistic compare-and-swap that makes concurrent triggers (a late
// timer racing a manual advance) converge on exactly one committed transition
// per phase instance.
func (s *GameService) advanceRound(tx Tx, sessionID string, expectedNonce int64) (AdvanceResult, advanceEffects) {
	session, ok := tx.GetSession(sessionID)
	if !ok || session.State != domain.StatePlay {
		return AdvanceResult{Reason: ReasonNotInPlay}, advanceEffects{}
	}
	if session.PhaseNonce != expectedNonce {
		return AdvanceResult{Reason: ReasonStaleNonce}, advanceEffects{}
	}
	if session.Round == nil || session.Round.QuestionID == "" {
		return AdvanceResult{Reason: ReasonMissingPhaseState}, advanceEffects{}
	}

	question, ok := tx.GetQuestion(session.Round.QuestionID)
	if !ok {
		// The live question vanished from under the match. Force the
		// session terminal instead of leaving it stuck in PLAY.
		session.State = domain.StateEnded
		session.Round = nil
		session.PhaseNonce++
		tx.PutSession(session)
		return AdvanceResult{Reason: ReasonMissingQuestion}, advanceEffects{}
	}

	nextNonce := session.PhaseNonce + 1
	nowSec := s.nowSec()

	if session.Round.Phase == domain.PhaseAnswering {
		arm := s.startRatingPhase(tx, session, nextNonce, nowSec)
		return AdvanceResult{Advanced: true, Phase: AdvancedToRating}, advanceEffects{arms: []armRequest{arm}}
	}

	fx := s.finalizeRatingPhase(tx, session, question, nextNonce, nowSec)
	return AdvanceResult{Advanced: true, Phase: AdvancedToAnsweringOrEnd}, fx
}

// startAnsweringPhase puts the session into ANSWERING for questionID and
// returns the deadline to arm.
func (s *GameService) startAnsweringPhase(tx Tx, session domain.Session, questionID string, cursor int, nextNonce, startedAtSec int64) armRequest {
	duration := questionDurationSeconds(domain.PhaseAnswering, session.TimePerQSec)
	session.QuestionCursor = cursor
	session.Round = &domain.RoundState{
		Phase:        domain.PhaseAnswering,
		QuestionID:   questionID,
		StartedAtSec: startedAtSec,
		EndsAtSec:    startedAtSec + duration,
	}
	session.PhaseNonce = nextNonce
	tx.PutSession(session)
	return armRequest{sessionID: session.ID, nonce: nextNonce, delaySec: duration}
}

// startRatingPhase flips the live round to RATING with a doubled window.
func (s *GameService) startRatingPhase(tx Tx, session domain.Session, nextNonce, startedAtSec int64) armRequest {
	duration := questionDurationSeconds(domain.PhaseRating, session.TimePerQSec)
	session.Round = &domain.RoundState{
		Phase:        domain.PhaseRating,
		QuestionID:   session.Round.QuestionID,
		StartedAtSec: startedAtSec,
		EndsAtSec:    startedAtSec + duration,
	}
	session.PhaseNonce = nextNonce
	tx.PutSession(session)
	return armRequest{sessionID: session.ID, nonce: nextNonce, delaySec: duration}
}

// finalizeRatingPhase converts ratings into points, marks the question
// answered, and either starts the next round or ends the match. It runs
// exactly once per question because it is only reachable through the nonce
// guard in advanceRound.
func (s *GameService) finalizeRatingPhase(tx Tx, session domain.Session, question domain.Question, nextNonce, nowSec int64) advanceEffects {
	responses := tx.ResponsesForQuestion(question.ID)
	pointsByResponder := map[string]int{}

	for _, response := range responses {
		correctness := normalizeStoredStars(response.CorrectnessStars)
		creativity := normalizeStoredStars(response.CreativityStars)

		// Unrated or out-of-range responses are normalized in place so the
		// stored record matches the points that were actually awarded.
		if response.CorrectnessStars == nil || *response.CorrectnessStars != correctness ||
			response.CreativityStars == nil || *response.CreativityStars != creativity ||
			response.RatedAtSec == nil {
			c, cr := correctness, creativity
			response.CorrectnessStars = &c
			response.CreativityStars = &cr
			if response.RatedAtSec == nil {
				at := nowSec
				response.RatedAtSec = &at
			}
			tx.PutResponse(response)
		}

		pointsByResponder[response.ResponderID] += correctness + creativity
	}

	for responderID, earned := range pointsByResponder {
		if earned < 1 {
			continue
		}
		responder, ok := tx.GetPlayer(responderID)
		if !ok || !responder.InLobby(session.ID) {
			// No points for players who left the lobby mid-match.
			continue
		}
		responder.Score += earned
		tx.PutPlayer(responder)
	}

	question.IsAnswered = true
	tx.PutQuestion(question)

	nextCursor := session.QuestionCursor + 1
	if nextCursor >= len(session.QuestionOrder) {
		session.State = domain.StateEnded
		session.Round = nil
		session.QuestionCursor = len(session.QuestionOrder)
		session.PhaseNonce = nextNonce
		tx.PutSession(session)

		standings := buildStandings(tx.PlayersInSession(session.ID), session.HostPlayerID, "")
		return advanceEffects{summary: &domain.MatchSummary{
			Code:          session.Code,
			QuestionCount: len(session.QuestionOrder),
			Standings:     standings,
			WinnerIDs:     winnerIDs(standings),
			FinishedAtSec: nowSec,
		}}
	}

	arm := s.startAnsweringPhase(tx, session, session.QuestionOrder[nextCursor], nextCursor, nextNonce, nowSec)
	return advanceEffects{arms: []armRequest{arm}}
}
