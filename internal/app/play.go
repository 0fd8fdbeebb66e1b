package app

import (
	"context"

	"trivia-match-service/internal/domain"
)

// SubmitResult is the outcome of a successful answer submission.
type SubmitResult struct {
	Submitted    bool  `json:"submitted"`
	UpdatedAtSec int64 `json:"updatedAtSec"`
}

// RateResult is the outcome of a successful rating.
type RateResult struct {
	Rated bool `json:"rated"`
}

// SubmitAnswer records or overwrites the player's answer to the live
// question during ANSWERING. Once every non-owner member of the lobby has a
// response on file, the remaining window shrinks to the accelerated length.
func (s *GameService) SubmitAnswer(ctx context.Context, code int, playerID, text string) (SubmitResult, error) {
	answer, err := sanitizeText(text)
	if err != nil {
		return SubmitResult{}, err
	}

	var (
		result SubmitResult
		arms   []armRequest
	)
	err = s.store.Update(ctx, func(tx Tx) error {
		player, ok := tx.GetPlayer(playerID)
		if !ok {
			return domain.ErrPlayerNotFound
		}
		session, err := requireLobbyByCode(tx, player, code)
		if err != nil {
			return err
		}
		if session.State != domain.StatePlay {
			return domain.ErrWrongState
		}
		if session.Round == nil || session.Round.Phase != domain.PhaseAnswering {
			return domain.ErrWrongState
		}

		nowSec := s.nowSec()
		if nowSec >= session.Round.EndsAtSec {
			return domain.ErrWindowClosed
		}

		question, ok := tx.GetQuestion(session.Round.QuestionID)
		if !ok {
			return domain.ErrMissingRoundState
		}
		if question.OwnerPlayerID == player.ID {
			return domain.ErrOwnAnswerRejected
		}

		if existing, ok := tx.ResponseByResponder(question.ID, player.ID); ok {
			existing.AnswerText = answer
			existing.UpdatedAtSec = nowSec
			tx.PutResponse(existing)
		} else {
			tx.InsertResponse(domain.Response{
				SessionID:      session.ID,
				QuestionID:     question.ID,
				ResponderID:    player.ID,
				AnswerText:     answer,
				SubmittedAtSec: nowSec,
				UpdatedAtSec:   nowSec,
			})
		}

		if arm, ok := s.maybeAccelerateAnswering(tx, session, question, nowSec); ok {
			arms = append(arms, arm)
		}

		result = SubmitResult{Submitted: true, UpdatedAtSec: nowSec}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}
	s.armAll(arms)
	s.notifyCode(ctx, code)
	return result, nil
}

// maybeAccelerateAnswering shrinks the answering deadline once every
// non-owner lobby member has submitted. The re-armed callback keeps the
// current nonce: it is the same phase instance, just ending sooner, and
// whichever of the two timers fires first wins the nonce race.
func (s *GameService) maybeAccelerateAnswering(tx Tx, session domain.Session, question domain.Question, nowSec int64) (armRequest, bool) {
	remaining := session.Round.EndsAtSec - nowSec
	if remaining <= acceleratedWindowSeconds {
		return armRequest{}, false
	}

	expected := 0
	for _, member := range tx.PlayersInSession(session.ID) {
		if member.ID != question.OwnerPlayerID {
			expected++
		}
	}
	if expected < 1 {
		return armRequest{}, false
	}

	submitted := 0
	for _, response := range tx.ResponsesForQuestion(question.ID) {
		if response.ResponderID != question.OwnerPlayerID {
			submitted++
		}
	}
	if submitted < expected {
		return armRequest{}, false
	}

	session.Round.EndsAtSec = nowSec + acceleratedWindowSeconds
	tx.PutSession(session)
	return armRequest{sessionID: session.ID, nonce: session.PhaseNonce, delaySec: acceleratedWindowSeconds}, true
}

// RateResponse stores the question owner's star ratings for one response
// during RATING. Stars accept fractional input but are stored rounded to the
// nearest integer in [0,5]. Once every submitted response carries both star
// fields, the remaining window shrinks to the accelerated length.
func (s *GameService) RateResponse(ctx context.Context, code int, playerID, responseID string, correctness, creativity float64) (RateResult, error) {
	correctnessStars, err := clampAndValidateStars(correctness)
	if err != nil {
		return RateResult{}, err
	}
	creativityStars, err := clampAndValidateStars(creativity)
	if err != nil {
		return RateResult{}, err
	}

	var arms []armRequest
	err = s.store.Update(ctx, func(tx Tx) error {
		player, ok := tx.GetPlayer(playerID)
		if !ok {
			return domain.ErrPlayerNotFound
		}
		session, err := requireLobbyByCode(tx, player, code)
		if err != nil {
			return err
		}
		if session.State != domain.StatePlay {
			return domain.ErrWrongState
		}
		if session.Round == nil || session.Round.Phase != domain.PhaseRating {
			return domain.ErrWrongState
		}

		nowSec := s.nowSec()
		if nowSec >= session.Round.EndsAtSec {
			return domain.ErrWindowClosed
		}

		question, ok := tx.GetQuestion(session.Round.QuestionID)
		if !ok {
			return domain.ErrMissingRoundState
		}
		if question.OwnerPlayerID != player.ID {
			return domain.ErrNotOwner
		}

		response, ok := tx.GetResponse(responseID)
		if !ok || response.SessionID != session.ID || response.QuestionID != question.ID {
			return domain.ErrResponseMismatch
		}

		ratedAt := nowSec
		response.CorrectnessStars = &correctnessStars
		response.CreativityStars = &creativityStars
		response.RatedAtSec = &ratedAt
		tx.PutResponse(response)

		if arm, ok := s.maybeAccelerateRating(tx, session, question, nowSec); ok {
			arms = append(arms, arm)
		}
		return nil
	})
	if err != nil {
		return RateResult{}, err
	}
	s.armAll(arms)
	s.notifyCode(ctx, code)
	return RateResult{Rated: true}, nil
}

// maybeAccelerateRating mirrors maybeAccelerateAnswering for the rating
// phase: the window shrinks once every submitted response is fully rated.
func (s *GameService) maybeAccelerateRating(tx Tx, session domain.Session, question domain.Question, nowSec int64) (armRequest, bool) {
	remaining := session.Round.EndsAtSec - nowSec
	if remaining <= acceleratedWindowSeconds {
		return armRequest{}, false
	}

	responses := tx.ResponsesForQuestion(question.ID)
	if len(responses) < 1 {
		return armRequest{}, false
	}
	for _, response := range responses {
		if !response.FullyRated() {
			return armRequest{}, false
		}
	}

	session.Round.EndsAtSec = nowSec + acceleratedWindowSeconds
	tx.PutSession(session)
	return armRequest{sessionID: session.ID, nonce: session.PhaseNonce, delaySec: acceleratedWindowSeconds}, true
}

// RequestEarlyAdvance skips the rest of the current phase. The host may
// always request it; the question owner may request it during RATING once
// every submitted response is fully rated. Delegates to the same
// nonce-guarded transition the timer uses.
func (s *GameService) RequestEarlyAdvance(ctx context.Context, code int, playerID string) (AdvanceResult, error) {
	var (
		result AdvanceResult
		fx     advanceEffects
	)
	err := s.store.Update(ctx, func(tx Tx) error {
		player, ok := tx.GetPlayer(playerID)
		if !ok {
			return domain.ErrPlayerNotFound
		}
		session, err := requireLobbyByCode(tx, player, code)
		if err != nil {
			return err
		}
		if session.State != domain.StatePlay {
			return domain.ErrWrongState
		}
		if session.Round == nil {
			return domain.ErrMissingRoundState
		}

		if session.HostPlayerID != player.ID {
			if session.Round.Phase != domain.PhaseRating {
				return domain.ErrNotAuthorized
			}
			question, ok := tx.GetQuestion(session.Round.QuestionID)
			if !ok {
				return domain.ErrMissingRoundState
			}
			if question.OwnerPlayerID != player.ID {
				return domain.ErrNotAuthorized
			}
			for _, response := range tx.ResponsesForQuestion(question.ID) {
				if !response.FullyRated() {
					return domain.ErrIncompleteRatings
				}
			}
		}

		result, fx = s.advanceRound(tx, session.ID, session.PhaseNonce)
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	s.runEffects(ctx, fx)
	s.notifyCode(ctx, code)
	return result, nil
}
