package app

import (
	"context"

	"trivia-match-service/internal/domain"
)

// SaveQuestion upserts the player's question for one difficulty slot. Each
// player authors exactly one question per tier; saving again overwrites it
// and resets its answered flag. Only allowed before the match starts.
func (s *GameService) SaveQuestion(ctx context.Context, playerID string, difficulty domain.Difficulty, prompt, answer string) error {
	cleanPrompt, err := sanitizeText(prompt)
	if err != nil {
		return err
	}
	cleanAnswer, err := sanitizeText(answer)
	if err != nil {
		return err
	}

	code := 0
	err = s.store.Update(ctx, func(tx Tx) error {
		player, ok := tx.GetPlayer(playerID)
		if !ok {
			return domain.ErrPlayerNotFound
		}
		session, err := requireLobby(tx, player)
		if err != nil {
			return err
		}
		if session.State != domain.StateSetup {
			return domain.ErrWrongState
		}

		questionID := player.QuestionSlot(difficulty)
		if questionID != "" {
			if existing, ok := tx.GetQuestion(questionID); ok {
				existing.Prompt = cleanPrompt
				existing.Answer = cleanAnswer
				existing.IsAnswered = false
				tx.PutQuestion(existing)
				code = session.Code
				return nil
			}
			questionID = ""
		}

		questionID = tx.InsertQuestion(domain.Question{
			SessionID:     session.ID,
			OwnerPlayerID: player.ID,
			Difficulty:    difficulty,
			Prompt:        cleanPrompt,
			Answer:        cleanAnswer,
		})
		player.SetQuestionSlot(difficulty, questionID)
		tx.PutPlayer(player)
		code = session.Code
		return nil
	})
	if err != nil {
		return err
	}
	s.notifyCode(ctx, code)
	return nil
}

// StartMatch seeds the question order and opens the first ANSWERING phase.
// Host only; requires at least two players, each with all three difficulty
// slots filled. Calling it while already in PLAY is a no-op.
func (s *GameService) StartMatch(ctx context.Context, playerID string) ([]string, error) {
	var (
		order []string
		arms  []armRequest
		code  int
	)
	err := s.store.Update(ctx, func(tx Tx) error {
		player, ok := tx.GetPlayer(playerID)
		if !ok {
			return domain.ErrPlayerNotFound
		}
		session, err := requireLobby(tx, player)
		if err != nil {
			return err
		}
		if session.HostPlayerID != player.ID {
			return domain.ErrNotHost
		}
		if session.State == domain.StatePlay {
			order = append([]string(nil), session.QuestionOrder...)
			code = session.Code
			return nil
		}
		if session.State != domain.StateSetup {
			return domain.ErrWrongState
		}

		players := tx.PlayersInSession(session.ID)
		if len(players) < 2 {
			return domain.ErrNotEnoughPlayers
		}
		for _, candidate := range players {
			for _, d := range domain.Difficulties {
				if candidate.QuestionSlot(d) == "" {
					return domain.ErrInsufficientQuestions
				}
			}
		}

		unresolved := 0
		questions := tx.QuestionsInSession(session.ID)
		for _, q := range questions {
			if !q.IsAnswered {
				unresolved++
			}
		}
		limit := effectiveMaxQuestions(session.MaxQuestions, unresolved)
		if limit < minQuestionCount {
			return domain.ErrInsufficientQuestions
		}

		pools := buildQuestionPools(questions, s.shuffleRand())
		order = buildBalancedOrder(pools, limit)
		if len(order) == 0 {
			return domain.ErrInsufficientQuestions
		}

		session.State = domain.StatePlay
		session.QuestionOrder = order
		arm := s.startAnsweringPhase(tx, session, order[0], 0, 1, s.nowSec())
		arms = append(arms, arm)
		code = session.Code
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.armAll(arms)
	s.notifyCode(ctx, code)
	return order, nil
}
