package app

import (
	"context"
	"fmt"
	"sort"

	"trivia-match-service/internal/domain"
)

const codeAllocationAttempts = 50

// EnsurePlayer upserts the player record for an authenticated user. Session
// bootstrap itself (who the user is) belongs to the transport's auth layer;
// the service only guarantees a row exists and the display name is fresh.
func (s *GameService) EnsurePlayer(ctx context.Context, playerID, name string) (domain.Player, error) {
	cleaned, err := sanitizeText(name)
	if err != nil {
		return domain.Player{}, err
	}
	var player domain.Player
	err = s.store.Update(ctx, func(tx Tx) error {
		existing, ok := tx.GetPlayer(playerID)
		if ok {
			existing.Name = cleaned
			tx.PutPlayer(existing)
			player = existing
			return nil
		}
		player = domain.Player{ID: playerID, Name: cleaned}
		tx.InsertPlayer(player)
		return nil
	})
	return player, err
}

// CreateLobby opens a new SETUP lobby hosted by the player and returns its
// code. If the player already hosts a SETUP lobby the existing code is
// returned instead of opening another one.
func (s *GameService) CreateLobby(ctx context.Context, playerID string) (int, error) {
	code := 0
	err := s.store.Update(ctx, func(tx Tx) error {
		player, ok := tx.GetPlayer(playerID)
		if !ok {
			return domain.ErrPlayerNotFound
		}

		if player.SessionID != "" {
			if existing, ok := tx.GetSession(player.SessionID); ok &&
				existing.HostPlayerID == player.ID && existing.State == domain.StateSetup {
				code = existing.Code
				return nil
			}
		}

		freshCode, err := s.allocateCode(ctx, tx)
		if err != nil {
			return err
		}

		session := domain.Session{
			Code:         freshCode,
			HostPlayerID: player.ID,
			State:        domain.StateSetup,
			TimePerQSec:  60,
			MaxQuestions: defaultMaxQuestions,
			PhaseNonce:   0,
		}
		sessionID := tx.InsertSession(session)

		player.ClearLobbyState()
		player.SessionID = sessionID
		tx.PutPlayer(player)

		code = freshCode
		return nil
	})
	if err != nil {
		return 0, err
	}
	return code, nil
}

// allocateCode draws random 6-digit codes until one is free in both the
// store and the code registry.
func (s *GameService) allocateCode(ctx context.Context, tx Tx) (int, error) {
	for attempt := 0; attempt < codeAllocationAttempts; attempt++ {
		candidate := 100000 + s.intn(900000)
		if _, taken := tx.SessionByCode(candidate); taken {
			continue
		}
		if s.codes != nil && !s.codes.Reserve(ctx, candidate) {
			continue
		}
		return candidate, nil
	}
	return 0, fmt.Errorf("could not allocate a unique lobby code")
}

// JoinLobby adds the player to a SETUP lobby. Joining the lobby they are
// already in is a no-op.
func (s *GameService) JoinLobby(ctx context.Context, playerID string, code int) error {
	if !validLobbyCode(code) {
		return domain.ErrInvalidCode
	}
	err := s.store.Update(ctx, func(tx Tx) error {
		player, ok := tx.GetPlayer(playerID)
		if !ok {
			return domain.ErrPlayerNotFound
		}
		session, ok := tx.SessionByCode(code)
		if !ok {
			return domain.ErrSessionNotFound
		}
		if session.State != domain.StateSetup {
			return domain.ErrWrongState
		}
		if player.SessionID == session.ID {
			return nil
		}

		player.ClearLobbyState()
		player.SessionID = session.ID
		tx.PutPlayer(player)
		return nil
	})
	if err != nil {
		return err
	}
	s.notifyCode(ctx, code)
	return nil
}

// LeaveLobby detaches the player. A departing host hands the lobby to the
// remaining player with the lexicographically smallest name.
func (s *GameService) LeaveLobby(ctx context.Context, playerID string) error {
	code := 0
	err := s.store.Update(ctx, func(tx Tx) error {
		player, ok := tx.GetPlayer(playerID)
		if !ok {
			return domain.ErrPlayerNotFound
		}
		if player.SessionID == "" {
			return nil
		}

		sessionID := player.SessionID
		player.ClearLobbyState()
		tx.PutPlayer(player)

		session, ok := tx.GetSession(sessionID)
		if !ok {
			return nil
		}
		code = session.Code

		remaining := tx.PlayersInSession(sessionID)
		if len(remaining) == 0 {
			return nil
		}
		if session.HostPlayerID == playerID {
			sort.Slice(remaining, func(i, j int) bool {
				return remaining[i].Name < remaining[j].Name
			})
			session.HostPlayerID = remaining[0].ID
			tx.PutSession(session)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if code != 0 {
		s.notifyCode(ctx, code)
	}
	return nil
}

// KickPlayer removes another player from the host's lobby before the match
// starts.
func (s *GameService) KickPlayer(ctx context.Context, hostPlayerID, targetPlayerID string) error {
	code := 0
	err := s.store.Update(ctx, func(tx Tx) error {
		host, ok := tx.GetPlayer(hostPlayerID)
		if !ok {
			return domain.ErrPlayerNotFound
		}
		session, err := requireLobby(tx, host)
		if err != nil {
			return err
		}
		if session.HostPlayerID != host.ID {
			return domain.ErrNotHost
		}
		if session.State != domain.StateSetup {
			return domain.ErrWrongState
		}
		if targetPlayerID == host.ID {
			return domain.ErrNotAuthorized
		}

		target, ok := tx.GetPlayer(targetPlayerID)
		if !ok || !target.InLobby(session.ID) {
			return domain.ErrNotInLobby
		}

		target.ClearLobbyState()
		tx.PutPlayer(target)
		code = session.Code
		return nil
	})
	if err != nil {
		return err
	}
	s.notifyCode(ctx, code)
	return nil
}

// UpdateTimePerQuestion sets the answering window, clamped to sane bounds.
// Host only, before the match starts.
func (s *GameService) UpdateTimePerQuestion(ctx context.Context, playerID string, seconds int64) (int64, error) {
	clamped := clampTimerSeconds(seconds)
	code := 0
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
		if session.State != domain.StateSetup {
			return domain.ErrWrongState
		}
		session.TimePerQSec = clamped
		tx.PutSession(session)
		code = session.Code
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.notifyCode(ctx, code)
	return clamped, nil
}

// UpdateMaxQuestions caps the match length, clamped between the minimum and
// the questions currently saved in the lobby.
func (s *GameService) UpdateMaxQuestions(ctx context.Context, playerID string, max int) (int, error) {
	applied := 0
	code := 0
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
		if session.State != domain.StateSetup {
			return domain.ErrWrongState
		}

		available := 0
		for _, q := range tx.QuestionsInSession(session.ID) {
			if !q.IsAnswered {
				available++
			}
		}
		clamped, err := clampMaxQuestions(max, available)
		if err != nil {
			return err
		}
		session.MaxQuestions = clamped
		tx.PutSession(session)
		applied = clamped
		code = session.Code
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.notifyCode(ctx, code)
	return applied, nil
}

// requireLobby loads the session the player is a member of.
func requireLobby(tx Tx, player domain.Player) (domain.Session, error) {
	if player.SessionID == "" {
		return domain.Session{}, domain.ErrNotInLobby
	}
	session, ok := tx.GetSession(player.SessionID)
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

// requireLobbyByCode loads the lobby by code and checks membership.
func requireLobbyByCode(tx Tx, player domain.Player, code int) (domain.Session, error) {
	if !validLobbyCode(code) {
		return domain.Session{}, domain.ErrInvalidCode
	}
	session, ok := tx.SessionByCode(code)
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if !player.InLobby(session.ID) {
		return domain.Session{}, domain.ErrNotInLobby
	}
	return session, nil
}

// notifyCode publishes a state-change for a lobby code after a commit.
func (s *GameService) notifyCode(ctx context.Context, code int) {
	if code == 0 {
		return
	}
	var change StateChange
	ok := false
	_ = s.store.View(ctx, func(tx Tx) error {
		session, found := tx.SessionByCode(code)
		if !found {
			return nil
		}
		ok = true
		change = StateChange{Code: code, State: session.State, Nonce: session.PhaseNonce}
		if session.Round != nil {
			change.Phase = session.Round.Phase
		}
		return nil
	})
	if ok {
		s.events.Publish(code, change)
	}
}
