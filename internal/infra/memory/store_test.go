package memory

import (
	"context"
	"errors"
	"testing"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

func TestUpdateCommitsAllWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	var sessionID string
	err := store.Update(ctx, func(tx app.Tx) error {
		sessionID = tx.InsertSession(domain.Session{Code: 123456, State: domain.StateSetup})
		tx.InsertPlayer(domain.Player{ID: "u1", Name: "Alice", SessionID: sessionID})
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	err = store.View(ctx, func(tx app.Tx) error {
		if _, ok := tx.GetSession(sessionID); !ok {
			t.Fatalf("session not committed")
		}
		if _, ok := tx.SessionByCode(123456); !ok {
			t.Fatalf("code lookup failed")
		}
		players := tx.PlayersInSession(sessionID)
		if len(players) != 1 || players[0].Name != "Alice" {
			t.Fatalf("expected Alice in session, got %v", players)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	err := store.Update(ctx, func(tx app.Tx) error {
		tx.InsertSession(domain.Session{Code: 222222})
		tx.InsertPlayer(domain.Player{ID: "u1", Name: "Alice"})
		return boom
	})
	if err != boom {
		t.Fatalf("expected error surfaced, got %v", err)
	}

	_ = store.View(ctx, func(tx app.Tx) error {
		if _, ok := tx.SessionByCode(222222); ok {
			t.Fatalf("session committed despite failed transaction")
		}
		if _, ok := tx.GetPlayer("u1"); ok {
			t.Fatalf("player committed despite failed transaction")
		}
		return nil
	})
}

func TestReadsSeeOwnStagedWrites(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.Update(ctx, func(tx app.Tx) error {
		id := tx.InsertSession(domain.Session{Code: 333333, State: domain.StateSetup})
		session, ok := tx.GetSession(id)
		if !ok {
			t.Fatalf("staged session invisible to its transaction")
		}
		session.State = domain.StatePlay
		tx.PutSession(session)

		reread, _ := tx.GetSession(id)
		if reread.State != domain.StatePlay {
			t.Fatalf("staged overwrite invisible, got %s", reread.State)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestSessionCloneIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	var id string
	_ = store.Update(ctx, func(tx app.Tx) error {
		id = tx.InsertSession(domain.Session{
			Code:          444444,
			State:         domain.StatePlay,
			QuestionOrder: []string{"q1", "q2"},
			Round:         &domain.RoundState{Phase: domain.PhaseAnswering, QuestionID: "q1", EndsAtSec: 100},
		})
		return nil
	})

	// Mutating a read copy must not write through to committed state.
	_ = store.View(ctx, func(tx app.Tx) error {
		session, _ := tx.GetSession(id)
		session.Round.EndsAtSec = 999
		session.QuestionOrder[0] = "tampered"
		return nil
	})

	_ = store.View(ctx, func(tx app.Tx) error {
		session, _ := tx.GetSession(id)
		if session.Round.EndsAtSec != 100 {
			t.Fatalf("round state leaked: %d", session.Round.EndsAtSec)
		}
		if session.QuestionOrder[0] != "q1" {
			t.Fatalf("question order leaked: %v", session.QuestionOrder)
		}
		return nil
	})
}

func TestResponseCloneIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	stars := 3
	var id string
	_ = store.Update(ctx, func(tx app.Tx) error {
		id = tx.InsertResponse(domain.Response{
			QuestionID:       "q1",
			ResponderID:      "u1",
			AnswerText:       "answer",
			CorrectnessStars: &stars,
		})
		return nil
	})
	stars = 5 // caller keeps its pointer; the store must not

	_ = store.View(ctx, func(tx app.Tx) error {
		response, _ := tx.GetResponse(id)
		if *response.CorrectnessStars != 3 {
			t.Fatalf("stored stars aliased caller memory: %d", *response.CorrectnessStars)
		}
		*response.CorrectnessStars = 1
		return nil
	})

	_ = store.View(ctx, func(tx app.Tx) error {
		response, _ := tx.GetResponse(id)
		if *response.CorrectnessStars != 3 {
			t.Fatalf("read copy wrote through: %d", *response.CorrectnessStars)
		}
		return nil
	})
}

func TestResponseByResponder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_ = store.Update(ctx, func(tx app.Tx) error {
		tx.InsertResponse(domain.Response{QuestionID: "q1", ResponderID: "u1", AnswerText: "one"})
		tx.InsertResponse(domain.Response{QuestionID: "q1", ResponderID: "u2", AnswerText: "two"})
		tx.InsertResponse(domain.Response{QuestionID: "q2", ResponderID: "u1", AnswerText: "other question"})
		return nil
	})

	_ = store.View(ctx, func(tx app.Tx) error {
		r, ok := tx.ResponseByResponder("q1", "u2")
		if !ok || r.AnswerText != "two" {
			t.Fatalf("expected u2's answer, got %+v (ok=%v)", r, ok)
		}
		if _, ok := tx.ResponseByResponder("q1", "u3"); ok {
			t.Fatalf("unexpected response for absent responder")
		}
		if got := len(tx.ResponsesForQuestion("q1")); got != 2 {
			t.Fatalf("expected 2 responses, got %d", got)
		}
		return nil
	})
}

func TestUpdateHonorsContextCancellation(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Update(ctx, func(tx app.Tx) error {
		t.Fatalf("transaction body ran despite cancelled context")
		return nil
	})
	if err == nil {
		t.Fatalf("expected context error")
	}
}
