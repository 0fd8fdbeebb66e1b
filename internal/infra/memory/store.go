package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
)

// Store is the in-memory implementation of app.Store. A single mutex
// serializes transactions; every transaction stages its writes in a private
// buffer and applies them only on commit, so a failing operation leaves no
// trace. Reads see committed state overlaid with the transaction's own
// staged writes.
type Store struct {
	mu  sync.Mutex
	rnd *rand.Rand

	sessions  map[string]domain.Session
	players   map[string]domain.Player
	questions map[string]domain.Question
	responses map[string]domain.Response
}

func NewStore() *Store {
	return &Store{
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions:  make(map[string]domain.Session),
		players:   make(map[string]domain.Player),
		questions: make(map[string]domain.Question),
		responses: make(map[string]domain.Response),
	}
}

// Update runs fn in a read-write transaction.
func (s *Store) Update(ctx context.Context, fn func(tx app.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(s)
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// View runs fn in a transaction whose writes are discarded.
func (s *Store) View(ctx context.Context, fn func(tx app.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(newTx(s))
}

func (s *Store) newID(prefix string) string {
	return fmt.Sprintf("%s_%08x%08x", prefix, s.rnd.Uint32(), s.rnd.Uint32())
}

// tx stages writes until commit. Documents are deep-copied on every read and
// write so no pointer into store state ever escapes a transaction.
type tx struct {
	store *Store

	sessions  map[string]domain.Session
	players   map[string]domain.Player
	questions map[string]domain.Question
	responses map[string]domain.Response
}

func newTx(s *Store) *tx {
	return &tx{
		store:     s,
		sessions:  make(map[string]domain.Session),
		players:   make(map[string]domain.Player),
		questions: make(map[string]domain.Question),
		responses: make(map[string]domain.Response),
	}
}

func (t *tx) commit() {
	for id, s := range t.sessions {
		t.store.sessions[id] = s
	}
	for id, p := range t.players {
		t.store.players[id] = p
	}
	for id, q := range t.questions {
		t.store.questions[id] = q
	}
	for id, r := range t.responses {
		t.store.responses[id] = r
	}
}

func cloneSession(s domain.Session) domain.Session {
	if s.Round != nil {
		round := *s.Round
		s.Round = &round
	}
	s.QuestionOrder = append([]string(nil), s.QuestionOrder...)
	return s
}

func cloneResponse(r domain.Response) domain.Response {
	if r.CorrectnessStars != nil {
		v := *r.CorrectnessStars
		r.CorrectnessStars = &v
	}
	if r.CreativityStars != nil {
		v := *r.CreativityStars
		r.CreativityStars = &v
	}
	if r.RatedAtSec != nil {
		v := *r.RatedAtSec
		r.RatedAtSec = &v
	}
	return r
}

func (t *tx) GetSession(id string) (domain.Session, bool) {
	if s, ok := t.sessions[id]; ok {
		return cloneSession(s), true
	}
	s, ok := t.store.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	return cloneSession(s), true
}

func (t *tx) SessionByCode(code int) (domain.Session, bool) {
	for _, s := range t.sessions {
		if s.Code == code {
			return cloneSession(s), true
		}
	}
	for id, s := range t.store.sessions {
		if s.Code != code {
			continue
		}
		if staged, ok := t.sessions[id]; ok {
			// Covered above unless the staged copy changed codes.
			if staged.Code != code {
				continue
			}
		}
		return cloneSession(s), true
	}
	return domain.Session{}, false
}

func (t *tx) InsertSession(s domain.Session) string {
	s.ID = t.store.newID("srv")
	t.sessions[s.ID] = cloneSession(s)
	return s.ID
}

func (t *tx) PutSession(s domain.Session) {
	t.sessions[s.ID] = cloneSession(s)
}

func (t *tx) GetPlayer(id string) (domain.Player, bool) {
	if p, ok := t.players[id]; ok {
		return p, true
	}
	p, ok := t.store.players[id]
	return p, ok
}

func (t *tx) InsertPlayer(p domain.Player) string {
	if p.ID == "" {
		p.ID = t.store.newID("ply")
	}
	t.players[p.ID] = p
	return p.ID
}

func (t *tx) PutPlayer(p domain.Player) {
	t.players[p.ID] = p
}

func (t *tx) PlayersInSession(sessionID string) []domain.Player {
	var out []domain.Player
	for id, p := range t.store.players {
		if staged, ok := t.players[id]; ok {
			p = staged
		}
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	for id, p := range t.players {
		if _, committed := t.store.players[id]; !committed && p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out
}

func (t *tx) GetQuestion(id string) (domain.Question, bool) {
	if q, ok := t.questions[id]; ok {
		return q, true
	}
	q, ok := t.store.questions[id]
	return q, ok
}

func (t *tx) InsertQuestion(q domain.Question) string {
	q.ID = t.store.newID("qst")
	t.questions[q.ID] = q
	return q.ID
}

func (t *tx) PutQuestion(q domain.Question) {
	t.questions[q.ID] = q
}

func (t *tx) QuestionsInSession(sessionID string) []domain.Question {
	var out []domain.Question
	for id, q := range t.store.questions {
		if staged, ok := t.questions[id]; ok {
			q = staged
		}
		if q.SessionID == sessionID {
			out = append(out, q)
		}
	}
	for id, q := range t.questions {
		if _, committed := t.store.questions[id]; !committed && q.SessionID == sessionID {
			out = append(out, q)
		}
	}
	return out
}

func (t *tx) GetResponse(id string) (domain.Response, bool) {
	if r, ok := t.responses[id]; ok {
		return cloneResponse(r), true
	}
	r, ok := t.store.responses[id]
	if !ok {
		return domain.Response{}, false
	}
	return cloneResponse(r), true
}

func (t *tx) InsertResponse(r domain.Response) string {
	r.ID = t.store.newID("rsp")
	t.responses[r.ID] = cloneResponse(r)
	return r.ID
}

func (t *tx) PutResponse(r domain.Response) {
	t.responses[r.ID] = cloneResponse(r)
}

func (t *tx) ResponsesForQuestion(questionID string) []domain.Response {
	var out []domain.Response
	for id, r := range t.store.responses {
		if staged, ok := t.responses[id]; ok {
			r = staged
		}
		if r.QuestionID == questionID {
			out = append(out, cloneResponse(r))
		}
	}
	for id, r := range t.responses {
		if _, committed := t.store.responses[id]; !committed && r.QuestionID == questionID {
			out = append(out, cloneResponse(r))
		}
	}
	return out
}

func (t *tx) ResponseByResponder(questionID, responderID string) (domain.Response, bool) {
	for _, r := range t.ResponsesForQuestion(questionID) {
		if r.ResponderID == responderID {
			return r, true
		}
	}
	return domain.Response{}, false
}
