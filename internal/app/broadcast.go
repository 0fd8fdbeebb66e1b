package app

import (
	"sync"

	"trivia-match-service/internal/domain"
)

// StateChange is the lightweight event fanned out to lobby subscribers
// whenever a mutation commits. Clients re-query their own view on receipt;
// the event itself carries no per-viewer data.
type StateChange struct {
	Code  int               `json:"code"`
	State domain.GameState  `json:"gameState"`
	Phase domain.RoundPhase `json:"phase,omitempty"`
	Nonce int64             `json:"nonce"`
}

// Broadcaster fans state-change events out to per-lobby subscribers.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[int]map[chan StateChange]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[int]map[chan StateChange]struct{})}
}

// Subscribe registers a buffered channel for one lobby code. The caller must
// invoke the returned cancel function to avoid leaks.
func (b *Broadcaster) Subscribe(code int) (<-chan StateChange, func()) {
	ch := make(chan StateChange, 8)

	b.mu.Lock()
	if b.subscribers[code] == nil {
		b.subscribers[code] = make(map[chan StateChange]struct{})
	}
	b.subscribers[code][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subscribers[code]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subscribers, code)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of the lobby. A full
// channel drops its oldest pending event first so slow clients never block
// the publisher; only the freshest state matters.
func (b *Broadcaster) Publish(code int, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers[code] {
		select {
		case ch <- change:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- change
		}
	}
}
