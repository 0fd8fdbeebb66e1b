package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.GameService
	archives app.ArchiveRepository
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, archives app.ArchiveRepository) *WSHandler {
	return &WSHandler{
		service:  service,
		archives: archives,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	Code int `json:"code"`
}

type kickPayload struct {
	PlayerID string `json:"playerId"`
}

type timerPayload struct {
	Seconds int64 `json:"seconds"`
}

type maxQuestionsPayload struct {
	Max int `json:"max"`
}

type questionPayload struct {
	Difficulty domain.Difficulty `json:"difficulty"`
	Prompt     string            `json:"prompt"`
	Answer     string            `json:"answer"`
}

type answerPayload struct {
	Text string `json:"text"`
}

type ratePayload struct {
	ResponseID  string  `json:"responseId"`
	Correctness float64 `json:"correctness"`
	Creativity  float64 `json:"creativity"`
}

type archivePayload struct {
	Code int `json:"code"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type codePayload struct {
	Code int `json:"code"`
}

// conn tracks the per-connection lobby subscription. The subscription
// follows the player across lobbies: joining a new code tears down the
// previous forwarder.
type conn struct {
	playerID string
	send     chan outboundMessage[any]

	mu          sync.Mutex
	code        int
	cancelSub   func()
	forwardDone chan struct{}
}

// ServeWS upgrades the request and wires the connection into the game use
// cases. Clients identify with userId+name query params; all further
// operations arrive as typed JSON messages.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if userID == "" || displayName == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer socket.Close()

	ctx := r.Context()
	player, err := h.service.EnsurePlayer(ctx, userID, displayName)
	if err != nil {
		_ = socket.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	c := &conn{
		playerID: player.ID,
		send:     make(chan outboundMessage[any], 16),
	}
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := socket.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	c.send <- outboundMessage[any]{Type: "welcome", Payload: map[string]string{
		"playerId": player.ID,
		"name":     player.Name,
	}}

	for {
		var inbound inboundMessage
		if err := socket.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(ctx, c, inbound)
	}

	c.unsubscribe()
	close(c.send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, c *conn, inbound inboundMessage) {
	switch inbound.Type {
	case "create":
		code, err := h.service.CreateLobby(ctx, c.playerID)
		if h.replyErr(c, err) {
			return
		}
		h.subscribe(c, code)
		c.send <- outboundMessage[any]{Type: "created", Payload: codePayload{Code: code}}
		h.pushState(ctx, c, code)

	case "join":
		var payload joinPayload
		if !h.decode(c, inbound.Payload, &payload) {
			return
		}
		if h.replyErr(c, h.service.JoinLobby(ctx, c.playerID, payload.Code)) {
			return
		}
		h.subscribe(c, payload.Code)
		c.send <- outboundMessage[any]{Type: "joined", Payload: codePayload{Code: payload.Code}}
		h.pushState(ctx, c, payload.Code)

	case "leave":
		if h.replyErr(c, h.service.LeaveLobby(ctx, c.playerID)) {
			return
		}
		c.unsubscribe()
		c.send <- outboundMessage[any]{Type: "left", Payload: struct{}{}}

	case "kick":
		var payload kickPayload
		if !h.decode(c, inbound.Payload, &payload) {
			return
		}
		h.replyErr(c, h.service.KickPlayer(ctx, c.playerID, payload.PlayerID))

	case "setTimer":
		var payload timerPayload
		if !h.decode(c, inbound.Payload, &payload) {
			return
		}
		seconds, err := h.service.UpdateTimePerQuestion(ctx, c.playerID, payload.Seconds)
		if h.replyErr(c, err) {
			return
		}
		c.send <- outboundMessage[any]{Type: "timerUpdated", Payload: timerPayload{Seconds: seconds}}

	case "setMaxQuestions":
		var payload maxQuestionsPayload
		if !h.decode(c, inbound.Payload, &payload) {
			return
		}
		applied, err := h.service.UpdateMaxQuestions(ctx, c.playerID, payload.Max)
		if h.replyErr(c, err) {
			return
		}
		c.send <- outboundMessage[any]{Type: "maxQuestionsUpdated", Payload: maxQuestionsPayload{Max: applied}}

	case "saveQuestion":
		var payload questionPayload
		if !h.decode(c, inbound.Payload, &payload) {
			return
		}
		h.replyErr(c, h.service.SaveQuestion(ctx, c.playerID, payload.Difficulty, payload.Prompt, payload.Answer))

	case "start":
		_, err := h.service.StartMatch(ctx, c.playerID)
		h.replyErr(c, err)

	case "answer":
		var payload answerPayload
		if !h.decode(c, inbound.Payload, &payload) {
			return
		}
		result, err := h.service.SubmitAnswer(ctx, c.currentCode(), c.playerID, payload.Text)
		if h.replyErr(c, err) {
			return
		}
		c.send <- outboundMessage[any]{Type: "answerAccepted", Payload: result}

	case "rate":
		var payload ratePayload
		if !h.decode(c, inbound.Payload, &payload) {
			return
		}
		result, err := h.service.RateResponse(ctx, c.currentCode(), c.playerID, payload.ResponseID, payload.Correctness, payload.Creativity)
		if h.replyErr(c, err) {
			return
		}
		c.send <- outboundMessage[any]{Type: "rateAccepted", Payload: result}

	case "next":
		result, err := h.service.RequestEarlyAdvance(ctx, c.currentCode(), c.playerID)
		if h.replyErr(c, err) {
			return
		}
		c.send <- outboundMessage[any]{Type: "advance", Payload: result}

	case "state":
		h.pushState(ctx, c, c.currentCode())

	case "archive":
		var payload archivePayload
		if !h.decode(c, inbound.Payload, &payload) {
			return
		}
		summary, err := h.archives.GetSummary(ctx, payload.Code)
		if h.replyErr(c, err) {
			return
		}
		c.send <- outboundMessage[any]{Type: "archivedMatch", Payload: summary}

	default:
		c.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
}

// subscribe points the connection's event forwarder at a lobby code. Each
// event triggers a fresh per-viewer snapshot push.
func (h *WSHandler) subscribe(c *conn, code int) {
	c.unsubscribe()

	updates, cancel := h.service.Subscribe(code)
	done := make(chan struct{})

	c.mu.Lock()
	c.code = code
	c.cancelSub = cancel
	c.forwardDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		for range updates {
			h.pushState(context.Background(), c, code)
		}
	}()
}

func (c *conn) unsubscribe() {
	c.mu.Lock()
	cancel := c.cancelSub
	done := c.forwardDone
	c.cancelSub = nil
	c.forwardDone = nil
	c.code = 0
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (c *conn) currentCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

// pushState sends the viewer's play screen and, once the match has ended,
// the final leaderboard.
func (h *WSHandler) pushState(ctx context.Context, c *conn, code int) {
	if code == 0 {
		return
	}
	screen, err := h.service.GetPlayScreen(ctx, code, c.playerID)
	if err != nil {
		c.trySend(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	c.trySend(outboundMessage[any]{Type: "state", Payload: screen})

	if screen.State == domain.StateEnded {
		end, err := h.service.GetEndScreen(ctx, code, c.playerID)
		if err == nil {
			c.trySend(outboundMessage[any]{Type: "endScreen", Payload: end})
		}
	}
}

// trySend drops the message if the connection is shutting down.
func (c *conn) trySend(msg outboundMessage[any]) {
	defer func() { _ = recover() }()
	c.send <- msg
}

func (h *WSHandler) decode(c *conn, raw json.RawMessage, into any) bool {
	if err := json.Unmarshal(raw, into); err != nil {
		c.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid payload"}}
		return false
	}
	return true
}

// replyErr reports a service error to the client; returns true when an
// error was sent.
func (h *WSHandler) replyErr(c *conn, err error) bool {
	if err == nil {
		return false
	}
	c.send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	return true
}
