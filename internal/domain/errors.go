package domain

import "errors"

// Authorization failures: the caller has the wrong role for the action.
var (
	// ErrNotHost is returned when a non-host attempts a host-only action.
	ErrNotHost = errors.New("only the host can do this")
	// ErrNotOwner is returned when someone other than the question owner rates.
	ErrNotOwner = errors.New("only the question owner can submit ratings")
	// ErrOwnAnswerRejected is returned when a player answers their own question.
	ErrOwnAnswerRejected = errors.New("you cannot answer your own question")
	// ErrNotAuthorized covers early-advance requests outside the allowed roles.
	ErrNotAuthorized = errors.New("not authorized to advance the round")
)

// State failures: the session is in the wrong state or phase for the action.
var (
	// ErrWrongState means the game state does not permit the action.
	ErrWrongState = errors.New("game is not in the required state")
	// ErrIncompleteRatings blocks a non-host early advance while unrated
	// responses remain.
	ErrIncompleteRatings = errors.New("rate every submitted response first")
)

// Timing failures.
var (
	// ErrWindowClosed means the phase deadline has already passed.
	ErrWindowClosed = errors.New("the window for this action has closed")
)

// Validation failures.
var (
	// ErrBlankAnswer rejects empty or whitespace-only text.
	ErrBlankAnswer = errors.New("text must be at least 1 character long")
	// ErrStarOutOfRange rejects non-finite or out-of-range star ratings.
	ErrStarOutOfRange = errors.New("star rating must be between 0 and 5")
	// ErrInvalidCode rejects lobby codes outside the 6-digit range.
	ErrInvalidCode = errors.New("lobby code must be a 6-digit number")
	// ErrInsufficientQuestions means too few questions exist to start a match.
	ErrInsufficientQuestions = errors.New("not enough questions to start the game")
	// ErrNotEnoughPlayers means fewer than two players are in the lobby.
	ErrNotEnoughPlayers = errors.New("at least 2 players are required")
)

// Consistency failures: a referenced document is missing or mismatched.
var (
	// ErrSessionNotFound means no lobby exists for the given code or id.
	ErrSessionNotFound = errors.New("lobby not found")
	// ErrPlayerNotFound means the player record does not exist.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrNotInLobby means the player is not a member of the addressed lobby.
	ErrNotInLobby = errors.New("you are not currently in this lobby")
	// ErrResponseMismatch means the response does not belong to the live question.
	ErrResponseMismatch = errors.New("this response is not part of the active question")
	// ErrMissingRoundState means a PLAY session has no live phase to act on.
	ErrMissingRoundState = errors.New("round state is not ready")
	// ErrArchiveNotFound means no archived summary exists for the code.
	ErrArchiveNotFound = errors.New("archived match not found")
)
