package domain

// GameState is the top-level lifecycle of a match.
type GameState string

const (
	// StateSetup is the lobby/question-authoring stage before play begins.
	StateSetup GameState = "SETUP"
	// StatePlay means rounds are running.
	StatePlay GameState = "PLAY"
	// StateEnded is terminal; no phase fields remain set.
	StateEnded GameState = "ENDED"
)

// RoundPhase is the stage within a single question round.
type RoundPhase string

const (
	PhaseAnswering RoundPhase = "ANSWERING"
	PhaseRating    RoundPhase = "RATING"
)

// Difficulty buckets questions for balanced sequencing.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Difficulties lists all tiers in canonical order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// RoundState is the all-or-nothing bundle of live-phase fields. A session in
// PLAY always carries one; SETUP and ENDED sessions never do. Keeping the
// fields together makes "phase and currentQuestion are both set or both unset"
// structural instead of a convention.
type RoundState struct {
	Phase        RoundPhase
	QuestionID   string
	StartedAtSec int64
	EndsAtSec    int64
}

// Session is one match: its lobby configuration plus, during PLAY, the live
// round. PhaseNonce identifies the current phase instance; it starts at 1 and
// increases by exactly 1 per committed transition, so any trigger carrying an
// older value is stale and must be ignored.
type Session struct {
	ID             string
	Code           int
	HostPlayerID   string
	State          GameState
	TimePerQSec    int64
	MaxQuestions   int
	QuestionOrder  []string
	QuestionCursor int
	Round          *RoundState
	PhaseNonce     int64
}

// Player belongs to at most one session. Score is mutated only by rating
// finalization and only ever grows.
type Player struct {
	ID        string
	Name      string
	SessionID string // empty when not in any lobby
	Score     int

	// One authored question per difficulty slot.
	EasyQuestionID   string
	MediumQuestionID string
	HardQuestionID   string
}

// InLobby reports whether the player is a member of the given session.
func (p Player) InLobby(sessionID string) bool {
	return sessionID != "" && p.SessionID == sessionID
}

// QuestionSlot returns the player's question id for a difficulty.
func (p Player) QuestionSlot(d Difficulty) string {
	switch d {
	case DifficultyEasy:
		return p.EasyQuestionID
	case DifficultyMedium:
		return p.MediumQuestionID
	case DifficultyHard:
		return p.HardQuestionID
	}
	return ""
}

// SetQuestionSlot stores a question id into the matching difficulty slot.
func (p *Player) SetQuestionSlot(d Difficulty, questionID string) {
	switch d {
	case DifficultyEasy:
		p.EasyQuestionID = questionID
	case DifficultyMedium:
		p.MediumQuestionID = questionID
	case DifficultyHard:
		p.HardQuestionID = questionID
	}
}

// ClearLobbyState detaches the player from their lobby and resets per-match
// fields. Used on join/create (fresh start) and on kick/leave.
func (p *Player) ClearLobbyState() {
	p.SessionID = ""
	p.Score = 0
	p.EasyQuestionID = ""
	p.MediumQuestionID = ""
	p.HardQuestionID = ""
}

// Question is authored by one player during setup and consumed read-only by
// the round engine. IsAnswered flips once its rating phase finalizes and
// never flips back.
type Question struct {
	ID            string
	SessionID     string
	OwnerPlayerID string
	Difficulty    Difficulty
	Prompt        string
	Answer        string
	IsAnswered    bool
}

// Response is one player's answer to one question, unique per
// (question, responder). The text may be overwritten until the answering
// window closes; stars may be overwritten until the rating window closes.
type Response struct {
	ID               string
	SessionID        string
	QuestionID       string
	ResponderID      string
	AnswerText       string
	SubmittedAtSec   int64
	UpdatedAtSec     int64
	CorrectnessStars *int
	CreativityStars  *int
	RatedAtSec       *int64
}

// FullyRated reports whether both star fields have been set.
func (r Response) FullyRated() bool {
	return r.CorrectnessStars != nil && r.CreativityStars != nil
}

// Standing is one row of the final leaderboard.
type Standing struct {
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsHost   bool   `json:"isHost"`
	IsYou    bool   `json:"isYou"`
}

// EndScreen is the terminal leaderboard view for one viewer.
type EndScreen struct {
	Code      int        `json:"code"`
	State     GameState  `json:"gameState"`
	YourScore int        `json:"yourScore"`
	IsHost    bool       `json:"isHost"`
	Standings []Standing `json:"standings"`
	Winners   []Standing `json:"winners"`
}

// MatchSummary is the archived record of a finished match.
type MatchSummary struct {
	Code          int        `json:"code"`
	QuestionCount int        `json:"questionCount"`
	Standings     []Standing `json:"standings"`
	WinnerIDs     []string   `json:"winnerIds"`
	FinishedAtSec int64      `json:"finishedAtSec"`
}
