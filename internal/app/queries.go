package app

import (
	"context"
	"sort"

	"trivia-match-service/internal/domain"
)

// PlayerView is one roster row on the play screen.
type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"isHost"`
	IsYou  bool   `json:"isYou"`
}

// ResponseView is a response as shown to the rating owner (or, for your own
// response, to yourself).
type ResponseView struct {
	ID               string `json:"id"`
	ResponderID      string `json:"responderId"`
	ResponderName    string `json:"responderName"`
	AnswerText       string `json:"answerText"`
	SubmittedAtSec   int64  `json:"submittedAtSec"`
	CorrectnessStars *int   `json:"correctnessStars,omitempty"`
	CreativityStars  *int   `json:"creativityStars,omitempty"`
}

// QuestionView is the live question as shown to players. The canonical
// answer is only revealed to the owner.
type QuestionView struct {
	ID         string            `json:"id"`
	Prompt     string            `json:"prompt"`
	Difficulty domain.Difficulty `json:"difficulty"`
	OwnerID    string            `json:"ownerId"`
	OwnerName  string            `json:"ownerName"`
	Answer     string            `json:"answer,omitempty"`
}

// RoundView is the live-phase slice of the play screen.
type RoundView struct {
	Phase            domain.RoundPhase `json:"phase"`
	StartedAtSec     int64             `json:"startedAtSec"`
	EndsAtSec        int64             `json:"endsAtSec"`
	DurationSec      int64             `json:"durationSec"`
	QuestionNumber   int               `json:"questionNumber"`
	QuestionTotal    int               `json:"questionTotal"`
	Question         QuestionView      `json:"question"`
	IsOwner          bool              `json:"isOwner"`
	CanSubmitAnswer  bool              `json:"canSubmitAnswer"`
	CanRateResponses bool              `json:"canRateResponses"`
	CanGoNextEarly   bool              `json:"canGoNextEarly"`
	YourResponse     *ResponseView     `json:"yourResponse,omitempty"`
	Responses        []ResponseView    `json:"responses,omitempty"`
}

// PlayScreen is one viewer's full snapshot of the match.
type PlayScreen struct {
	Code         int              `json:"code"`
	State        domain.GameState `json:"gameState"`
	YourScore    int              `json:"yourScore"`
	YourName     string           `json:"yourName"`
	IsHost       bool             `json:"isHost"`
	Players      []PlayerView     `json:"players"`
	ServerNowSec int64            `json:"serverNowSec"`
	Round        *RoundView       `json:"round,omitempty"`
}

// GetPlayScreen assembles the viewer-specific snapshot of a lobby.
func (s *GameService) GetPlayScreen(ctx context.Context, code int, playerID string) (PlayScreen, error) {
	var screen PlayScreen
	err := s.store.View(ctx, func(tx Tx) error {
		player, ok := tx.GetPlayer(playerID)
		if !ok {
			return domain.ErrPlayerNotFound
		}
		session, err := requireLobbyByCode(tx, player, code)
		if err != nil {
			return err
		}

		members := tx.PlayersInSession(session.ID)
		sortPlayersByScore(members)
		views := make([]PlayerView, 0, len(members))
		for _, member := range members {
			views = append(views, PlayerView{
				ID:     member.ID,
				Name:   member.Name,
				Score:  member.Score,
				IsHost: member.ID == session.HostPlayerID,
				IsYou:  member.ID == player.ID,
			})
		}

		screen = PlayScreen{
			Code:         session.Code,
			State:        session.State,
			YourScore:    player.Score,
			YourName:     player.Name,
			IsHost:       session.HostPlayerID == player.ID,
			Players:      views,
			ServerNowSec: s.nowSec(),
		}

		if session.State != domain.StatePlay || session.Round == nil {
			return nil
		}
		question, ok := tx.GetQuestion(session.Round.QuestionID)
		if !ok {
			return nil
		}

		round := s.buildRoundView(tx, session, question, player)
		screen.Round = &round
		return nil
	})
	if err != nil {
		return PlayScreen{}, err
	}
	return screen, nil
}

func (s *GameService) buildRoundView(tx Tx, session domain.Session, question domain.Question, viewer domain.Player) RoundView {
	owner, _ := tx.GetPlayer(question.OwnerPlayerID)
	isOwner := question.OwnerPlayerID == viewer.ID
	windowOpen := s.nowSec() < session.Round.EndsAtSec

	view := RoundView{
		Phase:          session.Round.Phase,
		StartedAtSec:   session.Round.StartedAtSec,
		EndsAtSec:      session.Round.EndsAtSec,
		DurationSec:    questionDurationSeconds(session.Round.Phase, session.TimePerQSec),
		QuestionNumber: session.QuestionCursor + 1,
		QuestionTotal:  len(session.QuestionOrder),
		Question: QuestionView{
			ID:         question.ID,
			Prompt:     question.Prompt,
			Difficulty: question.Difficulty,
			OwnerID:    question.OwnerPlayerID,
			OwnerName:  owner.Name,
		},
		IsOwner: isOwner,
	}
	if isOwner {
		view.Question.Answer = question.Answer
	}

	responses := tx.ResponsesForQuestion(question.ID)
	sort.Slice(responses, func(i, j int) bool {
		return responses[i].SubmittedAtSec < responses[j].SubmittedAtSec
	})

	allRated := len(responses) > 0
	for _, response := range responses {
		if !response.FullyRated() {
			allRated = false
		}
		if response.ResponderID == viewer.ID {
			rv := responseView(response, viewer.Name)
			view.YourResponse = &rv
		}
	}

	switch session.Round.Phase {
	case domain.PhaseAnswering:
		view.CanSubmitAnswer = !isOwner && windowOpen
	case domain.PhaseRating:
		view.CanRateResponses = isOwner && windowOpen
		if isOwner {
			for _, response := range responses {
				responder, _ := tx.GetPlayer(response.ResponderID)
				view.Responses = append(view.Responses, responseView(response, responder.Name))
			}
		}
	}
	view.CanGoNextEarly = session.HostPlayerID == viewer.ID ||
		(isOwner && session.Round.Phase == domain.PhaseRating && allRated)

	return view
}

func responseView(r domain.Response, responderName string) ResponseView {
	return ResponseView{
		ID:               r.ID,
		ResponderID:      r.ResponderID,
		ResponderName:    responderName,
		AnswerText:       r.AnswerText,
		SubmittedAtSec:   r.SubmittedAtSec,
		CorrectnessStars: r.CorrectnessStars,
		CreativityStars:  r.CreativityStars,
	}
}

// GetEndScreen assembles the final leaderboard for one viewer.
func (s *GameService) GetEndScreen(ctx context.Context, code int, playerID string) (domain.EndScreen, error) {
	var screen domain.EndScreen
	err := s.store.View(ctx, func(tx Tx) error {
		player, ok := tx.GetPlayer(playerID)
		if !ok {
			return domain.ErrPlayerNotFound
		}
		session, err := requireLobbyByCode(tx, player, code)
		if err != nil {
			return err
		}

		standings := buildStandings(tx.PlayersInSession(session.ID), session.HostPlayerID, player.ID)
		winners := winnerIDs(standings)
		winnerRows := make([]domain.Standing, 0, len(winners))
		for _, entry := range standings {
			for _, id := range winners {
				if entry.PlayerID == id {
					winnerRows = append(winnerRows, entry)
				}
			}
		}

		screen = domain.EndScreen{
			Code:      session.Code,
			State:     session.State,
			YourScore: player.Score,
			IsHost:    session.HostPlayerID == player.ID,
			Standings: standings,
			Winners:   winnerRows,
		}
		return nil
	})
	if err != nil {
		return domain.EndScreen{}, err
	}
	return screen, nil
}

// buildStandings ranks players by score desc, then name asc. viewerID may be
// empty when no viewer-specific flags are wanted.
func buildStandings(players []domain.Player, hostPlayerID, viewerID string) []domain.Standing {
	sortPlayersByScore(players)
	standings := make([]domain.Standing, 0, len(players))
	for i, player := range players {
		standings = append(standings, domain.Standing{
			PlayerID: player.ID,
			Rank:     i + 1,
			Name:     player.Name,
			Score:    player.Score,
			IsHost:   player.ID == hostPlayerID,
			IsYou:    viewerID != "" && player.ID == viewerID,
		})
	}
	return standings
}

// winnerIDs returns every player tied at the best score.
func winnerIDs(standings []domain.Standing) []string {
	if len(standings) == 0 {
		return nil
	}
	best := standings[0].Score
	var ids []string
	for _, entry := range standings {
		if entry.Score == best {
			ids = append(ids, entry.PlayerID)
		}
	}
	return ids
}

func sortPlayersByScore(players []domain.Player) {
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].Name < players[j].Name
	})
}
