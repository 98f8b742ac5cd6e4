package game

import (
	"time"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/google/uuid"
)

// GameState is the read-only projection of a game sent to clients.
//
//	status:            "InProgress" | "Finished"
//	currentTurnPhase:  "WaitingForDice" | "WaitingForQuizAnswer"
//	players:           every seat in turn order with position and status
//	board:             size plus hazard and shortcut edges, never quiz answers
type GameState struct {
	GameID                 uuid.UUID     `json:"gameId"`
	RoomID                 uuid.UUID     `json:"roomId"`
	Status                 string        `json:"status"`
	CurrentTurnPlayerIndex int           `json:"currentTurnPlayerIndex"`
	CurrentTurnPhase       string        `json:"currentTurnPhase"`
	CurrentPlayerID        *uuid.UUID    `json:"currentPlayerId,omitempty"`
	CurrentPlayerName      string        `json:"currentPlayerName,omitempty"`
	Players                []PlayerState `json:"players"`
	Board                  BoardState    `json:"board"`
	WinnerPlayerID         *uuid.UUID    `json:"winnerPlayerId,omitempty"`
	WinnerUserID           *uuid.UUID    `json:"winnerUserId,omitempty"`
	WinnerName             string        `json:"winnerName,omitempty"`
	FinishedAt             *time.Time    `json:"finishedAt,omitempty"`
}

// PlayerState is one seat of a GameState.
type PlayerState struct {
	PlayerID      uuid.UUID `json:"playerId"`
	UserID        uuid.UUID `json:"userId"`
	Username      string    `json:"username"`
	Position      int       `json:"position"`
	TurnOrder     int       `json:"turnOrder"`
	Status        string    `json:"status"`
	IsCurrentTurn bool      `json:"isCurrentTurn"`
}

// BoardState is the public layout of a board.
type BoardState struct {
	Size      int             `json:"size"`
	Hazards   []HazardState   `json:"snakes"`
	Shortcuts []ShortcutState `json:"ladders"`
}

// HazardState is a public hazard edge.
type HazardState struct {
	HeadPosition int    `json:"headPosition"`
	TailPosition int    `json:"tailPosition"`
	Professor    string `json:"professor,omitempty"`
}

// ShortcutState is a public shortcut edge.
type ShortcutState struct {
	BottomPosition int `json:"bottomPosition"`
	TopPosition    int `json:"topPosition"`
}

// QuizPrompt is the question shown to the mover. It never carries the answer.
type QuizPrompt struct {
	Professor string       `json:"profesor"`
	Tile      int          `json:"tile"`
	Equation  string       `json:"equation"`
	Options   []dmn.Option `json:"options"`
}

func newQuizPrompt(professor string, tile int, q *dmn.Quiz) *QuizPrompt {
	return &QuizPrompt{
		Professor: professor,
		Tile:      tile,
		Equation:  q.Prompt,
		Options:   append([]dmn.Option(nil), q.Options...),
	}
}

// NewGameState projects a game into its client view. It does not mutate g.
func NewGameState(g *dmn.Game) *GameState {
	s := &GameState{
		GameID:                 g.ID,
		RoomID:                 g.RoomID,
		Status:                 string(g.Status),
		CurrentTurnPlayerIndex: g.CurrentTurnPlayerIndex,
		CurrentTurnPhase:       string(g.CurrentTurnPhase),
		Players:                make([]PlayerState, 0, len(g.Players)),
	}

	current := CurrentPlayer(g)
	if current != nil && g.Status == dmn.GameInProgress {
		id := current.ID
		s.CurrentPlayerID = &id
		s.CurrentPlayerName = current.Username
	}

	for _, p := range g.Players {
		s.Players = append(s.Players, PlayerState{
			PlayerID:      p.ID,
			UserID:        p.UserID,
			Username:      p.Username,
			Position:      p.Position,
			TurnOrder:     p.TurnOrder,
			Status:        string(p.Status),
			IsCurrentTurn: s.CurrentPlayerID != nil && p.ID == *s.CurrentPlayerID,
		})
	}

	if g.Board != nil {
		s.Board.Size = g.Board.Size
		s.Board.Hazards = make([]HazardState, 0, len(g.Board.Hazards))
		for _, h := range g.Board.Hazards {
			s.Board.Hazards = append(s.Board.Hazards, HazardState{HeadPosition: h.Head, TailPosition: h.Tail, Professor: h.Professor})
		}
		s.Board.Shortcuts = make([]ShortcutState, 0, len(g.Board.Shortcuts))
		for _, sc := range g.Board.Shortcuts {
			s.Board.Shortcuts = append(s.Board.Shortcuts, ShortcutState{BottomPosition: sc.Bottom, TopPosition: sc.Top})
		}
	}

	if w := g.Winner(); w != nil {
		pid, uid := w.ID, w.UserID
		s.WinnerPlayerID = &pid
		s.WinnerUserID = &uid
		s.WinnerName = w.Username
	}
	if g.FinishedAt != nil {
		at := *g.FinishedAt
		s.FinishedAt = &at
	}

	return s
}
