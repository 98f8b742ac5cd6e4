package dmn

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	GameInProgress GameStatus = "InProgress"
	GameFinished   GameStatus = "Finished"
)

// TurnPhase says what the engine is waiting for from the current player.
type TurnPhase string

const (
	PhaseWaitingForDice       TurnPhase = "WaitingForDice"
	PhaseWaitingForQuizAnswer TurnPhase = "WaitingForQuizAnswer"
)

// PlayerStatus is the standing of a player inside a game.
type PlayerStatus string

const (
	PlayerPlaying     PlayerStatus = "Playing"
	PlayerWinner      PlayerStatus = "Winner"
	PlayerSurrendered PlayerStatus = "Surrendered"
)

// Game is one authoritative session. Status is Finished iff WinnerPlayerID is set.
type Game struct {
	ID                     uuid.UUID  `bson:"_id"`
	RoomID                 uuid.UUID  `bson:"roomId"`
	Status                 GameStatus `bson:"status"`
	CurrentTurnPlayerIndex int        `bson:"currentTurnPlayerIndex"`
	CurrentTurnPhase       TurnPhase  `bson:"currentTurnPhase"`
	WinnerPlayerID         *uuid.UUID `bson:"winnerPlayerId,omitempty"`
	CreatedAt              time.Time  `bson:"createdAt"`
	FinishedAt             *time.Time `bson:"finishedAt,omitempty"`
	Board                  *Board     `bson:"board"`

	// Players is loaded alongside the game and saved through the player repository.
	Players []*Player `bson:"-"`
}

// Player is a user's seat in a room and, once started, in a game.
// GameID is uuid.Nil while the player is only waiting in a room.
type Player struct {
	ID        uuid.UUID    `bson:"_id"`
	UserID    uuid.UUID    `bson:"userId"`
	Username  string       `bson:"username"`
	RoomID    uuid.UUID    `bson:"roomId"`
	GameID    uuid.UUID    `bson:"gameId"`
	Position  int          `bson:"position"`
	TurnOrder int          `bson:"turnOrder"`
	Status    PlayerStatus `bson:"status"`
	JoinedAt  time.Time    `bson:"joinedAt"`
}

// PlayerByID returns the game's player with the given id.
func (g *Game) PlayerByID(id uuid.UUID) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByUser returns the game's player owned by the given user.
func (g *Game) PlayerByUser(userID uuid.UUID) *Player {
	for _, p := range g.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// Winner returns the winning player, or nil while the game is running.
func (g *Game) Winner() *Player {
	if g.WinnerPlayerID == nil {
		return nil
	}
	return g.PlayerByID(*g.WinnerPlayerID)
}

// Finish marks p as the winner and closes the game.
func (g *Game) Finish(p *Player, at time.Time) {
	id := p.ID
	p.Status = PlayerWinner
	g.Status = GameFinished
	g.WinnerPlayerID = &id
	g.FinishedAt = &at
}

// Clone returns a deep copy of the game, its players and its board.
func (g *Game) Clone() *Game {
	c := *g
	if g.WinnerPlayerID != nil {
		id := *g.WinnerPlayerID
		c.WinnerPlayerID = &id
	}
	if g.FinishedAt != nil {
		at := *g.FinishedAt
		c.FinishedAt = &at
	}
	c.Board = g.Board.Clone()
	c.Players = make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		cp := *p
		c.Players = append(c.Players, &cp)
	}
	return &c
}
