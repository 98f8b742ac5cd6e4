// Package gameapi exposes rooms, games and the real-time game hub over HTTP.
package gameapi

import (
	"time"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/beka-birhanu/profesores-api/game"
	"github.com/google/uuid"
)

// CreateRoomRequest opens a room. MaxPlayers defaults to 4 when omitted.
type CreateRoomRequest struct {
	Name       string `json:"name" binding:"required"`
	MaxPlayers int    `json:"maxPlayers"`
}

// QuizAnswerRequest carries the label of the chosen option.
type QuizAnswerRequest struct {
	Option string `json:"option" binding:"required"`
}

// RoomResponse is the public view of a room.
type RoomResponse struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	HostUserID uuid.UUID        `json:"hostUserId"`
	MaxPlayers int              `json:"maxPlayers"`
	Status     string           `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
	Players    []RoomPlayerView `json:"players"`
}

// RoomPlayerView is one seat of a room.
type RoomPlayerView struct {
	PlayerID uuid.UUID  `json:"playerId"`
	UserID   uuid.UUID  `json:"userId"`
	Username string     `json:"username"`
	GameID   *uuid.UUID `json:"gameId,omitempty"`
}

func newRoomResponse(r *dmn.Room) *RoomResponse {
	resp := &RoomResponse{
		ID:         r.ID,
		Name:       r.Name,
		HostUserID: r.HostUserID,
		MaxPlayers: r.MaxPlayers,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		Players:    make([]RoomPlayerView, 0, len(r.Players)),
	}
	for _, p := range r.Players {
		view := RoomPlayerView{PlayerID: p.ID, UserID: p.UserID, Username: p.Username}
		if p.GameID != uuid.Nil {
			id := p.GameID
			view.GameID = &id
		}
		resp.Players = append(resp.Players, view)
	}
	return resp
}

// MoveResponse is returned by the move and quiz endpoints.
type MoveResponse struct {
	MoveResult *game.MoveOutcome `json:"moveResult,omitempty"`
	GameState  *game.GameState   `json:"gameState"`
}
