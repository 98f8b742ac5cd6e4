package game

import (
	"testing"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func seatedGame(statuses ...dmn.PlayerStatus) *dmn.Game {
	g := &dmn.Game{ID: uuid.New(), Status: dmn.GameInProgress, CurrentTurnPhase: dmn.PhaseWaitingForDice}
	for order, s := range statuses {
		g.Players = append(g.Players, &dmn.Player{ID: uuid.New(), UserID: uuid.New(), TurnOrder: order, Status: s})
	}
	return g
}

func TestCurrentPlayer(t *testing.T) {
	g := seatedGame(dmn.PlayerPlaying, dmn.PlayerPlaying)
	g.CurrentTurnPlayerIndex = 1

	assert.Equal(t, g.Players[1], CurrentPlayer(g))
	assert.True(t, IsPlayersTurn(g, g.Players[1].ID))
	assert.False(t, IsPlayersTurn(g, g.Players[0].ID))
}

func TestAdvanceTurn(t *testing.T) {
	t.Run("wraps around", func(t *testing.T) {
		g := seatedGame(dmn.PlayerPlaying, dmn.PlayerPlaying, dmn.PlayerPlaying)
		g.CurrentTurnPlayerIndex = 2
		g.CurrentTurnPhase = dmn.PhaseWaitingForQuizAnswer

		AdvanceTurn(g)
		assert.Equal(t, 0, g.CurrentTurnPlayerIndex)
		assert.Equal(t, dmn.PhaseWaitingForDice, g.CurrentTurnPhase)
	})

	t.Run("skips players who stopped playing", func(t *testing.T) {
		g := seatedGame(dmn.PlayerPlaying, dmn.PlayerSurrendered, dmn.PlayerSurrendered, dmn.PlayerPlaying)

		AdvanceTurn(g)
		assert.Equal(t, 3, g.CurrentTurnPlayerIndex)
		AdvanceTurn(g)
		assert.Equal(t, 0, g.CurrentTurnPlayerIndex)
	})

	t.Run("new current player is always playing", func(t *testing.T) {
		g := seatedGame(dmn.PlayerSurrendered, dmn.PlayerPlaying, dmn.PlayerSurrendered, dmn.PlayerPlaying)
		g.CurrentTurnPlayerIndex = 1
		for range 10 {
			AdvanceTurn(g)
			assert.Equal(t, dmn.PlayerPlaying, CurrentPlayer(g).Status)
		}
	})

	t.Run("leaves the index when nobody plays", func(t *testing.T) {
		g := seatedGame(dmn.PlayerSurrendered, dmn.PlayerWinner)
		AdvanceTurn(g)
		assert.Equal(t, 0, g.CurrentTurnPlayerIndex)
	})
}

func TestActivePlayers(t *testing.T) {
	g := seatedGame(dmn.PlayerPlaying, dmn.PlayerSurrendered, dmn.PlayerPlaying)
	active := ActivePlayers(g)
	assert.Len(t, active, 2)
	assert.Equal(t, 0, active[0].TurnOrder)
	assert.Equal(t, 2, active[1].TurnOrder)
}
