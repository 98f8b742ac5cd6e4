package game

import (
	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/google/uuid"
)

// CurrentPlayer returns the player whose turn order matches the game's turn index.
func CurrentPlayer(g *dmn.Game) *dmn.Player {
	for _, p := range g.Players {
		if p.TurnOrder == g.CurrentTurnPlayerIndex {
			return p
		}
	}
	return nil
}

// IsPlayersTurn reports whether playerID holds the current turn.
func IsPlayersTurn(g *dmn.Game, playerID uuid.UUID) bool {
	p := CurrentPlayer(g)
	return p != nil && p.ID == playerID
}

// AdvanceTurn hands the turn to the next player still playing, in turn order, and resets
// the phase to WaitingForDice. Surrendered players and winners are skipped. When nobody is
// playing the index is left where it is; the engine finishes the game before that happens.
func AdvanceTurn(g *dmn.Game) {
	g.CurrentTurnPhase = dmn.PhaseWaitingForDice

	n := len(g.Players)
	if n == 0 {
		return
	}

	byOrder := make(map[int]*dmn.Player, n)
	for _, p := range g.Players {
		byOrder[p.TurnOrder] = p
	}

	for step := 1; step <= n; step++ {
		idx := (g.CurrentTurnPlayerIndex + step) % n
		if p, ok := byOrder[idx]; ok && p.Status == dmn.PlayerPlaying {
			g.CurrentTurnPlayerIndex = idx
			return
		}
	}
}

// ActivePlayers returns the players still playing, in turn order.
func ActivePlayers(g *dmn.Game) []*dmn.Player {
	active := make([]*dmn.Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Status == dmn.PlayerPlaying {
			active = append(active, p)
		}
	}
	return active
}
