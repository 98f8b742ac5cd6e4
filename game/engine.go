package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beka-birhanu/profesores-api/board"
	"github.com/beka-birhanu/profesores-api/dice"
	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/beka-birhanu/profesores-api/service/i"
	"github.com/google/uuid"
)

// Result is what a mutating operation hands back for broadcasting. State is projected while
// the game lock is still held.
type Result struct {
	Outcome *MoveOutcome
	State   *GameState
}

// Finished reports whether the operation ended the game.
func (r *Result) Finished() bool {
	return r.State != nil && r.State.Status == string(dmn.GameFinished)
}

// Engine owns the lifecycle of every game. At most one mutating operation runs per game.
type Engine struct {
	games     i.GameRepo
	rooms     i.RoomRepo
	boards    *board.Generator
	die       dice.Die
	locker    Locker
	logger    i.Logger
	boardSize int
	clock     func() time.Time
}

type Config struct {
	Games     i.GameRepo
	Rooms     i.RoomRepo
	Boards    *board.Generator
	Die       dice.Die
	Locker    Locker
	Logger    i.Logger
	BoardSize int
	Clock     func() time.Time
}

func NewEngine(c *Config) (*Engine, error) {
	if c.Games == nil || c.Rooms == nil {
		return nil, errors.New("game and room repositories are required")
	}
	if c.Boards == nil {
		return nil, errors.New("board generator is required")
	}
	if c.Die == nil {
		return nil, errors.New("die is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	e := &Engine{
		games:     c.Games,
		rooms:     c.Rooms,
		boards:    c.Boards,
		die:       c.Die,
		locker:    c.Locker,
		logger:    c.Logger,
		boardSize: c.BoardSize,
		clock:     c.Clock,
	}
	if e.locker == nil {
		e.locker = NewKeyedLocker()
	}
	if e.boardSize <= 0 {
		e.boardSize = dmn.DefaultBoardSize
	}
	if e.clock == nil {
		e.clock = func() time.Time { return time.Now().UTC() }
	}
	return e, nil
}

// CreateGame starts a game for the room members not yet seated in one. Turn order follows
// join order.
func (e *Engine) CreateGame(ctx context.Context, roomID uuid.UUID) (*GameState, error) {
	unlock, err := e.locker.Lock(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("locking room %s: %w", roomID, err)
	}
	defer unlock()

	room, err := e.rooms.ByIDWithPlayers(ctx, roomID)
	if err != nil {
		return nil, collaboratorErr("loading room", err)
	}

	eligible := room.EligiblePlayers()
	if len(eligible) < 2 {
		return nil, dmn.ErrInsufficientPlayers
	}

	g := &dmn.Game{
		ID:                     uuid.New(),
		RoomID:                 room.ID,
		Status:                 dmn.GameInProgress,
		CurrentTurnPlayerIndex: 0,
		CurrentTurnPhase:       dmn.PhaseWaitingForDice,
		CreatedAt:              e.clock(),
	}
	g.Board = e.boards.Generate(g.ID, e.boardSize)

	for order, p := range eligible {
		p.GameID = g.ID
		p.TurnOrder = order
		p.Position = 0
		p.Status = dmn.PlayerPlaying
	}
	g.Players = eligible
	room.Status = dmn.RoomInGame

	if err := e.games.Create(ctx, g, room); err != nil {
		return nil, collaboratorErr("creating game", err)
	}

	e.logger.Info(fmt.Sprintf("game %s created in room %s with %d players", g.ID, room.ID, len(g.Players)))
	return NewGameState(g), nil
}

// ExecuteMove rolls the die for the user and applies the resolved outcome.
func (e *Engine) ExecuteMove(ctx context.Context, gameID, userID uuid.UUID) (*Result, error) {
	unlock, err := e.locker.Lock(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("locking game %s: %w", gameID, err)
	}
	defer unlock()

	g, p, err := e.loadTurn(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	if g.CurrentTurnPhase != dmn.PhaseWaitingForDice {
		return nil, dmn.ErrPhaseMismatch
	}

	outcome := Resolve(board.New(g.Board), p.Position, e.die.Roll())
	p.Position = outcome.FinalPosition

	switch outcome.Kind {
	case OutcomeQuizPending:
		g.CurrentTurnPhase = dmn.PhaseWaitingForQuizAnswer
	case OutcomeWon:
		g.Finish(p, e.clock())
	default:
		AdvanceTurn(g)
	}

	if err := e.games.Save(ctx, g); err != nil {
		return nil, collaboratorErr("saving game", err)
	}

	e.logger.Info(fmt.Sprintf("game %s: %s rolled %d, %d -> %d (%s)", g.ID, p.Username, outcome.DieValue, outcome.FromPosition, outcome.FinalPosition, outcome.Kind))
	if outcome.IsWinner() {
		e.logger.Info(fmt.Sprintf("game %s finished, winner %s", g.ID, p.Username))
	}

	return &Result{Outcome: &outcome, State: NewGameState(g)}, nil
}

// AnswerQuiz resolves the quiz the user is parked on. The turn passes whether the answer
// is right or wrong.
func (e *Engine) AnswerQuiz(ctx context.Context, gameID, userID uuid.UUID, label string) (*Result, error) {
	unlock, err := e.locker.Lock(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("locking game %s: %w", gameID, err)
	}
	defer unlock()

	g, p, err := e.loadTurn(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	if g.CurrentTurnPhase != dmn.PhaseWaitingForQuizAnswer {
		return nil, dmn.ErrPhaseMismatch
	}

	topo := board.New(g.Board)
	if _, ok := topo.QuizFor(p.Position); !ok {
		return nil, dmn.ErrNoPendingQuiz
	}
	if !topo.HasOption(p.Position, label) {
		return nil, dmn.ErrInvalidQuizOption
	}

	outcome, correct := resolveAnswer(topo, p.Position, label)
	p.Position = outcome.FinalPosition
	AdvanceTurn(g)

	if err := e.games.Save(ctx, g); err != nil {
		return nil, collaboratorErr("saving game", err)
	}

	e.logger.Info(fmt.Sprintf("game %s: %s answered %q on %d, correct=%t, now on %d", g.ID, p.Username, label, outcome.FromPosition, correct, outcome.FinalPosition))
	return &Result{Outcome: &outcome, State: NewGameState(g)}, nil
}

// Surrender takes the user out of the game. When a single player is left playing they win.
func (e *Engine) Surrender(ctx context.Context, gameID, userID uuid.UUID) (*Result, error) {
	unlock, err := e.locker.Lock(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("locking game %s: %w", gameID, err)
	}
	defer unlock()

	g, err := e.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	p := g.PlayerByUser(userID)
	if p == nil {
		return nil, dmn.ErrPlayerNotInGame
	}
	if g.Status != dmn.GameInProgress {
		return nil, dmn.ErrGameNotInProgress
	}
	if p.Status != dmn.PlayerPlaying {
		return nil, dmn.ErrPlayerNotPlaying
	}

	hadTurn := IsPlayersTurn(g, p.ID)
	p.Status = dmn.PlayerSurrendered

	active := ActivePlayers(g)
	switch {
	case len(active) == 1:
		g.Finish(active[0], e.clock())
	case hadTurn:
		AdvanceTurn(g)
	}

	if err := e.games.Save(ctx, g); err != nil {
		return nil, collaboratorErr("saving game", err)
	}

	e.logger.Info(fmt.Sprintf("game %s: %s surrendered, %d still playing", g.ID, p.Username, len(active)))
	return &Result{State: NewGameState(g)}, nil
}

// Snapshot returns the current view of a game. It never mutates.
func (e *Engine) Snapshot(ctx context.Context, gameID uuid.UUID) (*GameState, error) {
	unlock, err := e.locker.RLock(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("locking game %s: %w", gameID, err)
	}
	defer unlock()

	g, err := e.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return NewGameState(g), nil
}

// PendingQuiz returns the quiz the user is currently parked on so it can be shown again.
func (e *Engine) PendingQuiz(ctx context.Context, gameID, userID uuid.UUID) (*QuizPrompt, error) {
	unlock, err := e.locker.RLock(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("locking game %s: %w", gameID, err)
	}
	defer unlock()

	g, err := e.loadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if g.Status != dmn.GameInProgress {
		return nil, dmn.ErrGameNotInProgress
	}
	p := g.PlayerByUser(userID)
	if p == nil {
		return nil, dmn.ErrPlayerNotInGame
	}
	if g.CurrentTurnPhase != dmn.PhaseWaitingForQuizAnswer || !IsPlayersTurn(g, p.ID) {
		return nil, dmn.ErrNoPendingQuiz
	}

	topo := board.New(g.Board)
	q, ok := topo.QuizFor(p.Position)
	if !ok {
		return nil, dmn.ErrNoPendingQuiz
	}
	return newQuizPrompt(topo.ProfessorAt(p.Position), p.Position, q), nil
}

// loadTurn loads the game and checks, in order, that it is running, that the user plays
// in it and that it is their turn.
func (e *Engine) loadTurn(ctx context.Context, gameID, userID uuid.UUID) (*dmn.Game, *dmn.Player, error) {
	g, err := e.loadGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if g.Status != dmn.GameInProgress {
		return nil, nil, dmn.ErrGameNotInProgress
	}
	p := g.PlayerByUser(userID)
	if p == nil {
		return nil, nil, dmn.ErrPlayerNotInGame
	}
	if !IsPlayersTurn(g, p.ID) {
		return nil, nil, dmn.ErrNotPlayersTurn
	}
	return g, p, nil
}

func (e *Engine) loadGame(ctx context.Context, gameID uuid.UUID) (*dmn.Game, error) {
	g, err := e.games.ByID(ctx, gameID)
	if err != nil {
		return nil, collaboratorErr("loading game", err)
	}
	if g.Board == nil {
		return nil, fmt.Errorf("game %s has no board", gameID)
	}
	return g, nil
}

// collaboratorErr passes domain errors through untouched and annotates anything else.
func collaboratorErr(op string, err error) error {
	var de *dmn.Error
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
