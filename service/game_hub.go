package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/beka-birhanu/profesores-api/game"
	"github.com/beka-birhanu/profesores-api/service/i"
	"github.com/google/uuid"
)

// Inbound messages.
const (
	MsgJoinGameGroup       = "JoinGameGroup"
	MsgLeaveGameGroup      = "LeaveGameGroup"
	MsgSendMove            = "SendMove"
	MsgSendQuizAnswer      = "SendQuizAnswer"
	MsgRequestQuizQuestion = "RequestQuizQuestion"
	MsgSendSurrender       = "SendSurrender"
	MsgRequestGameState    = "RequestGameState"
)

// Outbound events.
const (
	EvtPlayerJoined        = "PlayerJoined"
	EvtPlayerLeft          = "PlayerLeft"
	EvtGameStateUpdate     = "GameStateUpdate"
	EvtReceiveQuizQuestion = "ReceiveQuizQuestion"
	EvtMoveCompleted       = "MoveCompleted"
	EvtGameFinished        = "GameFinished"
	EvtPlayerSurrendered   = "PlayerSurrendered"
	EvtError               = "Error"
	EvtMoveError           = "MoveError"
	EvtSurrenderError      = "SurrenderError"
)

const (
	surrenderFinishMessage = "Other players surrendered"
	internalErrorMessage   = "something went wrong, try again"
)

// MoveCompleted is the group payload for a resolved roll or quiz answer.
type MoveCompleted struct {
	UserID  uuid.UUID         `json:"userId"`
	Outcome *game.MoveOutcome `json:"moveResult"`
}

// GameFinished is the group payload sent once a game has a winner.
type GameFinished struct {
	WinnerID   *uuid.UUID `json:"winnerId"`
	WinnerName string     `json:"winnerName"`
	Message    string     `json:"message"`
}

// Request is the body of an inbound message.
type Request struct {
	GameID uuid.UUID `json:"gameId"`
	Option string    `json:"option,omitempty"`
}

// GameHub turns engine results into events for the game's group and the acting caller.
// A nil caller (REST) gets no unicast events; the result is returned instead.
type GameHub struct {
	engine    *game.Engine
	transport i.GroupTransport
	logger    i.Logger
}

func NewGameHub(engine *game.Engine, transport i.GroupTransport, logger i.Logger) (*GameHub, error) {
	if engine == nil || transport == nil || logger == nil {
		return nil, errors.New("engine, transport and logger are required")
	}
	return &GameHub{engine: engine, transport: transport, logger: logger}, nil
}

// GroupName is the broadcast group of a game.
func GroupName(gameID uuid.UUID) string {
	return "Game_" + gameID.String()
}

// Handle dispatches one inbound message from a connection.
func (h *GameHub) Handle(ctx context.Context, c i.Caller, method string, payload json.RawMessage) {
	if c.UserID() == uuid.Nil {
		h.send(c, EvtError, dmn.ErrUnauthenticated.Message)
		return
	}

	var req Request
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			h.send(c, EvtError, dmn.ErrInvalidRequest.Message)
			return
		}
	}
	if req.GameID == uuid.Nil {
		h.send(c, EvtError, dmn.ErrInvalidRequest.Message)
		return
	}

	switch method {
	case MsgJoinGameGroup:
		h.JoinGameGroup(ctx, c, req.GameID)
	case MsgLeaveGameGroup:
		h.LeaveGameGroup(c, req.GameID)
	case MsgSendMove:
		_, _ = h.Move(ctx, c, req.GameID, c.UserID())
	case MsgSendQuizAnswer:
		_, _ = h.AnswerQuiz(ctx, c, req.GameID, c.UserID(), req.Option)
	case MsgRequestQuizQuestion:
		h.RequestQuizQuestion(ctx, c, req.GameID)
	case MsgSendSurrender:
		_, _ = h.Surrender(ctx, c, req.GameID, c.UserID())
	case MsgRequestGameState:
		h.RequestGameState(ctx, c, req.GameID)
	default:
		h.send(c, EvtError, fmt.Sprintf("unknown message %q", method))
	}
}

// JoinGameGroup subscribes the caller to the game and sends it the current state.
func (h *GameHub) JoinGameGroup(ctx context.Context, c i.Caller, gameID uuid.UUID) {
	group := GroupName(gameID)
	h.transport.Join(group, c)
	h.logger.Info(fmt.Sprintf("user %s joined group %s", c.UserID(), group))
	h.transport.BroadcastOthers(group, c, EvtPlayerJoined, c.UserID())

	h.RequestGameState(ctx, c, gameID)
}

// LeaveGameGroup unsubscribes the caller from the game.
func (h *GameHub) LeaveGameGroup(c i.Caller, gameID uuid.UUID) {
	group := GroupName(gameID)
	h.transport.Leave(group, c)
	h.logger.Info(fmt.Sprintf("user %s left group %s", c.UserID(), group))
	h.transport.BroadcastOthers(group, c, EvtPlayerLeft, c.UserID())
}

// Disconnected tells the groups a dropped connection belonged to that its user left.
func (h *GameHub) Disconnected(c i.Caller, groups []string) {
	for _, group := range groups {
		h.transport.BroadcastOthers(group, c, EvtPlayerLeft, c.UserID())
	}
	h.logger.Info(fmt.Sprintf("user %s disconnected from %d groups", c.UserID(), len(groups)))
}

// RequestGameState sends the current state to the caller only.
func (h *GameHub) RequestGameState(ctx context.Context, c i.Caller, gameID uuid.UUID) {
	state, err := h.engine.Snapshot(ctx, gameID)
	if err != nil {
		h.fail(c, EvtError, fmt.Sprintf("getting state of game %s", gameID), err)
		return
	}
	h.send(c, EvtGameStateUpdate, state)
}

// RequestQuizQuestion sends the caller the quiz it is parked on again.
func (h *GameHub) RequestQuizQuestion(ctx context.Context, c i.Caller, gameID uuid.UUID) {
	quiz, err := h.engine.PendingQuiz(ctx, gameID, c.UserID())
	if err != nil {
		h.fail(c, EvtError, fmt.Sprintf("getting quiz of game %s", gameID), err)
		return
	}
	h.send(c, EvtReceiveQuizQuestion, quiz)
}

// Move rolls for the user and broadcasts the outcome.
func (h *GameHub) Move(ctx context.Context, c i.Caller, gameID, userID uuid.UUID) (*game.Result, error) {
	res, err := h.engine.ExecuteMove(ctx, gameID, userID)
	if err != nil {
		h.fail(c, EvtMoveError, fmt.Sprintf("move of %s in game %s", userID, gameID), err)
		return nil, err
	}

	if res.Outcome.RequiresQuizAnswer() && res.Outcome.Quiz != nil && c != nil {
		h.send(c, EvtReceiveQuizQuestion, res.Outcome.Quiz)
	}
	h.publish(gameID, userID, res, res.Outcome.Message)
	return res, nil
}

// AnswerQuiz resolves the user's pending quiz and broadcasts the outcome.
func (h *GameHub) AnswerQuiz(ctx context.Context, c i.Caller, gameID, userID uuid.UUID, option string) (*game.Result, error) {
	res, err := h.engine.AnswerQuiz(ctx, gameID, userID, option)
	if err != nil {
		h.fail(c, EvtMoveError, fmt.Sprintf("quiz answer of %s in game %s", userID, gameID), err)
		return nil, err
	}

	h.publish(gameID, userID, res, res.Outcome.Message)
	return res, nil
}

// Surrender takes the user out of the game and broadcasts the new state.
func (h *GameHub) Surrender(ctx context.Context, c i.Caller, gameID, userID uuid.UUID) (*game.Result, error) {
	res, err := h.engine.Surrender(ctx, gameID, userID)
	if err != nil {
		h.fail(c, EvtSurrenderError, fmt.Sprintf("surrender of %s in game %s", userID, gameID), err)
		return nil, err
	}

	group := GroupName(gameID)
	h.transport.Broadcast(group, EvtPlayerSurrendered, userID)
	h.publish(gameID, userID, res, surrenderFinishMessage)
	return res, nil
}

// publish emits MoveCompleted (when there is an outcome), then GameStateUpdate, then
// GameFinished when the game ended.
func (h *GameHub) publish(gameID, userID uuid.UUID, res *game.Result, finishMessage string) {
	group := GroupName(gameID)

	if res.Outcome != nil {
		h.transport.Broadcast(group, EvtMoveCompleted, MoveCompleted{UserID: userID, Outcome: res.Outcome})
	}
	h.transport.Broadcast(group, EvtGameStateUpdate, res.State)

	if res.Finished() {
		h.transport.Broadcast(group, EvtGameFinished, GameFinished{
			WinnerID:   res.State.WinnerUserID,
			WinnerName: res.State.WinnerName,
			Message:    finishMessage,
		})
		h.logger.Info(fmt.Sprintf("game %s finished, winner %s", gameID, res.State.WinnerName))
	}
}

// fail reports err to the caller only. Internal failures are logged and masked.
func (h *GameHub) fail(c i.Caller, event, op string, err error) {
	msg := err.Error()
	if dmn.KindOf(err) == dmn.KindInternal {
		h.logger.Error(fmt.Sprintf("%s: %v", op, err))
		msg = internalErrorMessage
	} else {
		h.logger.Warning(fmt.Sprintf("%s rejected: %v", op, err))
	}
	if c != nil {
		h.send(c, event, msg)
	}
}

func (h *GameHub) send(c i.Caller, event string, payload any) {
	if err := c.Send(event, payload); err != nil {
		h.logger.Warning(fmt.Sprintf("sending %s to %s: %v", event, c.ConnID(), err))
	}
}
