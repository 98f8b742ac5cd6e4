package gameapi

import (
	"context"
	"net/http"
	"time"

	"github.com/beka-birhanu/profesores-api/api/httputil"
	"github.com/beka-birhanu/profesores-api/game"
	"github.com/beka-birhanu/profesores-api/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GameActions mutates a game and broadcasts the result to its group.
// A nil caller means the request did not come from a hub connection.
type GameActions interface {
	Move(ctx context.Context, c i.Caller, gameID, userID uuid.UUID) (*game.Result, error)
	AnswerQuiz(ctx context.Context, c i.Caller, gameID, userID uuid.UUID, option string) (*game.Result, error)
	Surrender(ctx context.Context, c i.Caller, gameID, userID uuid.UUID) (*game.Result, error)
}

// GameReader reads games without changing them.
type GameReader interface {
	Snapshot(ctx context.Context, gameID uuid.UUID) (*game.GameState, error)
	PendingQuiz(ctx context.Context, gameID, userID uuid.UUID) (*game.QuizPrompt, error)
}

// GameController exposes game actions to clients that are not connected to the hub.
type GameController struct {
	actions GameActions
	reader  GameReader
	timeout time.Duration
}

// NewGameController initializes a GameController. Each request is cut off after timeout.
func NewGameController(actions GameActions, reader GameReader, timeout time.Duration) (*GameController, error) {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &GameController{actions: actions, reader: reader, timeout: timeout}, nil
}

// RegisterPublic registers public routes.
func (gc *GameController) RegisterPublic(route *gin.RouterGroup) {}

// RegisterProtected registers protected routes.
func (gc *GameController) RegisterProtected(route *gin.RouterGroup) {
	games := route.Group("/games", httputil.Timeout(gc.timeout))
	{
		games.GET("/:gameID", gc.state)
		games.POST("/:gameID/move", gc.move)
		games.GET("/:gameID/quiz", gc.quiz)
		games.POST("/:gameID/quiz", gc.answerQuiz)
		games.POST("/:gameID/surrender", gc.surrender)
	}
}

func (gc *GameController) state(ctx *gin.Context) {
	gameID, ok := pathID(ctx, "gameID")
	if !ok {
		return
	}

	state, err := gc.reader.Snapshot(ctx.Request.Context(), gameID)
	if err != nil {
		httputil.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

func (gc *GameController) move(ctx *gin.Context) {
	userID, gameID, ok := userAndPathID(ctx, "gameID")
	if !ok {
		return
	}

	res, err := gc.actions.Move(ctx.Request.Context(), nil, gameID, userID)
	if err != nil {
		httputil.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, MoveResponse{MoveResult: res.Outcome, GameState: res.State})
}

func (gc *GameController) quiz(ctx *gin.Context) {
	userID, gameID, ok := userAndPathID(ctx, "gameID")
	if !ok {
		return
	}

	quiz, err := gc.reader.PendingQuiz(ctx.Request.Context(), gameID, userID)
	if err != nil {
		httputil.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, quiz)
}

func (gc *GameController) answerQuiz(ctx *gin.Context) {
	userID, gameID, ok := userAndPathID(ctx, "gameID")
	if !ok {
		return
	}

	var request QuizAnswerRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := gc.actions.AnswerQuiz(ctx.Request.Context(), nil, gameID, userID, request.Option)
	if err != nil {
		httputil.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, MoveResponse{MoveResult: res.Outcome, GameState: res.State})
}

func (gc *GameController) surrender(ctx *gin.Context) {
	userID, gameID, ok := userAndPathID(ctx, "gameID")
	if !ok {
		return
	}

	res, err := gc.actions.Surrender(ctx.Request.Context(), nil, gameID, userID)
	if err != nil {
		httputil.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, MoveResponse{GameState: res.State})
}
