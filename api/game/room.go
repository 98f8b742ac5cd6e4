package gameapi

import (
	"context"
	"net/http"
	"time"

	"github.com/beka-birhanu/profesores-api/api/httputil"
	"github.com/beka-birhanu/profesores-api/api/identity"
	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/beka-birhanu/profesores-api/game"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RoomService is the lobby the controller drives.
type RoomService interface {
	Create(ctx context.Context, hostUserID uuid.UUID, name string, maxPlayers int) (*dmn.Room, error)
	Join(ctx context.Context, roomID, userID uuid.UUID) (*dmn.Room, error)
	Get(ctx context.Context, roomID uuid.UUID) (*dmn.Room, error)
	StartGame(ctx context.Context, roomID, userID uuid.UUID) (*game.GameState, error)
}

// DefaultRequestTimeout bounds a room or game request when the controller is given no timeout.
const DefaultRequestTimeout = 10 * time.Second

// RoomController manages rooms and starts their games.
type RoomController struct {
	rooms   RoomService
	timeout time.Duration
}

// NewRoomController initializes a RoomController. Each request is cut off after timeout.
func NewRoomController(rs RoomService, timeout time.Duration) (*RoomController, error) {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &RoomController{rooms: rs, timeout: timeout}, nil
}

// RegisterPublic registers public routes.
func (rc *RoomController) RegisterPublic(route *gin.RouterGroup) {}

// RegisterProtected registers protected routes.
func (rc *RoomController) RegisterProtected(route *gin.RouterGroup) {
	rooms := route.Group("/rooms", httputil.Timeout(rc.timeout))
	{
		rooms.POST("", rc.create)
		rooms.GET("/:roomID", rc.get)
		rooms.POST("/:roomID/join", rc.join)
		rooms.POST("/:roomID/game", rc.startGame)
	}
}

func (rc *RoomController) create(ctx *gin.Context) {
	userID, ok := identity.UserID(ctx)
	if !ok {
		httputil.AbortWithError(ctx, dmn.ErrUnauthenticated)
		return
	}

	var request CreateRoomRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := rc.rooms.Create(ctx.Request.Context(), userID, request.Name, request.MaxPlayers)
	if err != nil {
		httputil.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, newRoomResponse(room))
}

func (rc *RoomController) get(ctx *gin.Context) {
	roomID, ok := pathID(ctx, "roomID")
	if !ok {
		return
	}

	room, err := rc.rooms.Get(ctx.Request.Context(), roomID)
	if err != nil {
		httputil.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newRoomResponse(room))
}

func (rc *RoomController) join(ctx *gin.Context) {
	userID, roomID, ok := userAndPathID(ctx, "roomID")
	if !ok {
		return
	}

	room, err := rc.rooms.Join(ctx.Request.Context(), roomID, userID)
	if err != nil {
		httputil.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newRoomResponse(room))
}

func (rc *RoomController) startGame(ctx *gin.Context) {
	userID, roomID, ok := userAndPathID(ctx, "roomID")
	if !ok {
		return
	}

	state, err := rc.rooms.StartGame(ctx.Request.Context(), roomID, userID)
	if err != nil {
		httputil.AbortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, state)
}

// pathID parses a uuid path parameter, answering 400 when it is malformed.
func pathID(ctx *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(param))
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func userAndPathID(ctx *gin.Context, param string) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := identity.UserID(ctx)
	if !ok {
		httputil.AbortWithError(ctx, dmn.ErrUnauthenticated)
		return uuid.Nil, uuid.Nil, false
	}
	id, ok := pathID(ctx, param)
	return userID, id, ok
}
