package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/beka-birhanu/profesores-api/game"
	"github.com/beka-birhanu/profesores-api/service/i"
	"github.com/google/uuid"
)

const (
	defaultMaxPlayers = 4
	minPlayers        = 2
	maxRoomNameLength = 40
)

var ErrInvalidRoom = &dmn.Error{Kind: dmn.KindValidation, Code: "InvalidRoom", Message: "room name is required and seats must be between 2 and 4"}

// Rooms gathers players before a game and hands them to the engine once the host starts.
type Rooms struct {
	rooms   i.RoomRepo
	players i.PlayerRepo
	users   i.UserRepo
	engine  *game.Engine
	locker  game.Locker
	logger  i.Logger
	clock   func() time.Time
}

type RoomsConfig struct {
	Rooms   i.RoomRepo
	Players i.PlayerRepo
	Users   i.UserRepo
	Engine  *game.Engine
	Locker  game.Locker
	Logger  i.Logger
	Clock   func() time.Time
}

func NewRoomService(c *RoomsConfig) (*Rooms, error) {
	if c.Rooms == nil || c.Players == nil || c.Users == nil {
		return nil, errors.New("room, player and user repositories are required")
	}
	if c.Engine == nil {
		return nil, errors.New("game engine is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	r := &Rooms{
		rooms:   c.Rooms,
		players: c.Players,
		users:   c.Users,
		engine:  c.Engine,
		locker:  c.Locker,
		logger:  c.Logger,
		clock:   c.Clock,
	}
	if r.locker == nil {
		r.locker = game.NewKeyedLocker()
	}
	if r.clock == nil {
		r.clock = func() time.Time { return time.Now().UTC() }
	}
	return r, nil
}

// Create opens a room and seats the host in it. maxPlayers <= 0 means the default of 4.
func (r *Rooms) Create(ctx context.Context, hostUserID uuid.UUID, name string, maxPlayers int) (*dmn.Room, error) {
	name = strings.TrimSpace(name)
	if maxPlayers <= 0 {
		maxPlayers = defaultMaxPlayers
	}
	if name == "" || len(name) > maxRoomNameLength || maxPlayers < minPlayers || maxPlayers > defaultMaxPlayers {
		return nil, ErrInvalidRoom
	}

	room := &dmn.Room{
		ID:         uuid.New(),
		Name:       name,
		HostUserID: hostUserID,
		MaxPlayers: maxPlayers,
		Status:     dmn.RoomWaiting,
		CreatedAt:  r.clock(),
	}
	if err := r.rooms.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("saving room: %w", err)
	}

	r.logger.Info(fmt.Sprintf("room %s (%s) opened by %s", room.ID, room.Name, hostUserID))
	return r.Join(ctx, room.ID, hostUserID)
}

// Join seats the user in a waiting room.
func (r *Rooms) Join(ctx context.Context, roomID, userID uuid.UUID) (*dmn.Room, error) {
	unlock, err := r.locker.Lock(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("locking room %s: %w", roomID, err)
	}
	defer unlock()

	room, err := r.rooms.ByIDWithPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != dmn.RoomWaiting {
		return nil, dmn.ErrRoomNotWaiting
	}
	if room.HasUser(userID) {
		return nil, dmn.ErrAlreadyInRoom
	}
	if len(room.Players) >= room.MaxPlayers {
		return nil, dmn.ErrRoomFull
	}

	user, err := r.users.ByID(userID)
	if err != nil {
		return nil, err
	}

	player := &dmn.Player{
		ID:       uuid.New(),
		UserID:   user.ID,
		Username: user.Username,
		RoomID:   room.ID,
		Status:   dmn.PlayerPlaying,
		JoinedAt: r.clock(),
	}
	if err := r.players.Save(ctx, player); err != nil {
		return nil, fmt.Errorf("saving player: %w", err)
	}
	room.Players = append(room.Players, player)

	r.logger.Info(fmt.Sprintf("%s joined room %s (%d/%d)", user.Username, room.ID, len(room.Players), room.MaxPlayers))
	return room, nil
}

// Get returns a room with its members.
func (r *Rooms) Get(ctx context.Context, roomID uuid.UUID) (*dmn.Room, error) {
	return r.rooms.ByIDWithPlayers(ctx, roomID)
}

// StartGame lets a room member turn the room into a game.
func (r *Rooms) StartGame(ctx context.Context, roomID, userID uuid.UUID) (*game.GameState, error) {
	room, err := r.rooms.ByIDWithPlayers(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasUser(userID) {
		return nil, dmn.ErrPlayerNotInGame
	}
	return r.engine.CreateGame(ctx, roomID)
}
