package i

import (
	"context"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/google/uuid"
)

// UserRepo defines the interface for user persistence operations.
type UserRepo interface {
	// Save inserts or updates a user in the repository.
	// If the user already exists, it updates the record. Otherwise, it creates a new one.
	Save(user *dmn.User) error

	// ByID retrieves a user by their unique ID.
	// Returns dmn.ErrUserNotFound if the user does not exist.
	ByID(id uuid.UUID) (*dmn.User, error)

	// ByUsername retrieves a user by their username.
	// Returns dmn.ErrUserNotFound if the user does not exist.
	ByUsername(username string) (*dmn.User, error)
}

// GameRepo persists games together with their board.
type GameRepo interface {
	// Save inserts or updates the game record together with every player seated in it.
	// Either everything is written or nothing is.
	Save(ctx context.Context, game *dmn.Game) error

	// Create inserts a new game with its players and stores the room's new status in the
	// same write. Either everything is written or nothing is.
	Create(ctx context.Context, game *dmn.Game, room *dmn.Room) error

	// ByID loads a game with its players (ordered by turn order) and board.
	// Returns dmn.ErrGameNotFound if the game does not exist.
	ByID(ctx context.Context, id uuid.UUID) (*dmn.Game, error)
}

// PlayerRepo persists room seats taken before a game starts.
type PlayerRepo interface {
	// Save inserts or updates a player.
	Save(ctx context.Context, player *dmn.Player) error
}

// RoomRepo persists rooms.
type RoomRepo interface {
	// Save inserts or updates the room record. Members are saved through PlayerRepo.
	Save(ctx context.Context, room *dmn.Room) error

	// ByIDWithPlayers loads a room and its members in join order.
	// Returns dmn.ErrRoomNotFound if the room does not exist.
	ByIDWithPlayers(ctx context.Context, id uuid.UUID) (*dmn.Room, error)
}
