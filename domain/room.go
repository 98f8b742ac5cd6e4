package dmn

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus is the lobby state of a room.
type RoomStatus string

const (
	RoomWaiting RoomStatus = "Waiting"
	RoomInGame  RoomStatus = "InGame"
)

// Room gathers players before a game starts.
type Room struct {
	ID         uuid.UUID  `bson:"_id"`
	Name       string     `bson:"name"`
	HostUserID uuid.UUID  `bson:"hostUserId"`
	MaxPlayers int        `bson:"maxPlayers"`
	Status     RoomStatus `bson:"status"`
	CreatedAt  time.Time  `bson:"createdAt"`

	// Players holds every seat taken in the room, in join order.
	Players []*Player `bson:"-"`
}

// EligiblePlayers returns the members not yet assigned to a game, in join order.
func (r *Room) EligiblePlayers() []*Player {
	eligible := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.GameID == uuid.Nil {
			eligible = append(eligible, p)
		}
	}
	return eligible
}

// HasUser reports whether the user already holds a seat in the room.
func (r *Room) HasUser(userID uuid.UUID) bool {
	for _, p := range r.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
