// Package memory keeps users, rooms, games and players in process memory. It is used when
// no database is configured and as the store behind engine and service tests.
package memory

import (
	"context"
	"sort"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
)

// Store holds every record. Values are copied on the way in and out so callers never share
// memory with the store.
type Store struct {
	users   map[uuid.UUID]dmn.User
	rooms   map[uuid.UUID]dmn.Room
	games   map[uuid.UUID]*dmn.Game
	players map[uuid.UUID]dmn.Player
	seq     map[uuid.UUID]int // player id -> insertion order
	next    int
	mu      deadlock.RWMutex
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:   make(map[uuid.UUID]dmn.User),
		rooms:   make(map[uuid.UUID]dmn.Room),
		games:   make(map[uuid.UUID]*dmn.Game),
		players: make(map[uuid.UUID]dmn.Player),
		seq:     make(map[uuid.UUID]int),
	}
}

// Users returns the store as a user repository.
func (s *Store) Users() *UserRepo { return &UserRepo{s} }

// Rooms returns the store as a room repository.
func (s *Store) Rooms() *RoomRepo { return &RoomRepo{s} }

// Games returns the store as a game repository.
func (s *Store) Games() *GameRepo { return &GameRepo{s} }

// Players returns the store as a player repository.
func (s *Store) Players() *PlayerRepo { return &PlayerRepo{s} }

func (s *Store) putPlayer(p *dmn.Player) {
	if _, ok := s.seq[p.ID]; !ok {
		s.seq[p.ID] = s.next
		s.next++
	}
	s.players[p.ID] = *p
}

// playersWhere returns copies of the matching players in insertion order.
func (s *Store) playersWhere(match func(dmn.Player) bool) []*dmn.Player {
	out := make([]*dmn.Player, 0)
	for _, p := range s.players {
		if match(p) {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool { return s.seq[out[a].ID] < s.seq[out[b].ID] })
	return out
}

type UserRepo struct{ s *Store }

func (r *UserRepo) Save(user *dmn.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, u := range r.s.users {
		if u.Username == user.Username && id != user.ID {
			return dmn.ErrUsernameTaken
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepo) ByID(id uuid.UUID) (*dmn.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, dmn.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepo) ByUsername(username string) (*dmn.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, dmn.ErrUserNotFound
}

type RoomRepo struct{ s *Store }

func (r *RoomRepo) Save(_ context.Context, room *dmn.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *room
	cp.Players = nil
	r.s.rooms[room.ID] = cp
	return nil
}

func (r *RoomRepo) ByIDWithPlayers(_ context.Context, id uuid.UUID) (*dmn.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, dmn.ErrRoomNotFound
	}
	room.Players = r.s.playersWhere(func(p dmn.Player) bool { return p.RoomID == id })
	return &room, nil
}

type GameRepo struct{ s *Store }

func (r *GameRepo) Save(_ context.Context, game *dmn.Game) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := game.Clone()
	for _, p := range cp.Players {
		r.s.putPlayer(p)
	}
	cp.Players = nil
	r.s.games[game.ID] = cp
	return nil
}

func (r *GameRepo) Create(_ context.Context, game *dmn.Game, room *dmn.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := game.Clone()
	for _, p := range cp.Players {
		r.s.putPlayer(p)
	}
	cp.Players = nil
	r.s.games[game.ID] = cp

	rc := *room
	rc.Players = nil
	r.s.rooms[room.ID] = rc
	return nil
}

func (r *GameRepo) ByID(_ context.Context, id uuid.UUID) (*dmn.Game, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.games[id]
	if !ok {
		return nil, dmn.ErrGameNotFound
	}
	cp := g.Clone()
	cp.Players = r.s.playersWhere(func(p dmn.Player) bool { return p.GameID == id })
	sort.SliceStable(cp.Players, func(a, b int) bool { return cp.Players[a].TurnOrder < cp.Players[b].TurnOrder })
	return cp, nil
}

type PlayerRepo struct{ s *Store }

func (r *PlayerRepo) Save(_ context.Context, player *dmn.Player) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.putPlayer(player)
	return nil
}
