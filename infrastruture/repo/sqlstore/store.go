// Package sqlstore persists users, rooms, games and players in SQLite through GORM.
package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type userRecord struct {
	ID           string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"uniqueIndex;size:20;not null"`
	PasswordHash string `gorm:"not null"`
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

type roomRecord struct {
	ID         string `gorm:"primaryKey;size:36"`
	Name       string `gorm:"size:40;not null"`
	HostUserID string `gorm:"size:36;not null"`
	MaxPlayers int    `gorm:"not null"`
	Status     string `gorm:"size:16;not null"`
	CreatedAt  time.Time
}

func (roomRecord) TableName() string { return "rooms" }

type gameRecord struct {
	ID                     string `gorm:"primaryKey;size:36"`
	RoomID                 string `gorm:"size:36;index;not null"`
	Status                 string `gorm:"size:16;not null"`
	CurrentTurnPlayerIndex int
	CurrentTurnPhase       string  `gorm:"size:32;not null"`
	WinnerPlayerID         *string `gorm:"size:36"`
	CreatedAt              time.Time
	FinishedAt             *time.Time

	// Board is the immutable layout, kept as JSON.
	Board string `gorm:"type:text;not null"`
}

func (gameRecord) TableName() string { return "games" }

type playerRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;not null"`
	Username  string `gorm:"size:20"`
	RoomID    string `gorm:"size:36;index:idx_players_room"`
	GameID    string `gorm:"size:36;index:idx_players_game"`
	Position  int
	TurnOrder int
	Status    string    `gorm:"size:16;not null"`
	JoinedAt  time.Time `gorm:"index:idx_players_room"`
}

func (playerRecord) TableName() string { return "players" }

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if err := db.AutoMigrate(&userRecord{}, &roomRecord{}, &gameRecord{}, &playerRecord{}); err != nil {
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return db, nil
}

// upsert inserts rec or overwrites every column of the row with the same key.
func upsert(tx *gorm.DB, rec interface{}) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}

func parseID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}

func idOrEmpty(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Save(user *dmn.User) error {
	rec := userRecord{
		ID:           user.ID.String(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := upsert(r.db, &rec); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return dmn.ErrUsernameTaken
		}
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

func (r *UserRepo) ByID(id uuid.UUID) (*dmn.User, error) {
	return r.first("id = ?", id.String())
}

func (r *UserRepo) ByUsername(username string) (*dmn.User, error) {
	return r.first("username = ?", username)
}

func (r *UserRepo) first(query string, arg interface{}) (*dmn.User, error) {
	var rec userRecord
	if err := r.db.Where(query, arg).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, dmn.ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return &dmn.User{ID: parseID(rec.ID), Username: rec.Username, PasswordHash: rec.PasswordHash}, nil
}

type PlayerRepo struct {
	db *gorm.DB
}

func NewPlayerRepo(db *gorm.DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

func (r *PlayerRepo) Save(ctx context.Context, player *dmn.Player) error {
	if err := upsert(r.db.WithContext(ctx), toPlayerRecord(player)); err != nil {
		return fmt.Errorf("saving player: %w", err)
	}
	return nil
}

func toPlayerRecord(p *dmn.Player) *playerRecord {
	return &playerRecord{
		ID:        p.ID.String(),
		UserID:    p.UserID.String(),
		Username:  p.Username,
		RoomID:    idOrEmpty(p.RoomID),
		GameID:    idOrEmpty(p.GameID),
		Position:  p.Position,
		TurnOrder: p.TurnOrder,
		Status:    string(p.Status),
		JoinedAt:  p.JoinedAt,
	}
}

func (rec *playerRecord) toDomain() *dmn.Player {
	return &dmn.Player{
		ID:        parseID(rec.ID),
		UserID:    parseID(rec.UserID),
		Username:  rec.Username,
		RoomID:    parseID(rec.RoomID),
		GameID:    parseID(rec.GameID),
		Position:  rec.Position,
		TurnOrder: rec.TurnOrder,
		Status:    dmn.PlayerStatus(rec.Status),
		JoinedAt:  rec.JoinedAt,
	}
}

func findPlayers(tx *gorm.DB, query, arg, order string) ([]*dmn.Player, error) {
	var recs []playerRecord
	if err := tx.Where(query, arg).Order(order).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("finding players: %w", err)
	}
	players := make([]*dmn.Player, 0, len(recs))
	for n := range recs {
		players = append(players, recs[n].toDomain())
	}
	return players, nil
}

type RoomRepo struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

func (r *RoomRepo) Save(ctx context.Context, room *dmn.Room) error {
	if err := upsert(r.db.WithContext(ctx), toRoomRecord(room)); err != nil {
		return fmt.Errorf("saving room: %w", err)
	}
	return nil
}

func toRoomRecord(room *dmn.Room) *roomRecord {
	return &roomRecord{
		ID:         room.ID.String(),
		Name:       room.Name,
		HostUserID: room.HostUserID.String(),
		MaxPlayers: room.MaxPlayers,
		Status:     string(room.Status),
		CreatedAt:  room.CreatedAt,
	}
}

func (r *RoomRepo) ByIDWithPlayers(ctx context.Context, id uuid.UUID) (*dmn.Room, error) {
	tx := r.db.WithContext(ctx)

	var rec roomRecord
	if err := tx.Where("id = ?", id.String()).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, dmn.ErrRoomNotFound
		}
		return nil, fmt.Errorf("finding room: %w", err)
	}

	players, err := findPlayers(tx, "room_id = ?", rec.ID, "joined_at, rowid")
	if err != nil {
		return nil, err
	}

	return &dmn.Room{
		ID:         parseID(rec.ID),
		Name:       rec.Name,
		HostUserID: parseID(rec.HostUserID),
		MaxPlayers: rec.MaxPlayers,
		Status:     dmn.RoomStatus(rec.Status),
		CreatedAt:  rec.CreatedAt,
		Players:    players,
	}, nil
}

type GameRepo struct {
	db *gorm.DB
}

func NewGameRepo(db *gorm.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Save writes the game and all of its players in one transaction.
func (r *GameRepo) Save(ctx context.Context, game *dmn.Game) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveGame(tx, game)
	})
}

// Create writes a new game, its players and the room in one transaction.
func (r *GameRepo) Create(ctx context.Context, game *dmn.Game, room *dmn.Room) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveGame(tx, game); err != nil {
			return err
		}
		if err := upsert(tx, toRoomRecord(room)); err != nil {
			return fmt.Errorf("saving room: %w", err)
		}
		return nil
	})
}

func saveGame(tx *gorm.DB, game *dmn.Game) error {
	board, err := json.Marshal(game.Board)
	if err != nil {
		return fmt.Errorf("encoding board: %w", err)
	}

	rec := gameRecord{
		ID:                     game.ID.String(),
		RoomID:                 game.RoomID.String(),
		Status:                 string(game.Status),
		CurrentTurnPlayerIndex: game.CurrentTurnPlayerIndex,
		CurrentTurnPhase:       string(game.CurrentTurnPhase),
		CreatedAt:              game.CreatedAt,
		FinishedAt:             game.FinishedAt,
		Board:                  string(board),
	}
	if game.WinnerPlayerID != nil {
		winner := game.WinnerPlayerID.String()
		rec.WinnerPlayerID = &winner
	}

	if err := upsert(tx, &rec); err != nil {
		return fmt.Errorf("saving game: %w", err)
	}
	for _, p := range game.Players {
		if err := upsert(tx, toPlayerRecord(p)); err != nil {
			return fmt.Errorf("saving player: %w", err)
		}
	}
	return nil
}

func (r *GameRepo) ByID(ctx context.Context, id uuid.UUID) (*dmn.Game, error) {
	tx := r.db.WithContext(ctx)

	var rec gameRecord
	if err := tx.Where("id = ?", id.String()).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, dmn.ErrGameNotFound
		}
		return nil, fmt.Errorf("finding game: %w", err)
	}

	var board dmn.Board
	if err := json.Unmarshal([]byte(rec.Board), &board); err != nil {
		return nil, fmt.Errorf("decoding board of game %s: %w", rec.ID, err)
	}

	players, err := findPlayers(tx, "game_id = ?", rec.ID, "turn_order")
	if err != nil {
		return nil, err
	}

	g := &dmn.Game{
		ID:                     parseID(rec.ID),
		RoomID:                 parseID(rec.RoomID),
		Status:                 dmn.GameStatus(rec.Status),
		CurrentTurnPlayerIndex: rec.CurrentTurnPlayerIndex,
		CurrentTurnPhase:       dmn.TurnPhase(rec.CurrentTurnPhase),
		CreatedAt:              rec.CreatedAt,
		FinishedAt:             rec.FinishedAt,
		Board:                  &board,
		Players:                players,
	}
	if rec.WinnerPlayerID != nil {
		winner := parseID(*rec.WinnerPlayerID)
		g.WinnerPlayerID = &winner
	}
	return g, nil
}
