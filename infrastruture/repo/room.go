package repo

import (
	"context"
	"errors"
	"fmt"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RoomRepo stores rooms; their members live in the players collection.
type RoomRepo struct {
	collection *mongo.Collection
	players    *PlayerRepo
}

func NewRoomRepo(client *mongo.Client, dbName, collectionName string, players *PlayerRepo) *RoomRepo {
	return &RoomRepo{
		collection: client.Database(dbName).Collection(collectionName),
		players:    players,
	}
}

func (r *RoomRepo) Save(ctx context.Context, room *dmn.Room) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": room.ID}, room, opts); err != nil {
		return fmt.Errorf("saving room: %w", err)
	}
	return nil
}

func (r *RoomRepo) ByIDWithPlayers(ctx context.Context, id uuid.UUID) (*dmn.Room, error) {
	var room dmn.Room
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, dmn.ErrRoomNotFound
		}
		return nil, fmt.Errorf("finding room: %w", err)
	}

	players, err := r.players.byRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	room.Players = players
	return &room, nil
}
