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
	"go.mongodb.org/mongo-driver/mongo/readconcern"
)

// GameRepo stores a game document with its board embedded. Seats go to the players
// collection.
type GameRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
	players    *PlayerRepo
	rooms      *RoomRepo
}

func NewGameRepo(client *mongo.Client, dbName, collectionName string, players *PlayerRepo, rooms *RoomRepo) *GameRepo {
	return &GameRepo{
		client:     client,
		collection: client.Database(dbName).Collection(collectionName),
		players:    players,
		rooms:      rooms,
	}
}

// Save writes the players and the game inside one transaction.
func (g *GameRepo) Save(ctx context.Context, game *dmn.Game) error {
	return g.transact(ctx, nil, func(ctx context.Context) error {
		return g.write(ctx, game)
	})
}

// Create writes the players, the game and the room inside one transaction.
func (g *GameRepo) Create(ctx context.Context, game *dmn.Game, room *dmn.Room) error {
	return g.transact(ctx, nil, func(ctx context.Context) error {
		if err := g.write(ctx, game); err != nil {
			return err
		}
		return g.rooms.Save(ctx, room)
	})
}

func (g *GameRepo) write(ctx context.Context, game *dmn.Game) error {
	if err := g.players.saveMany(ctx, game.Players); err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := g.collection.ReplaceOne(ctx, bson.M{"_id": game.ID}, game, opts); err != nil {
		return fmt.Errorf("saving game: %w", err)
	}
	return nil
}

// ByID reads the game and its players from one snapshot so a concurrent Save is seen
// either entirely or not at all.
func (g *GameRepo) ByID(ctx context.Context, id uuid.UUID) (*dmn.Game, error) {
	var found *dmn.Game
	snapshot := options.Transaction().SetReadConcern(readconcern.Snapshot())
	err := g.transact(ctx, snapshot, func(ctx context.Context) error {
		var game dmn.Game
		if err := g.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&game); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return dmn.ErrGameNotFound
			}
			return fmt.Errorf("finding game: %w", err)
		}

		players, err := g.players.byGame(ctx, id)
		if err != nil {
			return err
		}
		game.Players = players
		found = &game
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// transact runs fn inside a transaction. Deployments without transaction support (a
// standalone server) fall back to running fn directly.
func (g *GameRepo) transact(ctx context.Context, opts *options.TransactionOptions, fn func(context.Context) error) error {
	session, err := g.client.StartSession()
	if err != nil {
		return fn(ctx)
	}
	defer session.EndSession(ctx)

	var txOpts []*options.TransactionOptions
	if opts != nil {
		txOpts = append(txOpts, opts)
	}
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txOpts...)
	if err != nil && isTransactionUnsupported(err) {
		return fn(ctx)
	}
	return err
}

// isTransactionUnsupported matches the server error returned by standalone deployments.
func isTransactionUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == 20 // IllegalOperation
	}
	return false
}
