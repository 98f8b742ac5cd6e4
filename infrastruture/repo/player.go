package repo

import (
	"context"
	"fmt"

	dmn "github.com/beka-birhanu/profesores-api/domain"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PlayerRepo stores one document per seat, shared by rooms and games.
type PlayerRepo struct {
	collection *mongo.Collection
}

func NewPlayerRepo(client *mongo.Client, dbName, collectionName string) *PlayerRepo {
	return &PlayerRepo{collection: client.Database(dbName).Collection(collectionName)}
}

// EnsureIndexes adds the lookups rooms and games load players by.
func (p *PlayerRepo) EnsureIndexes(ctx context.Context) error {
	_, err := p.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "roomId", Value: 1}, {Key: "joinedAt", Value: 1}}},
		{Keys: bson.D{{Key: "gameId", Value: 1}, {Key: "turnOrder", Value: 1}}},
	})
	return err
}

// Save upserts a player.
func (p *PlayerRepo) Save(ctx context.Context, player *dmn.Player) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := p.collection.ReplaceOne(ctx, bson.M{"_id": player.ID}, player, opts); err != nil {
		return fmt.Errorf("saving player: %w", err)
	}
	return nil
}

func (p *PlayerRepo) saveMany(ctx context.Context, players []*dmn.Player) error {
	if len(players) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(players))
	for _, pl := range players {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": pl.ID}).
			SetReplacement(pl).
			SetUpsert(true))
	}
	if _, err := p.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("saving players: %w", err)
	}
	return nil
}

func (p *PlayerRepo) find(ctx context.Context, filter bson.M, sort bson.D) ([]*dmn.Player, error) {
	cur, err := p.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("finding players: %w", err)
	}
	players := make([]*dmn.Player, 0)
	if err := cur.All(ctx, &players); err != nil {
		return nil, fmt.Errorf("decoding players: %w", err)
	}
	return players, nil
}

func (p *PlayerRepo) byRoom(ctx context.Context, roomID uuid.UUID) ([]*dmn.Player, error) {
	return p.find(ctx, bson.M{"roomId": roomID}, bson.D{{Key: "joinedAt", Value: 1}})
}

func (p *PlayerRepo) byGame(ctx context.Context, gameID uuid.UUID) ([]*dmn.Player, error) {
	return p.find(ctx, bson.M{"gameId": gameID}, bson.D{{Key: "turnOrder", Value: 1}})
}
