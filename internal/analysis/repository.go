package analysis

import (
	"context"

	"github.com/Omarrawas/Atmetny1/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	Insert(ctx context.Context, a *Analysis) error
	History(ctx context.Context, uid string, limit int64) ([]Analysis, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection(database.AnalysesCollection)}
}

func (r *MongoRepository) Insert(ctx context.Context, a *Analysis) error {
	_, err := r.col.InsertOne(ctx, a)
	return err
}

func (r *MongoRepository) History(ctx context.Context, uid string, limit int64) ([]Analysis, error) {
	opts := options.Find().SetSort(bson.D{{Key: "analyzedAt", Value: -1}}).SetLimit(limit)
	cur, err := r.col.Find(ctx, bson.M{"userId": uid}, opts)
	if err != nil {
		return nil, err
	}
	out := []Analysis{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
