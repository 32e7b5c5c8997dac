package users

import (
	"context"
	"errors"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by updates that target a missing profile.
var ErrNotFound = errors.New("user profile not found")

// Repository defines persistence operations for user profiles.
// Get returns (nil, nil) when the profile does not exist.
type Repository interface {
	Get(ctx context.Context, uid string) (*models.UserProfile, error)
	Create(ctx context.Context, p *models.UserProfile) error
	Update(ctx context.Context, uid string, w models.ProfileWrite, now time.Time) error
	IncrementPoints(ctx context.Context, uid string, delta int, now time.Time) error
}

// MongoRepository implements Repository using MongoDB
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates a new repository for the given collection
func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := r.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepository) Create(ctx context.Context, p *models.UserProfile) error {
	// upsert on the id so a concurrent first login does not fail with a duplicate key
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": p.UID}, bson.M{"$setOnInsert": p}, options.Update().SetUpsert(true))
	return err
}

func (r *MongoRepository) Update(ctx context.Context, uid string, w models.ProfileWrite, now time.Time) error {
	set := bson.M{"updatedAt": now}
	for k, v := range w.Fields() {
		set[k] = v
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) IncrementPoints(ctx context.Context, uid string, delta int, now time.Time) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{
		"$inc": bson.M{"points": delta},
		"$set": bson.M{"updatedAt": now},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
