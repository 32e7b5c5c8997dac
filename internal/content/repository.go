package content

import (
	"context"

	"github.com/Omarrawas/Atmetny1/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository returns the newest n documents by createdAt.
type Repository interface {
	LatestNews(ctx context.Context, n int64) ([]NewsItem, error)
	ActiveAnnouncements(ctx context.Context, n int64) ([]Announcement, error)
}

type MongoRepository struct {
	news          *mongo.Collection
	announcements *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		news:          db.Collection(database.NewsCollection),
		announcements: db.Collection(database.AnnouncementsCollection),
	}
}

func newest(n int64) *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(n)
}

func (r *MongoRepository) LatestNews(ctx context.Context, n int64) ([]NewsItem, error) {
	cur, err := r.news.Find(ctx, bson.M{}, newest(n))
	if err != nil {
		return nil, err
	}
	out := []NewsItem{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) ActiveAnnouncements(ctx context.Context, n int64) ([]Announcement, error) {
	cur, err := r.announcements.Find(ctx, bson.M{"isActive": true}, newest(n))
	if err != nil {
		return nil, err
	}
	out := []Announcement{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
