package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Omarrawas/Atmetny1/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names shared by the repositories.
const (
	UsersCollection           = "users"
	SessionsCollection        = "sessions"
	ActivationCodesCollection = "activationCodes"
	ActivationLogsCollection  = "activationLogs"
	ExamsCollection           = "exams"
	QuestionsCollection       = "questions"
	AttemptsCollection        = "userExamAttempts"
	SubjectsCollection        = "subjects"
	SectionsCollection        = "sections"
	LessonsCollection         = "lessons"
	NewsCollection            = "news"
	AnnouncementsCollection   = "announcements"
	AnalysesCollection        = "aiAnalyses"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// ConnectWithRetry retries ConnectMongo with exponential backoff to tolerate
// startup races with the database container.
func ConnectWithRetry(ctx context.Context, uri string, timeout time.Duration, attempts int) (*mongo.Client, error) {
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := ConnectMongo(ctx, uri, timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, attempts, err)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("mongo connect after %d attempts: %w", attempts, lastErr)
}

// EnsureIndexes creates the indexes the query paths rely on. Index creation
// is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		ActivationCodesCollection: {
			{Keys: bson.D{{Key: "encodedValue", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ExamsCollection: {
			{Keys: bson.D{{Key: "published", Value: 1}, {Key: "subjectId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		QuestionsCollection: {
			{Keys: bson.D{{Key: "subjectId", Value: 1}}},
		},
		AttemptsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "completedAt", Value: -1}}},
		},
		SectionsCollection: {
			{Keys: bson.D{{Key: "subjectId", Value: 1}, {Key: "order", Value: 1}}},
		},
		LessonsCollection: {
			{Keys: bson.D{{Key: "subjectId", Value: 1}, {Key: "sectionId", Value: 1}, {Key: "order", Value: 1}}},
		},
		AnnouncementsCollection: {
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		SessionsCollection: {
			{Keys: bson.D{{Key: "refreshToken", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
		AnalysesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "analyzedAt", Value: -1}}},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
