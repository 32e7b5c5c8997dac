package activation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/database"
	"github.com/Omarrawas/Atmetny1/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists codes and runs redemptions. Lookups return (nil, nil) for
// missing codes.
type Store interface {
	FindByValue(ctx context.Context, encoded string) (*Code, error)
	Get(ctx context.Context, id string) (*Code, error)
	Insert(ctx context.Context, codes []*Code) error
	List(ctx context.Context, f ListFilter) ([]*Code, error)
	Deactivate(ctx context.Context, id string, now time.Time) error
	// RunInTx runs fn atomically. Writes made through tx are committed only
	// when fn returns nil.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of reads and writes a redemption performs.
type Tx interface {
	CodeByID(ctx context.Context, id string) (*Code, error)
	// MarkUsed fails with a CodeUsed *Error when the code was redeemed concurrently.
	MarkUsed(ctx context.Context, id string, u Usage) error
	AttachSubscription(ctx context.Context, uid, email string, sub models.SubscriptionDetails, now time.Time) error
	AppendLog(ctx context.Context, l *Log) error
}

// MongoStore implements Store on MongoDB using a multi-document transaction
// for redemptions. It requires a replica set or sharded cluster.
type MongoStore struct {
	client *mongo.Client
	codes  *mongo.Collection
	logs   *mongo.Collection
	users  *mongo.Collection
}

func NewMongoStore(client *mongo.Client, db *mongo.Database) *MongoStore {
	return &MongoStore{
		client: client,
		codes:  db.Collection(database.ActivationCodesCollection),
		logs:   db.Collection(database.ActivationLogsCollection),
		users:  db.Collection(database.UsersCollection),
	}
}

func findCode(ctx context.Context, col *mongo.Collection, filter bson.M) (*Code, error) {
	var c Code
	if err := col.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) FindByValue(ctx context.Context, encoded string) (*Code, error) {
	return findCode(ctx, s.codes, bson.M{"encodedValue": encoded})
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Code, error) {
	return findCode(ctx, s.codes, bson.M{"_id": id})
}

func (s *MongoStore) Insert(ctx context.Context, codes []*Code) error {
	if len(codes) == 0 {
		return nil
	}
	docs := make([]interface{}, len(codes))
	for i, c := range codes {
		docs[i] = c
	}
	if _, err := s.codes.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, f ListFilter) ([]*Code, error) {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.OnlyUnused {
		filter["isUsed"] = false
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.codes.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var out []*Code
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) Deactivate(ctx context.Context, id string, now time.Time) error {
	res, err := s.codes.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isActive": false, "updatedAt": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)
	// WithTransaction retries on transient errors such as write conflicts; the
	// retried fn re-reads the code and sees the winner's write.
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &mongoTx{s: s})
	})
	return err
}

type mongoTx struct {
	s *MongoStore
}

func (t *mongoTx) CodeByID(ctx context.Context, id string) (*Code, error) {
	return t.s.Get(ctx, id)
}

func (t *mongoTx) MarkUsed(ctx context.Context, id string, u Usage) error {
	set := bson.M{
		"isActive":     false,
		"isUsed":       true,
		"usedByUserId": u.UserID,
		"usedAt":       u.UsedAt,
		"updatedAt":    u.UsedAt,
	}
	if u.UsedForSubjectID != nil {
		set["usedForSubjectId"] = *u.UsedForSubjectID
	}
	res, err := t.s.codes.UpdateOne(ctx, bson.M{"_id": id, "isUsed": false}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return newError(CodeUsed, msgUsed)
	}
	return nil
}

// AttachSubscription merges the subscription onto the profile, creating the
// profile with its defaults when it does not exist.
func (t *mongoTx) AttachSubscription(ctx context.Context, uid, email string, sub models.SubscriptionDetails, now time.Time) error {
	p := models.NewUserProfile(uid, "", email, now)
	onInsert := bson.M{
		"name":                p.Name,
		"email":               p.Email,
		"avatarUrl":           p.AvatarURL,
		"avatarHint":          p.AvatarHint,
		"points":              p.Points,
		"level":               p.Level,
		"progressToNextLevel": p.ProgressToNextLevel,
		"badges":              p.Badges,
		"rewards":             p.Rewards,
		"studentGoals":        p.StudentGoals,
		"branch":              p.Branch,
		"university":          p.University,
		"major":               p.Major,
		"createdAt":           now,
	}
	_, err := t.s.users.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{
		"$set":         bson.M{"activeSubscription": sub, "updatedAt": now},
		"$setOnInsert": onInsert,
	}, options.Update().SetUpsert(true))
	return err
}

func (t *mongoTx) AppendLog(ctx context.Context, l *Log) error {
	_, err := t.s.logs.InsertOne(ctx, l)
	return err
}
