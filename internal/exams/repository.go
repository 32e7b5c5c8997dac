package exams

import (
	"context"
	"errors"

	"github.com/Omarrawas/Atmetny1/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository reads exams and questions and stores attempts. Id lookups return
// documents in no particular order and skip missing ids.
type Repository interface {
	ListPublished(ctx context.Context, f ListFilter) ([]Exam, error)
	GetExam(ctx context.Context, id string) (*Exam, error)
	ExamsByIDs(ctx context.Context, ids []string) ([]Exam, error)
	QuestionsByIDs(ctx context.Context, ids []string) ([]Question, error)
	QuestionsBySubject(ctx context.Context, subjectID string, limit int64) ([]Question, error)
	InsertAttempt(ctx context.Context, a *Attempt) error
	ListAttempts(ctx context.Context, uid string, limit int64) ([]Attempt, error)
}

type MongoRepository struct {
	exams     *mongo.Collection
	questions *mongo.Collection
	attempts  *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		exams:     db.Collection(database.ExamsCollection),
		questions: db.Collection(database.QuestionsCollection),
		attempts:  db.Collection(database.AttemptsCollection),
	}
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) ListPublished(ctx context.Context, f ListFilter) ([]Exam, error) {
	filter := bson.M{"published": true}
	if f.SubjectID != "" {
		filter["subjectId"] = f.SubjectID
	}
	if f.TeacherID != "" {
		filter["teacherId"] = f.TeacherID
	}
	return findAll[Exam](ctx, r.exams, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *MongoRepository) GetExam(ctx context.Context, id string) (*Exam, error) {
	var e Exam
	if err := r.exams.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *MongoRepository) ExamsByIDs(ctx context.Context, ids []string) ([]Exam, error) {
	if len(ids) == 0 {
		return []Exam{}, nil
	}
	return findAll[Exam](ctx, r.exams, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MongoRepository) QuestionsByIDs(ctx context.Context, ids []string) ([]Question, error) {
	if len(ids) == 0 {
		return []Question{}, nil
	}
	return findAll[Question](ctx, r.questions, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MongoRepository) QuestionsBySubject(ctx context.Context, subjectID string, limit int64) ([]Question, error) {
	return findAll[Question](ctx, r.questions, bson.M{"subjectId": subjectID}, options.Find().SetLimit(limit))
}

func (r *MongoRepository) InsertAttempt(ctx context.Context, a *Attempt) error {
	_, err := r.attempts.InsertOne(ctx, a)
	return err
}

func (r *MongoRepository) ListAttempts(ctx context.Context, uid string, limit int64) ([]Attempt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return findAll[Attempt](ctx, r.attempts, bson.M{"userId": uid}, opts)
}
