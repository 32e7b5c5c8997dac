package catalog

import (
	"context"
	"errors"

	"github.com/Omarrawas/Atmetny1/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository reads the subject tree. Single lookups return (nil, nil) when the
// document does not exist.
type Repository interface {
	Subjects(ctx context.Context) ([]Subject, error)
	Subject(ctx context.Context, id string) (*Subject, error)
	SubjectsByIDs(ctx context.Context, ids []string) ([]Subject, error)
	Sections(ctx context.Context, subjectID string) ([]Section, error)
	Section(ctx context.Context, subjectID, id string) (*Section, error)
	Lessons(ctx context.Context, subjectID, sectionID string) ([]Lesson, error)
	Lesson(ctx context.Context, subjectID, sectionID, id string) (*Lesson, error)
}

// MongoRepository stores subjects, sections and lessons in three flat
// collections; sections and lessons carry their parent ids.
type MongoRepository struct {
	subjects *mongo.Collection
	sections *mongo.Collection
	lessons  *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		subjects: db.Collection(database.SubjectsCollection),
		sections: db.Collection(database.SectionsCollection),
		lessons:  db.Collection(database.LessonsCollection),
	}
}

var byOrder = options.Find().SetSort(bson.D{{Key: "order", Value: 1}})

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

func findOne[T any](ctx context.Context, col *mongo.Collection, filter interface{}) (*T, error) {
	var v T
	if err := col.FindOne(ctx, filter).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *MongoRepository) Subjects(ctx context.Context) ([]Subject, error) {
	return findAll[Subject](ctx, r.subjects, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *MongoRepository) Subject(ctx context.Context, id string) (*Subject, error) {
	return findOne[Subject](ctx, r.subjects, bson.M{"_id": id})
}

func (r *MongoRepository) SubjectsByIDs(ctx context.Context, ids []string) ([]Subject, error) {
	if len(ids) == 0 {
		return []Subject{}, nil
	}
	return findAll[Subject](ctx, r.subjects, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MongoRepository) Sections(ctx context.Context, subjectID string) ([]Section, error) {
	return findAll[Section](ctx, r.sections, bson.M{"subjectId": subjectID}, byOrder)
}

func (r *MongoRepository) Section(ctx context.Context, subjectID, id string) (*Section, error) {
	return findOne[Section](ctx, r.sections, bson.M{"_id": id, "subjectId": subjectID})
}

func (r *MongoRepository) Lessons(ctx context.Context, subjectID, sectionID string) ([]Lesson, error) {
	return findAll[Lesson](ctx, r.lessons, bson.M{"subjectId": subjectID, "sectionId": sectionID}, byOrder)
}

func (r *MongoRepository) Lesson(ctx context.Context, subjectID, sectionID, id string) (*Lesson, error) {
	return findOne[Lesson](ctx, r.lessons, bson.M{"_id": id, "subjectId": subjectID, "sectionId": sectionID})
}
