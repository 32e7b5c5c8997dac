package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/cache"
	"github.com/Omarrawas/Atmetny1/internal/exams"
	"github.com/Omarrawas/Atmetny1/internal/models"
	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeSigner struct {
	calls int
	err   error
}

func (f *fakeSigner) SignURL(ctx context.Context, key, fileName string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "https://files.local/" + key + "?sig=1", nil
}

type fakeExams struct{ got []string }

func (f *fakeExams) GetByIDs(ctx context.Context, ids []string) ([]exams.Exam, error) {
	f.got = ids
	out := make([]exams.Exam, len(ids))
	for i, id := range ids {
		out[i] = exams.Exam{ID: id}
	}
	return out, nil
}

func seed() *MemoryRepository {
	repo := NewMemoryRepository()
	repo.PutSubject(Subject{ID: "math", Name: "الرياضيات", Branch: BranchScientific})
	repo.PutSubject(Subject{ID: "arabic", Name: "العربية"})
	repo.PutSubject(Subject{ID: "blank"})
	repo.PutSection(Section{ID: "s2", SubjectID: "math", Title: "التكامل", Order: 2})
	repo.PutSection(Section{ID: "s1", SubjectID: "math", Order: 1})
	repo.PutSection(Section{ID: "x1", SubjectID: "arabic", Order: 1})

	repo.PutLesson(Lesson{ID: "l1", SubjectID: "math", SectionID: "s1", Title: "مقدمة", Order: 1, Content: "intro",
		Files: []LessonFile{{Name: "sheet.pdf", Key: "math/l1/sheet.pdf"}, {URL: "https://example.com/x"}}})
	repo.PutLesson(Lesson{ID: "l2", SubjectID: "math", SectionID: "s1", Order: 2, Content: "limits",
		Teachers: []Teacher{{YoutubeURL: "https://youtube.com/@t"}}, LinkedExamIDs: []string{"e2", "e1"}})
	repo.PutLesson(Lesson{ID: "l3", SubjectID: "math", SectionID: "s1", Order: 3, IsLocked: LockOpen, Content: "free"})
	repo.PutLesson(Lesson{ID: "l0", SubjectID: "math", SectionID: "s1", Order: 0, IsLocked: LockLocked, Content: "paid"})
	return repo
}

func newService(repo Repository, files FileSigner) *Service {
	s := NewService(repo, nil, files)
	s.now = func() time.Time { return now }
	return s
}

func active(subjectID string) *models.SubscriptionDetails {
	return &models.SubscriptionDetails{Status: models.SubscriptionActive, EndDate: now.Add(24 * time.Hour), SubjectID: models.StringPtr(subjectID)}
}

func TestSubjectsDefaultsAndOrder(t *testing.T) {
	svc := newService(seed(), nil)
	list, err := svc.Subjects(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, DefaultSubjectName, list[0].Name)
	assert.Equal(t, BranchCommon, list[0].Branch)
	assert.Equal(t, "الرياضيات", list[1].Name)
	assert.Equal(t, BranchScientific, list[1].Branch)
	assert.Equal(t, BranchCommon, list[2].Branch)

	_, err = svc.Subject(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubjectsCached(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	repo := seed()
	c := cache.New(redis.NewClient(&redis.Options{Addr: m.Addr()}), "test:", time.Minute)
	svc := NewService(repo, c, nil)
	ctx := context.Background()

	first, err := svc.Subjects(ctx)
	require.NoError(t, err)
	repo.PutSubject(Subject{ID: "chem", Name: "الكيمياء"})
	second, err := svc.Subjects(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.NoError(t, svc.InvalidateSubjects(ctx))
	third, err := svc.Subjects(ctx)
	require.NoError(t, err)
	require.Len(t, third, 4)
}

func TestSubjectNames(t *testing.T) {
	svc := newService(seed(), nil)
	names, err := svc.SubjectNames(context.Background(), []string{"math", "blank", "ghost"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"math": "الرياضيات"}, names)
}

func TestSections(t *testing.T) {
	svc := newService(seed(), nil)
	list, err := svc.Sections(context.Background(), "math")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "s1", list[0].ID)
	assert.Equal(t, DefaultSectionTitle, list[0].Title)

	_, err = svc.Section(context.Background(), "arabic", "s1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLessonsLockState(t *testing.T) {
	svc := newService(seed(), nil)
	ctx := context.Background()

	list, err := svc.Lessons(ctx, "math", "s1", nil)
	require.NoError(t, err)
	require.Len(t, list, 4)
	locked := map[string]bool{}
	for _, l := range list {
		locked[l.ID] = l.Locked
	}
	// l0 sorts first but is locked explicitly; l1 has no setting and is not first
	assert.Equal(t, map[string]bool{"l0": true, "l1": true, "l2": true, "l3": false}, locked)
	assert.Empty(t, list[0].Content)
	assert.Equal(t, "free", list[3].Content)

	list, err = svc.Lessons(ctx, "math", "s1", active("math"))
	require.NoError(t, err)
	for _, l := range list {
		assert.False(t, l.Locked, l.ID)
	}

	list, err = svc.Lessons(ctx, "math", "s1", active("arabic"))
	require.NoError(t, err)
	assert.True(t, list[1].Locked)
}

func TestLessonAccess(t *testing.T) {
	repo := seed()
	repo.PutLesson(Lesson{ID: "first", SubjectID: "arabic", SectionID: "x1"})
	repo.PutLesson(Lesson{ID: "second", SubjectID: "arabic", SectionID: "x1", Order: 1})
	svc := newService(repo, nil)
	ctx := context.Background()

	l, err := svc.Lesson(ctx, "arabic", "x1", "first", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultLessonTitle, l.Title)

	_, err = svc.Lesson(ctx, "arabic", "x1", "second", nil)
	require.ErrorIs(t, err, ErrLocked)

	general := &models.SubscriptionDetails{Status: models.SubscriptionActive, EndDate: now.Add(time.Hour)}
	_, err = svc.Lesson(ctx, "arabic", "x1", "second", general)
	require.NoError(t, err)

	expired := active("arabic")
	expired.EndDate = now.Add(-time.Minute)
	_, err = svc.Lesson(ctx, "arabic", "x1", "second", expired)
	require.ErrorIs(t, err, ErrLocked)

	_, err = svc.Lesson(ctx, "math", "x1", "second", general)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLessonDefaultsAndSignedFiles(t *testing.T) {
	signer := &fakeSigner{}
	svc := newService(seed(), signer)
	ctx := context.Background()

	l, err := svc.Lesson(ctx, "math", "s1", "l2", active(""))
	require.NoError(t, err)
	require.Len(t, l.Teachers, 1)
	assert.Equal(t, DefaultTeacherName, l.Teachers[0].Name)

	l, err = svc.Lesson(ctx, "math", "s1", "l1", active("math"))
	require.NoError(t, err)
	assert.Equal(t, "https://files.local/math/l1/sheet.pdf?sig=1", l.Files[0].URL)
	assert.Equal(t, DefaultFileName, l.Files[1].Name)
	assert.Equal(t, "https://example.com/x", l.Files[1].URL)
	assert.Equal(t, 1, signer.calls)
	assert.Equal(t, []string{}, l.LinkedExamIDs)

	signer.err = errors.New("minio down")
	l, err = svc.Lesson(ctx, "math", "s1", "l1", active("math"))
	require.NoError(t, err)
	assert.Empty(t, l.Files[0].URL)
}

func TestLessonExams(t *testing.T) {
	svc := newService(seed(), nil)
	ex := &fakeExams{}
	svc.UseExams(ex)
	ctx := context.Background()

	list, err := svc.LessonExams(ctx, "math", "s1", "l2", active("math"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{"e2", "e1"}, ex.got)

	_, err = svc.LessonExams(ctx, "math", "s1", "l2", nil)
	require.ErrorIs(t, err, ErrLocked)

	list, err = svc.LessonExams(ctx, "math", "s1", "l3", nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLockSettingDecoding(t *testing.T) {
	cases := []struct {
		doc  bson.M
		want LockSetting
	}{
		{bson.M{"isLocked": true}, LockLocked},
		{bson.M{"isLocked": "TRUE"}, LockLocked},
		{bson.M{"isLocked": false}, LockOpen},
		{bson.M{"isLocked": "false"}, LockOpen},
		{bson.M{"isLocked": nil}, LockUnset},
		{bson.M{}, LockUnset},
	}
	for _, c := range cases {
		raw, err := bson.Marshal(c.doc)
		require.NoError(t, err)
		var l Lesson
		require.NoError(t, bson.Unmarshal(raw, &l))
		assert.Equal(t, c.want, l.IsLocked, c.doc)
	}

	var l Lesson
	require.NoError(t, json.Unmarshal([]byte(`{"isLocked":"true"}`), &l))
	assert.Equal(t, LockLocked, l.IsLocked)
	b, err := json.Marshal(LessonSummary{Lesson: l, Locked: true})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"isLocked":true`)
	assert.Contains(t, string(b), `"locked":true`)
}
