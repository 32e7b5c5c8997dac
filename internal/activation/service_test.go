package activation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/models"
	"github.com/Omarrawas/Atmetny1/internal/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, codes ...*Code) (*Service, *MemoryStore, *users.MemoryRepository) {
	t.Helper()
	profiles := users.NewMemoryRepository()
	store := NewMemoryStore(profiles)
	require.NoError(t, store.Insert(context.Background(), codes))
	svc := NewService(store)
	svc.now = func() time.Time { return fixedNow }
	return svc, store, profiles
}

func validCode(id, value, typ string) *Code {
	return &Code{
		ID:           id,
		EncodedValue: value,
		Name:         "Promo",
		Type:         typ,
		IsActive:     true,
		ValidFrom:    fixedNow.AddDate(0, -1, 0),
		ValidUntil:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		CreatedAt:    fixedNow.AddDate(0, -1, 0),
	}
}

func TestCheck_Outcomes(t *testing.T) {
	inactive := validCode("c-inactive", "INACTIVE", "general_monthly")
	inactive.IsActive = false
	used := validCode("c-used", "USED", "general_monthly")
	used.IsUsed = true
	future := validCode("c-future", "FUTURE", "general_monthly")
	future.ValidFrom = time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	expired := validCode("c-expired", "EXPIRED", "general_monthly")
	expired.ValidUntil = fixedNow.Add(-time.Second)

	svc, _, _ := newTestService(t, inactive, used, future, expired,
		validCode("c-ok", "GOOD-CODE", "general_yearly"),
		validCode("c-choose", "CHOOSE", "choose_single_subject_monthly"))
	ctx := context.Background()

	cases := []struct {
		input, reason, message string
	}{
		{"   ", CodeEmpty, "الرجاء إدخال رمز التفعيل."},
		{"NOPE", CodeNotFound, "رمز التفعيل غير موجود أو غير صحيح."},
		{"INACTIVE", CodeInactive, "رمز التفعيل هذا غير نشط حاليًا (قد يكون استخدم سابقًا أو تم إلغاؤه)."},
		{"USED", CodeUsed, "رمز التفعيل هذا تم استخدامه مسبقاً."},
		{"FUTURE", CodeNotYetValid, "رمز التفعيل هذا غير صالح للاستخدام قبل تاريخ ١٠ أبريل ٢٠٢٥."},
		{"EXPIRED", CodeExpired, "صلاحية رمز التفعيل هذا قد انتهت."},
	}
	for _, tc := range cases {
		res, err := svc.Check(ctx, tc.input)
		require.NoError(t, err, tc.input)
		assert.False(t, res.IsValid, tc.input)
		assert.Equal(t, tc.reason, res.Reason, tc.input)
		assert.Equal(t, tc.message, res.Message, tc.input)
		assert.Nil(t, res.CodeDetails, tc.input)
	}

	res, err := svc.Check(ctx, "  GOOD-CODE \n")
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.False(t, res.NeedsSubjectChoice)
	assert.Equal(t, "الرمز صالح للتفعيل.", res.Message)
	require.NotNil(t, res.CodeDetails)
	assert.Equal(t, "c-ok", res.CodeDetails.ID)
	assert.Nil(t, res.CodeDetails.SubjectID)

	res, err = svc.Check(ctx, "CHOOSE")
	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.True(t, res.NeedsSubjectChoice)
	assert.Equal(t, "الرمز صالح. يرجى اختيار المادة لتفعيل الاشتراك.", res.Message)
}

type failingStore struct{ Store }

func (failingStore) FindByValue(ctx context.Context, encoded string) (*Code, error) {
	return nil, errors.New("connection reset")
}

func TestCheck_StorageError(t *testing.T) {
	svc := NewService(failingStore{})
	_, err := svc.Check(context.Background(), "X")
	require.Error(t, err)
}

func TestConfirm_GeneralCode(t *testing.T) {
	svc, store, profiles := newTestService(t, validCode("c1", "GEN-1", "general_yearly"))
	ctx := context.Background()

	res, err := svc.Confirm(ctx, Confirmation{UserID: "u1", Email: "u1@example.com", CodeID: "c1", CodeType: "general_yearly"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "اشتراك سنوي عام", res.ActivatedPlanName)
	assert.Equal(t, "تم تفعيل اشتراكك بنجاح! ينتهي في ٣٠ يونيو ٢٠٢٥", res.Message)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), res.SubscriptionEndDate)

	c, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, c.IsUsed)
	assert.False(t, c.IsActive)
	assert.Equal(t, "u1", models.StringValue(c.UsedByUserID))
	require.NotNil(t, c.UsedAt)
	assert.Equal(t, fixedNow, *c.UsedAt)
	assert.Nil(t, c.UsedForSubjectID)

	// the profile did not exist and is created with defaults
	p, err := profiles.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.DefaultNewStudentName, p.Name)
	assert.Equal(t, "u1@example.com", p.Email)
	require.NotNil(t, p.ActiveSubscription)
	sub := p.ActiveSubscription
	assert.Equal(t, "general_yearly", sub.PlanID)
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, "c1", sub.ActivationCodeID)
	assert.Equal(t, fixedNow, sub.StartDate)
	assert.True(t, sub.IsGeneral())

	logs := store.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, "u1", logs[0].UserID)
	assert.Equal(t, "c1", logs[0].CodeID)
	assert.Equal(t, "general_yearly", logs[0].CodeType)
	assert.Equal(t, "اشتراك سنوي عام", logs[0].PlanName)
	assert.Nil(t, logs[0].SubjectID)
}

func TestConfirm_ChosenSubject(t *testing.T) {
	svc, store, profiles := newTestService(t, validCode("c2", "CH-1", "choose_single_subject_monthly"))
	ctx := context.Background()

	_, err := svc.Confirm(ctx, Confirmation{UserID: "u2", Email: "u2@example.com", CodeID: "c2", CodeType: "general_monthly"})
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeSubjectRequired, e.Code)
	assert.Equal(t, "لم يتم اختيار المادة للاشتراك الفردي المحدد بالرمز.", e.Message)

	res, err := svc.Confirm(ctx, Confirmation{
		UserID: "u2", Email: "u2@example.com", CodeID: "c2", CodeType: "choose_single_subject_monthly",
		ChosenSubjectID: "physics", ChosenSubjectName: "الفيزياء",
	})
	require.NoError(t, err)
	assert.Equal(t, "اشتراك لمادة الفيزياء", res.ActivatedPlanName)
	assert.Equal(t, `تم تفعيل اشتراكك في مادة "الفيزياء" بنجاح! ينتهي في ٣٠ يونيو ٢٠٢٥.`, res.Message)

	c, _ := store.Get(ctx, "c2")
	assert.Equal(t, "physics", models.StringValue(c.UsedForSubjectID))
	p, _ := profiles.Get(ctx, "u2")
	assert.True(t, p.ActiveSubscription.CoversSubject("physics", fixedNow))
	assert.False(t, p.ActiveSubscription.CoversSubject("math", fixedNow))
	assert.Equal(t, "physics", models.StringValue(store.Logs()[0].SubjectID))
}

func TestConfirm_CodeSubject(t *testing.T) {
	code := validCode("c3", "MATH-1", "subject_yearly_math")
	code.SubjectID = models.StringPtr("math")
	code.SubjectName = models.StringPtr("الرياضيات")
	svc, store, profiles := newTestService(t, code)
	ctx := context.Background()

	res, err := svc.Confirm(ctx, Confirmation{UserID: "u3", Email: "u3@example.com", CodeID: "c3", CodeType: code.Type})
	require.NoError(t, err)
	assert.Equal(t, "اشتراك لمادة الرياضيات", res.ActivatedPlanName)
	assert.Contains(t, res.Message, `"الرياضيات"`)

	c, _ := store.Get(ctx, "c3")
	assert.Equal(t, "math", models.StringValue(c.UsedForSubjectID))
	p, _ := profiles.Get(ctx, "u3")
	assert.Equal(t, "الرياضيات", models.StringValue(p.ActiveSubscription.SubjectName))
}

func TestConfirm_KeepsExistingProfile(t *testing.T) {
	svc, _, profiles := newTestService(t, validCode("c4", "GEN-4", "general_monthly"))
	ctx := context.Background()
	existing := models.NewUserProfile("u4", "Lina", "lina@example.com", fixedNow.AddDate(0, -2, 0))
	existing.Points = 120
	require.NoError(t, profiles.Create(ctx, existing))

	_, err := svc.Confirm(ctx, Confirmation{UserID: "u4", Email: "other@example.com", CodeID: "c4", CodeType: "general_monthly"})
	require.NoError(t, err)

	p, _ := profiles.Get(ctx, "u4")
	assert.Equal(t, "Lina", p.Name)
	assert.Equal(t, "lina@example.com", p.Email)
	assert.Equal(t, 120, p.Points)
	assert.Equal(t, "general_monthly", p.ActiveSubscription.PlanID)
	assert.Equal(t, fixedNow, p.UpdatedAt)
}

func TestConfirm_Rejections(t *testing.T) {
	inactive := validCode("inactive", "I", "general_monthly")
	inactive.IsActive = false
	expired := validCode("expired", "E", "general_monthly")
	expired.ValidUntil = fixedNow.Add(-time.Minute)
	svc, store, profiles := newTestService(t, inactive, expired)
	ctx := context.Background()

	cases := []struct {
		in   Confirmation
		code string
		msg  string
	}{
		{Confirmation{Email: "a@b.c", CodeID: "x", CodeType: "t"}, CodeIncompletePayload, "بيانات التفعيل الأساسية غير مكتملة (المستخدم، الرمز)."},
		{Confirmation{UserID: "u", CodeID: "x", CodeType: "t"}, CodeIncompletePayload, "بيانات التفعيل الأساسية غير مكتملة (المستخدم، الرمز)."},
		{Confirmation{UserID: "u", Email: "a@b.c", CodeID: "missing", CodeType: "t"}, CodeNotFound, "رمز التفعيل المحدد غير موجود."},
		{Confirmation{UserID: "u", Email: "a@b.c", CodeID: "inactive", CodeType: "t"}, CodeInactive, "رمز التفعيل هذا غير نشط حاليًا."},
		{Confirmation{UserID: "u", Email: "a@b.c", CodeID: "expired", CodeType: "t"}, CodeExpired, "صلاحية رمز التفعيل هذا قد انتهت."},
	}
	for _, tc := range cases {
		_, err := svc.Confirm(ctx, tc.in)
		e, ok := AsError(err)
		require.True(t, ok, "%+v", tc.in)
		assert.Equal(t, tc.code, e.Code)
		assert.Equal(t, tc.msg, e.Message)
	}
	assert.Empty(t, store.Logs())
	p, _ := profiles.Get(ctx, "u")
	assert.Nil(t, p)
}

func TestConfirm_SecondRedemptionFails(t *testing.T) {
	svc, store, _ := newTestService(t, validCode("c5", "ONCE", "general_monthly"))
	ctx := context.Background()
	in := Confirmation{UserID: "u5", Email: "u5@example.com", CodeID: "c5", CodeType: "general_monthly"}

	_, err := svc.Confirm(ctx, in)
	require.NoError(t, err)

	in.UserID = "u6"
	_, err = svc.Confirm(ctx, in)
	e, ok := AsError(err)
	require.True(t, ok)
	// the redeemed code is also inactive, which is checked first
	assert.Equal(t, CodeInactive, e.Code)
	assert.Len(t, store.Logs(), 1)
}

func TestConfirm_ConcurrentExactlyOnce(t *testing.T) {
	svc, store, profiles := newTestService(t, validCode("race", "RACE", "general_monthly"))
	ctx := context.Background()

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes []string
		failures  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid := "racer-" + string(rune('a'+i))
			_, err := svc.Confirm(ctx, Confirmation{UserID: uid, Email: uid + "@example.com", CodeID: "race", CodeType: "general_monthly"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes = append(successes, uid)
				return
			}
			_, ok := AsError(err)
			assert.True(t, ok)
			failures++
		}(i)
	}
	wg.Wait()

	require.Len(t, successes, 1)
	assert.Equal(t, n-1, failures)
	logs := store.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, successes[0], logs[0].UserID)

	c, _ := store.Get(ctx, "race")
	assert.Equal(t, successes[0], models.StringValue(c.UsedByUserID))
	for i := 0; i < n; i++ {
		uid := "racer-" + string(rune('a'+i))
		p, _ := profiles.Get(ctx, uid)
		if uid == successes[0] {
			require.NotNil(t, p)
			continue
		}
		assert.Nil(t, p, uid)
	}
}

type brokenProfiles struct{}

func (brokenProfiles) AttachSubscription(ctx context.Context, uid, email string, sub models.SubscriptionDetails, now time.Time) error {
	return errors.New("profile write failed")
}

func TestConfirm_AllOrNothing(t *testing.T) {
	store := NewMemoryStore(brokenProfiles{})
	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, []*Code{validCode("c7", "ATOMIC", "general_monthly")}))
	svc := NewService(store)
	svc.now = func() time.Time { return fixedNow }

	_, err := svc.Confirm(ctx, Confirmation{UserID: "u7", Email: "u7@example.com", CodeID: "c7", CodeType: "general_monthly"})
	require.Error(t, err)
	_, isBusiness := AsError(err)
	assert.False(t, isBusiness)

	c, _ := store.Get(ctx, "c7")
	assert.False(t, c.IsUsed)
	assert.True(t, c.IsActive)
	assert.Nil(t, c.UsedByUserID)
	assert.Empty(t, store.Logs())
}

func TestGenerate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	codes, err := svc.Generate(ctx, GenerateRequest{
		Count:      5,
		Type:       "general_quarterly",
		ValidUntil: fixedNow.AddDate(0, 3, 0),
	})
	require.NoError(t, err)
	require.Len(t, codes, 5)
	seen := map[string]bool{}
	for _, c := range codes {
		assert.Regexp(t, `^[A-Z2-9]{4}-[A-Z2-9]{4}-[A-Z2-9]{4}$`, c.EncodedValue)
		assert.False(t, seen[c.EncodedValue])
		seen[c.EncodedValue] = true
		assert.True(t, c.IsActive)
		assert.False(t, c.IsUsed)
		assert.Equal(t, "اشتراك ربع سنوي عام", c.Name)
		assert.Equal(t, fixedNow, c.ValidFrom)
	}

	res, err := svc.Check(ctx, codes[0].EncodedValue)
	require.NoError(t, err)
	assert.True(t, res.IsValid)

	listed, err := svc.List(ctx, ListFilter{Type: "general_quarterly", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestGenerate_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Generate(ctx, GenerateRequest{Count: 0, Type: "general_monthly", ValidUntil: fixedNow.AddDate(0, 1, 0)})
	require.Error(t, err)
	_, err = svc.Generate(ctx, GenerateRequest{Count: 1, Type: "general_monthly", ValidFrom: fixedNow, ValidUntil: fixedNow.Add(-time.Hour)})
	require.Error(t, err)
	_, err = svc.Generate(ctx, GenerateRequest{Count: 1, Type: "subject_math", SubjectID: "math", ValidUntil: fixedNow.AddDate(0, 1, 0)})
	require.Error(t, err)
}

func TestDeactivate(t *testing.T) {
	svc, _, _ := newTestService(t, validCode("c8", "DEACT", "general_monthly"))
	ctx := context.Background()
	require.NoError(t, svc.Deactivate(ctx, "c8"))

	res, err := svc.Check(ctx, "DEACT")
	require.NoError(t, err)
	assert.Equal(t, CodeInactive, res.Reason)

	require.ErrorIs(t, svc.Deactivate(ctx, "nope"), ErrNotFound)
}
