package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubscriptionCoversSubject(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	math := "math"

	general := &SubscriptionDetails{Status: SubscriptionActive, EndDate: now.Add(24 * time.Hour)}
	require.True(t, general.CoversSubject("physics", now))

	scoped := &SubscriptionDetails{Status: SubscriptionActive, EndDate: now.Add(time.Hour), SubjectID: &math}
	require.True(t, scoped.CoversSubject("math", now))
	require.False(t, scoped.CoversSubject("physics", now))

	expired := &SubscriptionDetails{Status: SubscriptionActive, EndDate: now.Add(-time.Second)}
	require.False(t, expired.CoversSubject("math", now))
	require.Equal(t, SubscriptionExpired, expired.EffectiveStatus(now))

	cancelled := &SubscriptionDetails{Status: SubscriptionCancelled, EndDate: now.Add(time.Hour)}
	require.False(t, cancelled.ActiveAt(now))

	var none *SubscriptionDetails
	require.False(t, none.ActiveAt(now))
	require.False(t, none.CoversSubject("math", now))
}

func TestSubscriptionBlankSubjectIsGeneral(t *testing.T) {
	blank := "  "
	s := &SubscriptionDetails{Status: SubscriptionActive, SubjectID: &blank}
	require.True(t, s.IsGeneral())
	require.True(t, s.CoversSubject("anything", time.Now()))
}

func TestProfileReadDefaults(t *testing.T) {
	p := (&UserProfile{UID: "u1", Badges: []Badge{{ID: "b1"}}, Rewards: []Reward{{ID: "r1"}}}).WithReadDefaults()
	require.Equal(t, DefaultReadName, p.Name)
	require.Equal(t, DefaultReadEmail, p.Email)
	require.Equal(t, 1, p.Level)
	require.Equal(t, BranchUndetermined, p.Branch)
	require.Equal(t, "https://placehold.co/150x150.png?text=U", p.AvatarURL)
	require.Equal(t, DefaultBadgeIcon, p.Badges[0].IconName)
	require.Equal(t, DefaultRewardIcon, p.Rewards[0].IconName)
}

func TestProfileWriteApplyAndFields(t *testing.T) {
	name := "ليلى"
	branch := BranchScientific
	w := ProfileWrite{UID: "u1", Name: &name, Branch: &branch, ClearSubscription: true}

	p := NewUserProfile("u1", "", "l@example.com", time.Now())
	p.ActiveSubscription = &SubscriptionDetails{PlanID: "general_monthly"}
	w.Apply(p)
	require.Equal(t, name, p.Name)
	require.Equal(t, BranchScientific, p.Branch)
	require.Nil(t, p.ActiveSubscription)

	f := w.Fields()
	require.Len(t, f, 3)
	require.Contains(t, f, "activeSubscription")
	require.Nil(t, f["activeSubscription"])
}
