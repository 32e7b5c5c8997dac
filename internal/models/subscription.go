package models

import (
	"strings"
	"time"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionTrial     SubscriptionStatus = "trial"
)

// SubscriptionDetails is the entitlement stored on the user profile. An empty
// SubjectID means the subscription covers every subject.
type SubscriptionDetails struct {
	PlanID           string             `bson:"planId" json:"planId"`
	PlanName         string             `bson:"planName" json:"planName"`
	StartDate        time.Time          `bson:"startDate" json:"startDate"`
	EndDate          time.Time          `bson:"endDate" json:"endDate"`
	Status           SubscriptionStatus `bson:"status" json:"status"`
	ActivationCodeID string             `bson:"activationCodeId,omitempty" json:"activationCodeId,omitempty"`
	SubjectID        *string            `bson:"subjectId" json:"subjectId"`
	SubjectName      *string            `bson:"subjectName" json:"subjectName"`
}

// ActiveAt reports whether the subscription grants access at now.
func (s *SubscriptionDetails) ActiveAt(now time.Time) bool {
	if s == nil || s.Status != SubscriptionActive {
		return false
	}
	if !s.EndDate.IsZero() && s.EndDate.Before(now) {
		return false
	}
	return true
}

// IsGeneral reports whether the subscription is not scoped to a subject.
func (s *SubscriptionDetails) IsGeneral() bool {
	return s.SubjectID == nil || strings.TrimSpace(*s.SubjectID) == ""
}

// CoversSubject reports whether the subscription unlocks subjectID at now.
func (s *SubscriptionDetails) CoversSubject(subjectID string, now time.Time) bool {
	if !s.ActiveAt(now) {
		return false
	}
	return s.IsGeneral() || *s.SubjectID == subjectID
}

// EffectiveStatus reports Expired for active subscriptions past their end date.
func (s *SubscriptionDetails) EffectiveStatus(now time.Time) SubscriptionStatus {
	if s.Status == SubscriptionActive && !s.EndDate.IsZero() && s.EndDate.Before(now) {
		return SubscriptionExpired
	}
	return s.Status
}

// StringPtr returns nil for empty strings.
func StringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
