package models

import (
	"fmt"
	"strings"
	"time"
)

// Branch is the study track a student (or subject) belongs to.
type Branch string

const (
	BranchScientific   Branch = "scientific"
	BranchLiterary     Branch = "literary"
	BranchGeneral      Branch = "general"
	BranchCommon       Branch = "common"
	BranchUndetermined Branch = "undetermined"
)

// Badge is an achievement shown on the profile page.
type Badge struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	IconName  string    `bson:"iconName" json:"iconName"`
	Date      time.Time `bson:"date" json:"date"`
	Image     string    `bson:"image" json:"image"`
	ImageHint string    `bson:"imageHint" json:"imageHint"`
}

// Reward is a redeemable perk with an expiry.
type Reward struct {
	ID       string    `bson:"id" json:"id"`
	Name     string    `bson:"name" json:"name"`
	IconName string    `bson:"iconName" json:"iconName"`
	Expiry   time.Time `bson:"expiry" json:"expiry"`
}

// UserProfile is the "users" document. UID is the identity subject and the
// document id.
type UserProfile struct {
	UID                 string               `bson:"_id" json:"uid"`
	Name                string               `bson:"name" json:"name"`
	Email               string               `bson:"email" json:"email"`
	AvatarURL           string               `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	AvatarHint          string               `bson:"avatarHint,omitempty" json:"avatarHint,omitempty"`
	Points              int                  `bson:"points" json:"points"`
	Level               int                  `bson:"level" json:"level"`
	ProgressToNextLevel int                  `bson:"progressToNextLevel" json:"progressToNextLevel"`
	Badges              []Badge              `bson:"badges" json:"badges"`
	Rewards             []Reward             `bson:"rewards" json:"rewards"`
	StudentGoals        string               `bson:"studentGoals" json:"studentGoals"`
	Branch              Branch               `bson:"branch" json:"branch"`
	University          string               `bson:"university" json:"university"`
	Major               string               `bson:"major" json:"major"`
	CreatedAt           time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time            `bson:"updatedAt" json:"updatedAt"`
	ActiveSubscription  *SubscriptionDetails `bson:"activeSubscription" json:"activeSubscription"`
}

const (
	DefaultNewStudentName = "طالب جديد"
	DefaultReadName       = "مستخدم جديد"
	DefaultReadEmail      = "لا يوجد بريد إلكتروني"
	DefaultAvatarHint     = "person avatar"
	DefaultBadgeIcon      = "Award"
	DefaultBadgeImage     = "https://placehold.co/64x64.png"
	DefaultBadgeImageHint = "badge icon"
	DefaultRewardIcon     = "Gift"
)

// PlaceholderAvatar builds the initial-letter avatar used when no picture was uploaded.
func PlaceholderAvatar(name, email string) string {
	src := name
	if src == "" {
		src = email
	}
	letter := "U"
	if r := []rune(src); len(r) > 0 {
		letter = strings.ToUpper(string(r[0]))
	}
	return fmt.Sprintf("https://placehold.co/150x150.png?text=%s", letter)
}

// NewUserProfile returns a profile populated with the creation defaults.
func NewUserProfile(uid, name, email string, now time.Time) *UserProfile {
	if name == "" {
		name = DefaultNewStudentName
	}
	return &UserProfile{
		UID:        uid,
		Name:       name,
		Email:      email,
		AvatarURL:  PlaceholderAvatar(name, email),
		AvatarHint: DefaultAvatarHint,
		Level:      1,
		Badges:     []Badge{},
		Rewards:    []Reward{},
		Branch:     BranchUndetermined,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// WithReadDefaults fills the gaps older or hand-edited documents tend to have.
func (p *UserProfile) WithReadDefaults() *UserProfile {
	out := *p
	if out.Name == "" {
		out.Name = DefaultReadName
	}
	if out.Email == "" {
		out.Email = DefaultReadEmail
	}
	if out.AvatarURL == "" {
		out.AvatarURL = PlaceholderAvatar(p.Name, p.Email)
	}
	if out.AvatarHint == "" {
		out.AvatarHint = DefaultAvatarHint
	}
	if out.Level == 0 {
		out.Level = 1
	}
	if out.Branch == "" {
		out.Branch = BranchUndetermined
	}
	out.Badges = make([]Badge, 0, len(p.Badges))
	for _, b := range p.Badges {
		if b.IconName == "" {
			b.IconName = DefaultBadgeIcon
		}
		if b.Image == "" {
			b.Image = DefaultBadgeImage
		}
		if b.ImageHint == "" {
			b.ImageHint = DefaultBadgeImageHint
		}
		out.Badges = append(out.Badges, b)
	}
	out.Rewards = make([]Reward, 0, len(p.Rewards))
	for _, r := range p.Rewards {
		if r.IconName == "" {
			r.IconName = DefaultRewardIcon
		}
		out.Rewards = append(out.Rewards, r)
	}
	return &out
}

// ProfileWrite is a partial profile update. Nil fields are left untouched.
type ProfileWrite struct {
	UID                 string               `json:"-" validate:"required"`
	Name                *string              `json:"name,omitempty" validate:"omitempty,max=120"`
	Email               *string              `json:"email,omitempty" validate:"omitempty,email"`
	AvatarURL           *string              `json:"avatarUrl,omitempty" validate:"omitempty,url"`
	AvatarHint          *string              `json:"avatarHint,omitempty"`
	Points              *int                 `json:"points,omitempty" validate:"omitempty,min=0"`
	Level               *int                 `json:"level,omitempty" validate:"omitempty,min=1"`
	ProgressToNextLevel *int                 `json:"progressToNextLevel,omitempty" validate:"omitempty,min=0,max=100"`
	Badges              []Badge              `json:"badges,omitempty"`
	Rewards             []Reward             `json:"rewards,omitempty"`
	StudentGoals        *string              `json:"studentGoals,omitempty" validate:"omitempty,max=2000"`
	Branch              *Branch              `json:"branch,omitempty" validate:"omitempty,oneof=scientific literary general common undetermined"`
	University          *string              `json:"university,omitempty"`
	Major               *string              `json:"major,omitempty"`
	ActiveSubscription  *SubscriptionDetails `json:"-"`
	// ClearSubscription writes an explicit null subscription.
	ClearSubscription bool `json:"-"`
}

// Fields returns the document fields the write touches, keyed by document field name.
func (w ProfileWrite) Fields() map[string]interface{} {
	set := map[string]interface{}{}
	if w.Name != nil {
		set["name"] = *w.Name
	}
	if w.Email != nil {
		set["email"] = *w.Email
	}
	if w.AvatarURL != nil {
		set["avatarUrl"] = *w.AvatarURL
	}
	if w.AvatarHint != nil {
		set["avatarHint"] = *w.AvatarHint
	}
	if w.Points != nil {
		set["points"] = *w.Points
	}
	if w.Level != nil {
		set["level"] = *w.Level
	}
	if w.ProgressToNextLevel != nil {
		set["progressToNextLevel"] = *w.ProgressToNextLevel
	}
	if w.Badges != nil {
		set["badges"] = w.Badges
	}
	if w.Rewards != nil {
		set["rewards"] = w.Rewards
	}
	if w.StudentGoals != nil {
		set["studentGoals"] = *w.StudentGoals
	}
	if w.Branch != nil {
		set["branch"] = *w.Branch
	}
	if w.University != nil {
		set["university"] = *w.University
	}
	if w.Major != nil {
		set["major"] = *w.Major
	}
	if w.ClearSubscription {
		set["activeSubscription"] = nil
	} else if w.ActiveSubscription != nil {
		set["activeSubscription"] = w.ActiveSubscription
	}
	return set
}

// Apply copies the supplied fields onto p.
func (w ProfileWrite) Apply(p *UserProfile) {
	if w.Name != nil {
		p.Name = *w.Name
	}
	if w.Email != nil {
		p.Email = *w.Email
	}
	if w.AvatarURL != nil {
		p.AvatarURL = *w.AvatarURL
	}
	if w.AvatarHint != nil {
		p.AvatarHint = *w.AvatarHint
	}
	if w.Points != nil {
		p.Points = *w.Points
	}
	if w.Level != nil {
		p.Level = *w.Level
	}
	if w.ProgressToNextLevel != nil {
		p.ProgressToNextLevel = *w.ProgressToNextLevel
	}
	if w.Badges != nil {
		p.Badges = w.Badges
	}
	if w.Rewards != nil {
		p.Rewards = w.Rewards
	}
	if w.StudentGoals != nil {
		p.StudentGoals = *w.StudentGoals
	}
	if w.Branch != nil {
		p.Branch = *w.Branch
	}
	if w.University != nil {
		p.University = *w.University
	}
	if w.Major != nil {
		p.Major = *w.Major
	}
	if w.ClearSubscription {
		p.ActiveSubscription = nil
	} else if w.ActiveSubscription != nil {
		s := *w.ActiveSubscription
		p.ActiveSubscription = &s
	}
}
