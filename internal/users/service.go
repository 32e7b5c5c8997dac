package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Omarrawas/Atmetny1/internal/models"
	"github.com/Omarrawas/Atmetny1/pkg/logger"
	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingUID = errors.New("uid is missing")
	log           = logger.Named("users")
)

// Service encapsulates profile business logic
type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, validate: validator.New(), now: func() time.Time { return time.Now().UTC() }}
}

// Get returns the profile with read defaults applied, or nil when missing.
func (s *Service) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, nil
	}
	p, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", uid, err)
	}
	if p == nil {
		return nil, nil
	}
	return p.WithReadDefaults(), nil
}

// Save applies a partial update, creating the profile with defaults when it
// does not exist yet.
func (s *Service) Save(ctx context.Context, w models.ProfileWrite) (*models.UserProfile, error) {
	if w.UID == "" {
		return nil, ErrMissingUID
	}
	if err := s.validate.Struct(w); err != nil {
		return nil, err
	}
	now := s.now()
	existing, err := s.repo.Get(ctx, w.UID)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", w.UID, err)
	}
	if existing == nil {
		p := models.NewUserProfile(w.UID, models.StringValue(w.Name), models.StringValue(w.Email), now)
		w.Apply(p)
		if w.AvatarURL == nil {
			p.AvatarURL = models.PlaceholderAvatar(p.Name, p.Email)
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("create profile %s: %w", w.UID, err)
		}
		log.Infof("profile for uid %s created", w.UID)
		return p, nil
	}
	if err := s.repo.Update(ctx, w.UID, w, now); err != nil {
		return nil, fmt.Errorf("update profile %s: %w", w.UID, err)
	}
	w.Apply(existing)
	existing.UpdatedAt = now
	return existing.WithReadDefaults(), nil
}

// UpsertFromClaims creates or refreshes a profile using identity claims.
// Returns nil when the claims carry no subject.
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.UserProfile, error) {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if sub == "" {
		return nil, nil
	}
	existing, err := s.repo.Get(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", sub, err)
	}
	if existing == nil {
		w := models.ProfileWrite{UID: sub}
		if name != "" {
			w.Name = &name
		}
		if email != "" {
			w.Email = &email
		}
		return s.Save(ctx, w)
	}
	if email != "" && email != existing.Email {
		return s.Save(ctx, models.ProfileWrite{UID: sub, Email: &email})
	}
	return existing.WithReadDefaults(), nil
}

// AddPoints atomically adds delta to the profile's points.
func (s *Service) AddPoints(ctx context.Context, uid string, delta int) error {
	if err := s.repo.IncrementPoints(ctx, uid, delta, s.now()); err != nil {
		return fmt.Errorf("add points to %s: %w", uid, err)
	}
	return nil
}

// Subscription returns the caller's active subscription record (possibly
// expired), or nil for anonymous callers and profiles without one.
func (s *Service) Subscription(ctx context.Context, uid string) (*models.SubscriptionDetails, error) {
	if uid == "" {
		return nil, nil
	}
	p, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", uid, err)
	}
	if p == nil {
		return nil, nil
	}
	return p.ActiveSubscription, nil
}
