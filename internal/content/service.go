package content

import (
	"context"
	"fmt"

	"github.com/Omarrawas/Atmetny1/internal/cache"
	"github.com/Omarrawas/Atmetny1/pkg/logger"
)

const (
	DefaultNewsCount         = 20
	DefaultAnnouncementCount = 10
	MaxCount                 = 100

	DefaultNewsTitle           = "خبر بدون عنوان"
	DefaultNewsContent         = "لا يوجد محتوى"
	DefaultAnnouncementTitle   = "إعلان بدون عنوان"
	DefaultAnnouncementMessage = "لا يوجد محتوى للإعلان."
)

var log = logger.Named("content")

type Service struct {
	repo  Repository
	cache *cache.Cache
}

// NewService builds the content service. c may be nil.
func NewService(repo Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

func clamp(n, def int) int64 {
	if n <= 0 {
		return int64(def)
	}
	if n > MaxCount {
		return MaxCount
	}
	return int64(n)
}

// News returns the latest n news items, newest first. PublishedAt falls back
// to CreatedAt; items carrying neither are dropped.
func (s *Service) News(ctx context.Context, n int) ([]NewsItem, error) {
	limit := clamp(n, DefaultNewsCount)
	list, err := cache.Remember(ctx, s.cache, fmt.Sprintf("news:%d", limit), func(ctx context.Context) ([]NewsItem, error) {
		return s.repo.LatestNews(ctx, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("latest news: %w", err)
	}
	out := make([]NewsItem, 0, len(list))
	for _, item := range list {
		if item.PublishedAt.IsZero() {
			item.PublishedAt = item.CreatedAt
		}
		if item.PublishedAt.IsZero() {
			log.Warnf("news item %s has no timestamps, skipping", item.ID)
			continue
		}
		if item.Title == "" {
			item.Title = DefaultNewsTitle
		}
		if item.Content == "" {
			item.Content = DefaultNewsContent
		}
		out = append(out, item)
	}
	return out, nil
}

// ActiveAnnouncements returns the latest n active announcements, newest first.
func (s *Service) ActiveAnnouncements(ctx context.Context, n int) ([]Announcement, error) {
	limit := clamp(n, DefaultAnnouncementCount)
	list, err := cache.Remember(ctx, s.cache, fmt.Sprintf("announcements:%d", limit), func(ctx context.Context) ([]Announcement, error) {
		return s.repo.ActiveAnnouncements(ctx, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("active announcements: %w", err)
	}
	for i := range list {
		a := &list[i]
		if a.Title == "" {
			a.Title = DefaultAnnouncementTitle
		}
		if a.Message == "" {
			a.Message = DefaultAnnouncementMessage
		}
		if a.Type == "" {
			a.Type = AnnouncementGeneral
		}
	}
	return list, nil
}
