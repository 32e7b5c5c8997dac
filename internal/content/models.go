package content

import "time"

// AnnouncementType drives how an announcement is styled by clients.
type AnnouncementType string

const (
	AnnouncementSuccess AnnouncementType = "success"
	AnnouncementInfo    AnnouncementType = "info"
	AnnouncementWarning AnnouncementType = "warning"
	AnnouncementError   AnnouncementType = "error"
	AnnouncementGeneral AnnouncementType = "general"
)

type NewsItem struct {
	ID          string    `bson:"_id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Content     string    `bson:"content" json:"content"`
	ImageURL    string    `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	ImageHint   string    `bson:"imageHint,omitempty" json:"imageHint,omitempty"`
	PublishedAt time.Time `bson:"publishedAt,omitempty" json:"publishedAt"`
	Source      string    `bson:"source,omitempty" json:"source,omitempty"`
	Category    string    `bson:"category,omitempty" json:"category,omitempty"`
	CreatedAt   time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt   time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

type Announcement struct {
	ID        string           `bson:"_id" json:"id"`
	Title     string           `bson:"title" json:"title"`
	Message   string           `bson:"message" json:"message"`
	Type      AnnouncementType `bson:"type" json:"type"`
	IsActive  bool             `bson:"isActive" json:"isActive"`
	CreatedAt time.Time        `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt time.Time        `bson:"updatedAt,omitempty" json:"updatedAt"`
}
