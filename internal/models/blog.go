package models

import "time"

// Blog post moderation states. Drafts are visible to admins only.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// BlogPost is a trend-feed entry. On the client side the struct is a cached
// projection of server truth; LikesCount, Liked and CommentsCount are computed
// per viewer at query time and never persisted.
type BlogPost struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	AIInsight   string `gorm:"type:text" json:"aiInsight"`
	Image       string `json:"image"`
	Link        string `json:"link"`
	Status      string `gorm:"not null;default:draft;index" json:"status"`
	AuthorID    uint   `gorm:"index" json:"authorId"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likesCount"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"commentsCount"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool      `gorm:"->" json:"liked"`
	Comments  []Comment `gorm:"foreignKey:BlogPostID" json:"comments,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Published reports whether the post is visible to non-admin viewers.
func (p *BlogPost) Published() bool {
	return p.Status == StatusPublished
}

// Comment is a viewer comment on a blog post. AuthorName is denormalized for
// display so the client never joins against the user list.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BlogPostID uint      `gorm:"not null;index" json:"blogId"`
	AuthorID   uint      `gorm:"not null" json:"authorId"`
	AuthorName string    `json:"authorName"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Like is a single like record. The composite primary key makes duplicate
// likes a constraint violation rather than silent double counting.
type Like struct {
	UserID     uint      `gorm:"primaryKey" json:"userId"`
	BlogPostID uint      `gorm:"primaryKey" json:"blogId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ContentSection is a CMS-rendered marketing fragment (hero, footer, FAQ...)
// served by the backend and cached client-side stale-while-revalidate.
type ContentSection struct {
	Section   string    `gorm:"primaryKey" json:"section"`
	Payload   string    `gorm:"type:text" json:"payload"`
	UpdatedAt time.Time `json:"updatedAt"`
}
