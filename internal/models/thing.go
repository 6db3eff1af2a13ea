package models

import (
	"database/sql"
	"time"
)

// Thing type discriminants
const (
	ThingTypePost    = "post"
	ThingTypeComment = "comment"
)

// Thing represents a post or comment. Both variants share one table,
// discriminated by Type; post-only columns are null for comments.
type Thing struct {
	ID          int64         `gorm:"primaryKey;autoIncrement;column:id"`
	Type        string        `gorm:"type:varchar(8);not null;index;column:type"`
	AuthorID    int64         `gorm:"not null;index;column:author_id"`
	SubredditID int64         `gorm:"not null;index;column:subreddit_id"`
	ParentID    sql.NullInt64 `gorm:"index;column:parent_id"`
	PostID      sql.NullInt64 `gorm:"index;column:post_id"`
	Body        string        `gorm:"type:text;not null;column:body"`
	CreatedAt   time.Time     `gorm:"not null;column:created_at"`
	CreatedUnix int64         `gorm:"not null;index;column:created_unix"`
	IsDeleted   bool          `gorm:"not null;default:false;column:is_deleted"`

	// Denormalized counters, maintained by the vote ledger and content store
	UpvotesCount   int64 `gorm:"not null;default:0;column:upvotes_count"`
	DownvotesCount int64 `gorm:"not null;default:0;column:downvotes_count"`
	CommentCount   int64 `gorm:"not null;default:0;column:comment_count"`

	// Post-only fields
	Title       sql.NullString `gorm:"type:varchar(300);column:title"`
	PublishedAt sql.NullTime   `gorm:"column:published_at"`
	FlairID     sql.NullInt64  `gorm:"column:flair_id"`
	IsNSFW      bool           `gorm:"not null;default:false;column:is_nsfw"`
	IsSpoiler   bool           `gorm:"not null;default:false;column:is_spoiler"`
	IsLocked    bool           `gorm:"not null;default:false;column:is_locked"`
	IsVisited   bool           `gorm:"not null;default:false;column:is_visited"`

	// Relationships
	Parent    *Thing     `gorm:"foreignKey:ParentID;references:ID"`
	Children  []Thing    `gorm:"foreignKey:ParentID;references:ID"`
	Author    *Account   `gorm:"foreignKey:AuthorID;references:ID"`
	Subreddit *Subreddit `gorm:"foreignKey:SubredditID;references:ID"`
}

// TableName specifies the table name for Thing
func (Thing) TableName() string {
	return "things"
}

// IsPost reports whether the thing is a post
func (t *Thing) IsPost() bool {
	return t.Type == ThingTypePost
}

// NetVotes returns upvotes minus downvotes
func (t *Thing) NetVotes() int64 {
	return t.UpvotesCount - t.DownvotesCount
}

// HotScore returns the composite hot-ranking value. Recency contributes a
// small tie-breaking term while votes and comment activity dominate.
func (t *Thing) HotScore() int64 {
	return t.CreatedUnix%1000000 + 5000*t.NetVotes() + 3000*t.CommentCount
}

// PostImage represents a stored-file reference attached to a post
type PostImage struct {
	ThingID  int64  `gorm:"primaryKey;column:thing_id"`
	Position int    `gorm:"primaryKey;column:position"`
	URL      string `gorm:"type:varchar(1024);not null;column:url"`
}

// TableName specifies the table name for PostImage
func (PostImage) TableName() string {
	return "post_images"
}
