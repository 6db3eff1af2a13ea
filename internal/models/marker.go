package models

import (
	"time"
)

// HiddenPost marks a post as hidden from a user's default feed view.
type HiddenPost struct {
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	ThingID   int64     `gorm:"primaryKey;column:thing_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for HiddenPost
func (HiddenPost) TableName() string {
	return "hidden_posts"
}

// SavedPost marks a post as saved by a user.
type SavedPost struct {
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	ThingID   int64     `gorm:"primaryKey;column:thing_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for SavedPost
func (SavedPost) TableName() string {
	return "saved_posts"
}

// ThreadMute opts a user out of further reply notifications for one thing.
type ThreadMute struct {
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	ThingID   int64     `gorm:"primaryKey;column:thing_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for ThreadMute
func (ThreadMute) TableName() string {
	return "thread_mutes"
}
