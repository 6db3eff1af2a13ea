package models

import (
	"time"
)

// Subreddit represents a community
type Subreddit struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name        string    `gorm:"type:varchar(32);not null;uniqueIndex:subreddits_name_ux;column:name"`
	Title       string    `gorm:"type:varchar(64);not null;default:'';column:title"`
	Description string    `gorm:"type:text;not null;default:'';column:description"`
	Subscribers int64     `gorm:"not null;default:0;column:subscribers"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Subreddit
func (Subreddit) TableName() string {
	return "subreddits"
}

// Flair represents a post flair offered by a subreddit
type Flair struct {
	ID          int64  `gorm:"primaryKey;autoIncrement;column:id"`
	SubredditID int64  `gorm:"not null;index;column:subreddit_id"`
	Text        string `gorm:"type:varchar(64);not null;column:text"`
	Color       string `gorm:"type:varchar(16);not null;default:'';column:color"`
}

// TableName specifies the table name for Flair
func (Flair) TableName() string {
	return "flairs"
}

// SubredditMembership represents a user's subscription to a subreddit
type SubredditMembership struct {
	AccountID   int64     `gorm:"primaryKey;column:account_id"`
	SubredditID int64     `gorm:"primaryKey;column:subreddit_id"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for SubredditMembership
func (SubredditMembership) TableName() string {
	return "subreddit_memberships"
}
