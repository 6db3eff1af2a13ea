package models

import (
	"time"
)

// Vote represents one user's vote on one thing. The composite primary key
// guarantees at most one vote per (user, thing) pair; changing direction
// updates the row in place.
type Vote struct {
	UserID    int64     `gorm:"primaryKey;column:user_id"`
	ThingID   int64     `gorm:"primaryKey;column:thing_id"`
	IsUpvote  bool      `gorm:"not null;column:is_upvote"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for Vote
func (Vote) TableName() string {
	return "votes"
}
