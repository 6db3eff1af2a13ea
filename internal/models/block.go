package models

import (
	"time"
)

// Block represents a directed block edge. A block in either direction
// suppresses messaging, notifications and follows between the pair.
type Block struct {
	BlockerID int64     `gorm:"primaryKey;column:blocker_id"`
	BlockedID int64     `gorm:"primaryKey;column:blocked_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Blocker *Account `gorm:"foreignKey:BlockerID;references:ID"`
	Blocked *Account `gorm:"foreignKey:BlockedID;references:ID"`
}

// TableName specifies the table name for Block
func (Block) TableName() string {
	return "blocks"
}
