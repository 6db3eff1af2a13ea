package models

import (
	"database/sql"
	"time"
)

// Notification represents a notification
type Notification struct {
	ID          int64         `gorm:"primaryKey;autoIncrement;column:id"`
	Type        int16         `gorm:"type:smallint;not null;column:type_id"`
	RecipientID int64         `gorm:"not null;index;column:recipient_id"`
	ActorID     int64         `gorm:"not null;column:actor_id"`
	ThingID     sql.NullInt64 `gorm:"column:thing_id"`
	MessageID   sql.NullInt64 `gorm:"column:message_id"`
	Body        string        `gorm:"type:text;not null;default:'';column:body"`
	CreatedAt   time.Time     `gorm:"not null;column:created_at"`
	IsRead      bool          `gorm:"not null;default:false;column:is_read"`
	IsHidden    bool          `gorm:"not null;default:false;column:is_hidden"`

	// Relationships
	Recipient *Account `gorm:"foreignKey:RecipientID;references:ID"`
	Actor     *Account `gorm:"foreignKey:ActorID;references:ID"`
	Thing     *Thing   `gorm:"foreignKey:ThingID;references:ID"`
}

// TableName specifies the table name for Notification
func (Notification) TableName() string {
	return "notifications"
}

// Notification type constants
const (
	NotifyTypeFollow       int16 = 1
	NotifyTypePostReply    int16 = 2
	NotifyTypeCommentReply int16 = 3
	NotifyTypePostVote     int16 = 4
	NotifyTypeCommentVote  int16 = 5
	NotifyTypeMention      int16 = 6
)

// NotifyTypeName returns the wire name for a notification type
func NotifyTypeName(typeID int16) string {
	names := map[int16]string{
		NotifyTypeFollow:       "follow",
		NotifyTypePostReply:    "post_reply",
		NotifyTypeCommentReply: "comment_reply",
		NotifyTypePostVote:     "post_vote",
		NotifyTypeCommentVote:  "comment_vote",
		NotifyTypeMention:      "mention",
	}
	if name, ok := names[typeID]; ok {
		return name
	}
	return "unknown"
}
