package models

import (
	"database/sql"
	"time"
)

// Message represents a private or system message. Reply chains carry both
// the direct parent and the first message of the thread so multi-hop
// replies keep their root.
type Message struct {
	ID             int64         `gorm:"primaryKey;autoIncrement;column:id"`
	Type           int16         `gorm:"type:smallint;not null;column:type_id"`
	AuthorName     string        `gorm:"type:varchar(32);not null;column:author_name"`
	DestName       string        `gorm:"type:varchar(32);not null;index;column:dest_name"`
	Subject        string        `gorm:"type:varchar(120);not null;default:'';column:subject"`
	Body           string        `gorm:"type:text;not null;column:body"`
	ParentID       sql.NullInt64 `gorm:"column:parent_id"`
	FirstMessageID sql.NullInt64 `gorm:"column:first_message_id"`
	CommentID      sql.NullInt64 `gorm:"column:comment_id"`
	IsRead         bool          `gorm:"not null;default:false;column:is_read"`
	CreatedAt      time.Time     `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Message
func (Message) TableName() string {
	return "messages"
}

// Message type constants
const (
	MessageTypePrivate      int16 = 1
	MessageTypeCommentReply int16 = 2
	MessageTypePostReply    int16 = 3
)
