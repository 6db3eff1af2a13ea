package models

import (
	"database/sql"
	"time"
)

// Account represents a registered user
type Account struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Name      string    `gorm:"type:varchar(32);not null;uniqueIndex:accounts_name_ux;column:name"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Profile fields
	DisplayName  sql.NullString `gorm:"type:varchar(48);column:display_name"`
	About        sql.NullString `gorm:"type:varchar(200);column:about"`
	ProfileImage string         `gorm:"type:varchar(1024);not null;default:'';column:profile_image"`

	// Social stats, maintained by the relationship graph
	Followers int64 `gorm:"not null;default:0;column:followers"`
	Following int64 `gorm:"not null;default:0;column:following"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}
