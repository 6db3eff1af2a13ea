package models

import (
	"gorm.io/gorm"
)

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&Subreddit{},
		&Flair{},
		&SubredditMembership{},
		&Thing{},
		&PostImage{},
		&Follow{},
		&Block{},
		&Vote{},
		&Notification{},
		&Message{},
		&HiddenPost{},
		&SavedPost{},
		&ThreadMute{},
	)
}
