package engine

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/threadmill/threadmill/internal/db"
	"github.com/threadmill/threadmill/internal/models"
)

// newTestRepo opens an in-memory database with the full schema. The pool
// is pinned to one connection so every query sees the same memory store.
func newTestRepo(t *testing.T) *db.Repository {
	t.Helper()

	handle, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := handle.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := models.AutoMigrate(handle); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db.NewRepository(handle)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func createAccount(t *testing.T, repo *db.Repository, name string) *models.Account {
	t.Helper()
	account := &models.Account{Name: name, CreatedAt: time.Now().UTC()}
	if err := repo.DB().Create(account).Error; err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return account
}

func createSubreddit(t *testing.T, repo *db.Repository, name string) *models.Subreddit {
	t.Helper()
	subreddit := &models.Subreddit{Name: name, Title: name, CreatedAt: time.Now().UTC()}
	if err := repo.DB().Create(subreddit).Error; err != nil {
		t.Fatalf("create subreddit %s: %v", name, err)
	}
	return subreddit
}

func createPost(t *testing.T, repo *db.Repository, authorID, subredditID int64, title string) *models.Thing {
	t.Helper()
	return createPostAt(t, repo, authorID, subredditID, title, time.Now().UTC())
}

func createPostAt(t *testing.T, repo *db.Repository, authorID, subredditID int64, title string, at time.Time) *models.Thing {
	t.Helper()
	post := &models.Thing{
		Type:        models.ThingTypePost,
		AuthorID:    authorID,
		SubredditID: subredditID,
		Body:        "body of " + title,
		CreatedAt:   at,
		CreatedUnix: at.Unix(),
	}
	post.Title.String = title
	post.Title.Valid = true
	post.PublishedAt.Time = at
	post.PublishedAt.Valid = true
	if err := repo.DB().Create(post).Error; err != nil {
		t.Fatalf("create post %s: %v", title, err)
	}
	return post
}

func createComment(t *testing.T, repo *db.Repository, authorID int64, parent *models.Thing, body string) *models.Thing {
	t.Helper()
	postID := parent.ID
	if !parent.IsPost() {
		postID = parent.PostID.Int64
	}
	now := time.Now().UTC()
	comment := &models.Thing{
		Type:        models.ThingTypeComment,
		AuthorID:    authorID,
		SubredditID: parent.SubredditID,
		Body:        body,
		CreatedAt:   now,
		CreatedUnix: now.Unix(),
	}
	comment.ParentID.Int64 = parent.ID
	comment.ParentID.Valid = true
	comment.PostID.Int64 = postID
	comment.PostID.Valid = true
	if err := repo.DB().Create(comment).Error; err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return comment
}

func getThing(t *testing.T, repo *db.Repository, id int64) *models.Thing {
	t.Helper()
	var thing models.Thing
	if err := repo.DB().First(&thing, id).Error; err != nil {
		t.Fatalf("load thing %d: %v", id, err)
	}
	return &thing
}

func getAccount(t *testing.T, repo *db.Repository, id int64) *models.Account {
	t.Helper()
	var account models.Account
	if err := repo.DB().First(&account, id).Error; err != nil {
		t.Fatalf("load account %d: %v", id, err)
	}
	return &account
}
