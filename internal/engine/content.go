package engine

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/threadmill/threadmill/internal/db"
	"github.com/threadmill/threadmill/internal/models"
)

// ContentStore persists the polymorphic thing hierarchy and the per-user
// hide/save markers layered on top of it.
type ContentStore struct {
	repo       *db.Repository
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewContentStore creates a new content store
func NewContentStore(repo *db.Repository, dispatcher *Dispatcher, logger *zap.Logger) *ContentStore {
	return &ContentStore{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// PostInput carries the fields for a new post
type PostInput struct {
	AuthorID    int64
	SubredditID int64
	Title       string
	Body        string
	Images      []string
	FlairID     *int64
	IsNSFW      bool
	IsSpoiler   bool
}

// ThingPatch carries the mutable fields of a thing; nil means unchanged
type ThingPatch struct {
	Body      *string
	Title     *string
	FlairID   *int64
	IsNSFW    *bool
	IsSpoiler *bool
	IsLocked  *bool
	IsVisited *bool
}

// CreatePost creates a post with zero counters
func (s *ContentStore) CreatePost(ctx context.Context, in PostInput) (*models.Thing, error) {
	if in.AuthorID == 0 || in.SubredditID == 0 {
		return nil, NewError(KindValidation, "author and subreddit are required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, NewError(KindValidation, "title is required")
	}

	subredditRepo := db.NewSubredditRepository(s.repo)
	subreddit, err := subredditRepo.GetByID(ctx, in.SubredditID)
	if err != nil {
		return nil, storageErr(err, "subreddit lookup")
	}
	if subreddit == nil {
		return nil, NewError(KindNotFound, "subreddit %d does not exist", in.SubredditID)
	}

	if in.FlairID != nil {
		if err := s.validateFlair(ctx, in.SubredditID, *in.FlairID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	post := &models.Thing{
		Type:        models.ThingTypePost,
		AuthorID:    in.AuthorID,
		SubredditID: in.SubredditID,
		Body:        in.Body,
		Title:       sql.NullString{String: in.Title, Valid: true},
		CreatedAt:   now,
		CreatedUnix: now.Unix(),
		PublishedAt: sql.NullTime{Time: now, Valid: true},
		IsNSFW:      in.IsNSFW,
		IsSpoiler:   in.IsSpoiler,
	}
	if in.FlairID != nil {
		post.FlairID = sql.NullInt64{Int64: *in.FlairID, Valid: true}
	}

	err = s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		for i, url := range in.Images {
			image := &models.PostImage{ThingID: post.ID, Position: i, URL: url}
			if err := tx.Create(image).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageErr(err, "create post")
	}

	s.logger.Debug("Created post",
		zap.Int64("id", post.ID),
		zap.Int64("author", in.AuthorID),
		zap.Int64("subreddit", in.SubredditID))

	return post, nil
}

// CreateComment creates a comment under a parent thing. The owning post's
// comment counter is incremented in the same transaction, before the
// insert, so a vanished post fails the whole operation and no orphaned
// comment is left behind.
func (s *ContentStore) CreateComment(ctx context.Context, authorID, parentID int64, body string) (*models.Thing, error) {
	if authorID == 0 {
		return nil, NewError(KindValidation, "author is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, NewError(KindValidation, "body is required")
	}

	var comment *models.Thing
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent models.Thing
		if err := tx.First(&parent, parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewError(KindNotFound, "parent thing %d does not exist", parentID)
			}
			return err
		}
		if parent.IsDeleted {
			return NewError(KindNotFound, "parent thing %d does not exist", parentID)
		}

		// Resolve the owning post: the parent itself, or the root the
		// parent comment already points at.
		postID := parent.ID
		if !parent.IsPost() {
			postID = parent.PostID.Int64
		}

		res := tx.Model(&models.Thing{}).
			Where("id = ? AND type = ? AND is_deleted = ?", postID, models.ThingTypePost, false).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return NewError(KindNotFound, "post %d does not exist", postID)
		}

		now := time.Now().UTC()
		comment = &models.Thing{
			Type:        models.ThingTypeComment,
			AuthorID:    authorID,
			SubredditID: parent.SubredditID,
			ParentID:    sql.NullInt64{Int64: parent.ID, Valid: true},
			PostID:      sql.NullInt64{Int64: postID, Valid: true},
			Body:        body,
			CreatedAt:   now,
			CreatedUnix: now.Unix(),
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return nil, storageErr(err, "create comment")
	}

	if s.dispatcher != nil {
		s.dispatcher.EnqueueComment(comment.ID)
	}

	s.logger.Debug("Created comment",
		zap.Int64("id", comment.ID),
		zap.Int64("parent", parentID),
		zap.Int64("author", authorID))

	return comment, nil
}

// UpdateThing applies a patch to a thing. Only the original author may
// update it; flair changes are validated against the owning subreddit.
func (s *ContentStore) UpdateThing(ctx context.Context, id int64, patch ThingPatch, requesterID int64) (*models.Thing, error) {
	thingRepo := db.NewThingRepository(s.repo)
	thing, err := thingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "thing lookup")
	}
	if thing == nil || thing.IsDeleted {
		return nil, NewError(KindNotFound, "thing %d does not exist", id)
	}
	if thing.AuthorID != requesterID {
		return nil, NewError(KindAuthorization, "user %d is not the author of thing %d", requesterID, id)
	}

	updates := make(map[string]interface{})
	if patch.Body != nil {
		updates["body"] = *patch.Body
	}
	if patch.Title != nil {
		if !thing.IsPost() {
			return nil, NewError(KindValidation, "comments have no title")
		}
		updates["title"] = *patch.Title
	}
	if patch.FlairID != nil {
		if !thing.IsPost() {
			return nil, NewError(KindValidation, "comments have no flair")
		}
		if err := s.validateFlair(ctx, thing.SubredditID, *patch.FlairID); err != nil {
			return nil, err
		}
		updates["flair_id"] = *patch.FlairID
	}
	if patch.IsNSFW != nil {
		updates["is_nsfw"] = *patch.IsNSFW
	}
	if patch.IsSpoiler != nil {
		updates["is_spoiler"] = *patch.IsSpoiler
	}
	if patch.IsLocked != nil {
		updates["is_locked"] = *patch.IsLocked
	}
	if patch.IsVisited != nil {
		updates["is_visited"] = *patch.IsVisited
	}
	if len(updates) == 0 {
		return thing, nil
	}

	if err := s.repo.DB().WithContext(ctx).
		Model(&models.Thing{}).Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, storageErr(err, "update thing")
	}

	return thingRepo.GetByID(ctx, id)
}

// SoftDelete flags a thing as deleted without removing the row
func (s *ContentStore) SoftDelete(ctx context.Context, id, requesterID int64) error {
	thingRepo := db.NewThingRepository(s.repo)
	thing, err := thingRepo.GetByID(ctx, id)
	if err != nil {
		return storageErr(err, "thing lookup")
	}
	if thing == nil || thing.IsDeleted {
		return NewError(KindNotFound, "thing %d does not exist", id)
	}
	if thing.AuthorID != requesterID {
		return NewError(KindAuthorization, "user %d is not the author of thing %d", requesterID, id)
	}

	err = s.repo.DB().WithContext(ctx).
		Model(&models.Thing{}).Where("id = ?", id).
		UpdateColumn("is_deleted", true).Error
	return storageErr(err, "soft delete")
}

// GetThing retrieves a thing by id
func (s *ContentStore) GetThing(ctx context.Context, id int64) (*models.Thing, error) {
	thing, err := db.NewThingRepository(s.repo).GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "thing lookup")
	}
	if thing == nil || thing.IsDeleted {
		return nil, NewError(KindNotFound, "thing %d does not exist", id)
	}
	return thing, nil
}

// Hide marks a post as hidden from the user's default feed view
func (s *ContentStore) Hide(ctx context.Context, userID, postID int64) error {
	return s.createMarker(ctx, userID, postID, &models.HiddenPost{
		UserID:    userID,
		ThingID:   postID,
		CreatedAt: time.Now().UTC(),
	}, "hide")
}

// Unhide removes the hide marker; missing markers are a no-op
func (s *ContentStore) Unhide(ctx context.Context, userID, postID int64) error {
	err := s.repo.DB().WithContext(ctx).
		Where("user_id = ? AND thing_id = ?", userID, postID).
		Delete(&models.HiddenPost{}).Error
	return storageErr(err, "unhide")
}

// Save adds a post to the user's saved list
func (s *ContentStore) Save(ctx context.Context, userID, postID int64) error {
	return s.createMarker(ctx, userID, postID, &models.SavedPost{
		UserID:    userID,
		ThingID:   postID,
		CreatedAt: time.Now().UTC(),
	}, "save")
}

// Unsave removes a post from the user's saved list; missing is a no-op
func (s *ContentStore) Unsave(ctx context.Context, userID, postID int64) error {
	err := s.repo.DB().WithContext(ctx).
		Where("user_id = ? AND thing_id = ?", userID, postID).
		Delete(&models.SavedPost{}).Error
	return storageErr(err, "unsave")
}

// MuteThread opts the user out of reply notifications for a thing's thread
func (s *ContentStore) MuteThread(ctx context.Context, userID, thingID int64) error {
	err := s.repo.DB().WithContext(ctx).Create(&models.ThreadMute{
		UserID:    userID,
		ThingID:   thingID,
		CreatedAt: time.Now().UTC(),
	}).Error
	if isDuplicate(err) {
		return nil
	}
	return storageErr(err, "mute thread")
}

// UnmuteThread re-enables reply notifications for a thing's thread
func (s *ContentStore) UnmuteThread(ctx context.Context, userID, thingID int64) error {
	err := s.repo.DB().WithContext(ctx).
		Where("user_id = ? AND thing_id = ?", userID, thingID).
		Delete(&models.ThreadMute{}).Error
	return storageErr(err, "unmute thread")
}

// createMarker validates the target post and inserts a per-user marker
func (s *ContentStore) createMarker(ctx context.Context, userID, postID int64, marker interface{}, operation string) error {
	thingRepo := db.NewThingRepository(s.repo)
	thing, err := thingRepo.GetByID(ctx, postID)
	if err != nil {
		return storageErr(err, operation)
	}
	if thing == nil || thing.IsDeleted || !thing.IsPost() {
		return NewError(KindNotFound, "post %d does not exist", postID)
	}

	err = s.repo.DB().WithContext(ctx).Create(marker).Error
	if isDuplicate(err) {
		return NewError(KindDuplicateEdge, "user %d already has a %s marker on post %d", userID, operation, postID)
	}
	return storageErr(err, operation)
}

// validateFlair checks that a flair belongs to the subreddit
func (s *ContentStore) validateFlair(ctx context.Context, subredditID, flairID int64) error {
	flairs, err := db.NewSubredditRepository(s.repo).GetFlairs(ctx, subredditID)
	if err != nil {
		return storageErr(err, "flair lookup")
	}
	for _, f := range flairs {
		if f.ID == flairID {
			return nil
		}
	}
	return NewError(KindValidation, "flair %d does not belong to subreddit %d", flairID, subredditID)
}
