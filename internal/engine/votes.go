package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/threadmill/threadmill/internal/db"
	"github.com/threadmill/threadmill/internal/models"
)

// VoteLedger records one vote per (user, thing) pair and keeps the
// denormalized thing counters consistent with the vote set. Counter
// changes ride in the same transaction as the vote row mutation and use
// single-statement increments, so concurrent casts cannot corrupt counts.
type VoteLedger struct {
	repo       *db.Repository
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewVoteLedger creates a new vote ledger
func NewVoteLedger(repo *db.Repository, dispatcher *Dispatcher, logger *zap.Logger) *VoteLedger {
	return &VoteLedger{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// CastVote records a vote. If the user already voted in the same
// direction it is a no-op; if they voted the other way, the vote flips
// and both counters adjust atomically.
func (l *VoteLedger) CastVote(ctx context.Context, userID, thingID int64, isUpvote bool) error {
	created := false

	err := l.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var thing models.Thing
		if err := tx.Select("id", "author_id", "is_deleted").First(&thing, thingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewError(KindNotFound, "thing %d does not exist", thingID)
			}
			return err
		}
		if thing.IsDeleted {
			return NewError(KindNotFound, "thing %d does not exist", thingID)
		}

		// Read the existing vote before writing. A failed insert would
		// abort the whole transaction on postgres, so the duplicate case
		// has to branch up front rather than catch the constraint error.
		now := time.Now().UTC()
		var existing models.Vote
		err := tx.Where("user_id = ? AND thing_id = ?", userID, thingID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			vote := &models.Vote{
				UserID:    userID,
				ThingID:   thingID,
				IsUpvote:  isUpvote,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(vote).Error; err != nil {
				return err
			}
			created = true
			return tx.Model(&models.Thing{}).Where("id = ?", thingID).
				UpdateColumn(counterColumn(isUpvote), gorm.Expr(counterColumn(isUpvote)+" + 1")).Error
		}
		if err != nil {
			return err
		}
		if existing.IsUpvote == isUpvote {
			return nil
		}

		// Flip. The direction guard keeps the row update and the counter
		// adjustment consistent if a concurrent flip lands in between.
		res := tx.Model(&models.Vote{}).
			Where("user_id = ? AND thing_id = ? AND is_upvote = ?", userID, thingID, existing.IsUpvote).
			Updates(map[string]interface{}{"is_upvote": isUpvote, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		return tx.Model(&models.Thing{}).Where("id = ?", thingID).
			UpdateColumns(map[string]interface{}{
				counterColumn(!isUpvote): gorm.Expr(counterColumn(!isUpvote) + " - 1"),
				counterColumn(isUpvote):  gorm.Expr(counterColumn(isUpvote) + " + 1"),
			}).Error
	})
	if err != nil {
		return storageErr(err, "cast vote")
	}

	if created && l.dispatcher != nil {
		l.dispatcher.EnqueueVote(userID, thingID)
	}

	l.logger.Debug("Cast vote",
		zap.Int64("user", userID),
		zap.Int64("thing", thingID),
		zap.Bool("upvote", isUpvote))

	return nil
}

// RetractVote deletes the user's vote on a thing and decrements the
// matching counter. Retracting an absent vote is a no-op, not an error.
func (l *VoteLedger) RetractVote(ctx context.Context, userID, thingID int64) error {
	err := l.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vote models.Vote
		err := tx.Where("user_id = ? AND thing_id = ?", userID, thingID).First(&vote).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		// The direction guard keeps the delete and the decrement
		// consistent if a concurrent flip lands in between.
		res := tx.Where("user_id = ? AND thing_id = ? AND is_upvote = ?", userID, thingID, vote.IsUpvote).
			Delete(&models.Vote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		col := counterColumn(vote.IsUpvote)
		return tx.Model(&models.Thing{}).
			Where("id = ? AND "+col+" > 0", thingID).
			UpdateColumn(col, gorm.Expr(col+" - 1")).Error
	})
	return storageErr(err, "retract vote")
}

// GetVote returns the user's vote on a thing, or nil if absent
func (l *VoteLedger) GetVote(ctx context.Context, userID, thingID int64) (*models.Vote, error) {
	var vote models.Vote
	err := l.repo.DB().WithContext(ctx).
		Where("user_id = ? AND thing_id = ?", userID, thingID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err, "vote lookup")
	}
	return &vote, nil
}

func counterColumn(isUpvote bool) string {
	if isUpvote {
		return "upvotes_count"
	}
	return "downvotes_count"
}
