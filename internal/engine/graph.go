package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/threadmill/threadmill/internal/db"
	"github.com/threadmill/threadmill/internal/models"
)

// Graph maintains the directed follow and block edges between users, and
// subreddit memberships. Edge uniqueness is enforced by the composite
// primary keys, so concurrent duplicate attempts lose deterministically.
type Graph struct {
	repo       *db.Repository
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewGraph creates a new relationship graph
func NewGraph(repo *db.Repository, dispatcher *Dispatcher, logger *zap.Logger) *Graph {
	return &Graph{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Follow creates a follow edge from follower to followed
func (g *Graph) Follow(ctx context.Context, followerID, followedID int64) error {
	if followerID == followedID {
		return NewError(KindSelfReference, "user %d cannot follow themselves", followerID)
	}

	blocked, err := g.BlockExistsBetween(ctx, followerID, followedID)
	if err != nil {
		return err
	}
	if blocked {
		return NewError(KindBlockExists, "a block exists between users %d and %d", followerID, followedID)
	}

	err = g.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		follow := &models.Follow{
			FollowerID: followerID,
			FollowedID: followedID,
			CreatedAt:  time.Now().UTC(),
		}
		if err := tx.Create(follow).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Account{}).Where("id = ?", followedID).
			UpdateColumn("followers", gorm.Expr("followers + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.Account{}).Where("id = ?", followerID).
			UpdateColumn("following", gorm.Expr("following + 1")).Error
	})
	if isDuplicate(err) {
		return NewError(KindDuplicateEdge, "user %d already follows user %d", followerID, followedID)
	}
	if err != nil {
		return storageErr(err, "follow")
	}

	if g.dispatcher != nil {
		g.dispatcher.EnqueueFollow(followerID, followedID)
	}

	g.logger.Debug("Created follow edge",
		zap.Int64("follower", followerID),
		zap.Int64("followed", followedID))

	return nil
}

// Unfollow removes the follow edge from follower to followed
func (g *Graph) Unfollow(ctx context.Context, followerID, followedID int64) error {
	err := g.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
			Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return NewError(KindNotFound, "user %d does not follow user %d", followerID, followedID)
		}
		return decrementFollowCounts(tx, followerID, followedID)
	})
	return storageErr(err, "unfollow")
}

// Block creates a block edge from blocker to blocked. Any follow edge
// between the pair, in either direction, is removed in the same
// transaction so partial completion is never observable.
func (g *Graph) Block(ctx context.Context, blockerID, blockedID int64) error {
	if blockerID == blockedID {
		return NewError(KindSelfReference, "user %d cannot block themselves", blockerID)
	}

	err := g.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		block := &models.Block{
			BlockerID: blockerID,
			BlockedID: blockedID,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(block).Error; err != nil {
			return err
		}
		return removeFollowsBetween(tx, blockerID, blockedID)
	})
	if isDuplicate(err) {
		return NewError(KindDuplicateEdge, "user %d already blocks user %d", blockerID, blockedID)
	}
	if err != nil {
		return storageErr(err, "block")
	}

	g.logger.Debug("Created block edge",
		zap.Int64("blocker", blockerID),
		zap.Int64("blocked", blockedID))

	return nil
}

// Unblock removes the block edge from blocker to blocked
func (g *Graph) Unblock(ctx context.Context, blockerID, blockedID int64) error {
	res := g.repo.DB().WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{})
	if res.Error != nil {
		return storageErr(res.Error, "unblock")
	}
	if res.RowsAffected == 0 {
		return NewError(KindNotFound, "user %d does not block user %d", blockerID, blockedID)
	}
	return nil
}

// BlockExistsBetween reports whether a block exists between a and b in
// either direction. Used as a gate before follows, messages and
// notification delivery.
func (g *Graph) BlockExistsBetween(ctx context.Context, a, b int64) (bool, error) {
	var count int64
	err := g.repo.DB().WithContext(ctx).
		Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, storageErr(err, "block lookup")
	}
	return count > 0, nil
}

// JoinSubreddit subscribes a user to a subreddit
func (g *Graph) JoinSubreddit(ctx context.Context, accountID, subredditID int64) error {
	err := g.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		membership := &models.SubredditMembership{
			AccountID:   accountID,
			SubredditID: subredditID,
			CreatedAt:   time.Now().UTC(),
		}
		if err := tx.Create(membership).Error; err != nil {
			return err
		}
		return tx.Model(&models.Subreddit{}).Where("id = ?", subredditID).
			UpdateColumn("subscribers", gorm.Expr("subscribers + 1")).Error
	})
	if isDuplicate(err) {
		return NewError(KindDuplicateEdge, "user %d is already a member of subreddit %d", accountID, subredditID)
	}
	return storageErr(err, "join subreddit")
}

// LeaveSubreddit removes a user's subscription to a subreddit
func (g *Graph) LeaveSubreddit(ctx context.Context, accountID, subredditID int64) error {
	err := g.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("account_id = ? AND subreddit_id = ?", accountID, subredditID).
			Delete(&models.SubredditMembership{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return NewError(KindNotFound, "user %d is not a member of subreddit %d", accountID, subredditID)
		}
		return tx.Model(&models.Subreddit{}).
			Where("id = ? AND subscribers > 0", subredditID).
			UpdateColumn("subscribers", gorm.Expr("subscribers - 1")).Error
	})
	return storageErr(err, "leave subreddit")
}

// removeFollowsBetween deletes follow edges between a pair in both
// directions and keeps the account counters in step.
func removeFollowsBetween(tx *gorm.DB, a, b int64) error {
	pairs := [][2]int64{{a, b}, {b, a}}
	for _, p := range pairs {
		res := tx.Where("follower_id = ? AND followed_id = ?", p[0], p[1]).
			Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := decrementFollowCounts(tx, p[0], p[1]); err != nil {
				return err
			}
		}
	}
	return nil
}

// decrementFollowCounts lowers the denormalized counters after a follow
// edge from follower to followed is removed.
func decrementFollowCounts(tx *gorm.DB, followerID, followedID int64) error {
	if err := tx.Model(&models.Account{}).
		Where("id = ? AND followers > 0", followedID).
		UpdateColumn("followers", gorm.Expr("followers - 1")).Error; err != nil {
		return err
	}
	return tx.Model(&models.Account{}).
		Where("id = ? AND following > 0", followerID).
		UpdateColumn("following", gorm.Expr("following - 1")).Error
}
