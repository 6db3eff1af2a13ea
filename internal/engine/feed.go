package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/threadmill/threadmill/internal/cache"
	"github.com/threadmill/threadmill/internal/db"
	"github.com/threadmill/threadmill/internal/models"
	"github.com/threadmill/threadmill/pkg/config"
)

// SortMode selects the feed ranking key
type SortMode string

// Sort modes
const (
	SortNew SortMode = "new"
	SortTop SortMode = "top"
	SortHot SortMode = "hot"
)

// hotExpr is the composite hot-ranking expression. The timestamp term is
// taken modulo 1e6 so recency only breaks ties while votes and comment
// activity dominate.
const hotExpr = "(created_unix % 1000000) + 5000 * (upvotes_count - downvotes_count) + 3000 * comment_count"

// HiddenMode controls the hide-marker stage
type HiddenMode int

// Hidden modes
const (
	HiddenExclude HiddenMode = iota // default feed view
	HiddenOnly                      // only items the requester hid
)

// VoteType is the requester's vote on an item
type VoteType string

// Vote annotation values
const (
	VoteUp     VoteType = "upvote"
	VoteDown   VoteType = "downvote"
	VoteAbsent VoteType = "absent"
)

// FeedRequest describes one feed page. At most one scope field may be
// set; zero values mean "all things".
type FeedRequest struct {
	RequesterID int64

	// Scope (mutually exclusive)
	ThingID        int64 // a single item and its children
	SubredditID    int64
	AuthorID       int64
	SubscribedOnly bool
	FollowedOnly   bool // only content by authors the requester follows

	ThingType string // "", "post" or "comment"

	Hidden    HiddenMode
	SavedOnly bool
	VotedOnly VoteType // "" disables the vote-direction filter

	Sort  SortMode
	Page  int
	Limit int
}

// FeedItem is one annotated feed entry
type FeedItem struct {
	Thing         models.Thing `json:"thing"`
	VoteType      VoteType     `json:"vote_type"`
	AuthorName    string       `json:"author_name"`
	SubredditName string       `json:"subreddit_name"`
}

// stage is one step of the composition pipeline: a pure transformation
// of the query under construction.
type stage func(*gorm.DB) *gorm.DB

// Composer builds filtered, ranked, paginated feed views. Each request
// runs through a fixed ordered pipeline of stages so the filtering and
// ranking logic stays testable independent of any endpoint.
type Composer struct {
	repo       *db.Repository
	cache      *cache.Cache
	cfg        config.FeedConfig
	maxRetries int
	logger     *zap.Logger
}

// NewComposer creates a new feed composer
func NewComposer(repo *db.Repository, redisCache *cache.Cache, cfg config.FeedConfig, maxRetries int, logger *zap.Logger) *Composer {
	return &Composer{
		repo:       repo,
		cache:      redisCache,
		cfg:        cfg,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Compose runs the pipeline and returns one page of annotated items.
// Results are deterministic for a fixed request: every ranking key breaks
// ties by id, so pages never overlap or drop items.
func (c *Composer) Compose(ctx context.Context, req FeedRequest) ([]FeedItem, error) {
	req, err := c.normalize(req)
	if err != nil {
		return nil, err
	}

	cacheKey := c.cacheKey(req)
	if c.cacheEnabled() {
		var cached []FeedItem
		if err := c.cache.GetJSON(cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	stages, err := c.buildStages(req)
	if err != nil {
		return nil, err
	}

	var things []models.Thing
	err = db.WithRetry(ctx, c.maxRetries, func() error {
		things = nil
		query := c.repo.DB().WithContext(ctx).Model(&models.Thing{})
		for _, s := range stages {
			query = s(query)
		}
		return query.Find(&things).Error
	})
	if err != nil {
		return nil, storageErr(err, "feed query")
	}

	items, err := c.annotate(ctx, req.RequesterID, things)
	if err != nil {
		return nil, err
	}

	if c.cacheEnabled() {
		if err := c.cache.SetJSON(cacheKey, items, cacheTTL(req.Sort)); err != nil {
			c.logger.Debug("Feed cache write failed", zap.Error(err))
		}
	}

	return items, nil
}

// normalize validates pagination and sort parameters and applies defaults
func (c *Composer) normalize(req FeedRequest) (FeedRequest, error) {
	if req.Page < 0 || req.Limit < 0 {
		return req, NewError(KindInvalidQuery, "page and limit must be positive")
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Limit == 0 {
		req.Limit = c.cfg.DefaultLimit
	}
	if req.Limit > c.cfg.MaxLimit {
		req.Limit = c.cfg.MaxLimit
	}

	if req.Sort == "" {
		req.Sort = SortHot
	}
	switch req.Sort {
	case SortNew, SortTop, SortHot:
	default:
		return req, NewError(KindInvalidQuery, "invalid sort mode %q", req.Sort)
	}

	scopes := 0
	if req.ThingID != 0 {
		scopes++
	}
	if req.SubredditID != 0 {
		scopes++
	}
	if req.AuthorID != 0 {
		scopes++
	}
	if req.SubscribedOnly {
		scopes++
	}
	if req.FollowedOnly {
		scopes++
	}
	if scopes > 1 {
		return req, NewError(KindInvalidQuery, "feed scopes are mutually exclusive")
	}
	if req.VotedOnly != "" && req.VotedOnly != VoteUp && req.VotedOnly != VoteDown {
		return req, NewError(KindInvalidQuery, "invalid vote filter %q", req.VotedOnly)
	}
	personalized := req.SubscribedOnly || req.FollowedOnly ||
		req.SavedOnly || req.VotedOnly != "" || req.Hidden == HiddenOnly
	if personalized && req.RequesterID == 0 {
		return req, NewError(KindInvalidQuery, "personalized feed requires a requester")
	}

	return req, nil
}

// buildStages assembles the pipeline in its fixed order: base filter,
// scope, block exclusion, hide, save, vote direction, ranking,
// pagination.
func (c *Composer) buildStages(req FeedRequest) ([]stage, error) {
	handle := c.repo.DB()
	stages := []stage{
		// Base filter: soft-deleted items never surface
		func(q *gorm.DB) *gorm.DB {
			return q.Where("is_deleted = ?", false)
		},
	}

	if req.ThingType != "" {
		thingType := req.ThingType
		stages = append(stages, func(q *gorm.DB) *gorm.DB {
			return q.Where("type = ?", thingType)
		})
	}

	// Scope filter
	switch {
	case req.ThingID != 0:
		stages = append(stages, func(q *gorm.DB) *gorm.DB {
			return q.Where("id = ? OR parent_id = ?", req.ThingID, req.ThingID)
		})
	case req.SubredditID != 0:
		stages = append(stages, func(q *gorm.DB) *gorm.DB {
			return q.Where("subreddit_id = ?", req.SubredditID)
		})
	case req.AuthorID != 0:
		stages = append(stages, func(q *gorm.DB) *gorm.DB {
			return q.Where("author_id = ?", req.AuthorID)
		})
	case req.SubscribedOnly:
		stages = append(stages, func(q *gorm.DB) *gorm.DB {
			return q.Where("subreddit_id IN (?)",
				handle.Model(&models.SubredditMembership{}).
					Select("subreddit_id").
					Where("account_id = ?", req.RequesterID))
		})
	case req.FollowedOnly:
		stages = append(stages, func(q *gorm.DB) *gorm.DB {
			return q.Where("author_id IN (?)",
				handle.Model(&models.Follow{}).
					Select("followed_id").
					Where("follower_id = ?", req.RequesterID))
		})
	}

	if req.RequesterID != 0 {
		requester := req.RequesterID

		// Block filter: a block in either direction hides the author's
		// content. Derived from the blocks table alone, independent of
		// follow-edge cleanup.
		stages = append(stages, func(q *gorm.DB) *gorm.DB {
			return q.
				Where("author_id NOT IN (?)",
					handle.Model(&models.Block{}).Select("blocked_id").Where("blocker_id = ?", requester)).
				Where("author_id NOT IN (?)",
					handle.Model(&models.Block{}).Select("blocker_id").Where("blocked_id = ?", requester))
		})

		// Hide filter
		hiddenSub := func() *gorm.DB {
			return handle.Model(&models.HiddenPost{}).
				Select("thing_id").
				Where("user_id = ?", requester)
		}
		switch req.Hidden {
		case HiddenOnly:
			stages = append(stages, func(q *gorm.DB) *gorm.DB {
				return q.Where("id IN (?)", hiddenSub())
			})
		default:
			stages = append(stages, func(q *gorm.DB) *gorm.DB {
				return q.Where("id NOT IN (?)", hiddenSub())
			})
		}

		// Save filter
		if req.SavedOnly {
			stages = append(stages, func(q *gorm.DB) *gorm.DB {
				return q.Where("id IN (?)",
					handle.Model(&models.SavedPost{}).
						Select("thing_id").
						Where("user_id = ?", requester))
			})
		}

		// Vote-direction filter
		if req.VotedOnly != "" {
			isUpvote := req.VotedOnly == VoteUp
			stages = append(stages, func(q *gorm.DB) *gorm.DB {
				return q.Where("id IN (?)",
					handle.Model(&models.Vote{}).
						Select("thing_id").
						Where("user_id = ? AND is_upvote = ?", requester, isUpvote))
			})
		}
	}

	// Ranking
	switch req.Sort {
	case SortNew:
		stages = append(stages, func(q *gorm.DB) *gorm.DB {
			return q.Order("created_unix DESC").Order("id DESC")
		})
	case SortTop:
		stages = append(stages, func(q *gorm.DB) *gorm.DB {
			return q.Order("(upvotes_count - downvotes_count) DESC").Order("id ASC")
		})
	case SortHot:
		stages = append(stages, func(q *gorm.DB) *gorm.DB {
			return q.Order(hotExpr + " DESC").Order("id ASC")
		})
	}

	// Pagination
	offset := (req.Page - 1) * req.Limit
	limit := req.Limit
	stages = append(stages, func(q *gorm.DB) *gorm.DB {
		return q.Offset(offset).Limit(limit)
	})

	return stages, nil
}

// annotate joins in the requester's votes and author/subreddit display
// info for a page of things.
func (c *Composer) annotate(ctx context.Context, requesterID int64, things []models.Thing) ([]FeedItem, error) {
	items := make([]FeedItem, 0, len(things))
	if len(things) == 0 {
		return items, nil
	}

	thingIDs := make([]int64, 0, len(things))
	authorIDs := make([]int64, 0, len(things))
	subredditIDs := make([]int64, 0, len(things))
	for _, t := range things {
		thingIDs = append(thingIDs, t.ID)
		authorIDs = append(authorIDs, t.AuthorID)
		subredditIDs = append(subredditIDs, t.SubredditID)
	}

	votes := make(map[int64]bool)
	if requesterID != 0 {
		var voteRows []models.Vote
		err := c.repo.DB().WithContext(ctx).
			Where("user_id = ? AND thing_id IN ?", requesterID, thingIDs).
			Find(&voteRows).Error
		if err != nil {
			return nil, storageErr(err, "vote annotation")
		}
		for _, v := range voteRows {
			votes[v.ThingID] = v.IsUpvote
		}
	}

	accounts, err := db.NewAccountRepository(c.repo).GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, storageErr(err, "author annotation")
	}
	subreddits, err := db.NewSubredditRepository(c.repo).GetByIDs(ctx, subredditIDs)
	if err != nil {
		return nil, storageErr(err, "subreddit annotation")
	}

	for _, t := range things {
		item := FeedItem{Thing: t, VoteType: VoteAbsent}
		if isUpvote, ok := votes[t.ID]; ok {
			if isUpvote {
				item.VoteType = VoteUp
			} else {
				item.VoteType = VoteDown
			}
		}
		if a, ok := accounts[t.AuthorID]; ok {
			item.AuthorName = a.Name
		}
		if s, ok := subreddits[t.SubredditID]; ok {
			item.SubredditName = s.Name
		}
		items = append(items, item)
	}

	return items, nil
}

func (c *Composer) cacheEnabled() bool {
	return c.cfg.CacheEnabled && c.cache != nil
}

// cacheKey derives a fixed-length key from every request parameter
func (c *Composer) cacheKey(req FeedRequest) string {
	return cache.HashKey(
		"feed",
		fmt.Sprint(req.RequesterID),
		fmt.Sprint(req.ThingID),
		fmt.Sprint(req.SubredditID),
		fmt.Sprint(req.AuthorID),
		fmt.Sprint(req.SubscribedOnly),
		fmt.Sprint(req.FollowedOnly),
		req.ThingType,
		fmt.Sprint(req.Hidden),
		fmt.Sprint(req.SavedOnly),
		string(req.VotedOnly),
		string(req.Sort),
		fmt.Sprint(req.Page),
		fmt.Sprint(req.Limit),
	)
}

// cacheTTL returns the cache lifetime for a sort mode. Fresh-content
// views expire quickly; score-ranked views can live longer.
func cacheTTL(sort SortMode) time.Duration {
	switch sort {
	case SortNew:
		return 3 * time.Second
	case SortHot:
		return 300 * time.Second
	default:
		return 60 * time.Second
	}
}
