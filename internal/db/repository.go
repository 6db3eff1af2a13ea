package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/threadmill/threadmill/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying gorm handle
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// AccountRepository provides account-related database operations
type AccountRepository struct {
	*Repository
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(repo *Repository) *AccountRepository {
	return &AccountRepository{Repository: repo}
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByName retrieves an account by name (case-insensitive)
func (r *AccountRepository) GetByName(ctx context.Context, name string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("lower(name) = lower(?)", name).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByIDs retrieves multiple accounts keyed by ID
func (r *AccountRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Account, error) {
	var accounts []*models.Account
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return byID, nil
}

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// SubredditRepository provides subreddit-related database operations
type SubredditRepository struct {
	*Repository
}

// NewSubredditRepository creates a new subreddit repository
func NewSubredditRepository(repo *Repository) *SubredditRepository {
	return &SubredditRepository{Repository: repo}
}

// GetByID retrieves a subreddit by ID
func (r *SubredditRepository) GetByID(ctx context.Context, id int64) (*models.Subreddit, error) {
	var subreddit models.Subreddit
	if err := r.db.WithContext(ctx).First(&subreddit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subreddit, nil
}

// GetByIDs retrieves multiple subreddits keyed by ID
func (r *SubredditRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*models.Subreddit, error) {
	var subreddits []*models.Subreddit
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&subreddits).Error; err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Subreddit, len(subreddits))
	for _, s := range subreddits {
		byID[s.ID] = s
	}
	return byID, nil
}

// GetFlairs retrieves the flair list for a subreddit
func (r *SubredditRepository) GetFlairs(ctx context.Context, subredditID int64) ([]*models.Flair, error) {
	var flairs []*models.Flair
	if err := r.db.WithContext(ctx).Where("subreddit_id = ?", subredditID).Find(&flairs).Error; err != nil {
		return nil, err
	}
	return flairs, nil
}

// Create creates a new subreddit
func (r *SubredditRepository) Create(ctx context.Context, subreddit *models.Subreddit) error {
	return r.db.WithContext(ctx).Create(subreddit).Error
}

// ThingRepository provides thing-related database operations
type ThingRepository struct {
	*Repository
}

// NewThingRepository creates a new thing repository
func NewThingRepository(repo *Repository) *ThingRepository {
	return &ThingRepository{Repository: repo}
}

// GetByID retrieves a thing by ID
func (r *ThingRepository) GetByID(ctx context.Context, id int64) (*models.Thing, error) {
	var thing models.Thing
	if err := r.db.WithContext(ctx).First(&thing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &thing, nil
}

// GetImages retrieves image references for a post, in position order
func (r *ThingRepository) GetImages(ctx context.Context, thingID int64) ([]*models.PostImage, error) {
	var images []*models.PostImage
	if err := r.db.WithContext(ctx).
		Where("thing_id = ?", thingID).
		Order("position ASC").
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// NotificationRepository provides notification-related database operations
type NotificationRepository struct {
	*Repository
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(repo *Repository) *NotificationRepository {
	return &NotificationRepository{Repository: repo}
}

// Create creates a new notification
func (r *NotificationRepository) Create(ctx context.Context, notif *models.Notification) error {
	return r.db.WithContext(ctx).Create(notif).Error
}

// GetByRecipient retrieves visible notifications for a recipient, newest first
func (r *NotificationRepository) GetByRecipient(ctx context.Context, recipientID, lastID int64, limit int) ([]*models.Notification, error) {
	query := r.db.WithContext(ctx).
		Where("recipient_id = ? AND is_hidden = ?", recipientID, false).
		Order("id DESC").
		Limit(limit)
	if lastID > 0 {
		query = query.Where("id < ?", lastID)
	}
	var notifications []*models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnread counts unread visible notifications for a recipient
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ? AND is_hidden = ?", recipientID, false, false).
		Count(&count).Error
	return count, err
}

// MessageRepository provides message-related database operations
type MessageRepository struct {
	*Repository
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(repo *Repository) *MessageRepository {
	return &MessageRepository{Repository: repo}
}

// Create creates a new message
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// GetByID retrieves a message by ID
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// GetInbox retrieves messages addressed to a user, newest first
func (r *MessageRepository) GetInbox(ctx context.Context, destName string, limit int) ([]*models.Message, error) {
	var messages []*models.Message
	if err := r.db.WithContext(ctx).
		Where("dest_name = ?", destName).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
