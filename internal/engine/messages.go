package engine

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/threadmill/threadmill/internal/db"
	"github.com/threadmill/threadmill/internal/models"
)

// Messenger handles private message exchange between users. Reply chains
// are threaded through first_message_id so a whole conversation can be
// recovered from any member.
type Messenger struct {
	repo     *db.Repository
	msgRepo  *db.MessageRepository
	accounts *db.AccountRepository
	logger   *zap.Logger
}

// NewMessenger creates a new messenger
func NewMessenger(repo *db.Repository, logger *zap.Logger) *Messenger {
	return &Messenger{
		repo:     repo,
		msgRepo:  db.NewMessageRepository(repo),
		accounts: db.NewAccountRepository(repo),
		logger:   logger,
	}
}

// Send delivers a new private message from author to the named user
func (m *Messenger) Send(ctx context.Context, authorID int64, destName, subject, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, NewError(KindValidation, "message body must not be empty")
	}
	if len(subject) > 120 {
		return nil, NewError(KindValidation, "subject must be at most 120 characters")
	}

	author, err := m.accounts.GetByID(ctx, authorID)
	if err != nil {
		return nil, storageErr(err, "message author lookup")
	}
	if author == nil {
		return nil, NewError(KindNotFound, "user %d does not exist", authorID)
	}

	dest, err := m.accounts.GetByName(ctx, destName)
	if err != nil {
		return nil, storageErr(err, "message recipient lookup")
	}
	if dest == nil {
		return nil, NewError(KindNotFound, "user %q does not exist", destName)
	}
	if dest.ID == author.ID {
		return nil, NewError(KindSelfReference, "user %d cannot message themselves", authorID)
	}

	blocked, err := m.pairBlocked(ctx, author.ID, dest.ID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, NewError(KindBlockExists, "a block exists between users %d and %d", author.ID, dest.ID)
	}

	msg := &models.Message{
		Type:       models.MessageTypePrivate,
		AuthorName: author.Name,
		DestName:   dest.Name,
		Subject:    subject,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
	if err := m.msgRepo.Create(ctx, msg); err != nil {
		return nil, storageErr(err, "send message")
	}

	m.logger.Debug("Sent message",
		zap.Int64("author", author.ID),
		zap.String("dest", dest.Name))

	return msg, nil
}

// Reply sends a reply within an existing message thread. Either
// participant of the parent may reply; the reply goes to the other one.
func (m *Messenger) Reply(ctx context.Context, authorID, parentID int64, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, NewError(KindValidation, "message body must not be empty")
	}

	author, err := m.accounts.GetByID(ctx, authorID)
	if err != nil {
		return nil, storageErr(err, "message author lookup")
	}
	if author == nil {
		return nil, NewError(KindNotFound, "user %d does not exist", authorID)
	}

	parent, err := m.msgRepo.GetByID(ctx, parentID)
	if err != nil {
		return nil, storageErr(err, "parent message lookup")
	}
	if parent == nil {
		return nil, NewError(KindNotFound, "message %d does not exist", parentID)
	}

	var destName string
	switch author.Name {
	case parent.DestName:
		destName = parent.AuthorName
	case parent.AuthorName:
		destName = parent.DestName
	default:
		return nil, NewError(KindAuthorization, "user %d is not a participant of message %d", authorID, parentID)
	}

	dest, err := m.accounts.GetByName(ctx, destName)
	if err != nil {
		return nil, storageErr(err, "message recipient lookup")
	}
	if dest == nil {
		return nil, NewError(KindNotFound, "user %q does not exist", destName)
	}

	blocked, err := m.pairBlocked(ctx, author.ID, dest.ID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, NewError(KindBlockExists, "a block exists between users %d and %d", author.ID, dest.ID)
	}

	// The thread root is the parent's root, or the parent itself when it
	// started the thread.
	firstID := parent.ID
	if parent.FirstMessageID.Valid {
		firstID = parent.FirstMessageID.Int64
	}

	subject := parent.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re: ") {
		subject = "re: " + subject
	}

	msg := &models.Message{
		Type:           models.MessageTypePrivate,
		AuthorName:     author.Name,
		DestName:       dest.Name,
		Subject:        subject,
		Body:           body,
		ParentID:       nullInt64(parent.ID),
		FirstMessageID: nullInt64(firstID),
		CreatedAt:      time.Now().UTC(),
	}
	if err := m.msgRepo.Create(ctx, msg); err != nil {
		return nil, storageErr(err, "send reply")
	}

	return msg, nil
}

// Inbox returns messages addressed to a user, newest first
func (m *Messenger) Inbox(ctx context.Context, userID int64, limit int) ([]*models.Message, error) {
	if limit <= 0 {
		limit = 20
	}
	user, err := m.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, storageErr(err, "inbox user lookup")
	}
	if user == nil {
		return nil, NewError(KindNotFound, "user %d does not exist", userID)
	}
	messages, err := m.msgRepo.GetInbox(ctx, user.Name, limit)
	if err != nil {
		return nil, storageErr(err, "inbox")
	}
	return messages, nil
}

// UnreadCount returns the number of unread messages addressed to a user
func (m *Messenger) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	user, err := m.accounts.GetByID(ctx, userID)
	if err != nil {
		return 0, storageErr(err, "inbox user lookup")
	}
	if user == nil {
		return 0, NewError(KindNotFound, "user %d does not exist", userID)
	}
	var count int64
	err = m.repo.DB().WithContext(ctx).
		Model(&models.Message{}).
		Where("dest_name = ? AND is_read = ?", user.Name, false).
		Count(&count).Error
	if err != nil {
		return 0, storageErr(err, "unread message count")
	}
	return count, nil
}

// MarkRead marks a message read. Only the recipient may do so.
func (m *Messenger) MarkRead(ctx context.Context, userID, messageID int64) error {
	user, err := m.accounts.GetByID(ctx, userID)
	if err != nil {
		return storageErr(err, "message user lookup")
	}
	if user == nil {
		return NewError(KindNotFound, "user %d does not exist", userID)
	}
	res := m.repo.DB().WithContext(ctx).
		Model(&models.Message{}).
		Where("id = ? AND dest_name = ?", messageID, user.Name).
		UpdateColumn("is_read", true)
	if res.Error != nil {
		return storageErr(res.Error, "mark message read")
	}
	if res.RowsAffected == 0 {
		return NewError(KindNotFound, "message %d not found for user %d", messageID, userID)
	}
	return nil
}

func (m *Messenger) pairBlocked(ctx context.Context, a, b int64) (bool, error) {
	var count int64
	err := m.repo.DB().WithContext(ctx).
		Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, storageErr(err, "block lookup")
	}
	return count > 0, nil
}
