package engine

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/threadmill/threadmill/internal/db"
	"github.com/threadmill/threadmill/internal/models"
)

// eventKind discriminates queued fan-out events
type eventKind int

const (
	eventFollow eventKind = iota
	eventVote
	eventComment
)

// event is one queued fan-out unit of work
type event struct {
	kind    eventKind
	actorID int64
	otherID int64 // followed user for follows, thing for votes, comment for comments
}

// notifyTemplates render notification bodies per type
var notifyTemplates = map[int16]string{
	models.NotifyTypeFollow:       "<actor> followed you",
	models.NotifyTypePostReply:    "<actor> replied to your post",
	models.NotifyTypeCommentReply: "<actor> replied to your comment",
	models.NotifyTypePostVote:     "<actor> voted on your post",
	models.NotifyTypeCommentVote:  "<actor> voted on your comment",
	models.NotifyTypeMention:      "<actor> mentioned you",
}

func renderBody(notifyType int16, actorName string) string {
	tpl, ok := notifyTemplates[notifyType]
	if !ok {
		return ""
	}
	return strings.ReplaceAll(tpl, "<actor>", actorName)
}

// Dispatcher fans side effects out of write operations: follow, vote and
// comment events become notifications and inbox messages. Events ride a
// bounded queue drained by a single worker, so a slow notification path
// never stalls the write that produced it. Delivery is best effort; a
// full queue drops the event with a log line.
type Dispatcher struct {
	repo      *db.Repository
	notifRepo *db.NotificationRepository
	msgRepo   *db.MessageRepository
	accounts  *db.AccountRepository
	logger    *zap.Logger

	queue chan event
	done  chan struct{}
	once  sync.Once
}

// NewDispatcher creates a dispatcher with a bounded event queue
func NewDispatcher(repo *db.Repository, queueSize int, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		notifRepo: db.NewNotificationRepository(repo),
		msgRepo:   db.NewMessageRepository(repo),
		accounts:  db.NewAccountRepository(repo),
		logger:    logger,
		queue:     make(chan event, queueSize),
		done:      make(chan struct{}),
	}
}

// Start launches the worker goroutine
func (d *Dispatcher) Start() {
	go d.run()
}

// Stop closes the queue and waits for queued events to drain
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		close(d.queue)
	})
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		var err error
		switch ev.kind {
		case eventFollow:
			err = d.NotifyOnFollow(ctx, ev.actorID, ev.otherID)
		case eventVote:
			err = d.NotifyOnVote(ctx, ev.actorID, ev.otherID)
		case eventComment:
			err = d.DispatchComment(ctx, ev.otherID)
		}
		cancel()
		if err != nil {
			d.logger.Warn("Event dispatch failed",
				zap.Int("kind", int(ev.kind)),
				zap.Int64("actor", ev.actorID),
				zap.Int64("target", ev.otherID),
				zap.Error(err))
		}
	}
}

// EnqueueFollow queues a follow event. Never blocks.
func (d *Dispatcher) EnqueueFollow(followerID, followedID int64) {
	d.enqueue(event{kind: eventFollow, actorID: followerID, otherID: followedID})
}

// EnqueueVote queues a vote event. Never blocks.
func (d *Dispatcher) EnqueueVote(voterID, thingID int64) {
	d.enqueue(event{kind: eventVote, actorID: voterID, otherID: thingID})
}

// EnqueueComment queues a comment event. Never blocks.
func (d *Dispatcher) EnqueueComment(commentID int64) {
	d.enqueue(event{kind: eventComment, otherID: commentID})
}

func (d *Dispatcher) enqueue(ev event) {
	select {
	case d.queue <- ev:
	default:
		d.logger.Warn("Event queue full, dropping event",
			zap.Int("kind", int(ev.kind)),
			zap.Int64("target", ev.otherID))
	}
}

// NotifyOnFollow creates a follow notification for the followed user.
// Self-follows and blocked pairs produce nothing.
func (d *Dispatcher) NotifyOnFollow(ctx context.Context, followerID, followedID int64) error {
	if followerID == followedID {
		return nil
	}
	blocked, err := d.blockExists(ctx, followerID, followedID)
	if err != nil || blocked {
		return err
	}

	actor, err := d.accounts.GetByID(ctx, followerID)
	if err != nil {
		return storageErr(err, "follow notify actor lookup")
	}
	if actor == nil {
		return nil
	}

	return d.createNotification(ctx, &models.Notification{
		Type:        models.NotifyTypeFollow,
		RecipientID: followedID,
		ActorID:     followerID,
		Body:        renderBody(models.NotifyTypeFollow, actor.Name),
	})
}

// NotifyOnVote notifies the author of the voted thing. Votes on one's
// own content and votes across a block stay silent.
func (d *Dispatcher) NotifyOnVote(ctx context.Context, voterID, thingID int64) error {
	thing, err := db.NewThingRepository(d.repo).GetByID(ctx, thingID)
	if err != nil {
		return storageErr(err, "vote notify thing lookup")
	}
	if thing == nil || thing.IsDeleted || thing.AuthorID == voterID {
		return nil
	}
	blocked, err := d.blockExists(ctx, voterID, thing.AuthorID)
	if err != nil || blocked {
		return err
	}

	actor, err := d.accounts.GetByID(ctx, voterID)
	if err != nil {
		return storageErr(err, "vote notify actor lookup")
	}
	if actor == nil {
		return nil
	}

	notifyType := models.NotifyTypeCommentVote
	if thing.IsPost() {
		notifyType = models.NotifyTypePostVote
	}
	return d.createNotification(ctx, &models.Notification{
		Type:        notifyType,
		RecipientID: thing.AuthorID,
		ActorID:     voterID,
		ThingID:     nullInt64(thingID),
		Body:        renderBody(notifyType, actor.Name),
	})
}

// DispatchComment handles the fan-out of a newly created comment: a
// reply notification and inbox message for the parent author, then a
// mention notification per distinct u/<name> token in the body. The
// comment author and the already-notified parent author are excluded
// from mentions. Failures on one recipient are logged and do not stop
// the others.
func (d *Dispatcher) DispatchComment(ctx context.Context, commentID int64) error {
	things := db.NewThingRepository(d.repo)
	comment, err := things.GetByID(ctx, commentID)
	if err != nil {
		return storageErr(err, "comment lookup")
	}
	if comment == nil || comment.IsDeleted || !comment.ParentID.Valid {
		return nil
	}
	parent, err := things.GetByID(ctx, comment.ParentID.Int64)
	if err != nil {
		return storageErr(err, "comment parent lookup")
	}
	if parent == nil {
		return nil
	}

	author, err := d.accounts.GetByID(ctx, comment.AuthorID)
	if err != nil {
		return storageErr(err, "comment author lookup")
	}
	if author == nil {
		return nil
	}

	repliedName := ""
	if parent.AuthorID != comment.AuthorID {
		notified, err := d.notifyReply(ctx, comment, parent, author)
		if err != nil {
			d.logger.Warn("Reply notification failed",
				zap.Int64("comment", comment.ID),
				zap.Error(err))
		} else if notified != "" {
			repliedName = notified
		}
	}

	for _, name := range ExtractMentions(comment.Body, author.Name, repliedName) {
		if err := d.notifyMention(ctx, comment, author, name); err != nil {
			d.logger.Warn("Mention notification failed",
				zap.Int64("comment", comment.ID),
				zap.String("mention", name),
				zap.Error(err))
		}
	}

	return nil
}

// notifyReply creates the reply notification and inbox message for the
// parent author. Returns the notified user's name, or "" if delivery was
// suppressed by a block or a thread mute.
func (d *Dispatcher) notifyReply(ctx context.Context, comment, parent *models.Thing, author *models.Account) (string, error) {
	blocked, err := d.blockExists(ctx, comment.AuthorID, parent.AuthorID)
	if err != nil {
		return "", err
	}
	if blocked {
		return "", nil
	}

	// A mute on the enclosing post silences replies anywhere in its tree
	rootID := parent.ID
	if !parent.IsPost() && parent.PostID.Valid {
		rootID = parent.PostID.Int64
	}
	muted, err := d.threadMuted(ctx, parent.AuthorID, rootID)
	if err != nil {
		return "", err
	}
	if muted {
		return "", nil
	}

	recipient, err := d.accounts.GetByID(ctx, parent.AuthorID)
	if err != nil {
		return "", storageErr(err, "reply recipient lookup")
	}
	if recipient == nil {
		return "", nil
	}

	notifyType := models.NotifyTypeCommentReply
	msgType := models.MessageTypeCommentReply
	subject := "comment reply"
	if parent.IsPost() {
		notifyType = models.NotifyTypePostReply
		msgType = models.MessageTypePostReply
		subject = "post reply"
	}

	msg := &models.Message{
		Type:       msgType,
		AuthorName: author.Name,
		DestName:   recipient.Name,
		Subject:    subject,
		Body:       comment.Body,
		CommentID:  nullInt64(comment.ID),
		CreatedAt:  time.Now().UTC(),
	}
	if err := d.msgRepo.Create(ctx, msg); err != nil {
		return "", storageErr(err, "reply message")
	}

	err = d.createNotification(ctx, &models.Notification{
		Type:        notifyType,
		RecipientID: recipient.ID,
		ActorID:     author.ID,
		ThingID:     nullInt64(comment.ID),
		MessageID:   nullInt64(msg.ID),
		Body:        renderBody(notifyType, author.Name),
	})
	if err != nil {
		return "", err
	}
	return recipient.Name, nil
}

// notifyMention creates a mention notification for one username.
// Unknown names are skipped silently.
func (d *Dispatcher) notifyMention(ctx context.Context, comment *models.Thing, author *models.Account, name string) error {
	recipient, err := d.accounts.GetByName(ctx, name)
	if err != nil {
		return storageErr(err, "mention recipient lookup")
	}
	if recipient == nil || recipient.ID == author.ID {
		return nil
	}
	blocked, err := d.blockExists(ctx, author.ID, recipient.ID)
	if err != nil || blocked {
		return err
	}

	return d.createNotification(ctx, &models.Notification{
		Type:        models.NotifyTypeMention,
		RecipientID: recipient.ID,
		ActorID:     author.ID,
		ThingID:     nullInt64(comment.ID),
		Body:        renderBody(models.NotifyTypeMention, author.Name),
	})
}

func (d *Dispatcher) createNotification(ctx context.Context, notif *models.Notification) error {
	notif.CreatedAt = time.Now().UTC()
	if err := d.notifRepo.Create(ctx, notif); err != nil {
		return storageErr(err, "create notification")
	}
	return nil
}

// List returns visible notifications for a recipient, newest first,
// using id-cursor pagination.
func (d *Dispatcher) List(ctx context.Context, recipientID, lastID int64, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	notifications, err := d.notifRepo.GetByRecipient(ctx, recipientID, lastID, limit)
	if err != nil {
		return nil, storageErr(err, "notification list")
	}
	return notifications, nil
}

// UnreadCount returns the recipient's unread visible notification count
func (d *Dispatcher) UnreadCount(ctx context.Context, recipientID int64) (int64, error) {
	count, err := d.notifRepo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, storageErr(err, "unread count")
	}
	return count, nil
}

// MarkRead marks one notification read. Only the recipient may do so.
func (d *Dispatcher) MarkRead(ctx context.Context, recipientID, notifID int64) error {
	res := d.repo.DB().WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notifID, recipientID).
		UpdateColumn("is_read", true)
	if res.Error != nil {
		return storageErr(res.Error, "mark notification read")
	}
	if res.RowsAffected == 0 {
		return NewError(KindNotFound, "notification %d not found for user %d", notifID, recipientID)
	}
	return nil
}

// MarkAllRead marks every unread notification of a recipient read
func (d *Dispatcher) MarkAllRead(ctx context.Context, recipientID int64) error {
	err := d.repo.DB().WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		UpdateColumn("is_read", true).Error
	return storageErr(err, "mark all notifications read")
}

// Hide hides one notification from future listings
func (d *Dispatcher) Hide(ctx context.Context, recipientID, notifID int64) error {
	res := d.repo.DB().WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notifID, recipientID).
		UpdateColumn("is_hidden", true)
	if res.Error != nil {
		return storageErr(res.Error, "hide notification")
	}
	if res.RowsAffected == 0 {
		return NewError(KindNotFound, "notification %d not found for user %d", notifID, recipientID)
	}
	return nil
}

func (d *Dispatcher) blockExists(ctx context.Context, a, b int64) (bool, error) {
	var count int64
	err := d.repo.DB().WithContext(ctx).
		Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, storageErr(err, "block lookup")
	}
	return count > 0, nil
}

func (d *Dispatcher) threadMuted(ctx context.Context, userID, postID int64) (bool, error) {
	var count int64
	err := d.repo.DB().WithContext(ctx).
		Model(&models.ThreadMute{}).
		Where("user_id = ? AND thing_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, storageErr(err, "thread mute lookup")
	}
	return count > 0, nil
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}
