package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	repo := newTestRepo(t)
	messenger := NewMessenger(repo, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	createAccount(t, repo, "bob")

	msg, err := messenger.Send(ctx, alice.ID, "bob", "greetings", "hello there")
	require.NoError(t, err)
	assert.Equal(t, "alice", msg.AuthorName)
	assert.Equal(t, "bob", msg.DestName)
	assert.False(t, msg.ParentID.Valid)

	// Destination names resolve case-insensitively
	msg, err = messenger.Send(ctx, alice.ID, "BOB", "again", "second")
	require.NoError(t, err)
	assert.Equal(t, "bob", msg.DestName)
}

func TestSendMessageErrors(t *testing.T) {
	repo := newTestRepo(t)
	messenger := NewMessenger(repo, testLogger())
	graph := NewGraph(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")

	_, err := messenger.Send(ctx, alice.ID, "bob", "s", "   ")
	assert.True(t, IsKind(err, KindValidation))

	_, err = messenger.Send(ctx, alice.ID, "nobody", "s", "body")
	assert.True(t, IsKind(err, KindNotFound))

	_, err = messenger.Send(ctx, alice.ID, "alice", "s", "body")
	assert.True(t, IsKind(err, KindSelfReference))

	require.NoError(t, graph.Block(ctx, bob.ID, alice.ID))
	_, err = messenger.Send(ctx, alice.ID, "bob", "s", "body")
	assert.True(t, IsKind(err, KindBlockExists))
}

func TestReplyThreading(t *testing.T) {
	repo := newTestRepo(t)
	messenger := NewMessenger(repo, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")

	root, err := messenger.Send(ctx, alice.ID, "bob", "plans", "free tonight?")
	require.NoError(t, err)

	reply, err := messenger.Reply(ctx, bob.ID, root.ID, "yes")
	require.NoError(t, err)
	assert.Equal(t, "alice", reply.DestName)
	assert.Equal(t, root.ID, reply.ParentID.Int64)
	assert.Equal(t, root.ID, reply.FirstMessageID.Int64)
	assert.Equal(t, "re: plans", reply.Subject)

	// A second hop keeps pointing at the thread root
	counter, err := messenger.Reply(ctx, alice.ID, reply.ID, "great")
	require.NoError(t, err)
	assert.Equal(t, "bob", counter.DestName)
	assert.Equal(t, reply.ID, counter.ParentID.Int64)
	assert.Equal(t, root.ID, counter.FirstMessageID.Int64)
	assert.Equal(t, "re: plans", counter.Subject)
}

func TestReplyErrors(t *testing.T) {
	repo := newTestRepo(t)
	messenger := NewMessenger(repo, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")
	carol := createAccount(t, repo, "carol")

	root, err := messenger.Send(ctx, alice.ID, "bob", "private", "between us")
	require.NoError(t, err)

	_, err = messenger.Reply(ctx, bob.ID, 999, "lost")
	assert.True(t, IsKind(err, KindNotFound))

	// Outsiders cannot reply into a thread
	_, err = messenger.Reply(ctx, carol.ID, root.ID, "intruding")
	assert.True(t, IsKind(err, KindAuthorization))
}

func TestInboxAndRead(t *testing.T) {
	repo := newTestRepo(t)
	messenger := NewMessenger(repo, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")

	first, err := messenger.Send(ctx, alice.ID, "bob", "one", "first")
	require.NoError(t, err)
	_, err = messenger.Send(ctx, alice.ID, "bob", "two", "second")
	require.NoError(t, err)

	inbox, err := messenger.Inbox(ctx, bob.ID, 10)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, "two", inbox[0].Subject)

	count, err := messenger.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, messenger.MarkRead(ctx, bob.ID, first.ID))
	count, err = messenger.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Only the recipient may mark a message read
	err = messenger.MarkRead(ctx, alice.ID, first.ID)
	assert.True(t, IsKind(err, KindNotFound))
}
