package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadmill/threadmill/internal/models"
)

func TestFollow(t *testing.T) {
	repo := newTestRepo(t)
	graph := NewGraph(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")

	require.NoError(t, graph.Follow(ctx, alice.ID, bob.ID))

	assert.Equal(t, int64(1), getAccount(t, repo, bob.ID).Followers)
	assert.Equal(t, int64(1), getAccount(t, repo, alice.ID).Following)
}

func TestFollowDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	graph := NewGraph(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")

	require.NoError(t, graph.Follow(ctx, alice.ID, bob.ID))
	err := graph.Follow(ctx, alice.ID, bob.ID)
	assert.True(t, IsKind(err, KindDuplicateEdge))

	// Counters unchanged by the rejected duplicate
	assert.Equal(t, int64(1), getAccount(t, repo, bob.ID).Followers)
}

func TestFollowSelf(t *testing.T) {
	repo := newTestRepo(t)
	graph := NewGraph(repo, nil, testLogger())

	alice := createAccount(t, repo, "alice")

	err := graph.Follow(context.Background(), alice.ID, alice.ID)
	assert.True(t, IsKind(err, KindSelfReference))
}

func TestFollowBlockedPair(t *testing.T) {
	repo := newTestRepo(t)
	graph := NewGraph(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")

	require.NoError(t, graph.Block(ctx, bob.ID, alice.ID))

	// The block gates follows in both directions
	assert.True(t, IsKind(graph.Follow(ctx, alice.ID, bob.ID), KindBlockExists))
	assert.True(t, IsKind(graph.Follow(ctx, bob.ID, alice.ID), KindBlockExists))
}

func TestUnfollow(t *testing.T) {
	repo := newTestRepo(t)
	graph := NewGraph(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")

	require.NoError(t, graph.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, graph.Unfollow(ctx, alice.ID, bob.ID))

	assert.Equal(t, int64(0), getAccount(t, repo, bob.ID).Followers)
	assert.Equal(t, int64(0), getAccount(t, repo, alice.ID).Following)

	err := graph.Unfollow(ctx, alice.ID, bob.ID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestBlockRemovesFollows(t *testing.T) {
	repo := newTestRepo(t)
	graph := NewGraph(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")

	require.NoError(t, graph.Follow(ctx, alice.ID, bob.ID))
	require.NoError(t, graph.Follow(ctx, bob.ID, alice.ID))

	require.NoError(t, graph.Block(ctx, alice.ID, bob.ID))

	var follows int64
	require.NoError(t, repo.DB().Model(&models.Follow{}).Count(&follows).Error)
	assert.Equal(t, int64(0), follows)

	assert.Equal(t, int64(0), getAccount(t, repo, alice.ID).Followers)
	assert.Equal(t, int64(0), getAccount(t, repo, alice.ID).Following)
	assert.Equal(t, int64(0), getAccount(t, repo, bob.ID).Followers)
	assert.Equal(t, int64(0), getAccount(t, repo, bob.ID).Following)
}

func TestBlockDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	graph := NewGraph(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")

	require.NoError(t, graph.Block(ctx, alice.ID, bob.ID))
	assert.True(t, IsKind(graph.Block(ctx, alice.ID, bob.ID), KindDuplicateEdge))

	// A block in the opposite direction is a distinct edge
	require.NoError(t, graph.Block(ctx, bob.ID, alice.ID))
}

func TestBlockSelf(t *testing.T) {
	repo := newTestRepo(t)
	graph := NewGraph(repo, nil, testLogger())

	alice := createAccount(t, repo, "alice")

	err := graph.Block(context.Background(), alice.ID, alice.ID)
	assert.True(t, IsKind(err, KindSelfReference))
}

func TestUnblock(t *testing.T) {
	repo := newTestRepo(t)
	graph := NewGraph(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")

	require.NoError(t, graph.Block(ctx, alice.ID, bob.ID))
	require.NoError(t, graph.Unblock(ctx, alice.ID, bob.ID))

	// The pair can follow again once the block is gone
	require.NoError(t, graph.Follow(ctx, alice.ID, bob.ID))

	err := graph.Unblock(ctx, alice.ID, bob.ID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestBlockExistsBetween(t *testing.T) {
	repo := newTestRepo(t)
	graph := NewGraph(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")
	carol := createAccount(t, repo, "carol")

	require.NoError(t, graph.Block(ctx, alice.ID, bob.ID))

	got, err := graph.BlockExistsBetween(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = graph.BlockExistsBetween(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestJoinLeaveSubreddit(t *testing.T) {
	repo := newTestRepo(t)
	graph := NewGraph(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	golang := createSubreddit(t, repo, "golang")

	require.NoError(t, graph.JoinSubreddit(ctx, alice.ID, golang.ID))

	var sub models.Subreddit
	require.NoError(t, repo.DB().First(&sub, golang.ID).Error)
	assert.Equal(t, int64(1), sub.Subscribers)

	assert.True(t, IsKind(graph.JoinSubreddit(ctx, alice.ID, golang.ID), KindDuplicateEdge))

	require.NoError(t, graph.LeaveSubreddit(ctx, alice.ID, golang.ID))
	require.NoError(t, repo.DB().First(&sub, golang.ID).Error)
	assert.Equal(t, int64(0), sub.Subscribers)

	assert.True(t, IsKind(graph.LeaveSubreddit(ctx, alice.ID, golang.ID), KindNotFound))
}
