package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadmill/threadmill/internal/db"
	"github.com/threadmill/threadmill/internal/models"
)

func TestCreatePost(t *testing.T) {
	repo := newTestRepo(t)
	store := NewContentStore(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	golang := createSubreddit(t, repo, "golang")

	post, err := store.CreatePost(ctx, PostInput{
		AuthorID:    alice.ID,
		SubredditID: golang.ID,
		Title:       "generics in practice",
		Body:        "some thoughts",
		Images:      []string{"https://img.example/a.png", "https://img.example/b.png"},
	})
	require.NoError(t, err)
	require.NotZero(t, post.ID)

	assert.True(t, post.IsPost())
	assert.Equal(t, int64(0), post.UpvotesCount)
	assert.Equal(t, int64(0), post.CommentCount)
	assert.Equal(t, "generics in practice", post.Title.String)

	images, err := db.NewThingRepository(repo).GetImages(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, 0, images[0].Position)
	assert.Equal(t, "https://img.example/a.png", images[0].URL)
}

func TestCreatePostValidation(t *testing.T) {
	repo := newTestRepo(t)
	store := NewContentStore(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	golang := createSubreddit(t, repo, "golang")

	_, err := store.CreatePost(ctx, PostInput{AuthorID: alice.ID, SubredditID: golang.ID, Title: "   "})
	assert.True(t, IsKind(err, KindValidation))

	_, err = store.CreatePost(ctx, PostInput{AuthorID: alice.ID, SubredditID: 999, Title: "orphan"})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCreatePostFlair(t *testing.T) {
	repo := newTestRepo(t)
	store := NewContentStore(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	golang := createSubreddit(t, repo, "golang")
	rust := createSubreddit(t, repo, "rust")

	flair := &models.Flair{SubredditID: golang.ID, Text: "discussion", Color: "#00add8"}
	require.NoError(t, repo.DB().Create(flair).Error)
	foreign := &models.Flair{SubredditID: rust.ID, Text: "help", Color: "#ce422b"}
	require.NoError(t, repo.DB().Create(foreign).Error)

	post, err := store.CreatePost(ctx, PostInput{
		AuthorID:    alice.ID,
		SubredditID: golang.ID,
		Title:       "tagged",
		FlairID:     &flair.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, flair.ID, post.FlairID.Int64)

	_, err = store.CreatePost(ctx, PostInput{
		AuthorID:    alice.ID,
		SubredditID: golang.ID,
		Title:       "mistagged",
		FlairID:     &foreign.ID,
	})
	assert.True(t, IsKind(err, KindValidation))
}

func TestCreateComment(t *testing.T) {
	repo := newTestRepo(t)
	store := NewContentStore(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")
	golang := createSubreddit(t, repo, "golang")
	post := createPost(t, repo, alice.ID, golang.ID, "hello")

	comment, err := store.CreateComment(ctx, bob.ID, post.ID, "first")
	require.NoError(t, err)
	assert.Equal(t, post.ID, comment.ParentID.Int64)
	assert.Equal(t, post.ID, comment.PostID.Int64)
	assert.Equal(t, golang.ID, comment.SubredditID)

	// A reply to a comment still counts against the owning post
	reply, err := store.CreateComment(ctx, alice.ID, comment.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, comment.ID, reply.ParentID.Int64)
	assert.Equal(t, post.ID, reply.PostID.Int64)

	loaded := getThing(t, repo, post.ID)
	assert.Equal(t, int64(2), loaded.CommentCount)
}

func TestCreateCommentOnDeletedPost(t *testing.T) {
	repo := newTestRepo(t)
	store := NewContentStore(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")
	golang := createSubreddit(t, repo, "golang")
	post := createPost(t, repo, alice.ID, golang.ID, "hello")
	comment := createComment(t, repo, bob.ID, post, "surviving comment")

	require.NoError(t, store.SoftDelete(ctx, post.ID, alice.ID))

	// Neither the post nor its surviving comments accept new replies
	_, err := store.CreateComment(ctx, bob.ID, post.ID, "late")
	assert.True(t, IsKind(err, KindNotFound))

	_, err = store.CreateComment(ctx, bob.ID, comment.ID, "late reply")
	assert.True(t, IsKind(err, KindNotFound))

	loaded := getThing(t, repo, post.ID)
	assert.Equal(t, int64(0), loaded.CommentCount)
}

func TestUpdateThing(t *testing.T) {
	repo := newTestRepo(t)
	store := NewContentStore(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")
	golang := createSubreddit(t, repo, "golang")
	post := createPost(t, repo, alice.ID, golang.ID, "hello")

	body := "edited body"
	title := "edited title"
	updated, err := store.UpdateThing(ctx, post.ID, ThingPatch{Body: &body, Title: &title}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited body", updated.Body)
	assert.Equal(t, "edited title", updated.Title.String)

	_, err = store.UpdateThing(ctx, post.ID, ThingPatch{Body: &body}, bob.ID)
	assert.True(t, IsKind(err, KindAuthorization))

	comment := createComment(t, repo, bob.ID, post, "a comment")
	_, err = store.UpdateThing(ctx, comment.ID, ThingPatch{Title: &title}, bob.ID)
	assert.True(t, IsKind(err, KindValidation))
}

func TestSoftDelete(t *testing.T) {
	repo := newTestRepo(t)
	store := NewContentStore(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")
	golang := createSubreddit(t, repo, "golang")
	post := createPost(t, repo, alice.ID, golang.ID, "hello")

	assert.True(t, IsKind(store.SoftDelete(ctx, post.ID, bob.ID), KindAuthorization))

	require.NoError(t, store.SoftDelete(ctx, post.ID, alice.ID))

	_, err := store.GetThing(ctx, post.ID)
	assert.True(t, IsKind(err, KindNotFound))

	// Deleting twice reports not found, not success
	assert.True(t, IsKind(store.SoftDelete(ctx, post.ID, alice.ID), KindNotFound))
}

func TestHideSaveMarkers(t *testing.T) {
	repo := newTestRepo(t)
	store := NewContentStore(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	bob := createAccount(t, repo, "bob")
	golang := createSubreddit(t, repo, "golang")
	post := createPost(t, repo, alice.ID, golang.ID, "hello")

	require.NoError(t, store.Hide(ctx, bob.ID, post.ID))
	assert.True(t, IsKind(store.Hide(ctx, bob.ID, post.ID), KindDuplicateEdge))
	require.NoError(t, store.Unhide(ctx, bob.ID, post.ID))
	require.NoError(t, store.Unhide(ctx, bob.ID, post.ID))

	require.NoError(t, store.Save(ctx, bob.ID, post.ID))
	assert.True(t, IsKind(store.Save(ctx, bob.ID, post.ID), KindDuplicateEdge))
	require.NoError(t, store.Unsave(ctx, bob.ID, post.ID))

	comment := createComment(t, repo, bob.ID, post, "a comment")
	assert.True(t, IsKind(store.Hide(ctx, bob.ID, comment.ID), KindNotFound))
	assert.True(t, IsKind(store.Save(ctx, bob.ID, 999), KindNotFound))
}

func TestMuteThread(t *testing.T) {
	repo := newTestRepo(t)
	store := NewContentStore(repo, nil, testLogger())
	ctx := context.Background()

	alice := createAccount(t, repo, "alice")
	golang := createSubreddit(t, repo, "golang")
	post := createPost(t, repo, alice.ID, golang.ID, "hello")

	require.NoError(t, store.MuteThread(ctx, alice.ID, post.ID))
	// Muting twice is a no-op
	require.NoError(t, store.MuteThread(ctx, alice.ID, post.ID))
	require.NoError(t, store.UnmuteThread(ctx, alice.ID, post.ID))
}
