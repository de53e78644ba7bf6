package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishState(t *testing.T) {
	past := t0.Add(-time.Hour)
	future := t0.Add(time.Hour)
	yes, no := true, false

	tests := []struct {
		name      string
		explicit  *bool
		scheduled *time.Time
		want      bool
	}{
		{"no schedule", nil, nil, true},
		{"past schedule", nil, &past, true},
		{"schedule now", nil, &t0, true},
		{"future schedule", nil, &future, false},
		{"explicit false", &no, nil, false},
		{"explicit true wins over future", &yes, &future, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publishState(tt.explicit, tt.scheduled, t0))
		})
	}
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann, _ := env.register(t, "ann@example.com")

	post, err := env.postService.Create(ctx, ann, models.CreatePostRequest{Text: "hello"}, nil)
	require.NoError(t, err)
	assert.True(t, post.IsPublished)
	assert.Equal(t, t0, post.PostedAt)
	assert.Equal(t, ann.UserID, post.Author.ID)
	assert.Equal(t, "ann", post.Author.Username)

	_, err = env.postService.Create(ctx, Actor{}, models.CreatePostRequest{Text: "anon"}, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	long := make([]rune, 256)
	for i := range long {
		long[i] = 'x'
	}
	_, err = env.postService.Create(ctx, ann, models.CreatePostRequest{Text: string(long)}, nil)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestScheduledPostVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann, _ := env.register(t, "ann@example.com")
	bob, _ := env.register(t, "bob@example.com")

	at := t0.Add(time.Hour)
	post, err := env.postService.Create(ctx, ann, models.CreatePostRequest{Text: "later", ScheduledAt: &at}, nil)
	require.NoError(t, err)
	assert.False(t, post.IsPublished)

	_, err = env.postService.Get(ctx, bob, post.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = env.postService.Get(ctx, ann, post.ID)
	assert.NoError(t, err)

	feed, err := env.feed.Default(ctx, bob, "", page1)
	require.NoError(t, err)
	assert.Empty(t, feed.Items)

	mine, err := env.feed.Mine(ctx, ann, page1)
	require.NoError(t, err)
	assert.Equal(t, []string{post.ID}, feedIDs(mine))

	env.now = at.Add(time.Second)
	n, err := env.publisher.PublishScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	feed, err = env.feed.Default(ctx, bob, "", page1)
	require.NoError(t, err)
	assert.Equal(t, []string{post.ID}, feedIDs(feed))

	n, err = env.publisher.PublishScheduled(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann, _ := env.register(t, "ann@example.com")
	bob, _ := env.register(t, "bob@example.com")
	post := env.post(t, ann, "first")

	text := "edited"
	updated, err := env.postService.Update(ctx, ann, post.ID, models.UpdatePostRequest{Text: &text}, nil)
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)
	assert.True(t, post.PostedAt.Equal(updated.PostedAt))

	_, err = env.postService.Update(ctx, bob, post.ID, models.UpdatePostRequest{Text: &text}, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	later := env.now.Add(time.Hour)
	updated, err = env.postService.Update(ctx, ann, post.ID, models.UpdatePostRequest{ScheduledAt: &later}, nil)
	require.NoError(t, err)
	assert.False(t, updated.IsPublished)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1, _ := env.register(t, "u1@example.com")
	u2, _ := env.register(t, "u2@example.com")
	post := env.post(t, u1, "mine")
	_, err := env.engagement.AddComment(ctx, u2, post.ID, "nice")
	require.NoError(t, err)
	require.NoError(t, env.relationships.Follow(ctx, u2, u1.UserID))

	err = env.postService.Delete(ctx, u2, post.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	err = env.postService.Delete(ctx, Actor{}, post.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, env.postService.Delete(ctx, u1, post.ID))

	_, err = env.postService.Get(ctx, u1, post.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	feed, err := env.feed.Following(ctx, u2, page1)
	require.NoError(t, err)
	assert.Empty(t, feed.Items)
	feed, err = env.feed.Default(ctx, u2, "", page1)
	require.NoError(t, err)
	assert.Empty(t, feed.Items)

	count := 0
	for _, err := range env.engagement.ListComments(ctx, post.ID) {
		require.NoError(t, err)
		count++
	}
	assert.Zero(t, count)
}

type failingComments struct {
	repositories.CommentRepository
}

func (failingComments) DeleteCommentsByPostID(context.Context, string) error {
	return errors.New("connection reset")
}

func TestDeletePostIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1, _ := env.register(t, "u1@example.com")
	post := env.post(t, u1, "keep me")
	_, err := env.engagement.AddComment(ctx, u1, post.ID, "first")
	require.NoError(t, err)

	env.postService.comments = failingComments{env.comments}
	require.Error(t, env.postService.Delete(ctx, u1, post.ID))

	env.postService.comments = env.comments
	detail, err := env.postService.Get(ctx, u1, post.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Comments, 1)
}
