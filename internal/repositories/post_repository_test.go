package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func seedPost(t *testing.T, repo PostRepository, owner uint, text string, postedAt time.Time, published bool) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, OwnerID: owner, PostedAt: postedAt, IsPublished: published}
	require.NoError(t, repo.CreatePost(context.Background(), p))
	return p
}

func TestPostRepository_ListOrderingAndFilters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewPostgresPostRepository(db)

	p1 := seedPost(t, repo, 1, "Hello world", t0, true)
	p2 := seedPost(t, repo, 2, "second HELLO", t0.Add(time.Minute), true)
	p3 := seedPost(t, repo, 1, "draft", t0.Add(2*time.Minute), false)
	page := models.PageRequest{Page: 1, Limit: 10}

	posts, total, err := repo.ListPosts(ctx, models.PostFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{p3.ID, p2.ID, p1.ID}, postIDs(posts))

	posts, _, err = repo.ListPosts(ctx, models.PostFilter{Text: "hello", PublishedOnly: true}, page)
	require.NoError(t, err)
	assert.Equal(t, []string{p2.ID, p1.ID}, postIDs(posts))

	posts, _, err = repo.ListPosts(ctx, models.PostFilter{OwnerIDs: []uint{1}}, page)
	require.NoError(t, err)
	assert.Equal(t, []string{p3.ID, p1.ID}, postIDs(posts))

	posts, total, err = repo.ListPosts(ctx, models.PostFilter{}, models.PageRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{p1.ID}, postIDs(posts))
}

func TestPostRepository_ToggleLike(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewPostgresPostRepository(db)
	p := seedPost(t, repo, 1, "likeable", t0, true)

	liked, err := repo.ToggleLike(ctx, p.ID, 7)
	require.NoError(t, err)
	assert.True(t, liked)

	stats, err := repo.LikeStats(ctx, []string{p.ID}, 7)
	require.NoError(t, err)
	assert.Equal(t, models.LikeStat{Count: 1, LikedByMe: true}, stats[p.ID])

	stats, err = repo.LikeStats(ctx, []string{p.ID}, 8)
	require.NoError(t, err)
	assert.Equal(t, models.LikeStat{Count: 1}, stats[p.ID])

	posts, _, err := repo.ListPosts(ctx, models.PostFilter{LikedBy: 7}, models.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, postIDs(posts))

	liked, err = repo.ToggleLike(ctx, p.ID, 7)
	require.NoError(t, err)
	assert.False(t, liked)

	stats, err = repo.LikeStats(ctx, []string{p.ID}, 7)
	require.NoError(t, err)
	assert.Equal(t, models.LikeStat{}, stats[p.ID])

	_, err = repo.ToggleLike(ctx, "missing", 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostRepository_UpdateAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewPostgresPostRepository(db)
	p := seedPost(t, repo, 1, "before", t0, true)
	_, err := repo.ToggleLike(ctx, p.ID, 2)
	require.NoError(t, err)

	p.Text = "after"
	p.IsPublished = false
	require.NoError(t, repo.UpdatePost(ctx, p))

	got, err := repo.GetPostByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Text)
	assert.False(t, got.IsPublished)
	assert.True(t, got.PostedAt.Equal(t0))

	require.NoError(t, repo.DeletePost(ctx, p.ID))
	_, err = repo.GetPostByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeletePost(ctx, p.ID), ErrNotFound)

	var likes int64
	require.NoError(t, db.Model(&models.PostLike{}).Count(&likes).Error)
	assert.Zero(t, likes)
}

func TestPostRepository_PublishDue(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewPostgresPostRepository(db)

	past := t0.Add(-time.Hour)
	future := t0.Add(time.Hour)
	due := &models.Post{Text: "due", OwnerID: 1, PostedAt: t0, ScheduledAt: &past}
	later := &models.Post{Text: "later", OwnerID: 1, PostedAt: t0, ScheduledAt: &future}
	unscheduled := &models.Post{Text: "draft", OwnerID: 1, PostedAt: t0}
	for _, p := range []*models.Post{due, later, unscheduled} {
		require.NoError(t, repo.CreatePost(ctx, p))
	}

	n, err := repo.PublishDue(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.PublishDue(ctx, t0)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := repo.GetPostByID(ctx, due.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)
	got, err = repo.GetPostByID(ctx, later.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
}

func TestPostRepository_ReassignOwnerAndRemoveLikes(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewPostgresPostRepository(db)
	a := seedPost(t, repo, 1, "a", t0, true)
	seedPost(t, repo, 1, "b", t0, true)
	seedPost(t, repo, 2, "c", t0, true)
	_, err := repo.ToggleLike(ctx, a.ID, 1)
	require.NoError(t, err)

	n, err := repo.ReassignOwner(ctx, 1, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, repo.RemoveLikesBy(ctx, 1))
	stats, err := repo.LikeStats(ctx, []string{a.ID}, 1)
	require.NoError(t, err)
	assert.Zero(t, stats[a.ID].Count)
}

func TestPostRepository_PublishDueIsOneStatement(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "posts" SET "is_published"=.+ WHERE is_published = .+ AND scheduled_at IS NOT NULL AND scheduled_at <= .+`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := NewPostgresPostRepository(gdb).PublishDue(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func postIDs(posts []models.Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}
