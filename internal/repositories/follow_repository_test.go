package repositories

import (
	"context"
	"testing"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createUsers(t *testing.T, repo UserRepository, emails ...string) []*models.User {
	t.Helper()
	users := make([]*models.User, 0, len(emails))
	for _, email := range emails {
		u := &models.User{Email: email, Username: email, IsActive: true}
		require.NoError(t, repo.CreateUser(context.Background(), u))
		users = append(users, u)
	}
	return users
}

func TestFollowRepository_BothDirections(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := createUsers(t, NewPostgresUserRepository(db), "a@x.com", "b@x.com", "c@x.com")
	a, b, c := users[0], users[1], users[2]
	repo := NewPostgresFollowRepository(db)

	require.NoError(t, repo.CreateFollow(ctx, a.ID, b.ID))
	require.NoError(t, repo.CreateFollow(ctx, c.ID, b.ID))

	followers, err := repo.GetFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, followers, 2)

	following, err := repo.GetFollowing(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, b.ID, following[0].ID)

	ids, err := repo.GetFollowingIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID}, ids)

	n, err := repo.GetFollowersCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.GetFollowingCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFollowRepository_DuplicateAndMissing(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := createUsers(t, NewPostgresUserRepository(db), "a@x.com", "b@x.com")
	repo := NewPostgresFollowRepository(db)

	require.NoError(t, repo.CreateFollow(ctx, users[0].ID, users[1].ID))
	assert.ErrorIs(t, repo.CreateFollow(ctx, users[0].ID, users[1].ID), ErrAlreadyExists)

	require.NoError(t, repo.DeleteFollow(ctx, users[0].ID, users[1].ID))
	assert.ErrorIs(t, repo.DeleteFollow(ctx, users[0].ID, users[1].ID), ErrNotFound)

	ok, err := repo.IsFollowing(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowRepository_DeleteAllForUser(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := createUsers(t, NewPostgresUserRepository(db), "a@x.com", "b@x.com", "c@x.com")
	repo := NewPostgresFollowRepository(db)

	require.NoError(t, repo.CreateFollow(ctx, users[0].ID, users[1].ID))
	require.NoError(t, repo.CreateFollow(ctx, users[1].ID, users[0].ID))
	require.NoError(t, repo.CreateFollow(ctx, users[2].ID, users[1].ID))

	require.NoError(t, repo.DeleteAllForUser(ctx, users[0].ID))

	followers, err := repo.GetFollowers(ctx, users[1].ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, users[2].ID, followers[0].ID)

	following, err := repo.GetFollowing(ctx, users[1].ID)
	require.NoError(t, err)
	assert.Empty(t, following)
}
