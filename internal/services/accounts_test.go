package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.accounts.Register(ctx, models.RegisterRequest{Email: "ann@example.com", Password: "password123", FirstName: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Username)
	assert.NotEqual(t, "password123", user.Password)

	_, err = env.accounts.Register(ctx, models.RegisterRequest{Email: "ANN@example.com", Password: "password123", Username: "other"})
	assert.Equal(t, KindConflict, KindOf(err))

	_, err = env.accounts.Register(ctx, models.RegisterRequest{Email: "x@example.com", Password: ""})
	assert.Equal(t, KindValidation, KindOf(err))

	token, loggedIn, err := env.accounts.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := env.tokens.Parse(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = env.accounts.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, _, err = env.accounts.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestSentinelCannotLogIn(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.accounts.Login(context.Background(), models.LoginRequest{Email: SentinelEmail, Password: "anything"})
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "ann@example.com")

	token, _, err := env.accounts.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)
	claims, err := env.tokens.Parse(ctx, token)
	require.NoError(t, err)

	require.NoError(t, env.accounts.Logout(ctx, claims))

	_, err = env.tokens.Parse(ctx, token)
	assert.Equal(t, KindAuthentication, KindOf(err))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann, _ := env.register(t, "ann@example.com")
	env.register(t, "bob@example.com")

	bio := "hello"
	username := "annie"
	user, err := env.accounts.UpdateProfile(ctx, ann, models.UpdateUserRequest{Bio: &bio, Username: &username})
	require.NoError(t, err)
	assert.Equal(t, "hello", user.Bio)
	assert.Equal(t, "annie", user.Username)

	taken := "bob"
	_, err = env.accounts.UpdateProfile(ctx, ann, models.UpdateUserRequest{Username: &taken})
	assert.Equal(t, KindConflict, KindOf(err))

	password := "newpassword"
	_, err = env.accounts.UpdateProfile(ctx, ann, models.UpdateUserRequest{Password: &password})
	require.NoError(t, err)
	_, _, err = env.accounts.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "newpassword"})
	assert.NoError(t, err)

	_, err = env.accounts.UpdateProfile(ctx, Actor{}, models.UpdateUserRequest{Bio: &bio})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestDeleteAccountReassignsContent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann, _ := env.register(t, "ann@example.com")
	bob, _ := env.register(t, "bob@example.com")

	post := env.post(t, ann, "my post")
	_, err := env.engagement.AddComment(ctx, ann, post.ID, "my comment")
	require.NoError(t, err)
	require.NoError(t, env.relationships.Follow(ctx, ann, bob.UserID))
	_, err = env.engagement.ToggleLike(ctx, ann, post.ID)
	require.NoError(t, err)

	raw, _, err := env.accounts.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)
	claims, err := env.tokens.Parse(ctx, raw)
	require.NoError(t, err)

	require.NoError(t, env.accounts.DeleteAccount(ctx, ann, claims))

	_, err = env.tokens.Parse(ctx, raw)
	assert.Equal(t, KindAuthentication, KindOf(err))

	detail, err := env.postService.Get(ctx, bob, post.ID)
	require.NoError(t, err)
	assert.Equal(t, env.sentinel.SentinelID(), detail.OwnerID)
	assert.Equal(t, SentinelUsername, detail.Author.Username)
	assert.Equal(t, int64(0), detail.LikesCount)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, env.sentinel.SentinelID(), detail.Comments[0].OwnerID)

	followers, err := env.relationships.Followers(ctx, bob.UserID)
	require.NoError(t, err)
	assert.Empty(t, followers)

	_, err = env.accounts.PublicProfile(ctx, ann.UserID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

type failingUsers struct {
	repositories.UserRepository
}

func (failingUsers) DeleteUser(context.Context, uint) error {
	return errors.New("disk full")
}

func TestDeleteAccountRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann, _ := env.register(t, "ann@example.com")
	bob, _ := env.register(t, "bob@example.com")

	post := env.post(t, ann, "still mine")
	require.NoError(t, env.relationships.Follow(ctx, ann, bob.UserID))
	_, err := env.engagement.ToggleLike(ctx, ann, post.ID)
	require.NoError(t, err)

	env.accounts.users = failingUsers{env.users}
	err = env.accounts.DeleteAccount(ctx, ann, nil)
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))

	got, err := env.postService.Get(ctx, ann, post.ID)
	require.NoError(t, err)
	assert.Equal(t, ann.UserID, got.OwnerID)
	assert.Equal(t, int64(1), got.LikesCount)

	following, err := env.relationships.IsFollowing(ctx, ann.UserID, bob.UserID)
	require.NoError(t, err)
	assert.True(t, following)
}

func TestDeletedUserTokenIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann, _ := env.register(t, "ann@example.com")
	raw, _, err := env.accounts.Login(ctx, models.LoginRequest{Email: "ann@example.com", Password: "password123"})
	require.NoError(t, err)

	// Deleting without the claims leaves the token off the denylist.
	require.NoError(t, env.accounts.DeleteAccount(ctx, ann, nil))

	_, err = env.tokens.Parse(ctx, raw)
	require.Error(t, err)
	assert.Equal(t, KindAuthentication, KindOf(err))
	assert.Contains(t, err.Error(), "User not found.")
}

func TestPublicProfileAndSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann, _ := env.register(t, "ann@example.com")
	bob, _ := env.register(t, "bob@example.com")
	require.NoError(t, env.relationships.Follow(ctx, ann, bob.UserID))

	profile, err := env.accounts.PublicProfile(ctx, bob.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ann@example.com"}, profile.Followers)
	assert.Empty(t, profile.Following)

	found, err := env.accounts.SearchUsers(ctx, models.UserSearchRequest{Username: "AN"}, page1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.Total)
	assert.Equal(t, ann.UserID, found.Items[0].ID)
}

func TestUploadProfileImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann, _ := env.register(t, "ann@example.com")

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	user, err := env.accounts.UploadProfileImage(ctx, ann, "me.png", bytes.NewReader(png))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(user.Image, "/media/profile-pictures/"))

	_, err = env.accounts.UploadProfileImage(ctx, ann, "me.png", strings.NewReader("plain text"))
	assert.Equal(t, KindValidation, KindOf(err))
}

type fakeVerifier map[string]*auth.Token

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if tok, ok := f[idToken]; ok {
		return tok, nil
	}
	return nil, errors.New("bad token")
}

func TestFirebaseLogin(t *testing.T) {
	verifier := fakeVerifier{
		"new":    {UID: "uid-new", Claims: map[string]interface{}{"email": "new@example.com", "name": "New Person"}},
		"linked": {UID: "uid-ann", Claims: map[string]interface{}{"email": "ann@example.com"}},
	}
	env := newTestEnvWithFirebase(t, verifier)
	ctx := context.Background()
	ann, _ := env.register(t, "ann@example.com")

	_, user, err := env.accounts.FirebaseLogin(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, "New", user.FirstName)
	assert.Equal(t, "Person", user.LastName)
	require.NotNil(t, user.FirebaseUID)

	_, again, err := env.accounts.FirebaseLogin(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	_, linked, err := env.accounts.FirebaseLogin(ctx, "linked")
	require.NoError(t, err)
	assert.Equal(t, ann.UserID, linked.ID)

	_, _, err = env.accounts.FirebaseLogin(ctx, "forged")
	assert.Equal(t, KindAuthentication, KindOf(err))
}

func TestFirebaseLoginDisabled(t *testing.T) {
	env := newTestEnv(t)
	assert.False(t, env.accounts.FirebaseEnabled())
	_, _, err := env.accounts.FirebaseLogin(context.Background(), "anything")
	assert.Equal(t, KindNotFound, KindOf(err))
}
