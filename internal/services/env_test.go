package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/anonto42/pulse/backend/internal/storage"
	"github.com/anonto42/pulse/backend/internal/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	now time.Time

	users    repositories.UserRepository
	follows  repositories.FollowRepository
	posts    repositories.PostRepository
	comments repositories.CommentRepository

	sentinel      *SentinelReassigner
	tokens        *TokenService
	accounts      *AccountService
	relationships *RelationshipService
	engagement    *EngagementService
	postService   *PostService
	feed          *FeedService
	publisher     *Publisher
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithFirebase(t, nil)
}

func newTestEnvWithFirebase(t *testing.T, verifier IDTokenVerifier) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	log := quietLogger()

	env := &testEnv{
		now:      t0,
		users:    repositories.NewPostgresUserRepository(db),
		follows:  repositories.NewPostgresFollowRepository(db),
		posts:    repositories.NewPostgresPostRepository(db),
		comments: repositories.NewPostgresCommentRepository(db),
	}
	clock := Clock(func() time.Time { return env.now })

	var err error
	env.sentinel, err = NewSentinelReassigner(context.Background(), env.users, env.posts, env.comments, log)
	require.NoError(t, err)

	env.tokens = NewTokenService("test-secret", time.Hour, repositories.NewPostgresTokenRepository(db), env.users)
	tx := repositories.NewGormTransactor(db)

	images := storage.NewLocalImageStore(t.TempDir(), "/media")
	env.accounts = NewAccountService(AccountDeps{
		Users:      env.users,
		Follows:    env.follows,
		Posts:      env.posts,
		Tokens:     env.tokens,
		Reassigner: env.sentinel,
		Tx:         tx,
		Images:     images,
		Firebase:   verifier,
		BcryptCost: 4,
		Log:        log,
	})
	env.relationships = NewRelationshipService(env.users, env.follows)
	env.engagement = NewEngagementService(env.posts, env.comments, env.users, 2, clock)
	env.postService = NewPostService(env.posts, env.comments, env.users, images, env.engagement, tx, clock, log)
	env.feed = NewFeedService(env.posts, env.follows, env.users)
	env.publisher = NewPublisher(env.posts, env.tokens, clock, log)
	return env
}

// register creates an active user and returns it as an actor.
func (e *testEnv) register(t *testing.T, email string) (Actor, *models.User) {
	t.Helper()
	user, err := e.accounts.Register(context.Background(), models.RegisterRequest{Email: email, Password: "password123"})
	require.NoError(t, err)
	return Actor{UserID: user.ID}, user
}

func (e *testEnv) post(t *testing.T, actor Actor, text string) *models.FeedPost {
	t.Helper()
	p, err := e.postService.Create(context.Background(), actor, models.CreatePostRequest{Text: text}, nil)
	require.NoError(t, err)
	e.now = e.now.Add(time.Second)
	return p
}

var page1 = models.PageRequest{Page: 1, Limit: 10}

func feedIDs(p models.Page[models.FeedPost]) []string {
	ids := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		ids = append(ids, item.ID)
	}
	return ids
}
