package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/anonto42/pulse/backend/internal/storage"
	"github.com/sirupsen/logrus"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// Upload is an image file sent along with a request.
type Upload struct {
	Filename string
	Body     io.Reader
}

// PostService creates, reads, edits and removes posts.
type PostService struct {
	posts      repositories.PostRepository
	comments   repositories.CommentRepository
	users      repositories.UserRepository
	images     storage.ImageStore
	engagement *EngagementService
	tx         repositories.Transactor
	authz      Authorizer
	clock      Clock
	log        logrus.FieldLogger
}

func NewPostService(posts repositories.PostRepository, comments repositories.CommentRepository, users repositories.UserRepository, images storage.ImageStore, engagement *EngagementService, tx repositories.Transactor, clock Clock, log logrus.FieldLogger) *PostService {
	return &PostService{
		posts:      posts,
		comments:   comments,
		users:      users,
		images:     images,
		engagement: engagement,
		tx:         tx,
		clock:      clock,
		log:        log,
	}
}

// publishState decides is_published: an explicit value wins, otherwise a
// post is live unless it is scheduled in the future.
func publishState(explicit *bool, scheduledAt *time.Time, now time.Time) bool {
	if explicit != nil {
		return *explicit
	}
	return scheduledAt == nil || !scheduledAt.After(now)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// visibleTo hides unpublished posts from everyone but their owner.
func visibleTo(post *models.Post, actor Actor) bool {
	return post.IsPublished || (actor.Authenticated() && post.OwnerID == actor.UserID)
}

func (s *PostService) saveImage(ctx context.Context, ownerID uint, image *Upload) (string, error) {
	ref, err := s.images.Save(ctx, storage.PostImages, ownerID, image.Filename, image.Body)
	if errors.Is(err, storage.ErrNotImage) {
		return "", validationError("Upload a valid image.")
	}
	if err != nil {
		return "", fmt.Errorf("save post image: %w", err)
	}
	return ref, nil
}

// Create publishes a new post owned by actor. image may be nil.
func (s *PostService) Create(ctx context.Context, actor Actor, req models.CreatePostRequest, image *Upload) (*models.FeedPost, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if req.Text == "" {
		return nil, validationError("text is required.")
	}
	if len([]rune(req.Text)) > 255 {
		return nil, validationError("text must be at most 255 characters.")
	}

	now := s.clock.now()
	post := &models.Post{
		Text:        req.Text,
		OwnerID:     actor.UserID,
		PostedAt:    now,
		ScheduledAt: utcPtr(req.ScheduledAt),
	}
	post.IsPublished = publishState(req.IsPublished, post.ScheduledAt, now)

	if image != nil {
		ref, err := s.saveImage(ctx, actor.UserID, image)
		if err != nil {
			return nil, err
		}
		post.Image = ref
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.log.WithFields(logrus.Fields{"post_id": post.ID, "user_id": actor.UserID, "published": post.IsPublished}).Info("Post created.")

	return s.single(ctx, post, actor)
}

func (s *PostService) single(ctx context.Context, post *models.Post, actor Actor) (*models.FeedPost, error) {
	enriched, err := enrichPosts(ctx, s.users, s.posts, []models.Post{*post}, actor)
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

// load fetches a post the actor is allowed to see.
func (s *PostService) load(ctx context.Context, actor Actor, id string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "get post", "Post")
	}
	if !visibleTo(post, actor) {
		return nil, notFound("Post")
	}
	return post, nil
}

// Get returns one post with its author, like fields and newest comments.
func (s *PostService) Get(ctx context.Context, actor Actor, id string) (*models.PostDetail, error) {
	post, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	feedPost, err := s.single(ctx, post, actor)
	if err != nil {
		return nil, err
	}
	comments, err := s.engagement.latestComments(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return &models.PostDetail{FeedPost: *feedPost, Comments: comments}, nil
}

// Update edits the actor's own post. Nil fields are kept; a new schedule
// without an explicit is_published recomputes the publication state.
func (s *PostService) Update(ctx context.Context, actor Actor, id string, req models.UpdatePostRequest, image *Upload) (*models.FeedPost, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	post, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, post); err != nil {
		return nil, err
	}

	if req.Text != nil {
		if *req.Text == "" || len([]rune(*req.Text)) > 255 {
			return nil, validationError("text must be between 1 and 255 characters.")
		}
		post.Text = *req.Text
	}
	if req.ScheduledAt != nil {
		post.ScheduledAt = utcPtr(req.ScheduledAt)
		post.IsPublished = publishState(req.IsPublished, post.ScheduledAt, s.clock.now())
	} else if req.IsPublished != nil {
		post.IsPublished = *req.IsPublished
	}
	if image != nil {
		if post.Image, err = s.saveImage(ctx, actor.UserID, image); err != nil {
			return nil, err
		}
	}

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		return nil, storeError(err, "update post", "Post")
	}
	return s.single(ctx, post, actor)
}

// Delete removes the actor's own post together with its comments and likes.
func (s *PostService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	post, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(actor, post); err != nil {
		return err
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.posts.DeletePost(ctx, post.ID); err != nil {
			return storeError(err, "delete post", "Post")
		}
		if err := s.comments.DeleteCommentsByPostID(ctx, post.ID); err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"post_id": post.ID, "user_id": actor.UserID}).Info("Post deleted.")
	return nil
}
