package services

import (
	"context"
	"fmt"
	"iter"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
)

const (
	LikedDetail   = "You've liked this post."
	UnlikedDetail = "You've removed your like."
)

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Liked      bool   `json:"liked"`
	Detail     string `json:"detail"`
	LikesCount int64  `json:"likes_count"`
}

// EngagementService handles likes and comments on posts.
type EngagementService struct {
	posts    repositories.PostRepository
	comments repositories.CommentRepository
	users    repositories.UserRepository
	authz    Authorizer
	pageSize int
	clock    Clock
}

func NewEngagementService(posts repositories.PostRepository, comments repositories.CommentRepository, users repositories.UserRepository, pageSize int, clock Clock) *EngagementService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &EngagementService{posts: posts, comments: comments, users: users, pageSize: pageSize, clock: clock}
}

func (s *EngagementService) visiblePost(ctx context.Context, actor Actor, postID string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, storeError(err, "get post", "Post")
	}
	if !visibleTo(post, actor) {
		return nil, notFound("Post")
	}
	return post, nil
}

// ToggleLike adds the actor's like when absent and removes it otherwise.
func (s *EngagementService) ToggleLike(ctx context.Context, actor Actor, postID string) (*LikeResult, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	post, err := s.visiblePost(ctx, actor, postID)
	if err != nil {
		return nil, err
	}

	liked, err := s.posts.ToggleLike(ctx, post.ID, actor.UserID)
	if err != nil {
		return nil, storeError(err, "toggle like", "Post")
	}
	stats, err := s.posts.LikeStats(ctx, []string{post.ID}, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("like stats: %w", err)
	}

	res := &LikeResult{Liked: liked, Detail: UnlikedDetail, LikesCount: stats[post.ID].Count}
	if liked {
		res.Detail = LikedDetail
	}
	return res, nil
}

// AddComment posts text under postID as the actor.
func (s *EngagementService) AddComment(ctx context.Context, actor Actor, postID, text string) (*models.CommentView, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if err := checkCommentText(text); err != nil {
		return nil, err
	}
	post, err := s.visiblePost(ctx, actor, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   post.ID,
		OwnerID:  actor.UserID,
		Text:     text,
		PostedAt: s.clock.now(),
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return s.view(ctx, comment)
}

func checkCommentText(text string) error {
	if text == "" || len([]rune(text)) > 500 {
		return validationError("text must be between 1 and 500 characters.")
	}
	return nil
}

// ListComments yields every comment of postID, newest first, fetching one
// page at a time as the caller iterates. Each iteration starts over.
func (s *EngagementService) ListComments(ctx context.Context, postID string) iter.Seq2[models.Comment, error] {
	return func(yield func(models.Comment, error) bool) {
		for page := 1; ; page++ {
			batch, _, err := s.comments.GetCommentsByPostID(ctx, postID, models.PageRequest{Page: page, Limit: s.pageSize})
			if err != nil {
				yield(models.Comment{}, fmt.Errorf("list comments: %w", err))
				return
			}
			for _, c := range batch {
				if !yield(c, nil) {
					return
				}
			}
			if len(batch) < s.pageSize {
				return
			}
		}
	}
}

// CommentsPage returns one page of comments under a visible post.
func (s *EngagementService) CommentsPage(ctx context.Context, actor Actor, postID string, page models.PageRequest) (models.Page[models.CommentView], error) {
	if _, err := s.visiblePost(ctx, actor, postID); err != nil {
		return models.Page[models.CommentView]{}, err
	}
	comments, total, err := s.comments.GetCommentsByPostID(ctx, postID, page)
	if err != nil {
		return models.Page[models.CommentView]{}, fmt.Errorf("list comments: %w", err)
	}
	views, err := s.views(ctx, comments)
	if err != nil {
		return models.Page[models.CommentView]{}, err
	}
	return models.Page[models.CommentView]{Items: views, Total: total, PageRequest: page}, nil
}

func (s *EngagementService) latestComments(ctx context.Context, postID string) ([]models.CommentView, error) {
	comments, _, err := s.comments.GetCommentsByPostID(ctx, postID, models.PageRequest{Page: 1, Limit: s.pageSize})
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return s.views(ctx, comments)
}

func (s *EngagementService) load(ctx context.Context, actor Actor, postID string, id uint) (*models.Comment, error) {
	if _, err := s.visiblePost(ctx, actor, postID); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetCommentByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "get comment", "Comment")
	}
	if comment.PostID != postID {
		return nil, notFound("Comment")
	}
	return comment, nil
}

func (s *EngagementService) GetComment(ctx context.Context, actor Actor, postID string, id uint) (*models.CommentView, error) {
	comment, err := s.load(ctx, actor, postID, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, comment)
}

// UpdateComment replaces the text of the actor's own comment.
func (s *EngagementService) UpdateComment(ctx context.Context, actor Actor, postID string, id uint, text string) (*models.CommentView, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	comment, err := s.load(ctx, actor, postID, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(actor, comment); err != nil {
		return nil, err
	}
	if err := checkCommentText(text); err != nil {
		return nil, err
	}
	comment.Text = text
	if err := s.comments.UpdateComment(ctx, comment); err != nil {
		return nil, storeError(err, "update comment", "Comment")
	}
	return s.view(ctx, comment)
}

func (s *EngagementService) DeleteComment(ctx context.Context, actor Actor, postID string, id uint) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	comment, err := s.load(ctx, actor, postID, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(actor, comment); err != nil {
		return err
	}
	return storeError(s.comments.DeleteComment(ctx, comment.ID), "delete comment", "Comment")
}

func (s *EngagementService) view(ctx context.Context, comment *models.Comment) (*models.CommentView, error) {
	views, err := s.views(ctx, []models.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *EngagementService) views(ctx context.Context, comments []models.Comment) ([]models.CommentView, error) {
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.OwnerID)
	}
	authors, err := authorsByID(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, models.CommentView{Comment: c, Author: authors[c.OwnerID]})
	}
	return views, nil
}
