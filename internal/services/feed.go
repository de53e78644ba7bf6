package services

import (
	"context"
	"fmt"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
)

// FeedService composes the paginated post listings.
type FeedService struct {
	posts   repositories.PostRepository
	follows repositories.FollowRepository
	users   repositories.UserRepository
}

func NewFeedService(posts repositories.PostRepository, follows repositories.FollowRepository, users repositories.UserRepository) *FeedService {
	return &FeedService{posts: posts, follows: follows, users: users}
}

// Default lists every published post, optionally filtered by text.
func (s *FeedService) Default(ctx context.Context, actor Actor, text string, page models.PageRequest) (models.Page[models.FeedPost], error) {
	return s.list(ctx, actor, models.PostFilter{Text: text, PublishedOnly: true}, page)
}

// Mine lists all of the actor's posts, including unpublished ones.
func (s *FeedService) Mine(ctx context.Context, actor Actor, page models.PageRequest) (models.Page[models.FeedPost], error) {
	if err := requireAuth(actor); err != nil {
		return models.Page[models.FeedPost]{}, err
	}
	return s.list(ctx, actor, models.PostFilter{OwnerIDs: []uint{actor.UserID}}, page)
}

// Following lists published posts of the users the actor follows.
func (s *FeedService) Following(ctx context.Context, actor Actor, page models.PageRequest) (models.Page[models.FeedPost], error) {
	if err := requireAuth(actor); err != nil {
		return models.Page[models.FeedPost]{}, err
	}
	ids, err := s.follows.GetFollowingIDs(ctx, actor.UserID)
	if err != nil {
		return models.Page[models.FeedPost]{}, fmt.Errorf("get following ids: %w", err)
	}
	if len(ids) == 0 {
		return models.Page[models.FeedPost]{Items: []models.FeedPost{}, PageRequest: page}, nil
	}
	return s.list(ctx, actor, models.PostFilter{OwnerIDs: ids, PublishedOnly: true}, page)
}

// Liked lists published posts the actor has liked.
func (s *FeedService) Liked(ctx context.Context, actor Actor, page models.PageRequest) (models.Page[models.FeedPost], error) {
	if err := requireAuth(actor); err != nil {
		return models.Page[models.FeedPost]{}, err
	}
	return s.list(ctx, actor, models.PostFilter{LikedBy: actor.UserID, PublishedOnly: true}, page)
}

func (s *FeedService) list(ctx context.Context, actor Actor, filter models.PostFilter, page models.PageRequest) (models.Page[models.FeedPost], error) {
	posts, total, err := s.posts.ListPosts(ctx, filter, page)
	if err != nil {
		return models.Page[models.FeedPost]{}, fmt.Errorf("list posts: %w", err)
	}
	items, err := enrichPosts(ctx, s.users, s.posts, posts, actor)
	if err != nil {
		return models.Page[models.FeedPost]{}, err
	}
	return models.Page[models.FeedPost]{Items: items, Total: total, PageRequest: page}, nil
}

// enrichPosts attaches the author block and the like fields computed for
// the viewing actor.
func enrichPosts(ctx context.Context, users repositories.UserRepository, postRepo repositories.PostRepository, posts []models.Post, actor Actor) ([]models.FeedPost, error) {
	out := make([]models.FeedPost, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	ownerIDs := make([]uint, 0, len(posts))
	postIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		ownerIDs = append(ownerIDs, p.OwnerID)
		postIDs = append(postIDs, p.ID)
	}

	authors, err := authorsByID(ctx, users, ownerIDs)
	if err != nil {
		return nil, err
	}
	stats, err := postRepo.LikeStats(ctx, postIDs, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("like stats: %w", err)
	}

	for _, p := range posts {
		stat := stats[p.ID]
		p.LikedBy = nil
		out = append(out, models.FeedPost{
			Post:       p,
			Author:     authors[p.OwnerID],
			LikesCount: stat.Count,
			LikedByMe:  stat.LikedByMe,
		})
	}
	return out, nil
}

func authorsByID(ctx context.Context, users repositories.UserRepository, ids []uint) (map[uint]models.UserCompact, error) {
	authors := make(map[uint]models.UserCompact, len(ids))
	if len(ids) == 0 {
		return authors, nil
	}
	found, err := users.GetUsersByIDs(ctx, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("get authors: %w", err)
	}
	for i := range found {
		authors[found[i].ID] = found[i].ToCompact()
	}
	return authors, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
