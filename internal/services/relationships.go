package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
)

// RelationshipService maintains the follow graph. Followers and following
// are the two directions of the same edge set, so they cannot disagree.
type RelationshipService struct {
	users   repositories.UserRepository
	follows repositories.FollowRepository
}

func NewRelationshipService(users repositories.UserRepository, follows repositories.FollowRepository) *RelationshipService {
	return &RelationshipService{users: users, follows: follows}
}

func (s *RelationshipService) checkTarget(ctx context.Context, actor Actor, targetID uint) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	if actor.UserID == targetID {
		return ErrSelfFollow
	}
	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		return storeError(err, "get user", "User")
	}
	return nil
}

// Follow makes actor a follower of targetID.
func (s *RelationshipService) Follow(ctx context.Context, actor Actor, targetID uint) error {
	if err := s.checkTarget(ctx, actor, targetID); err != nil {
		return err
	}
	err := s.follows.CreateFollow(ctx, actor.UserID, targetID)
	if errors.Is(err, repositories.ErrAlreadyExists) {
		return ErrAlreadyFollowing
	}
	if err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	return nil
}

// Unfollow removes the edge from actor to targetID.
func (s *RelationshipService) Unfollow(ctx context.Context, actor Actor, targetID uint) error {
	if err := s.checkTarget(ctx, actor, targetID); err != nil {
		return err
	}
	err := s.follows.DeleteFollow(ctx, actor.UserID, targetID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotFollowing
	}
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

func (s *RelationshipService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	users, err := s.follows.GetFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get followers: %w", err)
	}
	return users, nil
}

func (s *RelationshipService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	users, err := s.follows.GetFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get following: %w", err)
	}
	return users, nil
}

func (s *RelationshipService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.follows.IsFollowing(ctx, followerID, followingID)
}

// FollowingIDs lists the users actor follows, for feed queries.
func (s *RelationshipService) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids, err := s.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get following ids: %w", err)
	}
	return ids, nil
}
