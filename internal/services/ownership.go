package services

import (
	"context"
	"fmt"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

const (
	SentinelEmail    = "deleted@deleted.com"
	SentinelUsername = "deleted"
)

// OwnerReassigner moves everything a user owns to another owner before the
// user is deleted.
type OwnerReassigner interface {
	ReassignOwned(ctx context.Context, fromUserID uint) error
}

// SentinelReassigner hands posts and comments of deleted users to the
// placeholder "deleted" account.
type SentinelReassigner struct {
	sentinelID uint
	posts      repositories.PostRepository
	comments   repositories.CommentRepository
	log        logrus.FieldLogger
}

// NewSentinelReassigner looks up the sentinel account, creating it on first
// start.
func NewSentinelReassigner(ctx context.Context, users repositories.UserRepository, posts repositories.PostRepository, comments repositories.CommentRepository, log logrus.FieldLogger) (*SentinelReassigner, error) {
	sentinel, err := users.GetOrCreateUser(ctx, &models.User{
		Email:    SentinelEmail,
		Username: SentinelUsername,
		IsActive: false,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve sentinel user: %w", err)
	}
	log.WithField("user_id", sentinel.ID).Info("Sentinel user resolved.")
	return &SentinelReassigner{sentinelID: sentinel.ID, posts: posts, comments: comments, log: log}, nil
}

func (r *SentinelReassigner) SentinelID() uint {
	return r.sentinelID
}

func (r *SentinelReassigner) ReassignOwned(ctx context.Context, fromUserID uint) error {
	if fromUserID == r.sentinelID {
		return &Error{Kind: KindValidation, Detail: "The placeholder account cannot be deleted."}
	}
	posts, err := r.posts.ReassignOwner(ctx, fromUserID, r.sentinelID)
	if err != nil {
		return fmt.Errorf("reassign posts: %w", err)
	}
	comments, err := r.comments.ReassignOwner(ctx, fromUserID, r.sentinelID)
	if err != nil {
		return fmt.Errorf("reassign comments: %w", err)
	}
	r.log.WithFields(logrus.Fields{
		"user_id":  fromUserID,
		"posts":    posts,
		"comments": comments,
	}).Info("Reassigned content of deleted user.")
	return nil
}
