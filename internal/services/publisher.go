package services

import (
	"context"
	"fmt"

	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/sirupsen/logrus"
)

// Publisher runs the periodic maintenance jobs.
type Publisher struct {
	posts  repositories.PostRepository
	tokens *TokenService
	clock  Clock
	log    logrus.FieldLogger
}

func NewPublisher(posts repositories.PostRepository, tokens *TokenService, clock Clock, log logrus.FieldLogger) *Publisher {
	return &Publisher{posts: posts, tokens: tokens, clock: clock, log: log}
}

// PublishScheduled publishes every post whose schedule has passed. Running
// it again without new due posts changes nothing.
func (p *Publisher) PublishScheduled(ctx context.Context) (int64, error) {
	n, err := p.posts.PublishDue(ctx, p.clock.now())
	if err != nil {
		return 0, fmt.Errorf("publish scheduled posts: %w", err)
	}
	if n > 0 {
		p.log.WithField("count", n).Info("Published scheduled posts.")
	}
	return n, nil
}

// PurgeRevokedTokens forgets revocations of tokens that have expired.
func (p *Publisher) PurgeRevokedTokens(ctx context.Context) (int64, error) {
	n, err := p.tokens.PurgeExpired(ctx, p.clock.now())
	if err != nil {
		return 0, fmt.Errorf("purge revoked tokens: %w", err)
	}
	if n > 0 {
		p.log.WithField("count", n).Debug("Purged expired token revocations.")
	}
	return n, nil
}
