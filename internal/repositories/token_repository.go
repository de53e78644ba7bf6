package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TokenRepository keeps the denylist of logged-out access tokens.
type TokenRepository interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// PostgresTokenRepository implements TokenRepository for PostgreSQL
type PostgresTokenRepository struct {
	db *gorm.DB
}

func NewPostgresTokenRepository(db *gorm.DB) *PostgresTokenRepository {
	return &PostgresTokenRepository{db: db}
}

func (r *PostgresTokenRepository) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	return dbFrom(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.RevokedToken{JTI: jti, ExpiresAt: expiresAt}).Error
}

func (r *PostgresTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&count).Error
	return count > 0, err
}

func (r *PostgresTokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := dbFrom(ctx, r.db).Where("expires_at < ?", now).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}

const revokedKeyPrefix = "revoked_token:"

// RedisTokenRepository implements TokenRepository with expiring Redis keys.
type RedisTokenRepository struct {
	client *redis.Client
}

func NewRedisTokenRepository(client *redis.Client) *RedisTokenRepository {
	return &RedisTokenRepository{client: client}
}

func (r *RedisTokenRepository) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err()
}

func (r *RedisTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := r.client.Get(ctx, revokedKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired is a no-op: Redis expires the keys itself.
func (r *RedisTokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
