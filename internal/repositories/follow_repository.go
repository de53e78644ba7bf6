package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/pulse/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository stores the follow graph as a single edge table. Followers
// and following are the two query directions over the same rows, so they can
// never disagree.
type FollowRepository interface {
	CreateFollow(ctx context.Context, followerID, followingID uint) error
	DeleteFollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowers(ctx context.Context, userID uint) ([]models.User, error)
	GetFollowing(ctx context.Context, userID uint) ([]models.User, error)
	GetFollowersCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingCount(ctx context.Context, userID uint) (int64, error)
	GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	DeleteAllForUser(ctx context.Context, userID uint) error
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// CreateFollow inserts the edge follower -> following. It returns
// ErrAlreadyExists when the edge is present, including when a concurrent
// insert wins the unique index.
func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, followerID, followingID uint) error {
	err := dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Follow{}).
			Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}
		return tx.Create(&models.Follow{FollowerID: followerID, FollowingID: followingID}).Error
	})
	if errors.Is(err, ErrAlreadyExists) {
		return err
	}
	return normalize(err)
}

// DeleteFollow removes the edge follower -> following, returning ErrNotFound
// when there is none.
func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, followingID uint) error {
	res := dbFrom(ctx, r.db).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := dbFrom(ctx, r.db).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) GetFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	db := dbFrom(ctx, r.db)
	err := db.Where("id IN (?)",
		db.Table("follows").Select("follower_id").Where("following_id = ?", userID),
	).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	db := dbFrom(ctx, r.db)
	err := db.Where("id IN (?)",
		db.Table("follows").Select("following_id").Where("follower_id = ?", userID),
	).Order("id ASC").Find(&users).Error
	return users, err
}

func (r *PostgresFollowRepository) GetFollowersCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *PostgresFollowRepository) GetFollowingCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *PostgresFollowRepository) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := dbFrom(ctx, r.db).Model(&models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error
	return ids, err
}

// DeleteAllForUser drops every edge touching userID in either direction.
func (r *PostgresFollowRepository) DeleteAllForUser(ctx context.Context, userID uint) error {
	return dbFrom(ctx, r.db).
		Where("follower_id = ? OR following_id = ?", userID, userID).
		Delete(&models.Follow{}).Error
}
