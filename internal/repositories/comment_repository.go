package repositories

import (
	"context"

	"github.com/anonto42/pulse/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id uint) (*models.Comment, error)
	GetCommentsByPostID(ctx context.Context, postID string, page models.PageRequest) ([]models.Comment, int64, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id uint) error
	DeleteCommentsByPostID(ctx context.Context, postID string) error
	ReassignOwner(ctx context.Context, fromID, toID uint) (int64, error)
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

// CreateComment creates a new comment in PostgreSQL
func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return dbFrom(ctx, r.db).Create(comment).Error
}

// GetCommentByID retrieves a comment by ID from PostgreSQL
func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := dbFrom(ctx, r.db).First(&comment, id).Error; err != nil {
		return nil, normalize(err)
	}
	return &comment, nil
}

// GetCommentsByPostID returns one page of a post's comments, newest first.
func (r *PostgresCommentRepository) GetCommentsByPostID(ctx context.Context, postID string, page models.PageRequest) ([]models.Comment, int64, error) {
	var total int64
	if err := dbFrom(ctx, r.db).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err := dbFrom(ctx, r.db).
		Where("post_id = ?", postID).
		Order("posted_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// UpdateComment saves the comment text; the parent post never changes.
func (r *PostgresCommentRepository) UpdateComment(ctx context.Context, comment *models.Comment) error {
	res := dbFrom(ctx, r.db).Model(&models.Comment{}).
		Where("id = ?", comment.ID).
		Update("text", comment.Text)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteComment deletes a comment by ID from PostgreSQL
func (r *PostgresCommentRepository) DeleteComment(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresCommentRepository) DeleteCommentsByPostID(ctx context.Context, postID string) error {
	return dbFrom(ctx, r.db).Where("post_id = ?", postID).Delete(&models.Comment{}).Error
}

func (r *PostgresCommentRepository) ReassignOwner(ctx context.Context, fromID, toID uint) (int64, error) {
	res := dbFrom(ctx, r.db).Model(&models.Comment{}).
		Where("owner_id = ?", fromID).
		Update("owner_id", toID)
	return res.RowsAffected, res.Error
}
