package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations. It is
// implemented over PostgreSQL and MongoDB.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, filter models.PostFilter, page models.PageRequest) ([]models.Post, int64, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id string) error

	// ToggleLike flips the membership of userID in the post's likes in one
	// atomic step and reports whether the user now likes the post.
	ToggleLike(ctx context.Context, postID string, userID uint) (bool, error)
	LikeStats(ctx context.Context, postIDs []string, viewerID uint) (map[string]models.LikeStat, error)
	RemoveLikesBy(ctx context.Context, userID uint) error

	// PublishDue marks every unpublished post whose schedule has passed as
	// published in a single batch update.
	PublishDue(ctx context.Context, now time.Time) (int64, error)
	ReassignOwner(ctx context.Context, fromID, toID uint) (int64, error)
}

// PostgresPostRepository implements PostRepository with gorm.
type PostgresPostRepository struct {
	db *gorm.DB
}

func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	return normalize(dbFrom(ctx, r.db).Create(post).Error)
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, normalize(err)
	}
	return &post, nil
}

func postScope(filter models.PostFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Text != "" {
			db = db.Where(`LOWER(text) LIKE ? ESCAPE '\'`, likePattern(strings.ToLower(filter.Text)))
		}
		if len(filter.OwnerIDs) > 0 {
			db = db.Where("owner_id IN ?", filter.OwnerIDs)
		}
		if filter.LikedBy != 0 {
			db = db.Where("id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).Model(&models.PostLike{}).Select("post_id").Where("user_id = ?", filter.LikedBy),
			)
		}
		if filter.PublishedOnly {
			db = db.Where("is_published = ?", true)
		}
		return db
	}
}

// ListPosts returns one page of posts matching filter, newest first.
func (r *PostgresPostRepository) ListPosts(ctx context.Context, filter models.PostFilter, page models.PageRequest) ([]models.Post, int64, error) {
	var total int64
	if err := dbFrom(ctx, r.db).Model(&models.Post{}).Scopes(postScope(filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := dbFrom(ctx, r.db).Scopes(postScope(filter)).
		Order("posted_at DESC").Order("id DESC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UpdatePost writes the mutable fields of post. posted_at and the owner are
// never changed here.
func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	res := dbFrom(ctx, r.db).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Select("text", "image", "is_published", "scheduled_at").
		Updates(post)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes the post together with its likes.
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id string) error {
	return dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ToggleLike removes the like if present, otherwise inserts it. The insert
// ignores a conflicting row so two racing toggles can never store the same
// like twice.
func (r *PostgresPostRepository) ToggleLike(ctx context.Context, postID string, userID uint) (bool, error) {
	var liked bool
	err := dbFrom(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}

		like := &models.PostLike{PostID: postID, UserID: userID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error; err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

// LikeStats computes like counts for postIDs and whether viewerID liked each
// of them. viewerID 0 means anonymous.
func (r *PostgresPostRepository) LikeStats(ctx context.Context, postIDs []string, viewerID uint) (map[string]models.LikeStat, error) {
	stats := make(map[string]models.LikeStat, len(postIDs))
	if len(postIDs) == 0 {
		return stats, nil
	}

	var counts []struct {
		PostID string
		Total  int64
	}
	err := dbFrom(ctx, r.db).Model(&models.PostLike{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		stats[c.PostID] = models.LikeStat{Count: c.Total}
	}

	if viewerID != 0 {
		var liked []string
		err := dbFrom(ctx, r.db).Model(&models.PostLike{}).
			Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
			Pluck("post_id", &liked).Error
		if err != nil {
			return nil, err
		}
		for _, id := range liked {
			s := stats[id]
			s.LikedByMe = true
			stats[id] = s
		}
	}
	return stats, nil
}

func (r *PostgresPostRepository) RemoveLikesBy(ctx context.Context, userID uint) error {
	return dbFrom(ctx, r.db).Where("user_id = ?", userID).Delete(&models.PostLike{}).Error
}

func (r *PostgresPostRepository) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	res := dbFrom(ctx, r.db).Model(&models.Post{}).
		Where("is_published = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", false, now).
		Update("is_published", true)
	return res.RowsAffected, res.Error
}

func (r *PostgresPostRepository) ReassignOwner(ctx context.Context, fromID, toID uint) (int64, error) {
	res := dbFrom(ctx, r.db).Model(&models.Post{}).
		Where("owner_id = ?", fromID).
		Update("owner_id", toID)
	return res.RowsAffected, res.Error
}
