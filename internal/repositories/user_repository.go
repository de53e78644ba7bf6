package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/pulse/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	GetOrCreateUser(ctx context.Context, defaults *models.User) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uint) error
	SearchUsers(ctx context.Context, filter models.UserSearchRequest, page models.PageRequest) ([]models.User, int64, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser creates a new user in PostgreSQL
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return normalize(dbFrom(ctx, r.db).Create(user).Error)
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := dbFrom(ctx, r.db).First(&user, id).Error; err != nil {
		return nil, normalize(err)
	}
	return &user, nil
}

// GetUserByEmail looks a user up by email, ignoring case.
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := dbFrom(ctx, r.db).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, normalize(err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := dbFrom(ctx, r.db).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, normalize(err)
	}
	return &user, nil
}

// GetUserByFirebaseUID retrieves a user by Firebase UID from PostgreSQL
func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := dbFrom(ctx, r.db).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, normalize(err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	err := dbFrom(ctx, r.db).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// GetOrCreateUser returns the user with defaults.Email, creating it from
// defaults when it does not exist yet.
func (r *PostgresUserRepository) GetOrCreateUser(ctx context.Context, defaults *models.User) (*models.User, error) {
	var user models.User
	err := dbFrom(ctx, r.db).
		Where(models.User{Email: defaults.Email}).
		Attrs(*defaults).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, normalize(err)
	}
	return &user, nil
}

// UpdateUser updates an existing user in PostgreSQL
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return normalize(dbFrom(ctx, r.db).Save(user).Error)
}

// DeleteUser deletes a user by ID from PostgreSQL
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id uint) error {
	res := dbFrom(ctx, r.db).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchUsers filters users by case-insensitive substrings of username,
// first name and last name. All given filters must match.
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, filter models.UserSearchRequest, page models.PageRequest) ([]models.User, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Username != "" {
			db = db.Where(`LOWER(username) LIKE ? ESCAPE '\'`, likePattern(strings.ToLower(filter.Username)))
		}
		if filter.FirstName != "" {
			db = db.Where(`LOWER(first_name) LIKE ? ESCAPE '\'`, likePattern(strings.ToLower(filter.FirstName)))
		}
		if filter.LastName != "" {
			db = db.Where(`LOWER(last_name) LIKE ? ESCAPE '\'`, likePattern(strings.ToLower(filter.LastName)))
		}
		return db
	}

	var total int64
	if err := dbFrom(ctx, r.db).Model(&models.User{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := dbFrom(ctx, r.db).Scopes(scope).
		Order("id ASC").
		Offset(page.Offset()).Limit(page.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
