package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"uniqueIndex;size:254;not null"`
	Username    string    `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Password    string    `json:"-"` // bcrypt hash
	FirstName   string    `json:"first_name" gorm:"size:150"`
	LastName    string    `json:"last_name" gorm:"size:150"`
	Bio         string    `json:"bio" gorm:"size:255"`
	Image       string    `json:"image"`
	IsStaff     bool      `json:"-"`
	IsSuperuser bool      `json:"-"`
	IsActive    bool      `json:"-"`
	FirebaseUID *string   `json:"-" gorm:"uniqueIndex"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// String is the display form used in follower/following lists.
func (u *User) String() string {
	return u.Email
}

// UserCompact is the author block embedded in posts and comments.
type UserCompact struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Image    string `json:"image,omitempty"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username, Image: u.Image}
}

// UserProfile is the public view of a user including the follow graph.
type UserProfile struct {
	ID        uint     `json:"id"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Bio       string   `json:"bio"`
	Image     string   `json:"image"`
	Followers []string `json:"followers"`
	Following []string `json:"following"`
}

type RegisterRequest struct {
	Email     string `json:"email" form:"email" validate:"required,email,max=254"`
	Password  string `json:"password" form:"password" validate:"required,min=8"`
	Username  string `json:"username" form:"username" validate:"omitempty,max=150"`
	FirstName string `json:"first_name" form:"first_name" validate:"omitempty,max=150"`
	LastName  string `json:"last_name" form:"last_name" validate:"omitempty,max=150"`
	Bio       string `json:"bio" form:"bio" validate:"omitempty,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// UpdateUserRequest carries a partial profile update; nil fields are left
// untouched.
type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8"`
	Username  *string `json:"username,omitempty" validate:"omitempty,min=1,max=150"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	Bio       *string `json:"bio,omitempty" validate:"omitempty,max=255"`
}

type UserSearchRequest struct {
	Username  string `query:"username"`
	FirstName string `query:"first_name"`
	LastName  string `query:"last_name"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
