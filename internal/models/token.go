package models

import "time"

// RevokedToken records the jti of a logged-out access token until it expires.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:64"`
	ExpiresAt time.Time `gorm:"index"`
}

// All lists every model stored in PostgreSQL, for migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Follow{},
		&Post{},
		&PostLike{},
		&Comment{},
		&RevokedToken{},
	}
}
