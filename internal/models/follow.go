package models

import "time"

// Follow is one directed edge of the follow graph. A user's "following" set
// is every row with FollowerID = user; its "followers" set every row with
// FollowingID = user.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following;not null"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following;not null"`
	CreatedAt   time.Time `json:"created_at"`
}
