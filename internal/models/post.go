package models

import (
	"time"
)

// Post is stored either in PostgreSQL (gorm) or in MongoDB depending on
// POST_STORE. LikedBy is only materialised on the MongoDB document; the
// relational store keeps likes in post_likes.
type Post struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36" bson:"_id"`
	Text        string     `json:"text" gorm:"size:255;not null" bson:"text"`
	Image       string     `json:"image,omitempty" bson:"image,omitempty"`
	OwnerID     uint       `json:"user_id" gorm:"index;not null" bson:"owner_id"`
	PostedAt    time.Time  `json:"posted_at" gorm:"index;not null" bson:"posted_at"`
	IsPublished bool       `json:"is_published" gorm:"index" bson:"is_published"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" gorm:"index" bson:"scheduled_at,omitempty"`
	LikedBy     []uint     `json:"-" gorm:"-" bson:"liked_by,omitempty"`
}

func (p *Post) OwnerUserID() uint {
	return p.OwnerID
}

// PostLike is one row of the post/user likes relation.
type PostLike struct {
	PostID    string    `gorm:"primaryKey;size:36"`
	UserID    uint      `gorm:"primaryKey;index"`
	CreatedAt time.Time
}

func (PostLike) TableName() string {
	return "post_likes"
}

// LikeStat holds the read-time derived like fields of a post.
type LikeStat struct {
	Count     int64
	LikedByMe bool
}

// PostFilter narrows a post listing. Zero values mean "no restriction".
type PostFilter struct {
	Text          string
	OwnerIDs      []uint
	LikedBy       uint
	PublishedOnly bool
}

type CreatePostRequest struct {
	Text        string     `json:"text" validate:"required,min=1,max=255"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	IsPublished *bool      `json:"is_published,omitempty"`
}

type UpdatePostRequest struct {
	Text        *string    `json:"text,omitempty" validate:"omitempty,min=1,max=255"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	IsPublished *bool      `json:"is_published,omitempty"`
}

// FeedPost is a post enriched with author info and viewer-specific flags.
type FeedPost struct {
	Post
	Author     UserCompact `json:"author"`
	LikesCount int64       `json:"likes_count"`
	LikedByMe  bool        `json:"liked_by_me"`
}

// PostDetail is a single post with the first page of its comments.
type PostDetail struct {
	FeedPost
	Comments []CommentView `json:"comments"`
}
