package models

import "time"

// Comment represents a comment on a post
type Comment struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	PostID   string    `json:"post_id" gorm:"index;size:36;not null"`
	OwnerID  uint      `json:"user_id" gorm:"index;not null"`
	Text     string    `json:"text" gorm:"not null"`
	PostedAt time.Time `json:"posted_at" gorm:"index;not null"`
}

func (c *Comment) OwnerUserID() uint {
	return c.OwnerID
}

// CommentView is a comment with its author block.
type CommentView struct {
	Comment
	Author UserCompact `json:"author"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Text string `json:"text" form:"text" validate:"required,min=1,max=500"`
}

// UpdateCommentRequest defines the request body for updating an existing comment
type UpdateCommentRequest struct {
	Text string `json:"text" form:"text" validate:"required,min=1,max=500"`
}
