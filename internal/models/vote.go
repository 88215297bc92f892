package models

import (
	"time"

	"gorm.io/gorm"
)

// Vote types
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Vote is a user's single up or down vote on a post. The (user_id, post_id)
// pair is unique.
type Vote struct {
	ID        string    `gorm:"type:varchar(36);primaryKey;column:id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_votes_user_post;column:user_id"`
	PostID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_votes_user_post;index;column:post_id"`
	Type      string    `gorm:"type:varchar(8);not null;column:type"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for Vote
func (Vote) TableName() string {
	return "votes"
}

// BeforeCreate assigns a UUID when none is set
func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	v.ID = ensureID(v.ID)
	return nil
}

// IsValidVoteType reports whether t is "up" or "down"
func IsValidVoteType(t string) bool {
	return t == VoteUp || t == VoteDown
}
