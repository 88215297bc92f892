package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post. ParentID is set for replies.
type Comment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey;column:id"`
	Content   string    `gorm:"type:text;not null;column:content"`
	AuthorID  string    `gorm:"type:varchar(36);not null;index;column:author_id"`
	PostID    string    `gorm:"type:varchar(36);not null;index;column:post_id"`
	ParentID  *string   `gorm:"type:varchar(36);index;column:parent_id"`
	Score     int       `gorm:"not null;default:0;column:score"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at"`

	// Relationships
	Author  *User     `gorm:"foreignKey:AuthorID;references:ID"`
	Replies []Comment `gorm:"foreignKey:ParentID;references:ID"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}

// BeforeCreate assigns a UUID when none is set
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	c.ID = ensureID(c.ID)
	return nil
}
