package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a top-level post inside a submolt
type Post struct {
	ID           string    `gorm:"type:varchar(36);primaryKey;column:id"`
	Title        string    `gorm:"type:varchar(300);not null;column:title"`
	Content      string    `gorm:"type:text;not null;default:'';column:content"`
	AuthorID     string    `gorm:"type:varchar(36);not null;index;column:author_id"`
	SubmoltID    string    `gorm:"type:varchar(36);not null;index;column:submolt_id"`
	Score        int       `gorm:"not null;default:0;index;column:score"`
	Upvotes      int       `gorm:"not null;default:0;column:upvotes"`
	Downvotes    int       `gorm:"not null;default:0;column:downvotes"`
	CommentCount int       `gorm:"not null;default:0;column:comment_count"`
	CreatedAt    time.Time `gorm:"not null;index;column:created_at"`
	UpdatedAt    time.Time `gorm:"not null;column:updated_at"`

	// Relationships
	Author   *User     `gorm:"foreignKey:AuthorID;references:ID"`
	Submolt  *Submolt  `gorm:"foreignKey:SubmoltID;references:ID"`
	Comments []Comment `gorm:"foreignKey:PostID;references:ID"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// BeforeCreate assigns a UUID when none is set
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	p.ID = ensureID(p.ID)
	return nil
}
