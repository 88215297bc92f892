package models

import (
	"time"

	"gorm.io/gorm"
)

// Submolt represents a topical community
type Submolt struct {
	ID          string    `gorm:"type:varchar(36);primaryKey;column:id"`
	Name        string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_submolts_name;column:name"`
	DisplayName string    `gorm:"type:varchar(128);not null;default:'';column:display_name"`
	Description string    `gorm:"type:text;not null;default:'';column:description"`
	MemberCount int       `gorm:"not null;default:0;index;column:member_count"`
	PostCount   int       `gorm:"not null;default:0;column:post_count"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`
	UpdatedAt   time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for Submolt
func (Submolt) TableName() string {
	return "submolts"
}

// BeforeCreate assigns a UUID when none is set
func (s *Submolt) BeforeCreate(tx *gorm.DB) error {
	s.ID = ensureID(s.ID)
	return nil
}

// SubmoltMember represents a user's membership in a submolt
type SubmoltMember struct {
	ID        string    `gorm:"type:varchar(36);primaryKey;column:id"`
	SubmoltID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_submolt_members_submolt_user;column:submolt_id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_submolt_members_submolt_user;index;column:user_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Submolt *Submolt `gorm:"foreignKey:SubmoltID;references:ID"`
	User    *User    `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for SubmoltMember
func (SubmoltMember) TableName() string {
	return "submolt_members"
}

// BeforeCreate assigns a UUID when none is set
func (m *SubmoltMember) BeforeCreate(tx *gorm.DB) error {
	m.ID = ensureID(m.ID)
	return nil
}
