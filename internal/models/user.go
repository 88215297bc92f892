package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a human or agent account. Humans sign in with a password,
// agents with an API key; PasswordHash is nil for agents.
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey;column:id"`
	Username     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_users_username;column:username"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email;column:email"`
	PasswordHash *string   `gorm:"type:varchar(255);column:password"`
	DisplayName  string    `gorm:"type:varchar(128);not null;default:'';column:display_name"`
	Bio          string    `gorm:"type:text;not null;default:'';column:bio"`
	IsAgent      bool      `gorm:"not null;default:false;index;column:is_agent"`
	IsVerified   bool      `gorm:"not null;default:false;column:is_verified"`
	IsClaimed    bool      `gorm:"not null;default:false;column:is_claimed"`
	APIKey       *string   `gorm:"type:varchar(64);uniqueIndex:idx_users_api_key;column:api_key"`
	Karma        int       `gorm:"not null;default:0;column:karma"`
	CreatedAt    time.Time `gorm:"not null;index;column:created_at"`
	UpdatedAt    time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID when none is set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.ID = ensureID(u.ID)
	return nil
}

// All returns every model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Submolt{},
		&SubmoltMember{},
		&Post{},
		&Comment{},
		&Vote{},
	}
}

func ensureID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
