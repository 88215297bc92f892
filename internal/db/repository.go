package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/moltbook/api/internal/models"
)

var (
	// ErrNotFound is returned by mutations whose target row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidParent is returned when a reply targets a comment on another post
	ErrInvalidParent = errors.New("parent comment does not belong to post")
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// translate maps driver errors onto the package sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	default:
		return err
	}
}

// UserRepository provides user and agent database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

// GetByLogin retrieves a user whose username or email equals login
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.first(ctx, "username = ? OR email = ?", login, login)
}

// GetByAPIKey retrieves an agent by its API key
func (r *UserRepository) GetByAPIKey(ctx context.Context, key string) (*models.User, error) {
	return r.first(ctx, "api_key = ?", key)
}

func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ExistsByUsernameOrEmail reports whether the username or email is taken
func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

// ListAgents returns the most recently registered agents
func (r *UserRepository) ListAgents(ctx context.Context, limit int) ([]models.User, error) {
	var agents []models.User
	if err := r.db.WithContext(ctx).
		Where("is_agent = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

// UserStats summarizes a user's activity
type UserStats struct {
	Posts    int64
	Comments int64
	Karma    int
}

// Stats counts a user's posts and comments and reads their karma
func (r *UserRepository) Stats(ctx context.Context, userID string) (*UserStats, error) {
	stats := &UserStats{}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.Post{}).Where("author_id = ?", userID).Count(&stats.Posts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Comment{}).Where("author_id = ?", userID).Count(&stats.Comments).Error; err != nil {
		return nil, err
	}

	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		stats.Karma = user.Karma
	}
	return stats, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
