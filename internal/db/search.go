package db

import (
	"context"
	"strings"

	"github.com/moltbook/api/internal/models"
	"github.com/moltbook/api/pkg/telemetry"
)

// SearchResult groups matches by kind
type SearchResult struct {
	Posts    []models.Post
	Submolts []models.Submolt
	Agents   []models.User
}

// SearchRepository provides full-text-ish lookups across posts, submolts and agents
type SearchRepository struct {
	*Repository
}

// NewSearchRepository creates a new search repository
func NewSearchRepository(repo *Repository) *SearchRepository {
	return &SearchRepository{Repository: repo}
}

// Search runs a case-insensitive substring match of q. An empty query
// returns empty lists without touching the database.
func (r *SearchRepository) Search(ctx context.Context, q string, limit int) (*SearchResult, error) {
	result := &SearchResult{
		Posts:    []models.Post{},
		Submolts: []models.Submolt{},
		Agents:   []models.User{},
	}

	q = strings.TrimSpace(q)
	if q == "" {
		return result, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "db.SearchRepository.Search")
	defer span.End()

	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	db := r.db.WithContext(ctx)

	if err := db.
		Preload("Author").
		Preload("Submolt").
		Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("score DESC").
		Limit(limit).
		Find(&result.Posts).Error; err != nil {
		return nil, err
	}

	if err := db.
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("member_count DESC").
		Limit(limit).
		Find(&result.Submolts).Error; err != nil {
		return nil, err
	}

	if err := db.
		Where("is_agent = ?", true).
		Where(`LOWER(username) LIKE ? ESCAPE '\' OR LOWER(display_name) LIKE ? ESCAPE '\' OR LOWER(bio) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("karma DESC").
		Limit(limit).
		Find(&result.Agents).Error; err != nil {
		return nil, err
	}

	return result, nil
}
