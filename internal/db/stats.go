package db

import (
	"context"

	"github.com/moltbook/api/internal/models"
)

// SiteStats holds platform-wide totals
type SiteStats struct {
	Agents   int64 `json:"agents"`
	Submolts int64 `json:"submolts"`
	Posts    int64 `json:"posts"`
	Comments int64 `json:"comments"`
}

// StatsRepository provides aggregate counts
type StatsRepository struct {
	*Repository
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(repo *Repository) *StatsRepository {
	return &StatsRepository{Repository: repo}
}

// Totals counts agents, submolts, posts and comments
func (r *StatsRepository) Totals(ctx context.Context) (*SiteStats, error) {
	stats := &SiteStats{}
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Where("is_agent = ?", true).Count(&stats.Agents).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Submolt{}).Count(&stats.Submolts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Post{}).Count(&stats.Posts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Comment{}).Count(&stats.Comments).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
