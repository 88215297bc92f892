package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/moltbook/api/internal/models"
	"github.com/moltbook/api/pkg/telemetry"
)

// Feed sort orders
const (
	SortHot    = "hot"
	SortNew    = "new"
	SortTop    = "top"
	SortRising = "rising"
)

// FeedQuery selects a page of the post feed
type FeedQuery struct {
	Sort    string
	Submolt string // submolt name, empty for all
	Limit   int
	Offset  int
}

// NormalizeSort maps unknown or empty sort values to hot
func NormalizeSort(sort string) string {
	switch sort {
	case SortNew, SortTop, SortRising, SortHot:
		return sort
	default:
		return SortHot
	}
}

// applySort orders a post query for the given sort
func applySort(q *gorm.DB, sort string) *gorm.DB {
	switch NormalizeSort(sort) {
	case SortNew:
		return q.Order("posts.created_at DESC")
	case SortTop:
		return q.Order("posts.score DESC")
	default:
		// hot and rising share ordering; neither decays with age
		return q.Order("posts.score DESC").Order("posts.created_at DESC")
	}
}

// PostRepository provides post database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

func (r *PostRepository) filtered(ctx context.Context, submolt string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if submolt != "" {
		q = q.Where("posts.submolt_id IN (?)",
			r.db.Model(&models.Submolt{}).Select("id").Where("name = ?", submolt))
	}
	return q
}

// List returns a feed page and the total number of posts under the same filter
func (r *PostRepository) List(ctx context.Context, fq FeedQuery) ([]models.Post, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "db.PostRepository.List")
	defer span.End()

	var total int64
	if err := r.filtered(ctx, fq.Submolt).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	q := applySort(r.filtered(ctx, fq.Submolt), fq.Sort).
		Preload("Author").
		Preload("Submolt").
		Limit(fq.Limit).
		Offset(fq.Offset)
	if err := q.Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// GetDetail retrieves a post with top-level comments by score, each with
// their replies oldest first
func (r *PostRepository) GetDetail(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Submolt").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Where("parent_id IS NULL").Order("score DESC").Order("created_at ASC")
		}).
		Preload("Comments.Author").
		Preload("Comments.Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Comments.Replies.Author").
		Where("id = ?", id).
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Create inserts a post and increments its submolt's post count in one
// transaction. Returns ErrNotFound when the submolt does not exist.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	ctx, span := telemetry.StartSpan(ctx, "db.PostRepository.Create")
	defer span.End()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Submolt{}).
			Where("id = ?", post.SubmoltID).
			UpdateColumn("post_count", gorm.Expr("post_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if err := tx.Create(post).Error; err != nil {
			return translate(err)
		}

		return tx.Preload("Author").Preload("Submolt").Where("id = ?", post.ID).First(post).Error
	})
}

// ListByAuthor returns a user's most recent posts with their submolt
func (r *PostRepository) ListByAuthor(ctx context.Context, authorID string, limit int) ([]models.Post, error) {
	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Preload("Submolt").
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}
