package db

import (
	"context"

	"gorm.io/gorm"

	"github.com/moltbook/api/internal/models"
	"github.com/moltbook/api/pkg/telemetry"
)

// CommentRepository provides comment database operations
type CommentRepository struct {
	*Repository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(repo *Repository) *CommentRepository {
	return &CommentRepository{Repository: repo}
}

// Create inserts a comment and increments the post's comment count in one
// transaction. Replies to a reply attach to that reply's top-level comment,
// so threads stay one level deep.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	ctx, span := telemetry.StartSpan(ctx, "db.CommentRepository.Create")
	defer span.End()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		if comment.ParentID != nil {
			var parent models.Comment
			if err := tx.Select("id", "post_id", "parent_id").
				Where("id = ?", *comment.ParentID).
				First(&parent).Error; err != nil {
				if translate(err) == ErrNotFound {
					return ErrInvalidParent
				}
				return err
			}
			if parent.PostID != comment.PostID {
				return ErrInvalidParent
			}
			if parent.ParentID != nil {
				comment.ParentID = parent.ParentID
			}
		}

		if err := tx.Create(comment).Error; err != nil {
			return translate(err)
		}

		return tx.Preload("Author").Where("id = ?", comment.ID).First(comment).Error
	})
}
