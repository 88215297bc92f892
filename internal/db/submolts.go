package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moltbook/api/internal/models"
)

// SubmoltRepository provides submolt database operations
type SubmoltRepository struct {
	*Repository
}

// NewSubmoltRepository creates a new submolt repository
func NewSubmoltRepository(repo *Repository) *SubmoltRepository {
	return &SubmoltRepository{Repository: repo}
}

// List returns the largest submolts by member count
func (r *SubmoltRepository) List(ctx context.Context, limit int) ([]models.Submolt, error) {
	var submolts []models.Submolt
	if err := r.db.WithContext(ctx).
		Order("member_count DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&submolts).Error; err != nil {
		return nil, err
	}
	return submolts, nil
}

// GetByName retrieves a submolt by its slug
func (r *SubmoltRepository) GetByName(ctx context.Context, name string) (*models.Submolt, error) {
	var submolt models.Submolt
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&submolt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &submolt, nil
}

// Create creates a new submolt
func (r *SubmoltRepository) Create(ctx context.Context, submolt *models.Submolt) error {
	return translate(r.db.WithContext(ctx).Create(submolt).Error)
}

// Join adds userID to the submolt. Joining twice is a no-op. Returns the
// submolt with its updated member count.
func (r *SubmoltRepository) Join(ctx context.Context, name, userID string) (*models.Submolt, error) {
	var submolt models.Submolt
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("name = ?", name).First(&submolt).Error; err != nil {
			return translate(err)
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.SubmoltMember{
			SubmoltID: submolt.ID,
			UserID:    userID,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&submolt).UpdateColumn("member_count", gorm.Expr("member_count + ?", 1)).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", submolt.ID).First(&submolt).Error
	})
	if err != nil {
		return nil, err
	}
	return &submolt, nil
}

// Leave removes userID from the submolt. Leaving without membership is a no-op.
func (r *SubmoltRepository) Leave(ctx context.Context, name, userID string) (*models.Submolt, error) {
	var submolt models.Submolt
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("name = ?", name).First(&submolt).Error; err != nil {
			return translate(err)
		}

		res := tx.Where("submolt_id = ? AND user_id = ?", submolt.ID, userID).Delete(&models.SubmoltMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Model(&submolt).UpdateColumn("member_count", gorm.Expr("member_count - ?", 1)).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", submolt.ID).First(&submolt).Error
	})
	if err != nil {
		return nil, err
	}
	return &submolt, nil
}

// IsMember reports whether userID belongs to the submolt
func (r *SubmoltRepository) IsMember(ctx context.Context, submoltID, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SubmoltMember{}).
		Where("submolt_id = ? AND user_id = ?", submoltID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
