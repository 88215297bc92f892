package db

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/moltbook/api/internal/models"
	"github.com/moltbook/api/pkg/telemetry"
)

// Vote outcomes
const (
	VoteCreated   = "created"
	VoteChanged   = "changed"
	VoteRetracted = "retracted"
)

// VoteResult is the state of a post after a vote
type VoteResult struct {
	Score    int
	UserVote *string // nil when the vote was retracted
	Outcome  string
}

// voteChange is the effect of a vote on a post's counters
type voteChange struct {
	score   int
	up      int
	down    int
	outcome string
}

// computeVoteChange works out how a vote of type requested changes a post,
// given the user's existing vote type (empty if none)
func computeVoteChange(existing, requested string) voteChange {
	sign := 1
	if requested == models.VoteDown {
		sign = -1
	}

	switch existing {
	case "":
		c := voteChange{score: sign, outcome: VoteCreated}
		if requested == models.VoteUp {
			c.up = 1
		} else {
			c.down = 1
		}
		return c
	case requested:
		c := voteChange{score: -sign, outcome: VoteRetracted}
		if requested == models.VoteUp {
			c.up = -1
		} else {
			c.down = -1
		}
		return c
	default:
		c := voteChange{score: 2 * sign, outcome: VoteChanged}
		if requested == models.VoteUp {
			c.up, c.down = 1, -1
		} else {
			c.up, c.down = -1, 1
		}
		return c
	}
}

// VoteRepository provides vote database operations
type VoteRepository struct {
	*Repository
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(repo *Repository) *VoteRepository {
	return &VoteRepository{Repository: repo}
}

// Cast applies a user's vote on a post. Voting the same type twice retracts
// the vote; voting the opposite type flips it. The vote row, the post's
// counters and the author's karma change in one transaction.
func (r *VoteRepository) Cast(ctx context.Context, userID, postID, voteType string) (*VoteResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "db.VoteRepository.Cast")
	defer span.End()
	span.SetAttributes(attribute.String("post.id", postID), attribute.String("vote.type", voteType))

	result := &VoteResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "author_id").Where("id = ?", postID).First(&post).Error; err != nil {
			return translate(err)
		}

		var existing models.Vote
		found := true
		if err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			found = false
		}

		existingType := ""
		if found {
			existingType = existing.Type
		}
		change := computeVoteChange(existingType, voteType)

		switch change.outcome {
		case VoteCreated:
			if err := tx.Create(&models.Vote{UserID: userID, PostID: postID, Type: voteType}).Error; err != nil {
				return translate(err)
			}
		case VoteRetracted:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case VoteChanged:
			if err := tx.Model(&existing).Update("type", voteType).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).UpdateColumns(map[string]interface{}{
			"score":     gorm.Expr("score + ?", change.score),
			"upvotes":   gorm.Expr("upvotes + ?", change.up),
			"downvotes": gorm.Expr("downvotes + ?", change.down),
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", post.AuthorID).
			UpdateColumn("karma", gorm.Expr("karma + ?", change.score)).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Post{}).Select("score").Where("id = ?", postID).Scan(&result.Score).Error; err != nil {
			return err
		}

		result.Outcome = change.outcome
		if change.outcome != VoteRetracted {
			v := voteType
			result.UserVote = &v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetUserVote returns the user's vote type on a post, or "" when none
func (r *VoteRepository) GetUserVote(ctx context.Context, userID, postID string) (string, error) {
	var vote models.Vote
	if err := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).First(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return vote.Type, nil
}
