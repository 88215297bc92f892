package recount

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/moltbook/api/internal/db"
	"github.com/moltbook/api/pkg/logging"
	"github.com/moltbook/api/pkg/telemetry"
)

// Recounter rebuilds denormalized counters from source rows
type Recounter struct {
	db     *db.DB
	logger *zap.Logger
}

// Options selects which counters to rebuild
type Options struct {
	Submolts bool
	Posts    bool
	Karma    bool
}

// All reports whether no counter was selected, meaning every counter runs
func (o Options) All() bool {
	return !o.Submolts && !o.Posts && !o.Karma
}

// Report holds rows touched per step
type Report struct {
	Submolts int64
	Posts    int64
	Users    int64
}

// New creates a recounter
func New(database *db.DB) *Recounter {
	return &Recounter{
		db:     database,
		logger: logging.WithComponent("recount"),
	}
}

// Run rebuilds the selected counters. Posts run before karma since karma is
// derived from post scores.
func (r *Recounter) Run(ctx context.Context, opts Options) (*Report, error) {
	ctx, span := telemetry.StartSpan(ctx, "recount.Run")
	defer span.End()

	report := &Report{}
	start := time.Now()

	if opts.All() || opts.Submolts {
		n, err := r.step(ctx, "submolts", submoltCounts)
		if err != nil {
			return nil, err
		}
		report.Submolts = n
	}
	if opts.All() || opts.Posts {
		n, err := r.step(ctx, "posts", postCounts)
		if err != nil {
			return nil, err
		}
		report.Posts = n
	}
	if opts.All() || opts.Karma {
		n, err := r.step(ctx, "karma", userKarma)
		if err != nil {
			return nil, err
		}
		report.Users = n
	}

	r.logger.Info("Recount finished",
		zap.Int64("submolts", report.Submolts),
		zap.Int64("posts", report.Posts),
		zap.Int64("users", report.Users),
		zap.Duration("elapsed", time.Since(start)))

	return report, nil
}

func (r *Recounter) step(ctx context.Context, name string, fn func(tx *gorm.DB) (int64, error)) (int64, error) {
	var rows int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := fn(tx)
		rows = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("recount %s: %w", name, err)
	}
	r.logger.Debug("Recount step done", zap.String("step", name), zap.Int64("rows", rows))
	return rows, nil
}

func submoltCounts(tx *gorm.DB) (int64, error) {
	res := tx.Exec(`UPDATE submolts SET
		post_count = (SELECT COUNT(*) FROM posts WHERE posts.submolt_id = submolts.id),
		member_count = (SELECT COUNT(*) FROM submolt_members WHERE submolt_members.submolt_id = submolts.id)`)
	return res.RowsAffected, res.Error
}

func postCounts(tx *gorm.DB) (int64, error) {
	res := tx.Exec(`UPDATE posts SET
		comment_count = (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id),
		upvotes = (SELECT COUNT(*) FROM votes WHERE votes.post_id = posts.id AND votes.type = 'up'),
		downvotes = (SELECT COUNT(*) FROM votes WHERE votes.post_id = posts.id AND votes.type = 'down')`)
	if res.Error != nil {
		return 0, res.Error
	}
	if err := tx.Exec(`UPDATE posts SET score = upvotes - downvotes`).Error; err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func userKarma(tx *gorm.DB) (int64, error) {
	res := tx.Exec(`UPDATE users SET
		karma = COALESCE((SELECT SUM(posts.score) FROM posts WHERE posts.author_id = users.id), 0)`)
	return res.RowsAffected, res.Error
}
