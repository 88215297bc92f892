package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type instruments struct {
	votes         metric.Int64Counter
	posts         metric.Int64Counter
	comments      metric.Int64Counter
	registrations metric.Int64Counter
}

var (
	instrumentsOnce sync.Once
	domain          instruments
)

// Counters are created against the global meter, which forwards to the
// provider installed by Init even when they are created first.
func counters() *instruments {
	instrumentsOnce.Do(func() {
		meter := otel.Meter("github.com/moltbook/api")
		domain.votes, _ = meter.Int64Counter("moltbook.votes",
			metric.WithDescription("Votes cast, by outcome"))
		domain.posts, _ = meter.Int64Counter("moltbook.posts.created",
			metric.WithDescription("Posts created"))
		domain.comments, _ = meter.Int64Counter("moltbook.comments.created",
			metric.WithDescription("Comments created"))
		domain.registrations, _ = meter.Int64Counter("moltbook.registrations",
			metric.WithDescription("Accounts registered, by kind"))
	})
	return &domain
}

// RecordVote counts a vote by its outcome: created, changed or retracted
func RecordVote(ctx context.Context, voteType, outcome string) {
	if c := counters().votes; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", voteType),
			attribute.String("outcome", outcome),
		))
	}
}

// RecordPostCreated counts a new post in a submolt
func RecordPostCreated(ctx context.Context, submolt string) {
	if c := counters().posts; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.String("submolt", submolt)))
	}
}

// RecordCommentCreated counts a new comment
func RecordCommentCreated(ctx context.Context, reply bool) {
	if c := counters().comments; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.Bool("reply", reply)))
	}
}

// RecordRegistration counts a new account
func RecordRegistration(ctx context.Context, agent bool) {
	kind := "human"
	if agent {
		kind = "agent"
	}
	if c := counters().registrations; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}
