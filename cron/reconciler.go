package cron

import (
	"context"
	"fmt"
	"time"

	reviewRepo "restate/database/repository/review"
	"restate/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	// DefaultMinAge keeps the sweep away from reviews whose submission is still in flight.
	DefaultMinAge    = time.Minute
	DefaultBatchSize = 100

	// A review that fails to link waits RetryBaseDelay, doubling per attempt up
	// to MaxRetryDelay. Deferred reviews sort behind due ones, so a batch of
	// broken reviews cannot hold back newer ones.
	RetryBaseDelay = 5 * time.Minute
	MaxRetryDelay  = 24 * time.Hour
)

// ReviewLinker re-applies the cross-links of a review.
type ReviewLinker interface {
	LinkReview(ctx context.Context, review models.Review) error
}

// ReviewReconciler finishes cross-linking reviews whose submission stopped
// part way. Every link write is idempotent, so a review may be retried freely.
type ReviewReconciler struct {
	Reviews   reviewRepo.ReviewRepository
	Linker    ReviewLinker
	MinAge    time.Duration
	BatchSize int
	Logger    *zap.Logger

	now func() time.Time
}

// RunOnce sweeps one batch and returns how many reviews were linked.
func (r *ReviewReconciler) RunOnce(ctx context.Context) (int, error) {
	minAge := r.MinAge
	if minAge <= 0 {
		minAge = DefaultMinAge
	}
	batch := r.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	now := time.Now
	if r.now != nil {
		now = r.now
	}

	pending, err := r.Reviews.ListUnlinked(ctx, now().Add(-minAge), batch)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending reviews: %w", err)
	}

	linked := 0
	for _, rv := range pending {
		if err := ctx.Err(); err != nil {
			return linked, err
		}
		if err := r.Linker.LinkReview(ctx, rv); err != nil {
			// The linker logs the cause.
			attempts := rv.LinkAttempts + 1
			next := now().Add(retryDelay(attempts))
			if err := r.Reviews.DeferLink(ctx, rv.ID, attempts, next); err != nil {
				r.Logger.Error("Failed to defer review link", zap.String("reviewId", rv.ID), zap.Error(err))
			}
			continue
		}
		linked++
	}

	if len(pending) > 0 {
		r.Logger.Info("Review reconciliation finished",
			zap.Int("pending", len(pending)), zap.Int("linked", linked))
	}
	return linked, nil
}

func retryDelay(attempts int) time.Duration {
	d := RetryBaseDelay
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= MaxRetryDelay {
			return MaxRetryDelay
		}
	}
	return d
}

// StartReviewReconciler runs the reconciler on schedule until ctx is done.
func StartReviewReconciler(ctx context.Context, schedule string, r *ReviewReconciler) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.Logger.Error("Review reconciliation failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}

	c.Start()
	r.Logger.Info("Review reconciler started", zap.String("schedule", schedule))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		r.Logger.Info("Review reconciler stopped")
	}()
	return c, nil
}
