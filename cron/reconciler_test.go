package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	buildingRepo "restate/database/repository/building"
	"restate/database/repository/document"
	reviewRepo "restate/database/repository/review"
	userRepo "restate/database/repository/user"
	"restate/models"
	"restate/services/relations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failOnce struct {
	buildingRepo.BuildingRepository
	failed bool
}

func (f *failOnce) AddReview(ctx context.Context, buildingID, reviewID string) error {
	if !f.failed {
		f.failed = true
		return errors.New("connection reset")
	}
	return f.BuildingRepository.AddReview(ctx, buildingID, reviewID)
}

func TestReconciler_RepairsPartialReview(t *testing.T) {
	ctx := context.Background()
	store := document.NewMemoryStore()
	users := userRepo.NewUserRepo(store, "users")
	buildings := &failOnce{BuildingRepository: buildingRepo.NewBuildingRepo(store, "buildings")}
	reviews := reviewRepo.NewReviewRepo(store, "reviews")

	_, err := users.Create(ctx, &models.User{ID: "u1", Name: "Ada"})
	require.NoError(t, err)
	_, err = buildings.Create(ctx, &models.Building{ID: "b1", BuildingName: "Harbor"})
	require.NoError(t, err)

	svc := &relations.DefaultRelationsService{Users: users, Buildings: buildings, Reviews: reviews, Logger: zap.NewNop()}
	id, err := svc.SubmitReview(ctx, "u1", "b1", 5, "great")
	var perr *relations.PersistenceError
	require.True(t, errors.As(err, &perr))

	rec := &ReviewReconciler{
		Reviews: reviews,
		Linker:  svc,
		Logger:  zap.NewNop(),
		now:     func() time.Time { return time.Now().Add(time.Hour) },
	}

	n, err := rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b, err := buildings.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, b.Reviews)

	u, err := users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{id}, u.Reviews)

	rv, err := reviews.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, rv.Linked)

	n, err = rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReconciler_SkipsRecentReviews(t *testing.T) {
	ctx := context.Background()
	reviews := reviewRepo.NewReviewRepo(document.NewMemoryStore(), "reviews")
	_, err := reviews.Create(ctx, &models.Review{ID: "r1", UserID: "u1", BuildingID: "b1", Rating: 3})
	require.NoError(t, err)

	linker := &countingLinker{}
	rec := &ReviewReconciler{Reviews: reviews, Linker: linker, MinAge: time.Hour, Logger: zap.NewNop()}

	n, err := rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, linker.calls)
}

type countingLinker struct {
	calls int
}

func (c *countingLinker) LinkReview(ctx context.Context, review models.Review) error {
	c.calls++
	return nil
}

type brokenLinker struct {
	broken map[string]bool
	linked []string
}

func (b *brokenLinker) LinkReview(ctx context.Context, review models.Review) error {
	if b.broken[review.ID] {
		return errors.New("building gone")
	}
	b.linked = append(b.linked, review.ID)
	return nil
}

func TestReconciler_FailingReviewsDoNotStarveNewerOnes(t *testing.T) {
	ctx := context.Background()
	reviews := reviewRepo.NewReviewRepo(document.NewMemoryStore(), "reviews")
	for _, id := range []string{"r1", "r2", "r3", "r4"} {
		_, err := reviews.Create(ctx, &models.Review{ID: id, UserID: "u1", BuildingID: "b1", Rating: 4})
		require.NoError(t, err)
	}

	linker := &brokenLinker{broken: map[string]bool{"r1": true, "r2": true, "r3": true}}
	clock := time.Now().Add(time.Hour)
	rec := &ReviewReconciler{
		Reviews:   reviews,
		Linker:    linker,
		BatchSize: 2,
		Logger:    zap.NewNop(),
		now:       func() time.Time { return clock },
	}

	n, err := rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"r4"}, linker.linked)

	rv, err := reviews.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, rv.LinkAttempts)
	assert.True(t, rv.NextLinkAt.After(clock))
}

func TestRetryDelay_DoublesUpToCap(t *testing.T) {
	assert.Equal(t, RetryBaseDelay, retryDelay(1))
	assert.Equal(t, 2*RetryBaseDelay, retryDelay(2))
	assert.Equal(t, 4*RetryBaseDelay, retryDelay(3))
	assert.Equal(t, MaxRetryDelay, retryDelay(40))
}

func TestStartReviewReconciler_RejectsBadSchedule(t *testing.T) {
	_, err := StartReviewReconciler(context.Background(), "every so often", &ReviewReconciler{Logger: zap.NewNop()})
	assert.Error(t, err)
}
