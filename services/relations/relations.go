package relations

import (
	"context"
	"strings"
	"unicode/utf8"

	buildingRepo "restate/database/repository/building"
	reviewRepo "restate/database/repository/review"
	userRepo "restate/database/repository/user"
	"restate/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxCommentLength bounds a review comment, in characters.
const MaxCommentLength = 2000

// RelationsService maintains likes and reviews across users and buildings.
type RelationsService interface {
	// Like adds buildingID to the user's likes. Repeated likes are no-ops.
	Like(ctx context.Context, userID, buildingID string) error
	// Unlike removes buildingID from the user's likes.
	Unlike(ctx context.Context, userID, buildingID string) error
	// IsLiked reports whether the user likes buildingID.
	IsLiked(ctx context.Context, userID, buildingID string) (bool, error)
	// SubmitReview creates a review and links it to the user and the building.
	SubmitReview(ctx context.Context, userID, buildingID string, rating int, comment string) (string, error)
	// LinkReview (re)applies a review's cross-links and marks it linked.
	LinkReview(ctx context.Context, review models.Review) error
}

// DefaultRelationsService is the production implementation.
type DefaultRelationsService struct {
	Users     userRepo.UserRepository
	Buildings buildingRepo.BuildingRepository
	Reviews   reviewRepo.ReviewRepository
	Logger    *zap.Logger
}

func (s *DefaultRelationsService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultRelationsService) Like(ctx context.Context, userID, buildingID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	if _, err := s.Buildings.GetByID(ctx, buildingID); err != nil {
		return err
	}
	return s.Users.AddLike(ctx, userID, buildingID)
}

func (s *DefaultRelationsService) Unlike(ctx context.Context, userID, buildingID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	return s.Users.RemoveLike(ctx, userID, buildingID)
}

func (s *DefaultRelationsService) IsLiked(ctx context.Context, userID, buildingID string) (bool, error) {
	if userID == "" {
		return false, ErrUnauthenticated
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.LikesBuilding(buildingID), nil
}

func (s *DefaultRelationsService) SubmitReview(ctx context.Context, userID, buildingID string, rating int, comment string) (string, error) {
	if userID == "" {
		return "", ErrUnauthenticated
	}

	comment = strings.TrimSpace(comment)
	verr := &models.ValidationError{}
	if rating < models.MinRating || rating > models.MaxRating {
		verr.Add("rating", "must be between 1 and 5")
	}
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		verr.Add("comment", "is too long")
	}
	if err := verr.OrNil(); err != nil {
		return "", err
	}

	// Both ends must exist before the review does, so a failed link can only
	// ever be a transient write error.
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		return "", err
	}
	if _, err := s.Buildings.GetByID(ctx, buildingID); err != nil {
		return "", err
	}

	review, err := s.Reviews.Create(ctx, &models.Review{
		ID:         uuid.NewString(),
		UserID:     userID,
		BuildingID: buildingID,
		Rating:     rating,
		Comment:    comment,
		Linked:     false,
	})
	if err != nil {
		return "", &PersistenceError{Step: StepCreateReview, Err: err}
	}

	if err := s.LinkReview(ctx, *review); err != nil {
		return review.ID, err
	}
	return review.ID, nil
}

func (s *DefaultRelationsService) LinkReview(ctx context.Context, review models.Review) error {
	steps := []struct {
		name string
		run  func() error
	}{
		{StepLinkUser, func() error { return s.Users.AddReview(ctx, review.UserID, review.ID) }},
		{StepLinkBuilding, func() error { return s.Buildings.AddReview(ctx, review.BuildingID, review.ID) }},
		{StepMarkLinked, func() error { return s.Reviews.MarkLinked(ctx, review.ID) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			s.logger().Error("Review cross-link incomplete",
				zap.String("reviewId", review.ID), zap.String("step", step.name), zap.Error(err))
			return &PersistenceError{Step: step.name, ReviewID: review.ID, Err: err}
		}
	}
	return nil
}
