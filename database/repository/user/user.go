package userRepo

import (
	"context"
	"fmt"

	"restate/database/repository/document"
	"restate/models"
)

// UserRepository defines methods for user data access.
type UserRepository interface {
	// GetByID retrieves a user by its unique ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Create inserts a new user record under u.ID.
	Create(ctx context.Context, u *models.User) (*models.User, error)
	// AddLike adds buildingID to the user's likes unless already present.
	AddLike(ctx context.Context, userID, buildingID string) error
	// RemoveLike removes every occurrence of buildingID from the user's likes.
	RemoveLike(ctx context.Context, userID, buildingID string) error
	// AddReview links a review id onto the user.
	AddReview(ctx context.Context, userID, reviewID string) error
}

type DocumentUserRepo struct {
	store      document.Store
	collection string
}

func NewUserRepo(store document.Store, collection string) UserRepository {
	return &DocumentUserRepo{store: store, collection: collection}
}

func (r *DocumentUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user with id %s: %w", id, err)
	}
	return models.UserFromDocument(doc)
}

func (r *DocumentUserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if u.ID == "" {
		return nil, fmt.Errorf("failed to create user: id is required")
	}
	doc, err := r.store.Create(ctx, r.collection, u.ID, u.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return models.UserFromDocument(doc)
}

func (r *DocumentUserRepo) AddLike(ctx context.Context, userID, buildingID string) error {
	if err := r.store.AddToSet(ctx, r.collection, userID, models.UserFieldLikes, buildingID); err != nil {
		return fmt.Errorf("failed to add like for user %s: %w", userID, err)
	}
	return nil
}

func (r *DocumentUserRepo) RemoveLike(ctx context.Context, userID, buildingID string) error {
	if err := r.store.Pull(ctx, r.collection, userID, models.UserFieldLikes, buildingID); err != nil {
		return fmt.Errorf("failed to remove like for user %s: %w", userID, err)
	}
	return nil
}

func (r *DocumentUserRepo) AddReview(ctx context.Context, userID, reviewID string) error {
	if err := r.store.AddToSet(ctx, r.collection, userID, models.UserFieldReviews, reviewID); err != nil {
		return fmt.Errorf("failed to link review %s to user %s: %w", reviewID, userID, err)
	}
	return nil
}
