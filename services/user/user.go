package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"restate/database/repository/document"
	userRepo "restate/database/repository/user"
	"restate/models"

	"go.uber.org/zap"
)

// UserService provisions store-side users for authenticated identities.
type UserService interface {
	// EnsureUser returns the user for identity, creating it on first sight.
	EnsureUser(ctx context.Context, identity models.Identity) (*models.User, error)
	// GetUserByID retrieves a user by its unique ID.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	Repo   userRepo.UserRepository
	Logger *zap.Logger
}

func (s *DefaultUserService) EnsureUser(ctx context.Context, identity models.Identity) (*models.User, error) {
	if identity.IsZero() {
		return nil, fmt.Errorf("identity has no subject")
	}

	existing, err := s.Repo.GetByID(ctx, identity.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, document.ErrNotFound) {
		return nil, err
	}

	created, err := s.Repo.Create(ctx, &models.User{
		ID:      identity.UserID,
		Name:    strings.TrimSpace(identity.Name),
		Email:   strings.ToLower(strings.TrimSpace(identity.Email)),
		Role:    models.RoleUser,
		Likes:   []string{},
		Reviews: []string{},
	})
	if err != nil {
		// A concurrent request may have provisioned the same identity first.
		if again, getErr := s.Repo.GetByID(ctx, identity.UserID); getErr == nil {
			return again, nil
		}
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("Provisioned user", zap.String("userId", created.ID))
	}
	return created, nil
}

func (s *DefaultUserService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.Repo.GetByID(ctx, userID)
}
