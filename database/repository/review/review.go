package reviewRepo

import (
	"context"
	"fmt"
	"time"

	"restate/database/repository/document"
	"restate/models"
)

// ReviewRepository defines methods for review data access.
type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) (*models.Review, error)
	GetByID(ctx context.Context, id string) (*models.Review, error)
	// MarkLinked records that the review is referenced by its user and building.
	MarkLinked(ctx context.Context, id string) error
	// ListUnlinked returns up to limit reviews that are not yet fully linked and
	// whose next link attempt is due before cutoff, earliest first.
	ListUnlinked(ctx context.Context, cutoff time.Time, limit int) ([]models.Review, error)
	// DeferLink records a failed link attempt and when to try again.
	DeferLink(ctx context.Context, id string, attempts int, next time.Time) error
}

type DocumentReviewRepo struct {
	store      document.Store
	collection string
}

func NewReviewRepo(store document.Store, collection string) ReviewRepository {
	return &DocumentReviewRepo{store: store, collection: collection}
}

// Create makes a new review due for linking as of now unless NextLinkAt is set.
func (r *DocumentReviewRepo) Create(ctx context.Context, rv *models.Review) (*models.Review, error) {
	fields := rv.Document()
	if rv.NextLinkAt.IsZero() {
		fields[models.ReviewFieldNextLinkAt] = time.Now().UTC()
	}
	doc, err := r.store.Create(ctx, r.collection, rv.ID, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return models.ReviewFromDocument(doc)
}

func (r *DocumentReviewRepo) GetByID(ctx context.Context, id string) (*models.Review, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch review with id %s: %w", id, err)
	}
	return models.ReviewFromDocument(doc)
}

func (r *DocumentReviewRepo) MarkLinked(ctx context.Context, id string) error {
	if _, err := r.store.Update(ctx, r.collection, id, document.Document{models.ReviewFieldLinked: true}); err != nil {
		return fmt.Errorf("failed to mark review %s linked: %w", id, err)
	}
	return nil
}

func (r *DocumentReviewRepo) ListUnlinked(ctx context.Context, cutoff time.Time, limit int) ([]models.Review, error) {
	docs, err := r.store.List(ctx, r.collection,
		document.Equal(models.ReviewFieldLinked, false),
		document.LessThan(models.ReviewFieldNextLinkAt, cutoff),
		document.OrderAsc(models.ReviewFieldNextLinkAt),
		document.Limit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlinked reviews: %w", err)
	}
	reviews := make([]models.Review, 0, len(docs))
	for _, doc := range docs {
		rv, err := models.ReviewFromDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode review: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	return reviews, nil
}

func (r *DocumentReviewRepo) DeferLink(ctx context.Context, id string, attempts int, next time.Time) error {
	_, err := r.store.Update(ctx, r.collection, id, document.Document{
		models.ReviewFieldLinkAttempts: attempts,
		models.ReviewFieldNextLinkAt:   next.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to defer linking of review %s: %w", id, err)
	}
	return nil
}
