package detailsRepo

import (
	"context"
	"fmt"

	"restate/database/repository/document"
	"restate/models"
)

// DetailsRepository defines methods for listing details data access.
type DetailsRepository interface {
	Create(ctx context.Context, d *models.Details) (*models.Details, error)
	GetByID(ctx context.Context, id string) (*models.Details, error)
	Delete(ctx context.Context, id string) error
	// IDsByType pages through every details document of the given type.
	IDsByType(ctx context.Context, t models.PropertyType) ([]string, error)
}

type DocumentDetailsRepo struct {
	store      document.Store
	collection string
}

func NewDetailsRepo(store document.Store, collection string) DetailsRepository {
	return &DocumentDetailsRepo{store: store, collection: collection}
}

func (r *DocumentDetailsRepo) Create(ctx context.Context, d *models.Details) (*models.Details, error) {
	doc, err := r.store.Create(ctx, r.collection, d.ID, d.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to create details: %w", err)
	}
	return models.DetailsFromDocument(doc)
}

func (r *DocumentDetailsRepo) GetByID(ctx context.Context, id string) (*models.Details, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch details with id %s: %w", id, err)
	}
	return models.DetailsFromDocument(doc)
}

func (r *DocumentDetailsRepo) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		return fmt.Errorf("failed to delete details with id %s: %w", id, err)
	}
	return nil
}

func (r *DocumentDetailsRepo) IDsByType(ctx context.Context, t models.PropertyType) ([]string, error) {
	var ids []string
	for offset := 0; ; offset += document.MaxPageSize {
		docs, err := r.store.List(ctx, r.collection,
			document.Equal(models.DetailsFieldType, string(t)),
			document.OrderAsc(models.FieldCreatedAt),
			document.Limit(document.MaxPageSize),
			document.Offset(offset),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to list details of type %s: %w", t, err)
		}
		for _, doc := range docs {
			if id, ok := doc[models.FieldID].(string); ok {
				ids = append(ids, id)
			}
		}
		if len(docs) < document.MaxPageSize {
			return ids, nil
		}
	}
}
