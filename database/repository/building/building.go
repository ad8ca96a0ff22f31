package buildingRepo

import (
	"context"
	"fmt"
	"sort"

	"restate/database/repository/document"
	"restate/models"
)

// BuildingRepository defines methods for building data access.
type BuildingRepository interface {
	// Create stores a building under b.ID, or a generated id when empty.
	Create(ctx context.Context, b *models.Building) (*models.Building, error)
	// GetByID retrieves a building by its id.
	GetByID(ctx context.Context, id string) (*models.Building, error)
	// Delete removes a building by its id.
	Delete(ctx context.Context, id string) error
	// Latest returns the newest buildings first.
	Latest(ctx context.Context, limit int) ([]models.Building, error)
	// Search matches term against name and address, newest first. An empty term matches everything.
	Search(ctx context.Context, term string, limit int) ([]models.Building, error)
	// ListByDetailIDs returns every building linked to one of detailIDs.
	ListByDetailIDs(ctx context.Context, detailIDs []string) ([]models.Building, error)
	// AddReview links a review id onto the building.
	AddReview(ctx context.Context, buildingID, reviewID string) error
}

// DocumentBuildingRepo implements BuildingRepository on a document store.
type DocumentBuildingRepo struct {
	store      document.Store
	collection string
}

func NewBuildingRepo(store document.Store, collection string) BuildingRepository {
	return &DocumentBuildingRepo{store: store, collection: collection}
}

func (r *DocumentBuildingRepo) Create(ctx context.Context, b *models.Building) (*models.Building, error) {
	doc, err := r.store.Create(ctx, r.collection, b.ID, b.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to create building: %w", err)
	}
	return models.BuildingFromDocument(doc)
}

func (r *DocumentBuildingRepo) GetByID(ctx context.Context, id string) (*models.Building, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch building with id %s: %w", id, err)
	}
	return models.BuildingFromDocument(doc)
}

func (r *DocumentBuildingRepo) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		return fmt.Errorf("failed to delete building with id %s: %w", id, err)
	}
	return nil
}

func (r *DocumentBuildingRepo) Latest(ctx context.Context, limit int) ([]models.Building, error) {
	if limit <= 0 {
		limit = document.DefaultPageSize
	}
	return r.list(ctx, document.OrderDesc(models.FieldCreatedAt), document.Limit(limit))
}

func (r *DocumentBuildingRepo) Search(ctx context.Context, term string, limit int) ([]models.Building, error) {
	queries := []document.Query{document.OrderDesc(models.FieldCreatedAt)}
	if term != "" {
		queries = append(queries, document.Or(
			document.Search(models.BuildingFieldName, term),
			document.Search(models.BuildingFieldAddress, term),
		))
	}
	if limit > 0 {
		queries = append(queries, document.Limit(limit))
	}
	return r.list(ctx, queries...)
}

func (r *DocumentBuildingRepo) ListByDetailIDs(ctx context.Context, detailIDs []string) ([]models.Building, error) {
	var all []models.Building
	for start := 0; start < len(detailIDs); start += document.MaxPageSize {
		end := start + document.MaxPageSize
		if end > len(detailIDs) {
			end = len(detailIDs)
		}
		chunk := make([]interface{}, 0, end-start)
		for _, id := range detailIDs[start:end] {
			chunk = append(chunk, id)
		}
		buildings, err := r.list(ctx,
			document.Equal(models.BuildingFieldDetail, chunk...),
			document.Limit(document.MaxPageSize),
		)
		if err != nil {
			return nil, err
		}
		all = append(all, buildings...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

func (r *DocumentBuildingRepo) AddReview(ctx context.Context, buildingID, reviewID string) error {
	if err := r.store.AddToSet(ctx, r.collection, buildingID, models.BuildingFieldReviews, reviewID); err != nil {
		return fmt.Errorf("failed to link review %s to building %s: %w", reviewID, buildingID, err)
	}
	return nil
}

func (r *DocumentBuildingRepo) list(ctx context.Context, queries ...document.Query) ([]models.Building, error) {
	docs, err := r.store.List(ctx, r.collection, queries...)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve buildings: %w", err)
	}
	buildings := make([]models.Building, 0, len(docs))
	for _, doc := range docs {
		b, err := models.BuildingFromDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to decode building: %w", err)
		}
		buildings = append(buildings, *b)
	}
	return buildings, nil
}
