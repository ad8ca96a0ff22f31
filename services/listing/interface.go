package listing

import (
	"context"

	buildingRepo "restate/database/repository/building"
	detailsRepo "restate/database/repository/details"
	"restate/models"
	"restate/services/recognition"
	"restate/services/storage"

	"go.uber.org/zap"
)

// DefaultLatest is the number of newest listings returned when no limit is given.
const DefaultLatest = 5

// IngestResult identifies the two documents a successful ingestion created.
type IngestResult struct {
	BuildingID string `json:"buildingId"`
	DetailsID  string `json:"detailsId"`
}

// Listing is a building together with its resolved details.
type Listing struct {
	Building *models.Building `json:"building"`
	Details  *models.Details  `json:"details,omitempty"`
}

// SearchParams filters the catalog. Type "" or "All" disables the type filter.
type SearchParams struct {
	Type  string
	Query string
	Limit int
}

// ListingService defines listing ingestion and catalog operations.
type ListingService interface {
	// Ingest validates a draft, uploads its images, extracts features and
	// persists the Building and Details documents. Nothing survives a failure.
	Ingest(ctx context.Context, draft models.ListingDraft) (*IngestResult, error)
	// Latest returns the newest buildings first.
	Latest(ctx context.Context, limit int) ([]models.Building, error)
	// Search lists buildings by property type or free text.
	Search(ctx context.Context, params SearchParams) ([]models.Building, error)
	// Get returns a building and its details.
	Get(ctx context.Context, buildingID string) (*Listing, error)
	// Recognize identifies the building in a photo.
	Recognize(ctx context.Context, filename string, image []byte) (*Listing, error)
}

// DefaultListingService is the production implementation.
type DefaultListingService struct {
	Buildings         buildingRepo.BuildingRepository
	Details           detailsRepo.DetailsRepository
	Media             storage.MediaUploader
	Recognizer        recognition.Recognizer
	UploadConcurrency int
	Logger            *zap.Logger
}

func (s *DefaultListingService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
