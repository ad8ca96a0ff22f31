package listing

import (
	"context"
	"errors"
	"fmt"

	"restate/database/repository/document"
	"restate/models"
	"restate/services/recognition"
	"restate/services/storage"
	"restate/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// attempt tracks the state of one ingestion.
type attempt struct {
	state  State
	logger *zap.Logger
}

func (a *attempt) moveTo(to State) {
	if !canTransition(a.state, to) {
		// Programming error: the orchestrator below only walks legal edges.
		panic(fmt.Sprintf("illegal ingestion transition %s -> %s", a.state, to))
	}
	a.logger.Debug("Ingestion state", zap.Stringer("from", a.state), zap.Stringer("to", to))
	a.state = to
}

func (s *DefaultListingService) Ingest(ctx context.Context, draft models.ListingDraft) (*IngestResult, error) {
	buildingID := uuid.NewString()
	detailsID := uuid.NewString()
	log := s.logger().With(zap.String("buildingId", buildingID))

	at := &attempt{state: CollectingInput, logger: log}
	sg := newSaga(log)

	fail := func(err error) (*IngestResult, error) {
		failedIn := at.state
		at.moveTo(Failed)
		// Cleanup must run even if the request context is already cancelled.
		if undoErr := sg.rollback(context.WithoutCancel(ctx)); undoErr != nil {
			err = fmt.Errorf("%w (cleanup incomplete: %v)", err, undoErr)
		}
		log.Warn("Ingestion failed", zap.Stringer("state", failedIn), zap.Error(err))
		return nil, &IngestError{State: failedIn, Err: err}
	}

	listing, err := Validate(draft)
	if err != nil {
		return fail(err)
	}

	at.moveTo(UploadingExterior)
	exterior, err := s.upload(ctx, sg, listing.Exterior)
	if err != nil {
		return fail(err)
	}

	at.moveTo(UploadingInterior)
	interior, err := s.upload(ctx, sg, listing.Interior)
	if err != nil {
		return fail(err)
	}

	at.moveTo(ExtractingFeatures)
	vectors, err := s.Recognizer.ExtractFeatures(ctx, exterior)
	if err != nil {
		return fail(err)
	}
	if len(vectors) != len(exterior) {
		return fail(&recognition.ServiceError{
			Op:  "extract",
			Err: fmt.Errorf("got %d feature vectors for %d images", len(vectors), len(exterior)),
		})
	}
	serialized := make([]string, len(vectors))
	for i, v := range vectors {
		serialized[i] = utils.JoinVector(v)
	}

	at.moveTo(PersistingBuilding)
	building := &models.Building{
		ID:                buildingID,
		BuildingName:      listing.BuildingName,
		Address:           listing.Address,
		Country:           listing.Country,
		Latitude:          listing.Latitude,
		Longitude:         listing.Longitude,
		Price:             listing.Price,
		Description:       listing.Description,
		ExteriorImageURLs: exterior,
		AllImageURLs:      interior,
		FeatureImageURLs:  exterior,
		FeatureVectors:    serialized,
		Reviews:           []string{},
		DetailID:          detailsID,
	}
	// Registered before the write: a create that times out may still have
	// committed.
	sg.onFailure("delete building", func(ctx context.Context) error {
		return ignoreMissing(s.Buildings.Delete(ctx, buildingID))
	})
	if _, err := s.Buildings.Create(ctx, building); err != nil {
		return fail(err)
	}

	at.moveTo(PersistingDetails)
	details := &models.Details{
		ID:           detailsID,
		BuildingName: listing.BuildingName,
		Type:         listing.Type,
		Area:         listing.Area,
		Bedrooms:     listing.Bedrooms,
		Bathrooms:    listing.Bathrooms,
		YearBuilt:    listing.YearBuilt,
		Rating:       0,
		Facilities:   listing.Facilities,
	}
	sg.onFailure("delete details", func(ctx context.Context) error {
		return ignoreMissing(s.Details.Delete(ctx, detailsID))
	})
	if _, err := s.Details.Create(ctx, details); err != nil {
		return fail(err)
	}

	at.moveTo(Done)
	log.Info("Listing ingested", zap.String("detailsId", detailsID),
		zap.Int("exteriorImages", len(exterior)), zap.Int("interiorImages", len(interior)))
	return &IngestResult{BuildingID: buildingID, DetailsID: detailsID}, nil
}

func ignoreMissing(err error) error {
	if errors.Is(err, document.ErrNotFound) {
		return nil
	}
	return err
}

// upload sends one image list and registers removal of every asset that made it
// to the media host, including those of a partially failed batch.
func (s *DefaultListingService) upload(ctx context.Context, sg *saga, images []models.ImageSource) ([]string, error) {
	results := storage.UploadBatch(ctx, s.Media, images, s.UploadConcurrency)

	for _, r := range results {
		if !r.OK() || r.Asset.PublicID == "" {
			continue
		}
		publicID := r.Asset.PublicID
		sg.onFailure("delete asset "+publicID, func(ctx context.Context) error {
			return s.Media.Delete(ctx, publicID)
		})
	}

	if failed := storage.Failures(results); len(failed) > 0 {
		return nil, &PartialUploadError{Failures: failed}
	}
	return storage.URLs(results), nil
}
