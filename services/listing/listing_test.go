package listing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	buildingRepo "restate/database/repository/building"
	detailsRepo "restate/database/repository/details"
	"restate/database/repository/document"
	"restate/models"
	"restate/services/recognition"
	"restate/services/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	buildingsColl = "buildings"
	detailsColl   = "details"
)

type stubMedia struct {
	mu      sync.Mutex
	fail    map[string]bool
	deleted []string
}

func (m *stubMedia) Upload(ctx context.Context, img models.ImageSource) (storage.Asset, error) {
	if m.fail[img.Name] {
		return storage.Asset{}, errors.New("quota exceeded")
	}
	return storage.Asset{URL: "https://cdn.test/" + img.Name, PublicID: img.Name}, nil
}

func (m *stubMedia) Delete(ctx context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, publicID)
	return nil
}

type stubRecognizer struct {
	vectors   func(urls []string) [][]float64
	err       error
	predicted string
	extracted [][]string
}

func (r *stubRecognizer) Identify(ctx context.Context, filename string, image []byte) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.predicted == "" {
		return "", recognition.ErrNoMatch
	}
	return r.predicted, nil
}

func (r *stubRecognizer) ExtractFeatures(ctx context.Context, urls []string) ([][]float64, error) {
	r.extracted = append(r.extracted, urls)
	if r.err != nil {
		return nil, r.err
	}
	if r.vectors != nil {
		return r.vectors(urls), nil
	}
	out := make([][]float64, len(urls))
	for i := range urls {
		out[i] = []float64{0.1, 0.2}
	}
	return out, nil
}

type failingDetails struct {
	detailsRepo.DetailsRepository
}

func (f failingDetails) Create(ctx context.Context, d *models.Details) (*models.Details, error) {
	return nil, errors.New("write refused")
}

// committedBuildings stores the building and then reports a timeout, the way
// a write that lands after the client gave up does.
type committedBuildings struct {
	buildingRepo.BuildingRepository
}

func (c committedBuildings) Create(ctx context.Context, b *models.Building) (*models.Building, error) {
	if _, err := c.BuildingRepository.Create(ctx, b); err != nil {
		return nil, err
	}
	return nil, context.DeadlineExceeded
}

type committedDetails struct {
	detailsRepo.DetailsRepository
}

func (c committedDetails) Create(ctx context.Context, d *models.Details) (*models.Details, error) {
	if _, err := c.DetailsRepository.Create(ctx, d); err != nil {
		return nil, err
	}
	return nil, context.DeadlineExceeded
}

type fixture struct {
	store      *document.MemoryStore
	media      *stubMedia
	recognizer *stubRecognizer
	svc        *DefaultListingService
}

func newFixture() *fixture {
	store := document.NewMemoryStore()
	f := &fixture{
		store:      store,
		media:      &stubMedia{},
		recognizer: &stubRecognizer{},
	}
	f.svc = &DefaultListingService{
		Buildings:         buildingRepo.NewBuildingRepo(store, buildingsColl),
		Details:           detailsRepo.NewDetailsRepo(store, detailsColl),
		Media:             f.media,
		Recognizer:        f.recognizer,
		UploadConcurrency: 2,
		Logger:            zap.NewNop(),
	}
	return f
}

func (f *fixture) count(t *testing.T, collection string) int {
	t.Helper()
	docs, err := f.store.List(context.Background(), collection, document.Limit(document.MaxPageSize))
	require.NoError(t, err)
	return len(docs)
}

func draft() models.ListingDraft {
	return models.ListingDraft{
		BuildingName: "Harbor View",
		Address:      "1 Quay St",
		Country:      "NZ",
		Latitude:     "-36.84",
		Longitude:    "174.76",
		Price:        "100000",
		Description:  "Waterfront",
		Type:         "Apartment",
		Area:         "1200",
		Bedrooms:     "3.7",
		Bathrooms:    "2",
		YearBuilt:    "1999",
		Facilities:   []string{"gym", "parking", "gym"},
		Exterior:     []models.ImageSource{{Name: "a.jpg", Path: "/tmp/a.jpg"}},
		Interior:     []models.ImageSource{{Name: "b.jpg", Path: "/tmp/b.jpg"}},
	}
}

func TestIngest_CreatesBuildingAndDetails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	res, err := f.svc.Ingest(ctx, draft())
	require.NoError(t, err)

	b, err := f.svc.Buildings.GetByID(ctx, res.BuildingID)
	require.NoError(t, err)
	assert.Equal(t, "Harbor View", b.BuildingName)
	assert.Equal(t, []string{"https://cdn.test/a.jpg"}, b.ExteriorImageURLs)
	assert.Equal(t, []string{"https://cdn.test/b.jpg"}, b.AllImageURLs)
	assert.Equal(t, []string{"https://cdn.test/a.jpg"}, b.FeatureImageURLs)
	assert.Equal(t, []string{"0.1,0.2"}, b.FeatureVectors)
	assert.Equal(t, res.DetailsID, b.DetailID)
	assert.Empty(t, b.Reviews)

	d, err := f.svc.Details.GetByID(ctx, res.DetailsID)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Bedrooms)
	assert.Equal(t, 2, d.Bathrooms)
	assert.Equal(t, 1999, d.YearBuilt)
	assert.Equal(t, 1200.0, d.Area)
	assert.Equal(t, 0.0, d.Rating)
	assert.Equal(t, models.PropertyApartment, d.Type)
	assert.Equal(t, []string{"gym", "parking"}, d.Facilities)

	assert.Equal(t, [][]string{{"https://cdn.test/a.jpg"}}, f.recognizer.extracted)
	assert.Empty(t, f.media.deleted)
}

func TestIngest_FeatureListsStayAligned(t *testing.T) {
	f := newFixture()
	in := draft()
	in.Exterior = nil
	for i := 0; i < 4; i++ {
		name := fmt.Sprintf("ext%d.jpg", i)
		in.Exterior = append(in.Exterior, models.ImageSource{Name: name, Path: "/tmp/" + name})
	}

	res, err := f.svc.Ingest(context.Background(), in)
	require.NoError(t, err)

	b, err := f.svc.Buildings.GetByID(context.Background(), res.BuildingID)
	require.NoError(t, err)
	assert.Len(t, b.FeatureImageURLs, 4)
	assert.Len(t, b.FeatureVectors, 4)
	assert.Equal(t, "https://cdn.test/ext2.jpg", b.FeatureImageURLs[2])
}

func TestIngest_ValidationFailsBeforeAnyCall(t *testing.T) {
	f := newFixture()
	in := draft()
	in.Interior = nil
	in.Price = "lots"

	_, err := f.svc.Ingest(context.Background(), in)

	var ingestErr *IngestError
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, CollectingInput, ingestErr.State)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := make([]string, len(verr.Fields))
	for i, fe := range verr.Fields {
		fields[i] = fe.Field
	}
	assert.ElementsMatch(t, []string{"interior", "price"}, fields)
	assert.Empty(t, f.recognizer.extracted)
	assert.Zero(t, f.count(t, buildingsColl))
}

func TestIngest_UploadFailureCreatesNothing(t *testing.T) {
	f := newFixture()
	f.media.fail = map[string]bool{"ext1.jpg": true}
	in := draft()
	in.Exterior = []models.ImageSource{
		{Name: "ext0.jpg", Path: "/tmp/ext0.jpg"},
		{Name: "ext1.jpg", Path: "/tmp/ext1.jpg"},
		{Name: "ext2.jpg", Path: "/tmp/ext2.jpg"},
	}

	_, err := f.svc.Ingest(context.Background(), in)

	var ingestErr *IngestError
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, UploadingExterior, ingestErr.State)

	var partial *PartialUploadError
	require.True(t, errors.As(err, &partial))
	require.Len(t, partial.Failures, 1)
	assert.Equal(t, 1, partial.Failures[0].Index)

	var uploadErr *storage.UploadError
	assert.True(t, errors.As(err, &uploadErr))

	assert.Empty(t, f.recognizer.extracted)
	assert.Zero(t, f.count(t, buildingsColl))
	assert.Zero(t, f.count(t, detailsColl))
	assert.ElementsMatch(t, []string{"ext0.jpg", "ext2.jpg"}, f.media.deleted)
}

func TestIngest_InteriorUploadFailureRemovesExteriorAssets(t *testing.T) {
	f := newFixture()
	f.media.fail = map[string]bool{"b.jpg": true}

	_, err := f.svc.Ingest(context.Background(), draft())

	var ingestErr *IngestError
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, UploadingInterior, ingestErr.State)
	assert.Equal(t, []string{"a.jpg"}, f.media.deleted)
	assert.Zero(t, f.count(t, buildingsColl))
}

func TestIngest_VectorCountMismatchFails(t *testing.T) {
	f := newFixture()
	f.recognizer.vectors = func(urls []string) [][]float64 {
		return [][]float64{{0.1, 0.2}}
	}
	in := draft()
	in.Exterior = []models.ImageSource{
		{Name: "url1.jpg", Path: "/tmp/url1.jpg"},
		{Name: "url2.jpg", Path: "/tmp/url2.jpg"},
	}

	_, err := f.svc.Ingest(context.Background(), in)

	var svcErr *recognition.ServiceError
	require.True(t, errors.As(err, &svcErr))
	var ingestErr *IngestError
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, ExtractingFeatures, ingestErr.State)

	assert.Zero(t, f.count(t, buildingsColl))
	assert.Zero(t, f.count(t, detailsColl))
	assert.ElementsMatch(t, []string{"url1.jpg", "url2.jpg", "b.jpg"}, f.media.deleted)
}

func TestIngest_ExtractionErrorFails(t *testing.T) {
	f := newFixture()
	f.recognizer.err = &recognition.ServiceError{Op: "extract", StatusCode: 503, Err: errors.New("down")}

	_, err := f.svc.Ingest(context.Background(), draft())

	var svcErr *recognition.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 503, svcErr.StatusCode)
	assert.Zero(t, f.count(t, buildingsColl))
}

func TestIngest_DetailsFailureDeletesBuilding(t *testing.T) {
	f := newFixture()
	f.svc.Details = failingDetails{DetailsRepository: f.svc.Details}

	_, err := f.svc.Ingest(context.Background(), draft())

	var ingestErr *IngestError
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, PersistingDetails, ingestErr.State)
	assert.Zero(t, f.count(t, buildingsColl))
	assert.Zero(t, f.count(t, detailsColl))
	assert.ElementsMatch(t, []string{"a.jpg", "b.jpg"}, f.media.deleted)
}

func TestIngest_TimedOutBuildingWriteIsRemoved(t *testing.T) {
	f := newFixture()
	f.svc.Buildings = committedBuildings{BuildingRepository: f.svc.Buildings}

	_, err := f.svc.Ingest(context.Background(), draft())

	var ingestErr *IngestError
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, PersistingBuilding, ingestErr.State)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotContains(t, err.Error(), "cleanup incomplete")
	assert.Zero(t, f.count(t, buildingsColl))
	assert.Zero(t, f.count(t, detailsColl))
}

func TestIngest_TimedOutDetailsWriteIsRemoved(t *testing.T) {
	f := newFixture()
	f.svc.Details = committedDetails{DetailsRepository: f.svc.Details}

	_, err := f.svc.Ingest(context.Background(), draft())

	var ingestErr *IngestError
	require.True(t, errors.As(err, &ingestErr))
	assert.Equal(t, PersistingDetails, ingestErr.State)
	assert.NotContains(t, err.Error(), "cleanup incomplete")
	assert.Zero(t, f.count(t, buildingsColl))
	assert.Zero(t, f.count(t, detailsColl))
}
