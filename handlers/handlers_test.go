package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"restate/database/repository/document"
	"restate/models"
	"restate/services/listing"
	"restate/services/recognition"
	"restate/services/relations"
	"restate/services/storage"
	"restate/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.Logger = zap.NewNop()
}

type stubListings struct {
	draft        models.ListingDraft
	stagedFound  []bool
	ingestErr    error
	recognizeErr error
	latestLimit  int
}

func (s *stubListings) Ingest(ctx context.Context, draft models.ListingDraft) (*listing.IngestResult, error) {
	s.draft = draft
	for _, img := range append(append([]models.ImageSource{}, draft.Exterior...), draft.Interior...) {
		_, err := os.Stat(img.Path)
		s.stagedFound = append(s.stagedFound, err == nil)
	}
	if s.ingestErr != nil {
		return nil, s.ingestErr
	}
	return &listing.IngestResult{BuildingID: "b1", DetailsID: "d1"}, nil
}

func (s *stubListings) Latest(ctx context.Context, limit int) ([]models.Building, error) {
	s.latestLimit = limit
	return []models.Building{{ID: "b1", BuildingName: "Harbor"}}, nil
}

func (s *stubListings) Search(ctx context.Context, params listing.SearchParams) ([]models.Building, error) {
	return []models.Building{}, nil
}

func (s *stubListings) Get(ctx context.Context, id string) (*listing.Listing, error) {
	if id != "b1" {
		return nil, fmt.Errorf("buildings/%s: %w", id, document.ErrNotFound)
	}
	return &listing.Listing{Building: &models.Building{ID: "b1"}}, nil
}

func (s *stubListings) Recognize(ctx context.Context, filename string, image []byte) (*listing.Listing, error) {
	if s.recognizeErr != nil {
		return nil, s.recognizeErr
	}
	return &listing.Listing{Building: &models.Building{ID: "b1"}}, nil
}

type stubRelations struct {
	relations.RelationsService
	reviewErr error
}

func (s *stubRelations) SubmitReview(ctx context.Context, userID, buildingID string, rating int, comment string) (string, error) {
	if s.reviewErr != nil {
		return "", s.reviewErr
	}
	return "r1", nil
}

func (s *stubRelations) Like(ctx context.Context, userID, buildingID string) error {
	if userID == "" {
		return relations.ErrUnauthenticated
	}
	return nil
}

func fakeAuth(c *gin.Context) {
	c.Set("userID", "u1")
	c.Next()
}

func newRouter(l listing.ListingService, rel relations.RelationsService) *gin.Engine {
	bh := &BuildingHandler{Listings: l, TempDir: os.TempDir()}
	hb := NewHandlerBundle(fakeAuth, bh, NewRelationsHandler(rel), &SessionHandler{})

	r := gin.New()
	r.GET("/api/buildings/latest", hb.LatestBuildingsHandler)
	r.GET("/api/buildings/:id", hb.GetBuildingHandler)
	r.POST("/api/buildings/recognize", hb.RecognizeHandler)
	r.POST("/api/buildings", hb.Auth, hb.CreateBuildingHandler)
	r.POST("/api/buildings/:id/like", hb.LikeHandler)
	r.POST("/api/buildings/:id/reviews", hb.Auth, hb.SubmitReviewHandler)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, names := range files {
		for _, name := range names {
			part, err := w.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("image-bytes"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestLatestHandler(t *testing.T) {
	l := &stubListings{}
	w := serve(newRouter(l, &stubRelations{}), httptest.NewRequest(http.MethodGet, "/api/buildings/latest?limit=3", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, l.latestLimit)
	var got []models.Building
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Harbor", got[0].BuildingName)

	w = serve(newRouter(l, &stubRelations{}), httptest.NewRequest(http.MethodGet, "/api/buildings/latest?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBuildingHandler_NotFound(t *testing.T) {
	w := serve(newRouter(&stubListings{}, &stubRelations{}), httptest.NewRequest(http.MethodGet, "/api/buildings/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBuildingHandler_StagesImages(t *testing.T) {
	l := &stubListings{}
	body, contentType := multipartBody(t, map[string]string{
		"buildingName": "Harbor",
		"bedrooms":     "3.7",
		"facilities":   "gym, parking",
	}, map[string][]string{
		"exterior": {"front.jpg", "side.png"},
		"interior": {"hall.jpeg"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/buildings", body)
	req.Header.Set("Content-Type", contentType)

	w := serve(newRouter(l, &stubRelations{}), req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"buildingId":"b1","detailsId":"d1"}`, w.Body.String())
	assert.Equal(t, "Harbor", l.draft.BuildingName)
	assert.Equal(t, "3.7", l.draft.Bedrooms)
	assert.Equal(t, []string{"gym", "parking"}, l.draft.Facilities)
	require.Len(t, l.draft.Exterior, 2)
	assert.Equal(t, "front.jpg", l.draft.Exterior[0].Name)
	require.Len(t, l.draft.Interior, 1)
	assert.Equal(t, []bool{true, true, true}, l.stagedFound)

	_, err := os.Stat(l.draft.Exterior[0].Path)
	assert.True(t, os.IsNotExist(err), "staged images are removed after the request")
}

func TestCreateBuildingHandler_RejectsUnsupportedFormat(t *testing.T) {
	body, contentType := multipartBody(t, nil, map[string][]string{"exterior": {"plan.pdf"}})
	req := httptest.NewRequest(http.MethodPost, "/api/buildings", body)
	req.Header.Set("Content-Type", contentType)

	w := serve(newRouter(&stubListings{}, &stubRelations{}), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateBuildingHandler_UploadFailureIsBadGateway(t *testing.T) {
	l := &stubListings{ingestErr: &listing.IngestError{
		State: listing.UploadingExterior,
		Err:   &listing.PartialUploadError{Failures: []*storage.UploadError{{Index: 0, Source: "front.jpg", Err: errors.New("quota")}}},
	}}
	body, contentType := multipartBody(t, nil, map[string][]string{"exterior": {"front.jpg"}, "interior": {"hall.jpg"}})
	req := httptest.NewRequest(http.MethodPost, "/api/buildings", body)
	req.Header.Set("Content-Type", contentType)

	w := serve(newRouter(l, &stubRelations{}), req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRecognizeHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/buildings/recognize", nil)
	w := serve(newRouter(&stubListings{}, &stubRelations{}), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, contentType := multipartBody(t, nil, map[string][]string{"file": {"q.jpg"}})
	req = httptest.NewRequest(http.MethodPost, "/api/buildings/recognize", body)
	req.Header.Set("Content-Type", contentType)
	w = serve(newRouter(&stubListings{}, &stubRelations{}), req)
	assert.Equal(t, http.StatusOK, w.Code)

	body, contentType = multipartBody(t, nil, map[string][]string{"file": {"q.jpg"}})
	req = httptest.NewRequest(http.MethodPost, "/api/buildings/recognize", body)
	req.Header.Set("Content-Type", contentType)
	w = serve(newRouter(&stubListings{recognizeErr: recognition.ErrNoMatch}, &stubRelations{}), req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecognizeHandler_RejectsEmptyImage(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_, err := mw.CreateFormFile("file", "empty.jpg")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/buildings/recognize", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	// Reaching the service would turn into a 502.
	l := &stubListings{recognizeErr: &recognition.ServiceError{Op: "predict", StatusCode: 422}}
	w := serve(newRouter(l, &stubRelations{}), req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "file", resp.Fields[0].Field)
}

func TestSubmitReviewHandler(t *testing.T) {
	post := func(rel relations.RelationsService, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/buildings/b1/reviews", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		return serve(newRouter(&stubListings{}, rel), req)
	}

	w := post(&stubRelations{}, `{"rating":5,"comment":"nice"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"r1"}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, post(&stubRelations{}, `{"rating":`).Code)

	verr := &models.ValidationError{}
	verr.Add("rating", "must be between 1 and 5")
	w = post(&stubRelations{reviewErr: verr}, `{"rating":9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ValidationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rating", resp.Fields[0].Field)

	w = post(&stubRelations{reviewErr: &relations.PersistenceError{Step: relations.StepLinkBuilding, ReviewID: "r1", Err: errors.New("reset")}}, `{"rating":4}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLikeHandler_Unauthenticated(t *testing.T) {
	w := serve(newRouter(&stubListings{}, &stubRelations{}), httptest.NewRequest(http.MethodPost, "/api/buildings/b1/like", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWriteError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&models.ValidationError{Fields: []models.FieldError{{Field: "price", Message: "bad"}}}, http.StatusBadRequest},
		{relations.ErrUnauthenticated, http.StatusUnauthorized},
		{fmt.Errorf("x: %w", recognition.ErrNoMatch), http.StatusNotFound},
		{fmt.Errorf("x: %w", document.ErrNotFound), http.StatusNotFound},
		{&storage.UploadError{Index: 1, Err: errors.New("quota")}, http.StatusBadGateway},
		{&recognition.ServiceError{Op: "extract", Err: errors.New("mismatch")}, http.StatusBadGateway},
		{&relations.PersistenceError{Step: relations.StepCreateReview, Err: errors.New("down")}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		writeError(c, tc.err)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}
