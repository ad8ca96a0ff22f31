package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"restate/models"
	"restate/services/listing"
	"restate/services/storage"
	"restate/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxRecognitionImageBytes bounds the query photo of a recognition search.
const MaxRecognitionImageBytes = 10 << 20

// BuildingHandler serves the listing catalog, recognition and ingestion endpoints.
type BuildingHandler struct {
	Listings listing.ListingService
	TempDir  string
}

func NewBuildingHandler(svc listing.ListingService) *BuildingHandler {
	return &BuildingHandler{Listings: svc, TempDir: os.TempDir()}
}

func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		verr := &models.ValidationError{}
		verr.Add("limit", "must be a non-negative integer")
		return 0, verr
	}
	return n, nil
}

// LatestHandler handles GET /api/buildings/latest.
func (h *BuildingHandler) LatestHandler(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		writeError(c, err)
		return
	}
	buildings, err := h.Listings.Latest(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildings)
}

// SearchHandler handles GET /api/buildings?type=&query=&limit=.
func (h *BuildingHandler) SearchHandler(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		writeError(c, err)
		return
	}
	buildings, err := h.Listings.Search(c.Request.Context(), listing.SearchParams{
		Type:  c.Query("type"),
		Query: c.Query("query"),
		Limit: limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildings)
}

// GetBuildingHandler handles GET /api/buildings/:id.
func (h *BuildingHandler) GetBuildingHandler(c *gin.Context) {
	found, err := h.Listings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// RecognizeHandler handles POST /api/buildings/recognize with a multipart "file".
func (h *BuildingHandler) RecognizeHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		verr := &models.ValidationError{}
		verr.Add("file", "an image is required")
		writeError(c, verr)
		return
	}
	if fileHeader.Size > MaxRecognitionImageBytes {
		verr := &models.ValidationError{}
		verr.Add("file", "image is too large")
		writeError(c, verr)
		return
	}

	image, err := readFormFile(fileHeader)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Failed to read image", err.Error())
		return
	}
	if len(image) == 0 {
		verr := &models.ValidationError{}
		verr.Add("file", "image is empty")
		writeError(c, verr)
		return
	}

	found, err := h.Listings.Recognize(c.Request.Context(), fileHeader.Filename, image)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

// CreateBuildingHandler handles POST /api/buildings with the listing form and
// its "exterior" and "interior" image files.
func (h *BuildingHandler) CreateBuildingHandler(c *gin.Context) {
	logger := getLogger(c)

	form, err := c.MultipartForm()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid multipart form", err.Error())
		return
	}

	workDir, err := os.MkdirTemp(h.TempDir, "listing-*")
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to stage images", err.Error())
		return
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn("Failed to clean staged images", zap.String("dir", workDir), zap.Error(err))
		}
	}()

	exterior, err := stageImages(c, workDir, form.File["exterior"])
	if err != nil {
		writeError(c, err)
		return
	}
	interior, err := stageImages(c, workDir, form.File["interior"])
	if err != nil {
		writeError(c, err)
		return
	}

	draft := models.ListingDraft{
		BuildingName: c.PostForm("buildingName"),
		Address:      c.PostForm("address"),
		Country:      c.PostForm("country"),
		Latitude:     c.PostForm("latitude"),
		Longitude:    c.PostForm("longitude"),
		Price:        c.PostForm("price"),
		Description:  c.PostForm("description"),
		Type:         c.PostForm("type"),
		Area:         c.PostForm("area"),
		Bedrooms:     c.PostForm("bedrooms"),
		Bathrooms:    c.PostForm("bathrooms"),
		YearBuilt:    c.PostForm("yearBuilt"),
		Facilities:   splitFacilities(c.PostFormArray("facilities")),
		Exterior:     exterior,
		Interior:     interior,
	}

	result, err := h.Listings.Ingest(c.Request.Context(), draft)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// stageImages saves uploaded files under dir so they can be sent to the media host.
func stageImages(c *gin.Context, dir string, files []*multipart.FileHeader) ([]models.ImageSource, error) {
	images := make([]models.ImageSource, 0, len(files))
	for _, fh := range files {
		if err := storage.CheckFormat(fh.Filename); err != nil {
			verr := &models.ValidationError{}
			verr.Add("images", fmt.Sprintf("%s: %v", fh.Filename, err))
			return nil, verr
		}
		path := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
		if err := c.SaveUploadedFile(fh, path); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", fh.Filename, err)
		}
		images = append(images, models.ImageSource{Name: fh.Filename, Path: path})
	}
	return images, nil
}

// splitFacilities accepts repeated fields as well as comma-separated values.
func splitFacilities(values []string) []string {
	var out []string
	for _, v := range values {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				out = append(out, tag)
			}
		}
	}
	return out
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxRecognitionImageBytes))
}
