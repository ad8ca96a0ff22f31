package handlers

import (
	"errors"
	"net/http"

	"restate/database/repository/document"
	"restate/models"
	"restate/services/listing"
	"restate/services/recognition"
	"restate/services/relations"
	"restate/services/storage"
	"restate/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ValidationResponse is the body of a 400 caused by invalid fields.
type ValidationResponse struct {
	utils.ErrorResponse
	Fields []models.FieldError `json:"fields"`
}

// writeError maps a service error onto an HTTP status and error body.
func writeError(c *gin.Context, err error) {
	var (
		verr       *models.ValidationError
		partial    *listing.PartialUploadError
		uploadErr  *storage.UploadError
		serviceErr *recognition.ServiceError
		persistErr *relations.PersistenceError
	)

	switch {
	case errors.As(err, &verr):
		getLogger(c).Debug("Rejected invalid input", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, ValidationResponse{
			ErrorResponse: utils.ErrorResponse{Message: "Validation failed", Details: verr.Error()},
			Fields:        verr.Fields,
		})
	case errors.Is(err, relations.ErrUnauthenticated):
		utils.JSONError(c, http.StatusUnauthorized, "Insufficient authorization", err.Error())
	case errors.Is(err, recognition.ErrNoMatch):
		utils.JSONError(c, http.StatusNotFound, "No matching building found", err.Error())
	case errors.As(err, &partial), errors.As(err, &uploadErr):
		utils.JSONError(c, http.StatusBadGateway, "Image upload failed", err.Error())
	case errors.As(err, &serviceErr):
		utils.JSONError(c, http.StatusBadGateway, "Recognition service failed", err.Error())
	case errors.As(err, &persistErr):
		utils.JSONError(c, http.StatusInternalServerError, "Failed to save "+persistErr.Step, err.Error())
	case errors.Is(err, document.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "Not found", err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}
