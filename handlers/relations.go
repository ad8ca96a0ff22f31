package handlers

import (
	"net/http"

	"restate/middleware"
	"restate/services/relations"

	"github.com/gin-gonic/gin"
)

// RelationsHandler serves like and review endpoints for the authenticated user.
type RelationsHandler struct {
	Relations relations.RelationsService
}

func NewRelationsHandler(svc relations.RelationsService) *RelationsHandler {
	return &RelationsHandler{Relations: svc}
}

// ReviewRequest is the body of POST /api/buildings/:id/reviews.
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// LikeStatusHandler handles GET /api/buildings/:id/like.
func (h *RelationsHandler) LikeStatusHandler(c *gin.Context) {
	liked, err := h.Relations.IsLiked(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// LikeHandler handles POST /api/buildings/:id/like.
func (h *RelationsHandler) LikeHandler(c *gin.Context) {
	if err := h.Relations.Like(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": true})
}

// UnlikeHandler handles DELETE /api/buildings/:id/like.
func (h *RelationsHandler) UnlikeHandler(c *gin.Context) {
	if err := h.Relations.Unlike(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": false})
}

// SubmitReviewHandler handles POST /api/buildings/:id/reviews.
func (h *RelationsHandler) SubmitReviewHandler(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "details": err.Error()})
		return
	}

	id, err := h.Relations.SubmitReview(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}
