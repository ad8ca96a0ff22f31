package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers and the auth middleware into one struct.
type HandlerBundle struct {
	// Auth authenticates the caller on protected routes.
	Auth gin.HandlerFunc

	// Catalog endpoints
	LatestBuildingsHandler gin.HandlerFunc
	SearchBuildingsHandler gin.HandlerFunc
	GetBuildingHandler     gin.HandlerFunc
	RecognizeHandler       gin.HandlerFunc

	// Listing ingestion
	CreateBuildingHandler gin.HandlerFunc

	// Relations endpoints
	LikeStatusHandler   gin.HandlerFunc
	LikeHandler         gin.HandlerFunc
	UnlikeHandler       gin.HandlerFunc
	SubmitReviewHandler gin.HandlerFunc

	// Session endpoints
	LogoutHandler gin.HandlerFunc
}

// NewHandlerBundle wires handler methods into a bundle.
func NewHandlerBundle(auth gin.HandlerFunc, buildings *BuildingHandler, rel *RelationsHandler, session *SessionHandler) *HandlerBundle {
	return &HandlerBundle{
		Auth:                   auth,
		LatestBuildingsHandler: buildings.LatestHandler,
		SearchBuildingsHandler: buildings.SearchHandler,
		GetBuildingHandler:     buildings.GetBuildingHandler,
		RecognizeHandler:       buildings.RecognizeHandler,
		CreateBuildingHandler:  buildings.CreateBuildingHandler,
		LikeStatusHandler:      rel.LikeStatusHandler,
		LikeHandler:            rel.LikeHandler,
		UnlikeHandler:          rel.UnlikeHandler,
		SubmitReviewHandler:    rel.SubmitReviewHandler,
		LogoutHandler:          session.LogoutHandler,
	}
}
