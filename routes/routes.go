package routes

import (
	"net/http"
	"time"

	"restate/handlers"
	"restate/middleware"
	"restate/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBuildingRoutes registers catalog, recognition and listing endpoints.
func RegisterBuildingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/buildings")
	{
		api.GET("", hb.SearchBuildingsHandler)
		api.GET("/latest", hb.LatestBuildingsHandler)
		api.GET("/:id", hb.GetBuildingHandler)
		api.POST("/recognize", hb.RecognizeHandler)

		// Protected routes (Require Authentication)
		protected := api.Group("")
		protected.Use(hb.Auth)
		protected.POST("", hb.CreateBuildingHandler)
		protected.GET("/:id/like", hb.LikeStatusHandler)
		protected.POST("/:id/like", hb.LikeHandler)
		protected.DELETE("/:id/like", hb.UnlikeHandler)
		protected.POST("/:id/reviews", hb.SubmitReviewHandler)
	}
}

// RegisterSessionRoutes registers session endpoints.
func RegisterSessionRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/session")
	{
		api.Use(hb.Auth)
		api.POST("/logout", hb.LogoutHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Store {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "message": "restate listing service"})
	})
}

// SetupRouter initializes the Gin engine with middleware and routes.
func SetupRouter(hb *handlers.HandlerBundle, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), middleware.RequestLoggerMiddleware(), utils.ErrorHandler())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middlewares...)
	r.MaxMultipartMemory = 32 << 20

	RegisterHealthRoute(r)
	RegisterBuildingRoutes(r, hb)
	RegisterSessionRoutes(r, hb)
	return r
}
