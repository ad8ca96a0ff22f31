package main

import (
	"context"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"restate/config"
	"restate/cron"
	"restate/database"
	buildingRepo "restate/database/repository/building"
	detailsRepo "restate/database/repository/details"
	"restate/database/repository/document"
	reviewRepo "restate/database/repository/review"
	userRepoPkg "restate/database/repository/user"
	"restate/handlers"
	"restate/middleware"
	"restate/routes"
	"restate/services/listing"
	"restate/services/recognition"
	"restate/services/relations"
	"restate/services/storage"
	"restate/services/user"
	"restate/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const memoryScheme = "memory://"

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	cfg := config.AppConfig

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Document store.
	var store document.Store
	var mongoClient *mongo.Client
	if strings.HasPrefix(cfg.DatabaseURL, memoryScheme) {
		logger.Warn("Using in-memory document store; data will not survive a restart")
		store = document.NewMemoryStore()
	} else {
		if err := database.InitDB(ctx); err != nil {
			logger.Fatal("main: failed to connect to database", zap.Error(err))
		}
		mongoClient = database.MongoClient
		mongoStore := document.NewMongoStore(database.Database())
		if err := mongoStore.EnsureIndexes(ctx, database.Indexes()); err != nil {
			logger.Fatal("main: failed to ensure indexes", zap.Error(err))
		}
		store = mongoStore
	}

	// Session revocation cache.
	var redisClient *redis.Client
	var revocations *utils.RedisRevocationStore
	if cfg.RedisAddr != "" {
		redisClient = utils.GetAuthCacheClient()
		revocations = utils.NewRedisRevocationStore(redisClient)
	}

	utils.StartHealthMonitor(ctx, redisClient, mongoClient, 30*time.Second)

	// Repositories.
	users := userRepoPkg.NewUserRepo(store, cfg.UsersCollection)
	buildings := buildingRepo.NewBuildingRepo(store, cfg.BuildingsCollection)
	details := detailsRepo.NewDetailsRepo(store, cfg.DetailsCollection)
	reviews := reviewRepo.NewReviewRepo(store, cfg.ReviewsCollection)

	// External services.
	media, err := storage.NewCloudinaryUploader(
		cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder,
		logger.Named("storage"),
	)
	if err != nil {
		logger.Fatal("main: failed to initialize cloudinary storage service", zap.Error(err))
	}
	recognizer := recognition.NewHTTPClient(recognition.Options{
		BaseURL:    cfg.RecognitionBaseURL,
		Timeout:    cfg.RecognitionTimeout,
		MaxRetries: cfg.RecognitionMaxRetries,
	}, logger.Named("recognition"))

	// Services.
	userService := &user.DefaultUserService{Repo: users, Logger: logger.Named("user")}
	listingService := &listing.DefaultListingService{
		Buildings:         buildings,
		Details:           details,
		Media:             media,
		Recognizer:        recognizer,
		UploadConcurrency: cfg.UploadConcurrency,
		Logger:            logger.Named("listing"),
	}
	relationsService := &relations.DefaultRelationsService{
		Users:     users,
		Buildings: buildings,
		Reviews:   reviews,
		Logger:    logger.Named("relations"),
	}

	reconciler := &cron.ReviewReconciler{
		Reviews: reviews,
		Linker:  relationsService,
		Logger:  logger.Named("reconciler"),
	}
	if _, err := cron.StartReviewReconciler(ctx, cfg.ReconcileSchedule, reconciler); err != nil {
		logger.Fatal("main: failed to start review reconciler", zap.Error(err))
	}

	// Handlers.
	var auth gin.HandlerFunc
	var revoker handlers.TokenRevoker
	if revocations != nil {
		auth = middleware.JWTAuthUserMiddleware(revocations, userService)
		revoker = revocations
	} else {
		logger.Warn("REDIS_ADDR not set; token revocation disabled")
		auth = middleware.JWTAuthUserMiddleware(nil, userService)
		revoker = noRevoker{}
	}

	handlerBundle := handlers.NewHandlerBundle(
		auth,
		handlers.NewBuildingHandler(listingService),
		handlers.NewRelationsHandler(relationsService),
		&handlers.SessionHandler{Revoker: revoker},
	)
	router := routes.SetupRouter(handlerBundle, middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	<-ctx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	if err := database.Close(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: failed to close database: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	_ = logger.Sync()
	logger.Sugar().Info("main: server stopped gracefully")
}

// noRevoker accepts logouts when no revocation cache is configured; tokens
// then stay valid until they expire.
type noRevoker struct{}

func (noRevoker) Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error {
	return nil
}
