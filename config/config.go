package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Document store.
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	DatabaseName        string `mapstructure:"DATABASE_NAME"`
	UsersCollection     string `mapstructure:"USERS_COLLECTION"`
	BuildingsCollection string `mapstructure:"BUILDINGS_COLLECTION"`
	DetailsCollection   string `mapstructure:"DETAILS_COLLECTION"`
	ReviewsCollection   string `mapstructure:"REVIEWS_COLLECTION"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`

	// Cloudinary media host.
	CloudinaryCloudName string `mapstructure:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `mapstructure:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `mapstructure:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `mapstructure:"CLOUDINARY_FOLDER"`
	UploadConcurrency   int    `mapstructure:"UPLOAD_CONCURRENCY"`

	// Recognition / feature extraction service.
	RecognitionBaseURL    string        `mapstructure:"RECOGNITION_BASE_URL"`
	RecognitionTimeout    time.Duration `mapstructure:"RECOGNITION_TIMEOUT"`
	RecognitionMaxRetries int           `mapstructure:"RECOGNITION_MAX_RETRIES"`

	// Review link reconciler.
	ReconcileSchedule string `mapstructure:"RECONCILE_SCHEDULE"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)

	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "restate")
	v.SetDefault("USERS_COLLECTION", "users")
	v.SetDefault("BUILDINGS_COLLECTION", "buildings")
	v.SetDefault("DETAILS_COLLECTION", "details")
	v.SetDefault("REVIEWS_COLLECTION", "reviews")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_AUTH_DB", 1)

	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
	v.SetDefault("CLOUDINARY_FOLDER", "buildings")
	v.SetDefault("UPLOAD_CONCURRENCY", 4)

	v.SetDefault("RECOGNITION_BASE_URL", "http://localhost:8000")
	v.SetDefault("RECOGNITION_TIMEOUT", 30*time.Second)
	v.SetDefault("RECOGNITION_MAX_RETRIES", 2)

	v.SetDefault("RECONCILE_SCHEDULE", "@every 5m")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
