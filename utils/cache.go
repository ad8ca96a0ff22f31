// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"restate/config"

	"github.com/go-redis/redis/v8"
)

// AuthCacheClient is the dedicated client for session revocation lookups.
var AuthCacheClient *redis.Client

// InitAuthCache initializes the Redis client for authorization caching.
func InitAuthCache() {
	AuthCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisAuthDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := AuthCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Auth Cache): %v", err)
	}
}

// GetAuthCacheClient returns the Redis client for authorization caching.
func GetAuthCacheClient() *redis.Client {
	if AuthCacheClient == nil {
		InitAuthCache()
	}
	return AuthCacheClient
}

// RedisRevocationStore records revoked token hashes until the token would have expired anyway.
type RedisRevocationStore struct {
	client *redis.Client
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

// IsRevoked reports whether the token hash has been revoked.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	err := s.client.Get(ctx, RevokedTokenPrefix+tokenHash).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Revoke marks the token hash as revoked for ttl.
func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = AuthCacheTTL
	}
	return s.client.Set(ctx, RevokedTokenPrefix+tokenHash, "1", ttl).Err()
}
