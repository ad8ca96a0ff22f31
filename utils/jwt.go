package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"time"

	"restate/config"
	"restate/models"

	"github.com/golang-jwt/jwt"
)

func secretKey() []byte {
	if config.AppConfig.JWTSecret != "" {
		return []byte(config.AppConfig.JWTSecret)
	}
	return []byte(os.Getenv("JWT_SECRET"))
}

// GenerateToken creates a signed JWT carrying the identity as sub/name/email claims.
// The token expires after the specified duration.
func GenerateToken(identity models.Identity, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   identity.UserID,
		"name":  identity.Name,
		"email": identity.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// HashToken computes a SHA-256 hash of the token string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	key := secretKey()
	if len(key) == 0 {
		return nil, errors.New("jwt secret not configured")
	}
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
}

// ExtractIdentityFromToken validates the token and returns the identity it carries
// together with its remaining lifetime.
func ExtractIdentityFromToken(tokenString string) (models.Identity, time.Duration, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return models.Identity{}, 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Identity{}, 0, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return models.Identity{}, 0, errors.New("token does not contain a valid 'sub' claim")
	}

	identity := models.Identity{UserID: sub}
	identity.Name, _ = claims["name"].(string)
	identity.Email, _ = claims["email"].(string)

	var remaining time.Duration
	if exp, ok := claims["exp"].(float64); ok {
		remaining = time.Until(time.Unix(int64(exp), 0))
	}
	return identity, remaining, nil
}
