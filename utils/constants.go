// File: utils/constants.go
package utils

import "time"

// RevokedTokenPrefix is the prefix used for Redis revoked-token keys.
const RevokedTokenPrefix = "auth:revoked:"

// AuthCacheTTL is the fallback time-to-live for revocation entries.
const AuthCacheTTL = 24 * time.Hour
