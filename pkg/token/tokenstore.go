package tokenstore

import (
	"time"

	"CareDesk/pkg/cache"
)

// in-memory revocation store keyed by jti. Entries carry the token's own
// expiry so the cache janitor prunes them once the token would have died
// anyway. For multi-instance deployments use Redis or DB.

const keyPrefix = "revoked:"

// Revoke marks a jti as revoked until the token's expiry. A zero expiry
// revokes without a TTL.
func Revoke(jti string, exp time.Time) {
	if jti == "" {
		return
	}
	var ttl time.Duration
	if !exp.IsZero() {
		ttl = time.Until(exp)
		if ttl <= 0 {
			return // already expired, nothing to revoke
		}
	}
	cache.Default().Set(keyPrefix+jti, true, ttl)
}

func IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	_, ok := cache.Default().Get(keyPrefix + jti)
	return ok
}
