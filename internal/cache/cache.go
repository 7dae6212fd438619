package cache

import "time"

// Cache is a TTL key-value cache for hot read paths. Durable state
// lives in storage; the cache is advisory.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// VerdictKey is the cache key for the current verdict of a fingerprint.
func VerdictKey(fingerprint string) string {
	return "veristat:verdict:" + fingerprint
}
