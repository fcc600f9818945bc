// Package store provides the persisted client-local key/value state the SDK
// uses for the session record and content caches.
package store

// Store is persisted key/value state. Set must be atomic per logical update:
// a concurrent reader observes either the previous or the new value, never a
// half-written record.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) ([]byte, bool, error)
	// Set stores value under key in a single atomic write.
	Set(key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
