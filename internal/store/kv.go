// Package store persists test sessions, metrics history, and shared info as
// JSON blobs in a key-value store.
//
// The KV abstraction mirrors the mobile client's opaque encrypted string
// store: get/set/delete on string keys. SQLiteKV is the durable
// implementation; MemKV backs tests.
//
// Failure semantics: reads that fail or return unparseable payloads degrade
// to empty-collection defaults (cold start). Explicit writes that fail
// surface a *types.StorageWriteError - silent data loss on save is
// unacceptable.
package store

// KV is a minimal get/set/delete string store.
type KV interface {
	// Get returns the value for key, and whether the key was present.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any existing value.
	Set(key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
	// Close releases underlying resources.
	Close() error
}

// Fixed keys for the three logical collections.
const (
	keySessions   = "test_sessions"
	keyHistory    = "metrics_history"
	keySharedInfo = "shared_info"
)
