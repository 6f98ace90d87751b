// Package storage provides the durable key/value layer backing the
// notification and preference stores. The stores only depend on the KV
// interface, so the persistence mechanism stays swappable.
package storage

// Logical keys used by the stores.
const (
	KeyNotifications = "notifications"
	KeyPreferences   = "notificationPrefs"
)

// KV is a minimal durable key/value store with last-writer-wins semantics.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) ([]byte, bool, error)
	// Set stores a value, overwriting any previous one.
	Set(key string, value []byte) error
	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error
	// Close releases any underlying resources.
	Close() error
}
