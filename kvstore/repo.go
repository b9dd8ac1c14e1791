package kvstore

// Repo is a durable string key-value store scoped to a single client, the
// server-side equivalent of a browser's localStorage.
//
// Implementations must be safe for concurrent use. GetItem returns
// errors.ErrNotFound when the key is absent; RemoveItem on an absent key is
// not an error.
type Repo interface {
	// GetItem returns the value stored under key
	GetItem(key string) (string, error)

	// SetItem creates or overwrites the value stored under key
	SetItem(key, value string) error

	// RemoveItem deletes key
	RemoveItem(key string) error
}
