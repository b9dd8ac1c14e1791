package kvstore

import (
	"sync"

	apperrors "github.com/jrsteele09/go-seller-session/internal/errors"
	"github.com/pkg/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is an in-memory implementation of Repo with an optional
// localStorage-style quota measured in bytes of keys plus values.
type InMemoryRepo struct {
	mu         sync.RWMutex
	items      map[string]string
	quotaBytes int
	usedBytes  int
}

// InMemoryOption configures an InMemoryRepo
type InMemoryOption func(*InMemoryRepo)

// WithQuota caps the total size of stored keys and values. Zero disables the cap.
func WithQuota(bytes int) InMemoryOption {
	return func(r *InMemoryRepo) {
		r.quotaBytes = bytes
	}
}

// NewInMemoryRepo creates a new in-memory key-value repository
func NewInMemoryRepo(options ...InMemoryOption) *InMemoryRepo {
	r := &InMemoryRepo{
		items: make(map[string]string),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// GetItem returns the value stored under key
func (r *InMemoryRepo) GetItem(key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.items[key]
	if !ok {
		return "", errors.Wrapf(apperrors.ErrNotFound, "key %q", key)
	}
	return value, nil
}

// SetItem creates or overwrites the value stored under key
func (r *InMemoryRepo) SetItem(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	used := r.usedBytes + len(key) + len(value)
	if old, ok := r.items[key]; ok {
		used -= len(key) + len(old)
	}
	if r.quotaBytes > 0 && used > r.quotaBytes {
		return errors.Wrapf(apperrors.ErrQuotaExceeded, "setting %q needs %d of %d bytes", key, used, r.quotaBytes)
	}

	r.items[key] = value
	r.usedBytes = used
	return nil
}

// RemoveItem deletes key
func (r *InMemoryRepo) RemoveItem(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.items[key]; ok {
		r.usedBytes -= len(key) + len(old)
		delete(r.items, key)
	}
	return nil
}

// Len returns the number of stored keys
func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
