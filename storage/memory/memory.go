// Package memory implements an in-memory api.Backend, used by tests and
// by the CLI when storage.backend is "memory". It satisfies exactly the same contract as
// storage/badgerdb so coordinator tests never need a disk.
package memory

import (
	"bytes"
	"io"
	"io/ioutil"
	"sync"

	"github.com/trusted-setup/coordinator/storage/api"
)

// Backend is a api.Backend backed by a plain Go map, guarded by a single
// RWMutex. Good enough for a single-writer/many-reader discipline the
// façade already enforces at a higher layer.
type Backend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{data: make(map[string][]byte)}
}

// Get implements api.Backend.
func (b *Backend) Get(loc api.Locator) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.data[api.Path(loc)]
	if !ok {
		return nil, api.ErrStorageFailed
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Exists implements api.Backend.
func (b *Backend) Exists(loc api.Locator) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.data[api.Path(loc)]
	return ok
}

// Insert implements api.Backend.
func (b *Backend) Insert(loc api.Locator, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := api.Path(loc)
	if _, ok := b.data[key]; ok {
		return api.ErrLocatorAlreadyExists
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b.data[key] = cp
	return nil
}

// Update implements api.Backend.
func (b *Backend) Update(loc api.Locator, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := api.Path(loc)
	if _, ok := b.data[key]; !ok {
		return api.ErrLocatorMissing
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b.data[key] = cp
	return nil
}

// Remove implements api.Backend. Idempotent: removing an absent key is
// not an error.
func (b *Backend) Remove(loc api.Locator) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.data, api.Path(loc))
	return nil
}

// Reader implements api.Backend.
func (b *Backend) Reader(loc api.Locator) (io.ReadCloser, error) {
	v, err := b.Get(loc)
	if err != nil {
		return nil, err
	}
	return ioutil.NopCloser(bytes.NewReader(v)), nil
}

// ToPath implements api.Backend.
func (b *Backend) ToPath(loc api.Locator) string { return api.Path(loc) }

// ToLocator implements api.Backend.
func (b *Backend) ToLocator(path string) (api.Locator, error) { return api.ParsePath(path) }

// Close implements api.Backend. A no-op for the in-memory backend.
func (b *Backend) Close() error { return nil }
