package memstore

import (
	"sync"

	"github.com/jrsteele09/go-blog-admin/store"
)

var _ store.Repo = (*MemStore)(nil)

// MemStore is the ephemeral scope. Values are lost when the process exits.
type MemStore struct {
	values map[string]string
	lock   sync.RWMutex
}

func New() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

func (m *MemStore) Get(key string) (string, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (m *MemStore) Set(key, value string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.values[key] = value
	return nil
}

func (m *MemStore) Delete(key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	delete(m.values, key)
	return nil
}

func (m *MemStore) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.values)
}
