package cdn

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps images in memory. It backs development runs without a
// bucket and the service tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	base    string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), base: baseURL}
}

func (m *MemoryStore) Put(_ context.Context, folder, contentType string, body []byte) (Image, error) {
	if err := CheckImage(contentType, body); err != nil {
		return Image{}, err
	}
	key := ObjectKey(folder, contentType, time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
	return Image{URL: m.base + "/" + key, PublicID: key}, nil
}

func (m *MemoryStore) Delete(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, publicID)
	return nil
}

// Has reports whether an object with publicID is stored.
func (m *MemoryStore) Has(publicID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[publicID]
	return ok
}
