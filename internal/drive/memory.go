package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory ObjectStore. It exists for tests and local
// development and is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
		now:     time.Now,
	}
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]Object, error) {
	base := strings.TrimSuffix(prefix, "/") + "/"

	m.mu.RLock()
	defer m.mu.RUnlock()

	var objects []Object
	for key, data := range m.objects {
		if !strings.HasPrefix(key, base) {
			continue
		}
		rest := strings.TrimPrefix(key, base)
		if strings.Contains(rest, "/") {
			continue // not a direct child
		}
		objects = append(objects, Object{Name: rest, Size: int64(len(data)), UpdatedAt: m.now()})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

func (m *MemoryStore) Upload(_ context.Context, key string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("reading upload body: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.objects, k)
	}
	return nil
}

func (m *MemoryStore) Move(_ context.Context, oldKey, newKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[oldKey]
	if !ok {
		return ErrObjectNotFound
	}
	m.objects[newKey] = data
	delete(m.objects, oldKey)
	return nil
}

func (m *MemoryStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key]; !ok {
		return "", ErrObjectNotFound
	}
	expires := m.now().Add(ttl).Unix()
	return fmt.Sprintf("memory://%s?expires=%d", key, expires), nil
}

func (m *MemoryStore) Fetch(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Keys returns every stored key, sorted. Test helper.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
