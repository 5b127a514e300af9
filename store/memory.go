package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Store used by tests and dry runs. It counts
// mutations so tests can assert that a no-op cycle performs zero writes.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte

	Puts    int
	Deletes int

	// FailPut makes Put fail for the given keys, simulating a transient
	// upload failure mid-cycle.
	FailPut map[string]error
}

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}, FailPut: map[string]error{}}
}

func (m *Memory) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailPut[key]; ok {
		return err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key] = cp
	m.Puts++
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.Deletes++
	return nil
}

func (m *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
