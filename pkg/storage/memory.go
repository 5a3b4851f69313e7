package storage

import (
	"context"
	"sync"
)

// Object is a stored blob and its content type
type Object struct {
	Data        []byte
	ContentType string
}

// Memory keeps objects in process. Used for dry runs and tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]Object
	puts    int
	// FailWith, when set, is returned by every Put
	FailWith error
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

func (m *Memory) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.puts++
	if m.FailWith != nil {
		return &WriteError{Key: key, Err: m.FailWith}
	}
	if err := ctx.Err(); err != nil {
		return &WriteError{Key: key, Err: err}
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = Object{Data: buf, ContentType: contentType}
	return nil
}

// Get returns the object stored under key
func (m *Memory) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Puts returns the number of Put calls, including failed ones
func (m *Memory) Puts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.puts
}

func (m *Memory) Close() error {
	return nil
}
