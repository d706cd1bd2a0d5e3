package driver

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrKeyNotFound returned by Get when the key is absent or expired
var ErrKeyNotFound = errors.New("key not found")

// KeyValueDB define a key-value storage interface
type KeyValueDB interface {
	SetEX(ctx context.Context, key string, value string, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}

type memoryEntry struct {
	value    string
	deadline time.Time // zero means no expiration
}

// MemoryKV in-process KeyValueDB, used when no redis is configured and in tests
type MemoryKV struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	now   func() time.Time
}

var _ KeyValueDB = &MemoryKV{}

// NewMemoryKV .
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string]memoryEntry), now: time.Now}
}

// SetEX implement KeyValueDB, zero expiration keeps the key forever
func (m *MemoryKV) SetEX(ctx context.Context, key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{value: value}
	if expiration > 0 {
		entry.deadline = m.now().Add(expiration)
	}
	m.items[key] = entry
	return nil
}

// Get implement KeyValueDB
func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.items[key]
	if !ok || m.expired(entry) {
		return "", ErrKeyNotFound
	}
	return entry.value, nil
}

// Exists implement KeyValueDB
func (m *MemoryKV) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Ping implement KeyValueDB
func (m *MemoryKV) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryKV) expired(entry memoryEntry) bool {
	return !entry.deadline.IsZero() && !m.now().Before(entry.deadline)
}
