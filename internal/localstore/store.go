package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Keys shared with the web storefront's local storage layout.
const (
	KeyCart         = "streetEatsCart"
	KeyCartPageData = "streetEatsCartPageData"
	KeyOrders       = "streetEatsOrders"
	KeyProducts     = "streetEatsProducts"
	KeySession      = "streetEatsSession"
)

// Store is a session-scoped key/value store holding JSON documents.
// Writes are last-write-wins; there is no cross-process locking.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes key into dst. It reports false when the key is absent.
func GetJSON(ctx context.Context, store Store, key string, dst any) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes value and stores it under key.
func SetJSON(ctx context.Context, store Store, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, key, string(payload))
}

// Memory keeps values in process memory.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
