package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryKV is an in-process KV with the same quota semantics as the
// database-backed stores. It backs ephemeral servers and tests.
type MemoryKV struct {
	mu    sync.RWMutex
	items map[string]string
	used  int64
	quota int64
}

func NewMemoryKV(quotaBytes int64) *MemoryKV {
	return &MemoryKV{items: make(map[string]string), quota: quotaBytes}
}

func (m *MemoryKV) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryKV) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.used + EntrySize(key, value)
	if old, ok := m.items[key]; ok {
		next -= EntrySize(key, old)
	}
	if m.quota > 0 && next > m.quota {
		return ErrQuotaExceeded
	}
	m.items[key] = value
	m.used = next
	return nil
}

func (m *MemoryKV) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.items[key]; ok {
		m.used -= EntrySize(key, old)
		delete(m.items, key)
	}
	return nil
}

func (m *MemoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryKV) SetQuota(bytes int64) {
	m.mu.Lock()
	m.quota = bytes
	m.mu.Unlock()
}

func (m *MemoryKV) Usage(context.Context) (Usage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Usage{UsedBytes: m.used, QuotaBytes: m.quota}, nil
}
