package idempotency

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value   string
	done    bool
	expires time.Time
}

// Memory is a process-local Store for single-instance runs and tests.
type Memory struct {
	mu   sync.Mutex
	keys map[string]memEntry
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[string]memEntry), now: time.Now}
}

func (m *Memory) Claim(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.keys[key]; ok && m.now().Before(e.expires) {
		if !e.done {
			return "", false, ErrInFlight
		}
		return e.value, false, nil
	}
	m.keys[key] = memEntry{expires: m.now().Add(TTL)}
	return "", true, nil
}

func (m *Memory) Complete(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = memEntry{value: value, done: true, expires: m.now().Add(TTL)}
	return nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}
