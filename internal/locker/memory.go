package locker

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Locker. It is the default when no Redis endpoint is
// configured; sufficient for a single-instance deployment.
type Memory struct {
	mu   sync.Mutex
	held map[string]time.Time // key -> expiry
}

// NewMemory creates an in-process Locker.
func NewMemory() *Memory {
	return &Memory{held: make(map[string]time.Time)}
}

// Acquire implements Locker. Expired claims are treated as free, so a holder
// that never released (crashed goroutine) cannot wedge a key forever.
func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	now := time.Now()

	m.mu.Lock()
	if exp, ok := m.held[key]; ok && now.Before(exp) {
		m.mu.Unlock()
		return nil, ErrHeld
	}
	expiry := now.Add(ttl)
	m.held[key] = expiry
	m.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			// Only delete our own claim; a later holder may own the key after
			// our TTL lapsed.
			if exp, ok := m.held[key]; ok && exp.Equal(expiry) {
				delete(m.held, key)
			}
			m.mu.Unlock()
		})
	}
	return release, nil
}

var _ Locker = (*Memory)(nil)
