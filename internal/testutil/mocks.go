package testutil

import (
	"sync"

	"github.com/vnykmshr/ledgerguard/pkg/common/clock"
)

// MockClock implements clock.Clock for testing with controllable time.
// This is used across limiter and guard tests to avoid actual time delays.
type MockClock struct {
	mu  sync.Mutex
	now clock.Timestamp
}

// NewMockClock creates a new MockClock starting at the given timestamp.
func NewMockClock(start clock.Timestamp) *MockClock {
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() clock.Timestamp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given number of seconds.
func (m *MockClock) Advance(seconds uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += clock.Timestamp(seconds)
}

// Set sets the mock clock to a specific timestamp. Setting an earlier
// timestamp is allowed so tests can exercise clock regression handling.
func (m *MockClock) Set(t clock.Timestamp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}
