package signal

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/newthinker/twquant/internal/core"
)

// MemoryStore is an in-memory signal store.
type MemoryStore struct {
	signals []core.Signal
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		signals: make([]core.Signal, 0, maxSize),
		maxSize: maxSize,
	}
}

// Save adds a signal to the store.
func (m *MemoryStore) Save(ctx context.Context, signal core.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if signal.ID == "" {
		signal.ID = uuid.NewString()
	}
	m.signals = append(m.signals, signal)

	// Trim if over capacity (remove oldest)
	if m.maxSize > 0 && len(m.signals) > m.maxSize {
		m.signals = m.signals[len(m.signals)-m.maxSize:]
	}

	return nil
}

// List returns signals matching the filter.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return apply(m.signals, filter), nil
}
