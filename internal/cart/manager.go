package cart

import (
	"sync"

	"github.com/rdelacruz/freshmarket-backend/pkg/pricing"
)

// Manager owns one cart store per active session. Carts have no server-side
// counterpart until checkout, so the manager is the whole lifecycle: created
// on first use, torn down when the session ends.
type Manager struct {
	mu       sync.Mutex
	policy   pricing.Policy
	sessions map[string]*Store
}

// NewManager builds a session cart manager under the given shipping policy.
func NewManager(policy pricing.Policy) *Manager {
	return &Manager{
		policy:   policy,
		sessions: map[string]*Store{},
	}
}

// Get returns the session's cart, creating it on first use.
func (m *Manager) Get(sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.sessions[sessionID]
	if !ok {
		store = NewStore(m.policy)
		m.sessions[sessionID] = store
	}
	return store
}

// Lookup returns the session's cart without creating one.
func (m *Manager) Lookup(sessionID string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.sessions[sessionID]
	return store, ok
}

// Remove tears down the session's cart.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Len reports how many session carts are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
