// Package session holds the signed-in user's identity and bearer token.
// The engine re-reads the session before every authenticated call instead of
// caching the token, so a sign-out or token refresh is observed by the next
// call.
package session

import "sync"

// Reader is the read-only view the engine consumes.
type Reader interface {
	// Token returns the bearer token, or ok=false when signed out.
	Token() (token string, ok bool)

	// UserID returns the session user's ID, or ok=false when signed out.
	UserID() (id int64, ok bool)
}

// Store is a full session store: the CLI writes it on login and clears it on
// sign-out or when the backend rejects the token.
type Store interface {
	Reader

	// Set records a signed-in session.
	Set(userID int64, username, token string) error

	// Clear discards the session.
	Clear() error

	// Username returns the signed-in user's display name, if any.
	Username() string
}

// MemoryStore keeps the session in process memory. Used in tests and as the
// base for the file-backed store.
type MemoryStore struct {
	mu       sync.RWMutex
	userID   int64
	username string
	token    string
	signedIn bool
}

// NewMemoryStore creates an empty, signed-out store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.signedIn || m.token == "" {
		return "", false
	}
	return m.token, true
}

func (m *MemoryStore) UserID() (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.signedIn {
		return 0, false
	}
	return m.userID, true
}

func (m *MemoryStore) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.username
}

func (m *MemoryStore) Set(userID int64, username, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userID = userID
	m.username = username
	m.token = token
	m.signedIn = true
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userID = 0
	m.username = ""
	m.token = ""
	m.signedIn = false
	return nil
}
