package credentials

import "sync"

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps credentials in memory only. It satisfies Store for
// callers that opt out of persistence; credentials do not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

func (s *MemoryStore) SetAccess(access string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.Access = access
}

func (s *MemoryStore) SetBoth(access, renewal string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{Access: access, Renewal: renewal}
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
}
