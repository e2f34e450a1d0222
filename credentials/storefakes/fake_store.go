package storefakes

import (
	"sync"

	"github.com/tourcat/tourcat-go/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credentials.Store that records every mutation so
// tests can assert on store transitions directly.
type FakeStore struct {
	mu    sync.RWMutex
	creds credentials.Credentials

	SetAccessCalls []string
	SetBothCalls   []credentials.Credentials
	ClearCalls     int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// Seed sets the stored credentials without recording a mutation.
func (s *FakeStore) Seed(access, renewal string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = credentials.Credentials{Access: access, Renewal: renewal}
}

func (s *FakeStore) Get() credentials.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

func (s *FakeStore) SetAccess(access string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.Access = access
	s.SetAccessCalls = append(s.SetAccessCalls, access)
}

func (s *FakeStore) SetBoth(access, renewal string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = credentials.Credentials{Access: access, Renewal: renewal}
	s.SetBothCalls = append(s.SetBothCalls, s.creds)
}

func (s *FakeStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = credentials.Credentials{}
	s.ClearCalls++
}
