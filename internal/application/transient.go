package application

import (
	"sync"

	"github.com/inkpad-dev/inkpad/internal/domain/model"
)

// TransientStore is the in-process credential session: verified credentials
// keyed by account id, living only as long as the process. Nothing in here
// ever reaches durable storage.
type TransientStore struct {
	mu    sync.Mutex
	creds map[string]*model.TransientCredentials
}

// NewTransientStore creates an empty credential session.
func NewTransientStore() *TransientStore {
	return &TransientStore{creds: make(map[string]*model.TransientCredentials)}
}

// Get returns the transient credentials stored for the account, or nil when
// none have been verified this session.
func (s *TransientStore) Get(accountID string) *model.TransientCredentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds[accountID]
}

// Set replaces the account's transient credentials wholesale. A nil value
// removes the entry.
func (s *TransientStore) Set(accountID string, tc *model.TransientCredentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tc == nil {
		delete(s.creds, accountID)
		return
	}
	s.creds[accountID] = tc
}

// Clear drops every stored credential.
func (s *TransientStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = make(map[string]*model.TransientCredentials)
}
