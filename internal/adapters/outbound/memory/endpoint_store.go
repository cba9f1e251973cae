// Package memory provides an in-process implementation of the EndpointStore
// port. State is lost on restart and is not shared between replicas.
package memory

import (
	"context"
	"sync"

	"github.com/archon-research/contract-probe/internal/ports/outbound"
)

// Compile-time check that EndpointStore implements outbound.EndpointStore
var _ outbound.EndpointStore = (*EndpointStore)(nil)

// EndpointStore holds the trusted endpoint behind a mutex.
type EndpointStore struct {
	mu       sync.RWMutex
	endpoint string
}

// NewEndpointStore creates an empty store.
func NewEndpointStore() *EndpointStore {
	return &EndpointStore{}
}

// Get returns the stored endpoint.
func (s *EndpointStore) Get(ctx context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoint, s.endpoint != "", nil
}

// Set stores the endpoint.
func (s *EndpointStore) Set(ctx context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoint = endpoint
	return nil
}

// Clear drops the stored endpoint if it equals endpoint.
func (s *EndpointStore) Clear(ctx context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endpoint == endpoint {
		s.endpoint = ""
	}
	return nil
}
