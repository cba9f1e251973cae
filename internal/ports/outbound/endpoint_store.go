package outbound

import "context"

// EndpointStore persists the currently trusted endpoint. The endpoint selector
// is its only writer and re-validates whatever it reads before use.
type EndpointStore interface {
	// Get returns the stored endpoint, or ok=false when none is set.
	Get(ctx context.Context) (endpoint string, ok bool, err error)

	// Set stores endpoint as the trusted one.
	Set(ctx context.Context, endpoint string) error

	// Clear removes the stored endpoint only if it still equals endpoint, so
	// a stale failure cannot evict a newer discovery.
	Clear(ctx context.Context, endpoint string) error
}
