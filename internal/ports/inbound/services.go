// Package inbound contains the primary/inbound ports.
// These interfaces define the use cases that the application exposes.
package inbound

import (
	"context"

	"github.com/archon-research/contract-probe/internal/domain/entity"
)

// EndpointSelector finds and caches a responsive JSON-RPC endpoint.
type EndpointSelector interface {
	// ResolveEndpoint returns a currently responsive endpoint, preferring the
	// cached one, or fails with entity.ErrNoEndpointAvailable.
	ResolveEndpoint(ctx context.Context) (string, error)

	// Invalidate drops endpoint from the cache after a failed call.
	Invalidate(ctx context.Context, endpoint string)
}

// ContractProber is the use case surface consumed by the HTTP API and the CLI.
type ContractProber interface {
	// Info returns the account-level facts for address.
	Info(ctx context.Context, address string) (*entity.ContractInfo, error)

	// Methods probes every catalog entry on address, in catalog order.
	Methods(ctx context.Context, address string) ([]entity.ProbeResult, error)

	// Report runs Info and Methods, failing with entity.ErrNotAContract when
	// the address holds no code.
	Report(ctx context.Context, address string) (*entity.Report, error)

	// CallWithComputedSelector calls an arbitrary signature on address.
	CallWithComputedSelector(ctx context.Context, address, signature string, params []string) (*entity.CallResult, error)
}

// HealthChecker defines the interface for services that can report readiness and liveness.
type HealthChecker interface {
	// IsReady returns true once an endpoint has been discovered at least once.
	IsReady() bool

	// IsHealthy returns true unless the most recent resolution found no endpoint.
	IsHealthy() bool
}
