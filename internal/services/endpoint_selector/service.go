// Package endpoint_selector finds a responsive JSON-RPC endpoint among
// interchangeable mirrors of one chain and keeps it cached until it fails.
package endpoint_selector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/archon-research/contract-probe/internal/domain/entity"
	"github.com/archon-research/contract-probe/internal/pkg/hexutil"
	"github.com/archon-research/contract-probe/internal/ports/inbound"
	"github.com/archon-research/contract-probe/internal/ports/outbound"
)

// Compile-time checks.
var (
	_ inbound.EndpointSelector = (*Service)(nil)
	_ inbound.HealthChecker    = (*Service)(nil)
)

// livenessMethod is the cheap call used to check an endpoint.
const livenessMethod = "eth_blockNumber"

// ServiceConfig holds configuration for the endpoint selector.
type ServiceConfig struct {
	// Endpoints are the candidate URLs in priority order.
	Endpoints []string

	// LivenessTimeout bounds each liveness call. Defaults to 5s.
	LivenessTimeout time.Duration

	// Logger is the structured logger for the service.
	Logger *slog.Logger
}

// ServiceConfigDefaults returns a config with default values.
func ServiceConfigDefaults() ServiceConfig {
	return ServiceConfig{
		LivenessTimeout: 5 * time.Second,
	}
}

// Service implements inbound.EndpointSelector. The store is the only cached
// state, and every value read from it is re-validated before use.
type Service struct {
	config ServiceConfig
	caller outbound.RPCCaller
	store  outbound.EndpointStore
	logger *slog.Logger

	// resolving collapses concurrent resolutions into one liveness sweep.
	resolving singleflight.Group

	ready   atomic.Bool
	healthy atomic.Bool
}

// NewService creates a new endpoint selector.
func NewService(config ServiceConfig, caller outbound.RPCCaller, store outbound.EndpointStore) (*Service, error) {
	if caller == nil {
		return nil, fmt.Errorf("caller cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if len(config.Endpoints) == 0 {
		return nil, fmt.Errorf("at least one endpoint is required")
	}
	for i, ep := range config.Endpoints {
		if ep == "" {
			return nil, fmt.Errorf("endpoint %d is empty", i)
		}
	}

	if config.LivenessTimeout <= 0 {
		config.LivenessTimeout = ServiceConfigDefaults().LivenessTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		config: config,
		caller: caller,
		store:  store,
		logger: logger.With("component", "endpoint-selector"),
	}
	s.healthy.Store(true)
	return s, nil
}

// ResolveEndpoint returns the cached endpoint if it still answers, otherwise
// the first candidate in declared order that does.
func (s *Service) ResolveEndpoint(ctx context.Context) (string, error) {
	// The sweep is shared by every waiting caller, so one caller's
	// cancellation must not fail the others. Each liveness call is bounded.
	sweepCtx := context.WithoutCancel(ctx)
	ch := s.resolving.DoChan("resolve", func() (any, error) {
		return s.resolve(sweepCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *Service) resolve(ctx context.Context) (string, error) {
	cached, ok, err := s.store.Get(ctx)
	if err != nil {
		s.logger.Warn("failed to read cached endpoint", "error", err)
	} else if ok {
		_, err := s.checkLiveness(ctx, cached)
		if err == nil {
			s.markAvailable()
			return cached, nil
		}
		s.logger.Warn("cached endpoint failed liveness check", "endpoint", cached, "error", err)
		s.clear(ctx, cached)
	}

	var failures []entity.EndpointFailure
	for _, endpoint := range s.config.Endpoints {
		block, err := s.checkLiveness(ctx, endpoint)
		if err != nil {
			s.logger.Warn("endpoint failed liveness check", "endpoint", endpoint, "error", err)
			failures = append(failures, entity.EndpointFailure{Endpoint: endpoint, Err: err})
			continue
		}

		if err := s.store.Set(ctx, endpoint); err != nil {
			s.logger.Warn("failed to cache endpoint", "endpoint", endpoint, "error", err)
		}
		s.logger.Info("endpoint selected", "endpoint", endpoint, "blockNumber", block)
		s.markAvailable()
		return endpoint, nil
	}

	s.healthy.Store(false)
	return "", &entity.NoEndpointAvailableError{Failures: failures}
}

// checkLiveness calls eth_blockNumber and returns the reported height.
func (s *Service) checkLiveness(ctx context.Context, endpoint string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.LivenessTimeout)
	defer cancel()

	raw, err := s.caller.Call(ctx, endpoint, livenessMethod, nil)
	if err != nil {
		return 0, err
	}

	var quantity string
	if err := json.Unmarshal(raw, &quantity); err != nil {
		return 0, fmt.Errorf("unexpected %s result %s: %w", livenessMethod, raw, err)
	}
	block, err := hexutil.ParseUint64(quantity)
	if err != nil {
		return 0, fmt.Errorf("unexpected %s result: %w", livenessMethod, err)
	}
	return block, nil
}

// Invalidate drops endpoint from the cache. A newer endpoint cached by a
// concurrent resolution is left alone.
func (s *Service) Invalidate(ctx context.Context, endpoint string) {
	s.logger.Info("invalidating endpoint", "endpoint", endpoint)
	s.clear(ctx, endpoint)
}

func (s *Service) clear(ctx context.Context, endpoint string) {
	if err := s.store.Clear(ctx, endpoint); err != nil {
		s.logger.Warn("failed to clear cached endpoint", "endpoint", endpoint, "error", err)
	}
}

func (s *Service) markAvailable() {
	s.ready.Store(true)
	s.healthy.Store(true)
}

// IsReady returns true once any endpoint has answered.
func (s *Service) IsReady() bool {
	return s.ready.Load()
}

// IsHealthy returns false while the latest resolution found no endpoint.
func (s *Service) IsHealthy() bool {
	return s.healthy.Load()
}
