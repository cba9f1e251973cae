// Package contract_prober probes a contract without its ABI: account-level
// reads plus one eth_call per catalog selector, each outcome decoded
// heuristically.
package contract_prober

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/archon-research/contract-probe/internal/domain/entity"
	"github.com/archon-research/contract-probe/internal/pkg/selectors"
	"github.com/archon-research/contract-probe/internal/ports/inbound"
	"github.com/archon-research/contract-probe/internal/ports/outbound"
)

// Compile-time check that Service implements inbound.ContractProber
var _ inbound.ContractProber = (*Service)(nil)

// tracerName is the instrumentation name for this service.
const tracerName = "github.com/archon-research/contract-probe/internal/services/contract_prober"

// maxAttempts bounds account-level reads: the first endpoint plus one failover.
const maxAttempts = 2

// ServiceConfig holds configuration for the contract prober.
type ServiceConfig struct {
	// Catalog is the ordered list of selectors to probe. Defaults to selectors.Default().
	Catalog []entity.SelectorEntry

	// Concurrency is the number of catalog calls in flight. Defaults to 1,
	// which probes sequentially. Results keep catalog order either way.
	Concurrency int

	// CallTimeout bounds each RPC call. Defaults to 10s.
	CallTimeout time.Duration

	// Metrics records probe outcomes. Optional.
	Metrics outbound.ProbeMetrics

	// Logger is the structured logger for the service.
	Logger *slog.Logger
}

// ServiceConfigDefaults returns a config with default values.
func ServiceConfigDefaults() ServiceConfig {
	return ServiceConfig{
		Catalog:     selectors.Default(),
		Concurrency: 1,
		CallTimeout: 10 * time.Second,
	}
}

// Service implements inbound.ContractProber.
type Service struct {
	config   ServiceConfig
	selector inbound.EndpointSelector
	caller   outbound.RPCCaller
	metrics  outbound.ProbeMetrics
	logger   *slog.Logger
}

// NewService creates a new contract prober.
func NewService(config ServiceConfig, selector inbound.EndpointSelector, caller outbound.RPCCaller) (*Service, error) {
	if selector == nil {
		return nil, fmt.Errorf("selector cannot be nil")
	}
	if caller == nil {
		return nil, fmt.Errorf("caller cannot be nil")
	}

	defaults := ServiceConfigDefaults()
	if len(config.Catalog) == 0 {
		config.Catalog = defaults.Catalog
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = defaults.CallTimeout
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		config:   config,
		selector: selector,
		caller:   caller,
		metrics:  metrics,
		logger:   logger.With("component", "contract-prober"),
	}, nil
}

// Info returns the account-level facts for address.
func (s *Service) Info(ctx context.Context, address string) (*entity.ContractInfo, error) {
	if err := entity.ValidateAddress(address); err != nil {
		return nil, err
	}

	var info *entity.ContractInfo
	_, err := s.withFailover(ctx, func(ctx context.Context, endpoint string) error {
		var err error
		info, err = s.probe(ctx, endpoint, address)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Methods probes every catalog entry on address. Per-method failures are
// reported in the results; only endpoint resolution fails the call.
func (s *Service) Methods(ctx context.Context, address string) ([]entity.ProbeResult, error) {
	if err := entity.ValidateAddress(address); err != nil {
		return nil, err
	}

	endpoint, err := s.selector.ResolveEndpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving endpoint: %w", err)
	}
	return s.probeAllMethods(ctx, endpoint, address), nil
}

// Report probes account facts and every catalog method on one endpoint.
// It fails with entity.ErrNotAContract when address holds no code.
func (s *Service) Report(ctx context.Context, address string) (report *entity.Report, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "prober.report")
	span.SetAttributes(attribute.String("contract.address", address))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "report failed")
		} else {
			span.SetAttributes(
				attribute.String("rpc.endpoint", report.Endpoint),
				attribute.Int("probe.working", len(report.Working())),
			)
		}
		span.End()
	}()

	if err := entity.ValidateAddress(address); err != nil {
		return nil, err
	}

	var info *entity.ContractInfo
	endpoint, err := s.withFailover(ctx, func(ctx context.Context, endpoint string) error {
		var err error
		info, err = s.probe(ctx, endpoint, address)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !info.IsContract {
		return nil, fmt.Errorf("%w: %s", entity.ErrNotAContract, address)
	}

	return &entity.Report{
		Endpoint: endpoint,
		Info:     *info,
		Methods:  s.probeAllMethods(ctx, endpoint, address),
	}, nil
}

// withFailover runs op on a resolved endpoint. A transport failure
// invalidates that endpoint and op runs once more on a fresh one.
func (s *Service) withFailover(ctx context.Context, op func(ctx context.Context, endpoint string) error) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		endpoint, err := s.selector.ResolveEndpoint(ctx)
		if err != nil {
			return "", fmt.Errorf("resolving endpoint: %w", err)
		}

		lastErr = op(ctx, endpoint)
		if lastErr == nil {
			return endpoint, nil
		}
		if !outbound.IsTransportError(lastErr) || ctx.Err() != nil {
			return "", lastErr
		}

		s.logger.Warn("transport failure, invalidating endpoint",
			"endpoint", endpoint, "attempt", attempt, "error", lastErr)
		s.invalidate(ctx, endpoint)
	}
	return "", lastErr
}

func (s *Service) invalidate(ctx context.Context, endpoint string) {
	s.selector.Invalidate(ctx, endpoint)
	s.metrics.RecordFailover(ctx, endpoint)
}

type nopMetrics struct{}

func (nopMetrics) RecordProbeRun(context.Context, time.Duration, int, int) {}
func (nopMetrics) RecordMethodProbe(context.Context, string, bool)         {}
func (nopMetrics) RecordFailover(context.Context, string)                  {}
