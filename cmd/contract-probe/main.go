// Package main probes a contract without its ABI, either once from the
// command line or behind an HTTP API with -serve.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	httpapi "github.com/archon-research/contract-probe/internal/adapters/inbound/http"
	"github.com/archon-research/contract-probe/internal/adapters/outbound/jsonrpc"
	"github.com/archon-research/contract-probe/internal/adapters/outbound/memory"
	"github.com/archon-research/contract-probe/internal/adapters/outbound/redis"
	"github.com/archon-research/contract-probe/internal/adapters/outbound/telemetry"
	"github.com/archon-research/contract-probe/internal/domain/entity"
	"github.com/archon-research/contract-probe/internal/pkg/env"
	"github.com/archon-research/contract-probe/internal/ports/outbound"
	"github.com/archon-research/contract-probe/internal/services/contract_prober"
	"github.com/archon-research/contract-probe/internal/services/endpoint_selector"
)

const serviceName = "contract-probe"

// Build-time variables - can be set via ldflags, otherwise populated from Go's build info.
var (
	GitCommit string
	GitBranch string
	BuildTime string
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "" {
					GitCommit = setting.Value
				}
			case "vcs.time":
				if BuildTime == "" {
					BuildTime = setting.Value
				}
			}
		}
	}
}

// options are the command-line flags.
type options struct {
	address string
	serve   bool
	asJSON  bool
}

func main() {
	address := flag.String("address", "", "Contract address to probe (default: CONTRACT_ADDRESS)")
	serve := flag.Bool("serve", false, "Serve the HTTP API instead of printing a report")
	asJSON := flag.Bool("json", false, "Print the report as JSON")
	showVersion := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s\n", serviceName)
		fmt.Printf("  Commit:     %s\n", GitCommit)
		fmt.Printf("  Branch:     %s\n", GitBranch)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// The report goes to stdout, so a one-shot run only logs problems.
	fallback := slog.LevelWarn
	if *serve {
		fallback = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: env.ParseLogLevel(fallback),
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	opts := options{address: *address, serve: *serve, asJSON: *asJSON}
	if err := run(ctx, logger, cfg, opts, os.Stdout); err != nil {
		logger.Error("failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg config, opts options, stdout io.Writer) error {
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
			ServiceName:    serviceName,
			ServiceVersion: GitCommit,
			Environment:    cfg.Environment,
			JaegerEndpoint: cfg.JaegerEndpoint,
		})
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}
		defer flush(logger, "tracer", shutdown)
	}

	shutdownMetrics, err := telemetry.InitMetrics(ctx, telemetry.MetricConfig{
		ServiceName:    serviceName,
		ServiceVersion: GitCommit,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.MetricsEndpoint,
	})
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}
	defer flush(logger, "metrics", shutdownMetrics)

	svc, err := newServices(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer svc.close()

	address := opts.address
	if address == "" {
		address = cfg.Address
	}

	if opts.serve {
		ln, err := net.Listen("tcp", ":"+cfg.Port)
		if err != nil {
			return fmt.Errorf("listening on port %s: %w", cfg.Port, err)
		}
		return serveAPI(ctx, logger, ln, address, svc)
	}
	return printContractReport(ctx, svc.prober, address, cfg.NativeSymbol, opts.asJSON, stdout)
}

// services is the wired application.
type services struct {
	selector *endpoint_selector.Service
	prober   *contract_prober.Service
	close    func()
}

func newServices(ctx context.Context, logger *slog.Logger, cfg config) (*services, error) {
	store, closeStore, err := newEndpointStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	rpcTelemetry, err := jsonrpc.NewTelemetry()
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("creating rpc telemetry: %w", err)
	}
	client := jsonrpc.NewClient(jsonrpc.ClientConfig{
		Timeout:   cfg.RPCTimeout,
		RateLimit: rate.Limit(cfg.RateLimit),
		Telemetry: rpcTelemetry,
		Logger:    logger,
	})

	selector, err := endpoint_selector.NewService(endpoint_selector.ServiceConfig{
		Endpoints:       cfg.Endpoints,
		LivenessTimeout: cfg.LivenessTimeout,
		Logger:          logger,
	}, client, store)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("creating endpoint selector: %w", err)
	}

	probeMetrics, err := telemetry.NewMetrics(serviceName)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("creating probe metrics: %w", err)
	}
	prober, err := contract_prober.NewService(contract_prober.ServiceConfig{
		Concurrency: cfg.Concurrency,
		CallTimeout: cfg.RPCTimeout,
		Metrics:     probeMetrics,
		Logger:      logger,
	}, selector, client)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("creating contract prober: %w", err)
	}

	return &services{selector: selector, prober: prober, close: closeStore}, nil
}

// newEndpointStore shares the endpoint through Redis when REDIS_ADDR is set
// and keeps it in process otherwise.
func newEndpointStore(ctx context.Context, cfg config, logger *slog.Logger) (outbound.EndpointStore, func(), error) {
	if cfg.RedisAddr == "" {
		return memory.NewEndpointStore(), func() {}, nil
	}

	storeConfig := redis.ConfigDefaults()
	storeConfig.Addr = cfg.RedisAddr
	storeConfig.Password = cfg.RedisPassword
	storeConfig.DB = cfg.RedisDB
	storeConfig.TTL = cfg.RedisTTL

	store, err := redis.NewEndpointStore(storeConfig, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating redis endpoint store: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	logger.Info("sharing endpoint through redis", "addr", cfg.RedisAddr)

	return store, func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close redis", "error", err)
		}
	}, nil
}

func printContractReport(ctx context.Context, prober *contract_prober.Service, address, symbol string, asJSON bool, w io.Writer) error {
	report, err := prober.Report(ctx, address)
	if err != nil {
		if errors.Is(err, entity.ErrNotAContract) {
			return fmt.Errorf("%s is not a contract", address)
		}
		return err
	}

	if asJSON {
		return printJSON(w, report)
	}
	printReport(w, report, symbol)
	return nil
}

func serveAPI(ctx context.Context, logger *slog.Logger, ln net.Listener, address string, svc *services) error {
	// Find an endpoint up front so readiness does not wait for the first request.
	if endpoint, err := svc.selector.ResolveEndpoint(ctx); err != nil {
		logger.Warn("no endpoint available at startup", "error", err)
	} else {
		logger.Info("initial endpoint", "endpoint", endpoint)
	}

	server := httpapi.NewServer(httpapi.ServerConfig{
		DefaultAddress: address,
		Logger:         logger,
	}, svc.prober, svc.selector, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := server.Shutdown(10 * time.Second); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return <-errCh
}

func flush(logger *slog.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Warn("failed to flush telemetry", "provider", name, "error", err)
	}
}
