// Package redis provides a Redis implementation of the EndpointStore port.
//
// Several server replicas sharing one Redis agree on the last endpoint that
// passed a liveness check. Entries expire after the configured TTL, and the
// selector re-validates every value it reads, so a stale entry only costs one
// extra liveness probe.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/archon-research/contract-probe/internal/ports/outbound"
)

// Compile-time check that EndpointStore implements outbound.EndpointStore
var _ outbound.EndpointStore = (*EndpointStore)(nil)

// clearScript deletes the key only while it still holds the given endpoint.
var clearScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Config holds Redis endpoint store configuration.
type Config struct {
	// Addr is the Redis server address (e.g., "localhost:6379")
	Addr string
	// Password for Redis authentication (empty for no auth)
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// TTL bounds how long a discovered endpoint is shared. Zero keeps it until cleared.
	TTL time.Duration
	// KeyPrefix is prepended to the store key. Defaults to "contract-probe".
	KeyPrefix string
}

// ConfigDefaults returns sensible defaults for the Redis endpoint store.
func ConfigDefaults() Config {
	return Config{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		TTL:       10 * time.Minute,
		KeyPrefix: "contract-probe",
	}
}

// EndpointStore is a Redis implementation of the outbound.EndpointStore port.
type EndpointStore struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *slog.Logger
}

// NewEndpointStore creates a new Redis endpoint store. It does not connect;
// call Ping to verify the server is reachable.
func NewEndpointStore(cfg Config, logger *slog.Logger) (*EndpointStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("redis TTL must not be negative, got %v", cfg.TTL)
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = ConfigDefaults().KeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if logger == nil {
		logger = slog.Default()
	}

	return &EndpointStore{
		client:    client,
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger.With("component", "redis-endpoint-store"),
	}, nil
}

// Ping checks the Redis connection.
func (s *EndpointStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *EndpointStore) Close() error {
	return s.client.Close()
}

// key returns the store key in the format prefix:rpc:endpoint.
func (s *EndpointStore) key() string {
	return s.keyPrefix + ":rpc:endpoint"
}

// Get returns the shared endpoint, or ok=false when none is stored.
func (s *EndpointStore) Get(ctx context.Context) (string, bool, error) {
	endpoint, err := s.client.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read endpoint: %w", err)
	}
	return endpoint, endpoint != "", nil
}

// Set shares endpoint with the configured TTL.
func (s *EndpointStore) Set(ctx context.Context, endpoint string) error {
	if err := s.client.Set(ctx, s.key(), endpoint, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store endpoint: %w", err)
	}
	return nil
}

// Clear removes the shared endpoint if it still equals endpoint.
func (s *EndpointStore) Clear(ctx context.Context, endpoint string) error {
	deleted, err := clearScript.Run(ctx, s.client, []string{s.key()}, endpoint).Int()
	if err != nil {
		return fmt.Errorf("failed to clear endpoint: %w", err)
	}
	if deleted == 0 {
		s.logger.Debug("endpoint not cleared, store holds a different value", "endpoint", endpoint)
	}
	return nil
}
