package main

import (
	"fmt"
	"time"

	"github.com/archon-research/contract-probe/internal/pkg/env"
)

// Ronin mainnet mirrors, tried in this order.
var defaultEndpoints = []string{
	"https://api.roninchain.com/rpc",
	"https://api.roninchain.com/eth",
	"https://api-gateway.skymavis.com/rpc",
}

const defaultAddress = "0xfB597d6Fa6C08f5434e6eCf69114497343aE13Dd"

// config is the process configuration read from the environment.
type config struct {
	Endpoints       []string
	Address         string
	NativeSymbol    string
	RPCTimeout      time.Duration
	LivenessTimeout time.Duration
	RateLimit       float64
	Concurrency     int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	Port            string
	Environment     string
	TracingEnabled  bool
	JaegerEndpoint  string
	MetricsEndpoint string
}

func loadConfig() (config, error) {
	cfg := config{
		Endpoints:       env.GetList("RPC_URLS", defaultEndpoints),
		Address:         env.Get("CONTRACT_ADDRESS", defaultAddress),
		NativeSymbol:    env.Get("NATIVE_SYMBOL", "RON"),
		RedisAddr:       env.Get("REDIS_ADDR", ""),
		RedisPassword:   env.Get("REDIS_PASSWORD", ""),
		Port:            env.Get("PORT", "3000"),
		Environment:     env.Get("ENVIRONMENT", "development"),
		TracingEnabled:  env.GetBool("TRACING_ENABLED"),
		JaegerEndpoint:  env.Get("JAEGER_ENDPOINT", ""),
		MetricsEndpoint: env.Get("OTEL_METRICS_ENDPOINT", ""),
	}

	var err error
	if cfg.RPCTimeout, err = env.GetDuration("RPC_TIMEOUT", 10*time.Second); err != nil {
		return config{}, err
	}
	if cfg.LivenessTimeout, err = env.GetDuration("RPC_LIVENESS_TIMEOUT", 5*time.Second); err != nil {
		return config{}, err
	}
	if cfg.RateLimit, err = env.GetFloat("RPC_RATE_LIMIT", 0); err != nil {
		return config{}, err
	}
	if cfg.Concurrency, err = env.GetInt("PROBE_CONCURRENCY", 1); err != nil {
		return config{}, err
	}
	if cfg.RedisDB, err = env.GetInt("REDIS_DB", 0); err != nil {
		return config{}, err
	}
	if cfg.RedisTTL, err = env.GetDuration("REDIS_TTL", 10*time.Minute); err != nil {
		return config{}, err
	}

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("RPC_URLS must name at least one endpoint")
	}
	if c.RPCTimeout <= 0 {
		return fmt.Errorf("RPC_TIMEOUT must be positive, got %v", c.RPCTimeout)
	}
	if c.LivenessTimeout <= 0 {
		return fmt.Errorf("RPC_LIVENESS_TIMEOUT must be positive, got %v", c.LivenessTimeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("RPC_RATE_LIMIT must not be negative, got %v", c.RateLimit)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("PROBE_CONCURRENCY must be at least 1, got %d", c.Concurrency)
	}
	if c.RedisTTL < 0 {
		return fmt.Errorf("REDIS_TTL must not be negative, got %v", c.RedisTTL)
	}
	return nil
}
