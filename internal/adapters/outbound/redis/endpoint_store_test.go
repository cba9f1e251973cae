package redis

import (
	"strings"
	"testing"
	"time"
)

// --- Test: NewEndpointStore ---

func TestNewEndpointStore_CreatesWithConfig(t *testing.T) {
	cfg := Config{
		Addr:      "localhost:6379",
		Password:  "secret",
		DB:        1,
		TTL:       time.Hour,
		KeyPrefix: "test",
	}

	store, err := NewEndpointStore(cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer store.Close()

	if store.ttl != cfg.TTL {
		t.Errorf("expected TTL=%v, got %v", cfg.TTL, store.ttl)
	}
	if store.keyPrefix != cfg.KeyPrefix {
		t.Errorf("expected keyPrefix=%s, got %s", cfg.KeyPrefix, store.keyPrefix)
	}
	if store.client == nil {
		t.Fatal("expected client, got nil")
	}
	if store.logger == nil {
		t.Fatal("expected default logger to be set, got nil")
	}
}

func TestNewEndpointStore_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty addr", cfg: Config{}, wantErr: "redis address is required"},
		{name: "negative ttl", cfg: Config{Addr: "localhost:6379", TTL: -time.Second}, wantErr: "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEndpointStore(tt.cfg, nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

// --- Test: ConfigDefaults ---

func TestConfigDefaults_ReturnsDefaults(t *testing.T) {
	defaults := ConfigDefaults()

	if defaults.Addr != "localhost:6379" {
		t.Errorf("expected Addr=localhost:6379, got %s", defaults.Addr)
	}
	if defaults.DB != 0 {
		t.Errorf("expected DB=0, got %d", defaults.DB)
	}
	if defaults.TTL != 10*time.Minute {
		t.Errorf("expected TTL=10m, got %v", defaults.TTL)
	}
	if defaults.KeyPrefix != "contract-probe" {
		t.Errorf("expected KeyPrefix=contract-probe, got %s", defaults.KeyPrefix)
	}
}

// --- Test: key generation ---

func TestEndpointStore_KeyFormat(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{prefix: "test", expected: "test:rpc:endpoint"},
		{prefix: "contract-probe", expected: "contract-probe:rpc:endpoint"},
		{prefix: "", expected: "contract-probe:rpc:endpoint"},
	}

	for _, tt := range tests {
		t.Run("prefix="+tt.prefix, func(t *testing.T) {
			store, err := NewEndpointStore(Config{Addr: "localhost:6379", KeyPrefix: tt.prefix}, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer store.Close()

			if got := store.key(); got != tt.expected {
				t.Errorf("expected key=%s, got %s", tt.expected, got)
			}
		})
	}
}
