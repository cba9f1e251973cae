package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/archon-research/contract-probe/internal/domain/entity"
	"github.com/archon-research/contract-probe/internal/pkg/decode"
)

// fakeNode serves a JSON-RPC node whose contract answers name() and
// reverts every other selector.
func fakeNode(t *testing.T, code string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_blockNumber":
			resp["result"] = "0x2a"
		case "eth_getCode":
			resp["result"] = code
		case "eth_getBalance":
			resp["result"] = "0xde0b6b3a7640000"
		case "eth_getTransactionCount":
			resp["result"] = "0x3"
		case "eth_call":
			var msg struct {
				Data string `json:"data"`
			}
			_ = json.Unmarshal(req.Params[0], &msg)
			if msg.Data == "0x06fdde03" {
				resp["result"] = "0x" + strings.Repeat("0", 63) + "1"
			} else {
				resp["error"] = map[string]any{"code": 3, "message": "execution reverted"}
			}
		default:
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func testConfig(endpoints ...string) config {
	return config{
		Endpoints:       endpoints,
		Address:         defaultAddress,
		NativeSymbol:    "RON",
		RPCTimeout:      2 * time.Second,
		LivenessTimeout: time.Second,
		Concurrency:     1,
		Port:            "0",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Test: loadConfig ---

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"RPC_URLS", "CONTRACT_ADDRESS", "RPC_TIMEOUT", "RPC_LIVENESS_TIMEOUT", "RPC_RATE_LIMIT",
		"PROBE_CONCURRENCY", "REDIS_ADDR", "REDIS_DB", "REDIS_TTL", "PORT", "TRACING_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if len(cfg.Endpoints) != 3 || cfg.Endpoints[0] != "https://api.roninchain.com/rpc" {
		t.Errorf("unexpected default endpoints %v", cfg.Endpoints)
	}
	if cfg.Address != defaultAddress {
		t.Errorf("expected default address, got %s", cfg.Address)
	}
	if cfg.RPCTimeout != 10*time.Second || cfg.LivenessTimeout != 5*time.Second {
		t.Errorf("unexpected timeouts %v / %v", cfg.RPCTimeout, cfg.LivenessTimeout)
	}
	if cfg.Concurrency != 1 {
		t.Errorf("expected sequential probing by default, got %d", cfg.Concurrency)
	}
	if cfg.Port != "3000" {
		t.Errorf("expected port 3000, got %s", cfg.Port)
	}
	if cfg.RedisAddr != "" || cfg.TracingEnabled {
		t.Error("expected redis and tracing to be off by default")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("RPC_URLS", " https://a.example , ,https://b.example")
	t.Setenv("CONTRACT_ADDRESS", "0x"+strings.Repeat("11", 20))
	t.Setenv("RPC_TIMEOUT", "3s")
	t.Setenv("PROBE_CONCURRENCY", "4")
	t.Setenv("RPC_RATE_LIMIT", "2.5")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if len(cfg.Endpoints) != 2 || cfg.Endpoints[1] != "https://b.example" {
		t.Errorf("unexpected endpoints %v", cfg.Endpoints)
	}
	if cfg.RPCTimeout != 3*time.Second || cfg.Concurrency != 4 || cfg.RateLimit != 2.5 {
		t.Errorf("unexpected overrides %+v", cfg)
	}
	if cfg.RedisAddr != "redis:6379" || cfg.RedisDB != 2 || !cfg.TracingEnabled {
		t.Errorf("unexpected redis/tracing settings %+v", cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "RPC_TIMEOUT", value: "soon"},
		{key: "RPC_TIMEOUT", value: "-1s"},
		{key: "RPC_LIVENESS_TIMEOUT", value: "0s"},
		{key: "RPC_RATE_LIMIT", value: "-1"},
		{key: "PROBE_CONCURRENCY", value: "0"},
		{key: "PROBE_CONCURRENCY", value: "many"},
		{key: "REDIS_DB", value: "x"},
		{key: "REDIS_TTL", value: "-5m"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := loadConfig(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

// --- Test: run (CLI mode) ---

func TestRun_PrintsReport(t *testing.T) {
	node := fakeNode(t, "0x6080")
	defer node.Close()

	var out bytes.Buffer
	if err := run(context.Background(), discardLogger(), testConfig(node.URL), options{}, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Using RPC endpoint: " + node.URL,
		"=== Basic Contract Info ===",
		"Bytecode Size: 2 bytes",
		"Balance: 1 RON",
		"Transaction Count: 3",
		"Trying name()...",
		"✅ Success: Number: 1",
		"❌ Failed: RPC Error: execution reverted",
		"=== Summary of Working Methods ===",
		"name() - Number: 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q\n%s", want, text)
		}
	}
}

func TestRun_JSONReport(t *testing.T) {
	node := fakeNode(t, "0x6080")
	defer node.Close()

	var out bytes.Buffer
	if err := run(context.Background(), discardLogger(), testConfig(node.URL), options{asJSON: true}, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var report entity.Report
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("output is not a JSON report: %v\n%s", err, out.String())
	}
	if report.Endpoint != node.URL || !report.Info.IsContract || len(report.Methods) != 18 {
		t.Errorf("unexpected report %+v", report)
	}

	var methods struct {
		Methods []struct {
			Name    string         `json:"name"`
			Success bool           `json:"success"`
			Decoded *decode.Result `json:"decoded"`
		} `json:"methods"`
	}
	if err := json.Unmarshal(out.Bytes(), &methods); err != nil {
		t.Fatalf("output is not a JSON report: %v", err)
	}
	for _, m := range methods.Methods {
		switch {
		case m.Name == "name()":
			if !m.Success || m.Decoded == nil || m.Decoded.Kind != decode.KindUint || m.Decoded.Value != "1" {
				t.Errorf("expected name() to decode as uint256 1, got %+v", m.Decoded)
			}
		case m.Decoded != nil:
			t.Errorf("expected no decoding for failed %s, got %+v", m.Name, m.Decoded)
		}
	}
}

func TestRun_FallsBackToSecondEndpoint(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer dead.Close()
	node := fakeNode(t, "0x6080")
	defer node.Close()

	var out bytes.Buffer
	if err := run(context.Background(), discardLogger(), testConfig(dead.URL, node.URL), options{}, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out.String(), "Using RPC endpoint: "+node.URL) {
		t.Errorf("expected fallback endpoint in output:\n%s", out.String())
	}
}

func TestRun_NotAContract(t *testing.T) {
	node := fakeNode(t, "0x")
	defer node.Close()

	var out bytes.Buffer
	err := run(context.Background(), discardLogger(), testConfig(node.URL), options{}, &out)
	if err == nil || !strings.Contains(err.Error(), "is not a contract") {
		t.Fatalf("expected not-a-contract error, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no report output, got:\n%s", out.String())
	}
}

func TestRun_AddressFlagOverridesConfig(t *testing.T) {
	node := fakeNode(t, "0x6080")
	defer node.Close()

	other := "0x" + strings.Repeat("22", 20)
	var out bytes.Buffer
	if err := run(context.Background(), discardLogger(), testConfig(node.URL), options{address: other}, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out.String(), "Contract: "+other) {
		t.Errorf("expected report for %s:\n%s", other, out.String())
	}
}

func TestRun_NoEndpointAvailable(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer dead.Close()

	err := run(context.Background(), discardLogger(), testConfig(dead.URL), options{}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "no endpoint available") {
		t.Errorf("expected no endpoint error, got %v", err)
	}
}

// --- Test: serveAPI ---

func TestServeAPI_ServesAndShutsDown(t *testing.T) {
	node := fakeNode(t, "0x6080")
	defer node.Close()

	svc, err := newServices(context.Background(), discardLogger(), testConfig(node.URL))
	if err != nil {
		t.Fatalf("newServices: %v", err)
	}
	defer svc.close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveAPI(ctx, discardLogger(), ln, defaultAddress, svc)
	}()

	base := "http://" + ln.Addr().String()
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(base + "/health/ready")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server did not come up: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected ready after startup resolution, got %d", resp.StatusCode)
	}

	resp, err = http.Get(base + "/api/contract/info")
	if err != nil {
		t.Fatalf("GET info: %v", err)
	}
	var info entity.ContractInfo
	_ = json.NewDecoder(resp.Body).Decode(&info)
	resp.Body.Close()
	if info.Address != defaultAddress || info.BytecodeSize != 2 {
		t.Errorf("unexpected info %+v", info)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("serveAPI returned error on shutdown: %v", err)
	}
}

func TestNewEndpointStore_RedisUnreachable(t *testing.T) {
	cfg := testConfig("https://a.example")
	cfg.RedisAddr = "127.0.0.1:1"

	_, _, err := newEndpointStore(context.Background(), cfg, discardLogger())
	if err == nil || !strings.Contains(err.Error(), "connecting to redis") {
		t.Errorf("expected redis connection error, got %v", err)
	}
}
