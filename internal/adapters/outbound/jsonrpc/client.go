// Package jsonrpc implements the RPC transport port over HTTP JSON-RPC 2.0.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/archon-research/contract-probe/internal/ports/outbound"
)

// Compile-time check that Client implements outbound.RPCCaller
var _ outbound.RPCCaller = (*Client)(nil)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 32 << 20

// ClientConfig holds configuration for the HTTP RPC client.
type ClientConfig struct {
	// Timeout is the maximum time to wait for a single HTTP request.
	Timeout time.Duration

	// RateLimit caps requests per second across all endpoints.
	// Zero means unlimited.
	RateLimit rate.Limit

	// RateBurst is the limiter burst size. Defaults to 1.
	RateBurst int

	// Telemetry records request metrics and spans. Optional.
	Telemetry *Telemetry

	// Logger is the structured logger for the client.
	Logger *slog.Logger
}

// ClientConfigDefaults returns a config with default values.
func ClientConfigDefaults() ClientConfig {
	return ClientConfig{
		Timeout:   10 * time.Second,
		RateLimit: 0,
		RateBurst: 1,
	}
}

// Client sends JSON-RPC requests to whichever endpoint the caller names.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	nextID     atomic.Uint64
	logger     *slog.Logger
}

// NewClient creates a new JSON-RPC client.
func NewClient(config ClientConfig) *Client {
	defaults := ClientConfigDefaults()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.RateBurst == 0 {
		config.RateBurst = defaults.RateBurst
	}
	limit := config.RateLimit
	if limit <= 0 {
		limit = rate.Inf
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(limit, config.RateBurst),
		logger:     config.Logger.With("component", "jsonrpc-client"),
	}
	// Time-derived start keeps ids distinct across restarts as well.
	c.nextID.Store(uint64(time.Now().UnixMilli()))
	return c
}

// Call sends one request and returns the raw result.
func (c *Client) Call(ctx context.Context, endpoint, method string, params []any) (result json.RawMessage, err error) {
	if params == nil {
		params = []any{}
	}

	if t := c.config.Telemetry; t != nil {
		var span trace.Span
		ctx, span = t.StartSpan(ctx, method)
		start := time.Now()
		defer func() {
			t.RecordRequest(ctx, method, time.Since(start), err)
			t.EndSpan(span, err)
		}()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &outbound.TransportError{Endpoint: endpoint, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	req := jsonRPCRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	result, err = c.do(ctx, endpoint, req)
	if err != nil {
		c.logger.Debug("rpc call failed", "endpoint", endpoint, "method", method, "id", req.ID, "error", err)
		return nil, err
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, endpoint string, req jsonRPCRequest) (json.RawMessage, error) {
	reqBytes, err := json.Marshal(req)
	if err != nil {
		return nil, &outbound.TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, &outbound.TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &outbound.TransportError{Endpoint: endpoint, Err: fmt.Errorf("HTTP request failed: %w", err)}
	}
	defer func() {
		if closeErr := httpResp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body", "error", closeErr)
		}
	}()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, maxResponseBytes))
		return nil, &outbound.TransportError{
			Endpoint:   endpoint,
			StatusCode: httpResp.StatusCode,
			Status:     http.StatusText(httpResp.StatusCode),
		}
	}

	respBytes, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, &outbound.TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(respBytes, &rpcResp); err != nil {
		return nil, &outbound.TransportError{Endpoint: endpoint, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if rpcResp.hasError() {
		return nil, parseRPCError(rpcResp.Error)
	}
	if rpcResp.Result == nil {
		return json.RawMessage("null"), nil
	}
	return rpcResp.Result, nil
}

// parseRPCError converts the raw error member. Servers that omit the message
// get the whole payload echoed instead.
func parseRPCError(raw json.RawMessage) *outbound.ProtocolError {
	var rpcErr jsonRPCError
	if err := json.Unmarshal(raw, &rpcErr); err != nil || rpcErr.Message == "" {
		return &outbound.ProtocolError{Code: rpcErr.Code, Message: string(raw), Data: rpcErr.Data}
	}
	return &outbound.ProtocolError{Code: rpcErr.Code, Message: rpcErr.Message, Data: rpcErr.Data}
}
