// Package outbound defines the outbound port interfaces.
package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

// RPCCaller issues a single JSON-RPC 2.0 request against one endpoint.
// Implementations do not retry; failover is the endpoint selector's job.
type RPCCaller interface {
	// Call returns the raw "result" member of the response. It fails with
	// *TransportError or *ProtocolError.
	Call(ctx context.Context, endpoint, method string, params []any) (json.RawMessage, error)
}

// TransportError is a failure below the JSON-RPC layer: the request could not
// be sent, the endpoint answered with a non-2xx status, or the body was not a
// JSON-RPC response.
type TransportError struct {
	Endpoint string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	Status     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("HTTP error: %d - %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request hit a deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// ProtocolError is a JSON-RPC error object returned by the server, such as a
// reverted eth_call.
type ProtocolError struct {
	Code    int
	Message string
	Data    json.RawMessage
}

func (e *ProtocolError) Error() string {
	return "RPC Error: " + e.Message
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
