package jsonrpc

import "encoding/json"

type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// jsonRPCResponse keeps both members raw so that the error object can be
// echoed verbatim when it lacks a message.
type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

type jsonRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// hasError reports whether the response carries a non-null error member.
func (r *jsonRPCResponse) hasError() bool {
	return len(r.Error) > 0 && string(r.Error) != "null"
}
