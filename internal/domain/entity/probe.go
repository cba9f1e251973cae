package entity

import (
	"encoding/json"

	"github.com/archon-research/contract-probe/internal/pkg/decode"
)

// SelectorEntry pairs a method signature with its precomputed 4-byte selector.
type SelectorEntry struct {
	Signature string `json:"signature"`
	Selector  string `json:"selector"`
}

// ProbeResult is the outcome of one eth_call against a catalog entry.
// Exactly one of Result and Error is meaningful, depending on Success.
type ProbeResult struct {
	Method  string `json:"name"`
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewSuccessResult records a call that did not revert.
func NewSuccessResult(method, raw string) ProbeResult {
	return ProbeResult{Method: method, Success: true, Result: raw}
}

// NewFailedResult records a call that failed for any reason.
func NewFailedResult(method string, err error) ProbeResult {
	return ProbeResult{Method: method, Success: false, Error: err.Error()}
}

// Decoded returns the heuristic rendering of a successful result.
// Failed results decode as empty.
func (r ProbeResult) Decoded() decode.Result {
	if !r.Success {
		return decode.Decode("")
	}
	return decode.Decode(r.Result)
}

// MarshalJSON adds a "decoded" field to successful results.
func (r ProbeResult) MarshalJSON() ([]byte, error) {
	type plain ProbeResult
	out := struct {
		plain
		Decoded *decode.Result `json:"decoded,omitempty"`
	}{plain: plain(r)}
	if r.Success {
		d := r.Decoded()
		out.Decoded = &d
	}
	return json.Marshal(out)
}

// Report is the complete outcome of probing one contract.
type Report struct {
	Endpoint string        `json:"endpoint"`
	Info     ContractInfo  `json:"info"`
	Methods  []ProbeResult `json:"methods"`
}

// Working returns the successful probe results in catalog order.
func (r *Report) Working() []ProbeResult {
	var out []ProbeResult
	for _, m := range r.Methods {
		if m.Success {
			out = append(out, m)
		}
	}
	return out
}

// CallResult is the outcome of a call with a selector computed at call time.
type CallResult struct {
	Method   string        `json:"method"`
	Selector string        `json:"selector"`
	CallData string        `json:"data"`
	Result   string        `json:"result"`
	Decoded  decode.Result `json:"decoded"`
}
