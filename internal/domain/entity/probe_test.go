package entity

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/archon-research/contract-probe/internal/pkg/decode"
)

func TestProbeResult_Decoded(t *testing.T) {
	ok := NewSuccessResult("decimals()", "0x"+strings.Repeat("0", 62)+"12")
	if got := ok.Decoded(); got.Kind != decode.KindUint || got.Value != "18" {
		t.Errorf("expected uint 18, got %+v", got)
	}

	empty := NewSuccessResult("paused()", "0x")
	if got := empty.Decoded(); got.Value != decode.EmptyResult {
		t.Errorf("expected empty result, got %+v", got)
	}

	failed := NewFailedResult("owner()", errors.New("execution reverted"))
	if failed.Success {
		t.Error("expected failed result")
	}
	if failed.Error != "execution reverted" {
		t.Errorf("expected error message to be kept, got %q", failed.Error)
	}
	if got := failed.Decoded(); got.Kind != decode.KindEmpty {
		t.Errorf("expected failed result to decode as empty, got %+v", got)
	}
}

func TestProbeResult_MarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		result      ProbeResult
		wantDecoded *decode.Result
	}{
		{
			name:        "success carries decoding",
			result:      NewSuccessResult("decimals()", "0x"+strings.Repeat("0", 62)+"12"),
			wantDecoded: &decode.Result{Kind: decode.KindUint, Value: "18"},
		},
		{
			name:        "empty success",
			result:      NewSuccessResult("paused()", "0x"),
			wantDecoded: &decode.Result{Kind: decode.KindEmpty, Value: decode.EmptyResult},
		},
		{
			name:   "failure has no decoding",
			result: NewFailedResult("owner()", errors.New("execution reverted")),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.result)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got struct {
				Name    string         `json:"name"`
				Success bool           `json:"success"`
				Result  string         `json:"result"`
				Error   string         `json:"error"`
				Decoded *decode.Result `json:"decoded"`
			}
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Name != tt.result.Method || got.Success != tt.result.Success ||
				got.Result != tt.result.Result || got.Error != tt.result.Error {
				t.Errorf("fields not kept: %s", b)
			}
			switch {
			case tt.wantDecoded == nil && got.Decoded != nil:
				t.Errorf("expected no decoded field, got %s", b)
			case tt.wantDecoded != nil && (got.Decoded == nil || *got.Decoded != *tt.wantDecoded):
				t.Errorf("expected decoded %+v, got %s", *tt.wantDecoded, b)
			}
		})
	}
}

func TestReport_Working(t *testing.T) {
	report := &Report{Methods: []ProbeResult{
		NewSuccessResult("name()", "0x"),
		NewFailedResult("symbol()", errors.New("reverted")),
		NewSuccessResult("totalSupply()", "0x01"),
	}}

	working := report.Working()
	if len(working) != 2 {
		t.Fatalf("expected 2 working methods, got %d", len(working))
	}
	if working[0].Method != "name()" || working[1].Method != "totalSupply()" {
		t.Errorf("expected catalog order to be kept, got %v", working)
	}
}

// --- Test: errors ---

func TestNoEndpointAvailableError(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&NoEndpointAvailableError{Failures: []EndpointFailure{
		{Endpoint: "https://a", Err: cause},
		{Endpoint: "https://b", Err: errors.New("HTTP 503")},
	}})

	if !errors.Is(err, ErrNoEndpointAvailable) {
		t.Error("expected errors.Is(err, ErrNoEndpointAvailable)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected per-endpoint cause to be reachable")
	}
	for _, want := range []string{"https://a: connection refused", "https://b: HTTP 503"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected message to contain %q, got %q", want, err.Error())
		}
	}
}

func TestNoEndpointAvailableError_NoCandidates(t *testing.T) {
	err := &NoEndpointAvailableError{}
	if !strings.Contains(err.Error(), "no candidates configured") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestUnsupportedParameterShapeError(t *testing.T) {
	err := error(&UnsupportedParameterShapeError{Signature: "f(string)", Types: []string{"string"}})

	if !errors.Is(err, ErrUnsupportedParameterShape) {
		t.Error("expected errors.Is(err, ErrUnsupportedParameterShape)")
	}
	var shapeErr *UnsupportedParameterShapeError
	if !errors.As(err, &shapeErr) || shapeErr.Signature != "f(string)" {
		t.Errorf("expected errors.As to expose the signature, got %+v", shapeErr)
	}
}
