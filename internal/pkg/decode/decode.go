// Package decode renders raw eth_call return data without an ABI.
//
// The rules are a heuristic over the byte length of the payload:
//
//  1. absent or "0x"                         -> empty
//  2. one 32-byte word with 12 zero bytes    -> address (trailing 20 bytes)
//  3. one 32-byte word                       -> unsigned integer
//  4. anything else                          -> opaque hex, echoed unchanged
//
// Rule 2 is checked before rule 3. A word whose 20-byte tail starts with four
// zero bytes is left to rule 3, so counters, flags and supplies below 2^128
// stay integers. Integers in [2^128, 2^160) still render as addresses, and
// addresses with four leading zero bytes render as integers. Telling them
// apart needs the return type, which ABI-less probing does not have.
package decode

import (
	"encoding/hex"
	"math/big"
	"strings"
)

// EmptyResult is the rendering of an absent or "0x" return value.
const EmptyResult = "Empty result"

const (
	wordHexLen    = 64
	paddingHexLen = 24
	// leading hex digits of the address tail that must not all be zero
	addressHeadHexLen = 8
)

// Kind classifies a decoded return value.
type Kind string

const (
	KindEmpty   Kind = "empty"
	KindAddress Kind = "address"
	KindUint    Kind = "uint256"
	KindOpaque  Kind = "hex"
)

// Result is the classification and rendering of one raw return value.
type Result struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// Decode classifies raw and renders it. It never fails.
func Decode(raw string) Result {
	if raw == "" || raw == "0x" {
		return Result{Kind: KindEmpty, Value: EmptyResult}
	}

	if len(raw) != 2+wordHexLen || !strings.HasPrefix(raw, "0x") {
		return opaque(raw)
	}
	word := raw[2:]
	if _, err := hex.DecodeString(word); err != nil {
		return opaque(raw)
	}

	if isZero(word[:paddingHexLen]) && !isZero(word[paddingHexLen:paddingHexLen+addressHeadHexLen]) {
		return Result{Kind: KindAddress, Value: "0x" + word[paddingHexLen:]}
	}

	n, ok := new(big.Int).SetString(word, 16)
	if !ok {
		return opaque(raw)
	}
	return Result{Kind: KindUint, Value: n.String()}
}

// String returns the labelled form used in console reports.
func (r Result) String() string {
	switch r.Kind {
	case KindEmpty:
		return EmptyResult
	case KindAddress:
		return "Address: " + r.Value
	case KindUint:
		return "Number: " + r.Value
	default:
		return "Hex: " + r.Value
	}
}

func isZero(digits string) bool {
	return strings.Count(digits, "0") == len(digits)
}

func opaque(raw string) Result {
	return Result{Kind: KindOpaque, Value: raw}
}
