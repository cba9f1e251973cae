// Package hexutil parses the hex quantities returned by Ethereum JSON-RPC nodes.
//
// Quantities are accepted with or without the "0x" prefix and with leading
// zeros, since some node implementations pad them.
package hexutil

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ParseUint64 parses a hex-encoded quantity such as a nonce or block number.
func ParseUint64(hexNum string) (uint64, error) {
	v, err := strconv.ParseUint(trimPrefix(hexNum), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex quantity %q: %w", hexNum, err)
	}
	return v, nil
}

// ParseBig parses an arbitrarily large hex-encoded quantity, e.g. a wei balance.
func ParseBig(hexNum string) (*big.Int, error) {
	digits := trimPrefix(hexNum)
	if digits == "" {
		return nil, fmt.Errorf("invalid hex quantity %q: empty", hexNum)
	}
	v, ok := new(big.Int).SetString(digits, 16)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid hex quantity %q", hexNum)
	}
	return v, nil
}

func trimPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}
