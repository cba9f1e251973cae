// Package entity contains the core domain entities for ABI-less contract probing.
// These entities represent the fundamental business objects and have no
// dependencies on adapters or services.
package entity

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// weiPerNative is 10^18, the number of smallest units in one native coin.
var weiPerNative = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// ContractInfo holds the account-level facts about a probed address.
type ContractInfo struct {
	Address          string  `json:"address"`
	IsContract       bool    `json:"isContract"`
	BytecodeSize     int     `json:"bytecodeSize"`
	Balance          float64 `json:"balance"`
	BalanceWei       string  `json:"balanceWei"`
	TransactionCount uint64  `json:"transactionCount"`
}

// emptyCode is the eth_getCode result for an account without code.
const emptyCode = "0x"

// NewContractInfo builds ContractInfo from the raw eth_getCode result, the
// balance in wei and the transaction count.
func NewContractInfo(address, code string, balanceWei *big.Int, txCount uint64) (*ContractInfo, error) {
	size, err := BytecodeSize(code)
	if err != nil {
		return nil, err
	}
	if balanceWei == nil {
		return nil, fmt.Errorf("balance must not be nil")
	}
	if balanceWei.Sign() < 0 {
		return nil, fmt.Errorf("balance must be non-negative, got %s", balanceWei)
	}
	return &ContractInfo{
		Address:          address,
		IsContract:       code != emptyCode,
		BytecodeSize:     size,
		Balance:          WeiToNative(balanceWei),
		BalanceWei:       balanceWei.String(),
		TransactionCount: txCount,
	}, nil
}

// BytecodeSize returns the number of bytes encoded by a 0x-prefixed code string.
// "0x" is an account without code and has size 0. A trailing half byte is
// not counted.
func BytecodeSize(code string) (int, error) {
	if !strings.HasPrefix(code, "0x") {
		return 0, fmt.Errorf("code must be 0x-prefixed, got %q", truncate(code))
	}
	return (len(code) - 2) / 2, nil
}

// WeiToNative converts an amount in wei to native units (wei / 10^18).
// Precision beyond float64 is lost.
func WeiToNative(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerNative).Float64()
	return f
}

// ValidateAddress checks that address is a 0x-prefixed 20-byte hex string.
func ValidateAddress(address string) error {
	if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, truncate(address))
	}
	return nil
}

func truncate(s string) string {
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}
