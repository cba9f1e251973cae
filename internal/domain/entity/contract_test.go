package entity

import (
	"errors"
	"math/big"
	"strings"
	"testing"
)

const testAddress = "0xfB597d6Fa6C08f5434e6eCf69114497343aE13Dd"

func TestNewContractInfo(t *testing.T) {
	oneEther, _ := new(big.Int).SetString("1000000000000000000", 10)

	tests := []struct {
		name         string
		code         string
		balance      *big.Int
		wantErr      bool
		errContains  string
		isContract   bool
		bytecodeSize int
	}{
		{
			name:         "externally owned account",
			code:         "0x",
			balance:      big.NewInt(0),
			isContract:   false,
			bytecodeSize: 0,
		},
		{
			name:         "contract code",
			code:         "0x6080604052",
			balance:      oneEther,
			isContract:   true,
			bytecodeSize: 5,
		},
		{
			name:         "odd hex length drops the half byte",
			code:         "0x608060405",
			balance:      oneEther,
			isContract:   true,
			bytecodeSize: 4,
		},
		{
			name:         "single nibble is still code",
			code:         "0x6",
			balance:      oneEther,
			isContract:   true,
			bytecodeSize: 0,
		},
		{
			name:        "missing prefix",
			code:        "6080",
			balance:     oneEther,
			wantErr:     true,
			errContains: "0x-prefixed",
		},
		{
			name:        "nil balance",
			code:        "0x",
			wantErr:     true,
			errContains: "balance must not be nil",
		},
		{
			name:        "negative balance",
			code:        "0x",
			balance:     big.NewInt(-1),
			wantErr:     true,
			errContains: "non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := NewContractInfo(testAddress, tt.code, tt.balance, 7)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %v", tt.errContains, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.IsContract != tt.isContract {
				t.Errorf("expected IsContract=%v, got %v", tt.isContract, info.IsContract)
			}
			if info.BytecodeSize != tt.bytecodeSize {
				t.Errorf("expected BytecodeSize=%d, got %d", tt.bytecodeSize, info.BytecodeSize)
			}
			if info.TransactionCount != 7 {
				t.Errorf("expected TransactionCount=7, got %d", info.TransactionCount)
			}
			if info.BalanceWei != tt.balance.String() {
				t.Errorf("expected BalanceWei=%s, got %s", tt.balance, info.BalanceWei)
			}
		})
	}
}

func TestBytecodeSize_MatchesHexLength(t *testing.T) {
	code := "0x" + strings.Repeat("60", 1234)
	size, err := BytecodeSize(code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != (len(code)-2)/2 {
		t.Errorf("expected %d, got %d", (len(code)-2)/2, size)
	}
}

func TestWeiToNative(t *testing.T) {
	oneEther, _ := new(big.Int).SetString("de0b6b3a7640000", 16)
	half, _ := new(big.Int).SetString("500000000000000000", 10)

	tests := []struct {
		name     string
		wei      *big.Int
		expected float64
	}{
		{name: "zero", wei: big.NewInt(0), expected: 0},
		{name: "one native unit", wei: oneEther, expected: 1.0},
		{name: "half", wei: half, expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeiToNative(tt.wei); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{name: "checksummed", address: testAddress},
		{name: "lowercase", address: strings.ToLower(testAddress)},
		{name: "missing prefix", address: testAddress[2:], wantErr: true},
		{name: "too short", address: "0x1234", wantErr: true},
		{name: "non hex", address: "0x" + strings.Repeat("zz", 20), wantErr: true},
		{name: "empty", address: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAddress) {
					t.Fatalf("expected ErrInvalidAddress, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
