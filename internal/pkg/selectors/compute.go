package selectors

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/archon-research/contract-probe/internal/domain/entity"
)

var (
	signaturePattern = regexp.MustCompile(`^([A-Za-z_$][A-Za-z0-9_$]*)\((.*)\)$`)
	uintPattern      = regexp.MustCompile(`^uint([0-9]*)$`)

	uint256Args = mustArguments("uint256")
	addressArgs = mustArguments("address")
)

// Signature is a parsed method signature.
type Signature struct {
	Name  string
	Types []string
}

// Canonical returns the form that is hashed into the selector, e.g. "f(uint256)".
func (s Signature) Canonical() string {
	return s.Name + "(" + strings.Join(s.Types, ",") + ")"
}

// ParseSignature parses "name(type,...)", dropping whitespace and expanding
// the "uint" alias to "uint256".
func ParseSignature(signature string) (Signature, error) {
	compact := strings.Join(strings.Fields(signature), "")
	m := signaturePattern.FindStringSubmatch(compact)
	if m == nil {
		return Signature{}, fmt.Errorf("%w: malformed method signature %q", entity.ErrInvalidCallArguments, signature)
	}
	sig := Signature{Name: m[1]}
	if m[2] == "" {
		return sig, nil
	}
	for _, typ := range strings.Split(m[2], ",") {
		if typ == "" {
			return Signature{}, fmt.Errorf("%w: empty parameter type in %q", entity.ErrInvalidCallArguments, signature)
		}
		if typ == "uint" {
			typ = "uint256"
		}
		sig.Types = append(sig.Types, typ)
	}
	return sig, nil
}

// Compute returns the 0x-prefixed 4-byte selector of signature.
func Compute(signature string) (string, error) {
	sig, err := ParseSignature(signature)
	if err != nil {
		return "", err
	}
	return selectorOf(sig), nil
}

// EncodeCall builds eth_call data for signature with the given arguments.
// Besides no parameters, exactly two shapes are supported: a single address
// or a single unsigned integer, each left-padded to 32 bytes. Any other shape
// fails with *entity.UnsupportedParameterShapeError.
func EncodeCall(signature string, args []string) (selector string, data []byte, err error) {
	sig, err := ParseSignature(signature)
	if err != nil {
		return "", nil, err
	}
	selector = selectorOf(sig)
	data = common.FromHex(selector)

	switch len(sig.Types) {
	case 0:
		if len(args) != 0 {
			return "", nil, fmt.Errorf("%w: %s takes no parameters, got %d", entity.ErrInvalidCallArguments, sig.Canonical(), len(args))
		}
		return selector, data, nil
	case 1:
	default:
		return "", nil, &entity.UnsupportedParameterShapeError{Signature: sig.Canonical(), Types: sig.Types}
	}

	encode, err := encoderFor(sig)
	if err != nil {
		return "", nil, err
	}
	if len(args) != 1 {
		return "", nil, fmt.Errorf("%w: %s takes 1 parameter, got %d", entity.ErrInvalidCallArguments, sig.Canonical(), len(args))
	}
	word, err := encode(strings.TrimSpace(args[0]))
	if err != nil {
		return "", nil, err
	}
	return selector, append(data, word...), nil
}

// EncodeCallHex is EncodeCall with 0x-prefixed hex call data.
func EncodeCallHex(signature string, args []string) (selector string, data string, err error) {
	selector, raw, err := EncodeCall(signature, args)
	if err != nil {
		return "", "", err
	}
	return selector, hexutil.Encode(raw), nil
}

func encoderFor(sig Signature) (func(string) ([]byte, error), error) {
	typ := sig.Types[0]
	if typ == "address" {
		return encodeAddress, nil
	}
	if m := uintPattern.FindStringSubmatch(typ); m != nil {
		bits, ok := uintBits(m[1])
		if ok {
			return func(v string) ([]byte, error) { return encodeUint(v, bits) }, nil
		}
	}
	return nil, &entity.UnsupportedParameterShapeError{Signature: sig.Canonical(), Types: sig.Types}
}

func encodeAddress(v string) ([]byte, error) {
	if err := entity.ValidateAddress(v); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidCallArguments, err)
	}
	return addressArgs.Pack(common.HexToAddress(v))
}

func encodeUint(v string, bits int) ([]byte, error) {
	n, ok := parseUint(v)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an unsigned integer", entity.ErrInvalidCallArguments, v)
	}
	if n.BitLen() > bits {
		return nil, fmt.Errorf("%w: %s overflows uint%d", entity.ErrInvalidCallArguments, v, bits)
	}
	return uint256Args.Pack(n)
}

// parseUint accepts decimal or 0x-prefixed hex.
func parseUint(v string) (*big.Int, bool) {
	base := 10
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		base, v = 16, v[2:]
	}
	if v == "" || strings.HasPrefix(v, "-") || strings.HasPrefix(v, "+") {
		return nil, false
	}
	return new(big.Int).SetString(v, base)
}

func uintBits(suffix string) (int, bool) {
	if suffix == "" {
		return 256, true
	}
	bits, err := strconv.Atoi(suffix)
	if err != nil || bits < 8 || bits > 256 || bits%8 != 0 {
		return 0, false
	}
	return bits, true
}

func selectorOf(sig Signature) string {
	return hexutil.Encode(crypto.Keccak256([]byte(sig.Canonical()))[:4])
}

func mustArguments(typ string) abi.Arguments {
	t, err := abi.NewType(typ, "", nil)
	if err != nil {
		panic(fmt.Sprintf("selectors: abi type %s: %v", typ, err))
	}
	return abi.Arguments{{Type: t}}
}
