package contract_prober

import (
	"context"
	"fmt"

	"github.com/archon-research/contract-probe/internal/domain/entity"
	"github.com/archon-research/contract-probe/internal/pkg/decode"
	"github.com/archon-research/contract-probe/internal/pkg/selectors"
)

// CallWithComputedSelector calls signature on address with a selector
// computed at call time. Parameter shapes other than none, one address or
// one unsigned integer fail with entity.ErrUnsupportedParameterShape before
// any RPC is made.
func (s *Service) CallWithComputedSelector(ctx context.Context, address, signature string, params []string) (*entity.CallResult, error) {
	if err := entity.ValidateAddress(address); err != nil {
		return nil, err
	}
	selector, data, err := selectors.EncodeCallHex(signature, params)
	if err != nil {
		return nil, err
	}

	var raw string
	if _, err := s.withFailover(ctx, func(ctx context.Context, endpoint string) error {
		var err error
		raw, err = s.ethCall(ctx, endpoint, address, data)
		return err
	}); err != nil {
		return nil, fmt.Errorf("calling %s: %w", signature, err)
	}

	return &entity.CallResult{
		Method:   signature,
		Selector: selector,
		CallData: data,
		Result:   raw,
		Decoded:  decode.Decode(raw),
	}, nil
}
