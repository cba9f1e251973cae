package contract_prober

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/archon-research/contract-probe/internal/domain/entity"
	"github.com/archon-research/contract-probe/internal/pkg/hexutil"
	"github.com/archon-research/contract-probe/internal/ports/outbound"
)

const blockTag = "latest"

// callMessage is the eth_call transaction object.
type callMessage struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// probe reads code, balance and nonce. The three reads are independent
// round trips and may observe different heads.
func (s *Service) probe(ctx context.Context, endpoint, address string) (*entity.ContractInfo, error) {
	code, err := s.callString(ctx, endpoint, "eth_getCode", address, blockTag)
	if err != nil {
		return nil, fmt.Errorf("eth_getCode: %w", err)
	}

	rawBalance, err := s.callString(ctx, endpoint, "eth_getBalance", address, blockTag)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance: %w", err)
	}
	balance, err := hexutil.ParseBig(rawBalance)
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance: %w", err)
	}

	rawCount, err := s.callString(ctx, endpoint, "eth_getTransactionCount", address, blockTag)
	if err != nil {
		return nil, fmt.Errorf("eth_getTransactionCount: %w", err)
	}
	count, err := hexutil.ParseUint64(rawCount)
	if err != nil {
		return nil, fmt.Errorf("eth_getTransactionCount: %w", err)
	}

	info, err := entity.NewContractInfo(address, code, balance, count)
	if err != nil {
		return nil, fmt.Errorf("eth_getCode: %w", err)
	}
	return info, nil
}

// probeAllMethods issues one eth_call per catalog entry. Results are written
// by index, so the output keeps catalog order at any concurrency. If any call
// failed below the JSON-RPC layer the endpoint is invalidated after the run.
func (s *Service) probeAllMethods(ctx context.Context, endpoint, address string) []entity.ProbeResult {
	start := time.Now()
	catalog := s.config.Catalog
	results := make([]entity.ProbeResult, len(catalog))
	var transportFailed atomic.Bool

	var g errgroup.Group
	g.SetLimit(s.config.Concurrency)
	for i, entry := range catalog {
		g.Go(func() error {
			raw, err := s.ethCall(ctx, endpoint, address, entry.Selector)
			if err != nil {
				if outbound.IsTransportError(err) {
					transportFailed.Store(true)
				}
				s.logger.Debug("method probe failed", "method", entry.Signature, "error", err)
				results[i] = entity.NewFailedResult(entry.Signature, err)
			} else {
				results[i] = entity.NewSuccessResult(entry.Signature, raw)
			}
			s.metrics.RecordMethodProbe(ctx, entry.Signature, err == nil)
			return nil
		})
	}
	_ = g.Wait()

	working := 0
	for _, r := range results {
		if r.Success {
			working++
		}
	}
	s.metrics.RecordProbeRun(ctx, time.Since(start), working, len(results))
	s.logger.Info("probed methods", "address", address, "endpoint", endpoint,
		"working", working, "total", len(results), "duration", time.Since(start))

	if transportFailed.Load() {
		s.invalidate(ctx, endpoint)
	}
	return results
}

func (s *Service) ethCall(ctx context.Context, endpoint, address, data string) (string, error) {
	return s.callString(ctx, endpoint, "eth_call", callMessage{To: address, Data: data}, blockTag)
}

// callString performs one bounded call whose result is a JSON string.
// A null result reads as "".
func (s *Service) callString(ctx context.Context, endpoint, method string, params ...any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()

	raw, err := s.caller.Call(ctx, endpoint, method, params)
	if err != nil {
		return "", err
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("unexpected result %s: %w", truncate(string(raw)), err)
	}
	return out, nil
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
