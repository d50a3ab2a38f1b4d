package ingestion

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/evm"
)

// WSRecordSource delivers live pool logs over a WebSocket subscription.
// Block timestamps are resolved over HTTP; the RPC client caches them per
// block, so one lookup serves every log of the block.
type WSRecordSource struct {
	ws     evm.WSClient
	rpc    evm.RPCClient
	pools  []common.Address
	logger *zap.Logger

	out       chan *domain.RawPoolRecord
	closeOnce sync.Once
	done      chan struct{}
}

// NewWSRecordSource creates a streaming record source for the given pools.
func NewWSRecordSource(ws evm.WSClient, rpc evm.RPCClient, pools []common.Address, logger *zap.Logger) *WSRecordSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSRecordSource{
		ws:     ws,
		rpc:    rpc,
		pools:  pools,
		logger: logger,
		out:    make(chan *domain.RawPoolRecord, 1024),
		done:   make(chan struct{}),
	}
}

// Compile-time interface check.
var _ StreamSource = (*WSRecordSource)(nil)

// Subscribe starts delivery of raw records.
func (s *WSRecordSource) Subscribe(ctx context.Context) (<-chan *domain.RawPoolRecord, error) {
	logs, err := s.ws.SubscribeLogs(ctx, evm.SubscriptionFilter{
		Addresses: s.pools,
		Topics:    poolTopics,
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe logs: %w", err)
	}

	go s.forward(ctx, logs)
	return s.out, nil
}

// forward converts incoming logs to raw records until the subscription
// closes.
func (s *WSRecordSource) forward(ctx context.Context, logs <-chan evm.Log) {
	defer close(s.out)

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case log, ok := <-logs:
			if !ok {
				return
			}
			if log.Removed || len(log.Topics) == 0 {
				continue
			}

			ts, err := s.rpc.BlockTimestamp(ctx, uint64(log.BlockNumber))
			if err != nil {
				// The record still flows; the normalizer reports it
				// as missing block data.
				s.logger.Warn("block timestamp lookup failed",
					zap.Uint64("block", uint64(log.BlockNumber)),
					zap.Error(err))
				ts = 0
			}

			record := &domain.RawPoolRecord{
				Pool:           log.Address,
				Topic:          log.Topics[0],
				Payload:        log.Data,
				BlockNumber:    uint64(log.BlockNumber),
				LogIndex:       uint(log.LogIndex),
				BlockTimestamp: ts,
				TxHash:         log.TxHash,
			}

			select {
			case s.out <- record:
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close stops delivery and closes the WebSocket connection.
func (s *WSRecordSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.ws.Close()
	})
	return err
}
