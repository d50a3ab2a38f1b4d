package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/evm"
	"amm-candle-oracle/internal/normalization"
)

// DefaultChunkSize is the block span per eth_getLogs call. Public
// endpoints commonly cap the range around 2000-10000 blocks.
const DefaultChunkSize = 2000

// poolTopics are the event signatures the pipeline understands.
var poolTopics = []common.Hash{
	normalization.TopicSync,
	normalization.TopicSwapV2,
	normalization.TopicSwapV3,
}

// RPCRecordSource fetches historical pool logs over JSON-RPC.
type RPCRecordSource struct {
	client    evm.RPCClient
	chunkSize uint64
}

// NewRPCRecordSource creates a batch record source. chunkSize <= 0 selects
// DefaultChunkSize.
func NewRPCRecordSource(client evm.RPCClient, chunkSize int64) *RPCRecordSource {
	size := uint64(chunkSize)
	if chunkSize <= 0 {
		size = DefaultChunkSize
	}
	return &RPCRecordSource{client: client, chunkSize: size}
}

// Compile-time interface check.
var _ BatchSource = (*RPCRecordSource)(nil)

// Fetch scans [fromBlock, toBlock] in chunks and resolves each log's block
// timestamp.
func (s *RPCRecordSource) Fetch(ctx context.Context, pool common.Address, fromBlock, toBlock uint64) ([]*domain.RawPoolRecord, error) {
	if fromBlock > toBlock {
		return nil, fmt.Errorf("invalid block range [%d, %d]", fromBlock, toBlock)
	}

	var records []*domain.RawPoolRecord

	for start := fromBlock; start <= toBlock; start += s.chunkSize {
		end := start + s.chunkSize - 1
		if end > toBlock {
			end = toBlock
		}

		logs, err := s.client.GetLogs(ctx, evm.LogFilter{
			FromBlock: start,
			ToBlock:   end,
			Addresses: []common.Address{pool},
			Topics:    poolTopics,
		})
		if err != nil {
			return nil, fmt.Errorf("get logs [%d, %d]: %w", start, end, err)
		}

		for i := range logs {
			record, err := s.recordFromLog(ctx, &logs[i])
			if err != nil {
				return nil, err
			}
			if record != nil {
				records = append(records, record)
			}
		}
	}

	return records, nil
}

// recordFromLog converts one log into a raw record. Reorged-out logs are
// dropped. An unavailable upstream fails the fetch; any other timestamp
// lookup failure leaves BlockTimestamp zero so the normalizer reports that
// one event as missing block data.
func (s *RPCRecordSource) recordFromLog(ctx context.Context, log *evm.Log) (*domain.RawPoolRecord, error) {
	if log.Removed {
		return nil, nil
	}
	if len(log.Topics) == 0 {
		return nil, nil
	}

	ts, err := s.client.BlockTimestamp(ctx, uint64(log.BlockNumber))
	if err != nil {
		if errors.Is(err, evm.ErrUpstreamUnavailable) {
			return nil, fmt.Errorf("block %d timestamp: %w", log.BlockNumber, err)
		}
		ts = 0
	}

	return &domain.RawPoolRecord{
		Pool:           log.Address,
		Topic:          log.Topics[0],
		Payload:        log.Data,
		BlockNumber:    uint64(log.BlockNumber),
		LogIndex:       uint(log.LogIndex),
		BlockTimestamp: ts,
		TxHash:         log.TxHash,
	}, nil
}
