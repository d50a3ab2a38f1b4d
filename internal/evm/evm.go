// Package evm provides a minimal Ethereum JSON-RPC client: log retrieval
// over HTTP, block timestamps, contract calls for pool metadata, and a
// WebSocket log subscription for the live path.
package evm

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrUpstreamUnavailable marks connectivity failures against the RPC node
// after retries are exhausted. Callers treat it as fatal for the batch path
// and as a reconnect trigger on the live path.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// RPCClient defines the Ethereum JSON-RPC HTTP interface.
type RPCClient interface {
	// BlockNumber returns the latest block number.
	BlockNumber(ctx context.Context) (uint64, error)

	// GetLogs retrieves logs matching the filter.
	GetLogs(ctx context.Context, filter LogFilter) ([]Log, error)

	// BlockTimestamp returns the timestamp of a block in epoch seconds.
	BlockTimestamp(ctx context.Context, blockNumber uint64) (int64, error)

	// Call performs a read-only contract call against the latest block.
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// WSClient defines the Ethereum WebSocket subscription interface.
type WSClient interface {
	// SubscribeLogs subscribes to logs matching the filter.
	SubscribeLogs(ctx context.Context, filter SubscriptionFilter) (<-chan Log, error)

	// Close closes the WebSocket connection.
	Close() error
}
