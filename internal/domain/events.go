package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RawPoolRecord is a pool log as delivered by the feed collaborator:
// the undecoded payload plus the block coordinates needed for ordering
// and timestamping. Consumed exactly once by the normalizer.
type RawPoolRecord struct {
	Pool           common.Address // emitting pool address
	Topic          common.Hash    // event signature topic
	Payload        []byte         // ABI-encoded event data
	BlockNumber    uint64         // block the log was emitted in
	LogIndex       uint           // log position within the block
	BlockTimestamp int64          // block timestamp (epoch seconds), 0 if unknown
	TxHash         common.Hash    // emitting transaction
}

// ReserveUpdate is a decoded constant-product Sync event: the pair's
// reserves after a state change. Reserves fit uint112 on-chain but are
// carried as big.Int so derivation never truncates.
type ReserveUpdate struct {
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// SwapEvent is a decoded trade. For constant-product pairs the four
// directional amounts are populated and exactly one in/out pair should be
// active; for concentrated-liquidity pools the signed deltas are already
// resolved into AmountIn/AmountOut and SqrtPriceX96 carries the post-swap
// price.
type SwapEvent struct {
	Amount0In  *big.Int
	Amount1In  *big.Int
	Amount0Out *big.Int
	Amount1Out *big.Int

	// SqrtPriceX96 is nil for constant-product pairs.
	SqrtPriceX96 *big.Int
}

// TradeDirection classifies a swap relative to token0.
type TradeDirection string

const (
	// TradeBuy means token0 in, token1 out.
	TradeBuy TradeDirection = "buy"

	// TradeSell means token1 in, token0 out.
	TradeSell TradeDirection = "sell"

	// TradeAmbiguous means neither directional pair is cleanly active.
	// Ambiguous swaps are excluded from direction-sensitive output.
	TradeAmbiguous TradeDirection = "ambiguous"
)
