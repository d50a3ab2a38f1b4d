package domain

import "github.com/shopspring/decimal"

// EnrichedTrade is the per-trade record produced on the live path: a
// classified swap with human-unit amounts. Ambiguous swaps never become
// enriched trades.
type EnrichedTrade struct {
	Timestamp   int64           // epoch seconds (block timestamp)
	PairLabel   string          // "<symbol0>-<symbol1>"
	Direction   TradeDirection  // buy or sell
	AmountIn    decimal.Decimal // input amount, decimal-normalized
	AmountOut   decimal.Decimal // output amount, decimal-normalized
	BlockNumber uint64          // block the swap landed in
	LogIndex    uint            // log position within the block
	TxHash      string          // emitting transaction hash, hex
}
