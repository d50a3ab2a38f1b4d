package domain

import "github.com/shopspring/decimal"

// PriceObservation is one normalized price point derived from a pool event.
// Multiple observations may share a timestamp; (BlockNumber, LogIndex) is the
// canonical chain order used to break ties deterministically.
type PriceObservation struct {
	Timestamp   int64           // epoch seconds (block timestamp)
	Price       decimal.Decimal // token0 priced in token1, decimal-normalized
	VolumeProxy decimal.Decimal // exact swap volume or reserve heuristic
	BlockNumber uint64          // block the source log was emitted in
	LogIndex    uint            // log position within the block
}

// Less orders observations by (Timestamp, BlockNumber, LogIndex) ascending.
// The ordering is total for observations originating from distinct logs, so
// aggregation output is independent of arrival order.
func (o *PriceObservation) Less(other *PriceObservation) bool {
	if o.Timestamp != other.Timestamp {
		return o.Timestamp < other.Timestamp
	}
	if o.BlockNumber != other.BlockNumber {
		return o.BlockNumber < other.BlockNumber
	}
	return o.LogIndex < other.LogIndex
}
