// Package normalization converts heterogeneous raw pool events into uniform
// price observations and enriched trades. A malformed event is skipped with
// a reported error; it never aborts the batch or the stream.
package normalization

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/observability"
	"amm-candle-oracle/internal/pricing"
)

// Result is what one raw event normalizes into. Either field may be nil:
// a Sync yields only an observation, a constant-product swap yields only a
// trade, a concentrated-liquidity swap yields both.
type Result struct {
	Observation *domain.PriceObservation
	Trade       *domain.EnrichedTrade
}

// Normalizer normalizes raw records for a single pool, using the pool's
// metadata as decoding context.
type Normalizer struct {
	meta      *domain.PoolMetadata
	estimator *pricing.VolumeEstimator
	logger    *zap.Logger
}

// NewNormalizer creates a normalizer for the pool described by meta.
func NewNormalizer(meta *domain.PoolMetadata, estimator *pricing.VolumeEstimator, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{meta: meta, estimator: estimator, logger: logger}
}

// ClassifyDirection classifies a swap relative to token0. Buy iff the
// (amount0In, amount1Out) pair is active, Sell iff (amount1In, amount0Out)
// is. Anything else, including both pairs active, is Ambiguous.
func ClassifyDirection(swap *domain.SwapEvent) domain.TradeDirection {
	buy := sign(swap.Amount0In) > 0 && sign(swap.Amount1Out) > 0
	sell := sign(swap.Amount1In) > 0 && sign(swap.Amount0Out) > 0

	switch {
	case buy && !sell:
		return domain.TradeBuy
	case sell && !buy:
		return domain.TradeSell
	default:
		return domain.TradeAmbiguous
	}
}

// Normalize converts one raw record into observation and/or trade. A nil
// record or missing block timestamp is ErrMissingBlockData; an unexpected
// topic for the pool kind is ErrDecodeFailure; a zero reserve or sqrt price
// is ErrPriceUndefined. Ambiguous swaps produce no trade and no error.
func (n *Normalizer) Normalize(record *domain.RawPoolRecord) (*Result, error) {
	if record == nil || record.BlockTimestamp == 0 {
		return nil, ErrMissingBlockData
	}

	switch n.meta.Kind {
	case domain.PoolKindConstantProduct:
		return n.normalizeConstantProduct(record)
	case domain.PoolKindConcentratedLiquidity:
		return n.normalizeConcentratedLiquidity(record)
	default:
		return nil, fmt.Errorf("%w: unknown pool kind %q", ErrDecodeFailure, n.meta.Kind)
	}
}

func (n *Normalizer) normalizeConstantProduct(record *domain.RawPoolRecord) (*Result, error) {
	switch record.Topic {
	case TopicSync:
		update, err := DecodeSync(record.Payload)
		if err != nil {
			return nil, err
		}

		price := pricing.DeriveFromReserves(update.Reserve0, update.Reserve1, n.meta.Decimals0, n.meta.Decimals1)
		if price.Sign() == 0 {
			return nil, fmt.Errorf("%w: zero reserve at block %d", ErrPriceUndefined, record.BlockNumber)
		}

		// No trade amounts ride on a Sync; the reserve heuristic stands in.
		volume := n.estimator.EstimateFromReserves(update.Reserve0, update.Reserve1, n.meta.Decimals0, n.meta.Decimals1)
		return &Result{Observation: n.observation(record, price, volume)}, nil

	case TopicSwapV2:
		swap, err := DecodeSwapV2(record.Payload)
		if err != nil {
			return nil, err
		}
		// Constant-product price rides on the paired Sync event; the swap
		// contributes only the enriched trade.
		return &Result{Trade: n.enrich(record, swap)}, nil

	default:
		return nil, fmt.Errorf("%w: unexpected topic %s for constant-product pool", ErrDecodeFailure, topicLabel(record.Topic))
	}
}

func (n *Normalizer) normalizeConcentratedLiquidity(record *domain.RawPoolRecord) (*Result, error) {
	if record.Topic != TopicSwapV3 {
		return nil, fmt.Errorf("%w: unexpected topic %s for concentrated-liquidity pool", ErrDecodeFailure, topicLabel(record.Topic))
	}

	swap, err := DecodeSwapV3(record.Payload)
	if err != nil {
		return nil, err
	}

	price := pricing.DeriveFromSqrtPrice(swap.SqrtPriceX96, n.meta.Decimals0, n.meta.Decimals1)
	if price.Sign() == 0 {
		return nil, fmt.Errorf("%w: zero sqrt price at block %d", ErrPriceUndefined, record.BlockNumber)
	}

	return &Result{
		Observation: n.observation(record, price, n.swapVolume(swap)),
		Trade:       n.enrich(record, swap),
	}, nil
}

// swapVolume derives the event-exact volume proxy from the input side of a
// classified swap. Ambiguous swaps fall back to zero volume.
func (n *Normalizer) swapVolume(swap *domain.SwapEvent) decimal.Decimal {
	switch ClassifyDirection(swap) {
	case domain.TradeBuy:
		return n.estimator.EstimateFromSwap(swap.Amount0In, n.meta.Decimals0)
	case domain.TradeSell:
		return n.estimator.EstimateFromSwap(swap.Amount1In, n.meta.Decimals1)
	default:
		return decimal.Zero
	}
}

// enrich turns a classified swap into the per-trade record for the live
// path. Ambiguous swaps are excluded and return nil.
func (n *Normalizer) enrich(record *domain.RawPoolRecord, swap *domain.SwapEvent) *domain.EnrichedTrade {
	direction := ClassifyDirection(swap)
	if direction == domain.TradeAmbiguous {
		observability.RecordAmbiguousSwap()
		n.logger.Debug("ambiguous swap excluded",
			zap.Uint64("block", record.BlockNumber),
			zap.Uint("log_index", record.LogIndex))
		return nil
	}

	trade := &domain.EnrichedTrade{
		Timestamp:   record.BlockTimestamp,
		PairLabel:   n.meta.PairLabel(),
		Direction:   direction,
		BlockNumber: record.BlockNumber,
		LogIndex:    record.LogIndex,
		TxHash:      record.TxHash.Hex(),
	}

	if direction == domain.TradeBuy {
		trade.AmountIn = pricing.NormalizeAmount(swap.Amount0In, n.meta.Decimals0)
		trade.AmountOut = pricing.NormalizeAmount(swap.Amount1Out, n.meta.Decimals1)
	} else {
		trade.AmountIn = pricing.NormalizeAmount(swap.Amount1In, n.meta.Decimals1)
		trade.AmountOut = pricing.NormalizeAmount(swap.Amount0Out, n.meta.Decimals0)
	}
	return trade
}

// observation stamps a derived price with the record's block coordinates.
func (n *Normalizer) observation(record *domain.RawPoolRecord, price, volume decimal.Decimal) *domain.PriceObservation {
	return &domain.PriceObservation{
		Timestamp:   record.BlockTimestamp,
		Price:       price,
		VolumeProxy: volume,
		BlockNumber: record.BlockNumber,
		LogIndex:    record.LogIndex,
	}
}

func sign(x *big.Int) int {
	if x == nil {
		return 0
	}
	return x.Sign()
}
