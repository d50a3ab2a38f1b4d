package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// DefaultTurnoverFraction is the assumed share of pool reserves traded per
// reserve update when no swap amounts are available (0.1%).
var DefaultTurnoverFraction = decimal.RequireFromString("0.001")

// VolumeEstimator derives a volume proxy for an observation. Swap-exact
// amounts are always preferred; the reserve-magnitude path is a documented
// heuristic used only when no trade data accompanies the update.
type VolumeEstimator struct {
	turnoverFraction decimal.Decimal
}

// NewVolumeEstimator creates an estimator with the given turnover fraction.
// A non-positive fraction falls back to DefaultTurnoverFraction.
func NewVolumeEstimator(turnoverFraction decimal.Decimal) *VolumeEstimator {
	if turnoverFraction.Sign() <= 0 {
		turnoverFraction = DefaultTurnoverFraction
	}
	return &VolumeEstimator{turnoverFraction: turnoverFraction}
}

// EstimateFromReserves approximates turnover from reserve magnitudes: both
// reserves normalized to human units, summed, scaled by the turnover
// fraction. An approximation only; real volume comes from swap events.
func (e *VolumeEstimator) EstimateFromReserves(reserve0, reserve1 *big.Int, decimals0, decimals1 uint8) decimal.Decimal {
	total := NormalizeAmount(reserve0, decimals0).Add(NormalizeAmount(reserve1, decimals1))
	return total.Mul(e.turnoverFraction)
}

// EstimateFromSwap returns the event-exact volume proxy for a trade: the
// normalized input-side amount. Preferred over the reserve heuristic
// whenever a swap accompanies the state change.
func (e *VolumeEstimator) EstimateFromSwap(amountIn *big.Int, decimalsIn uint8) decimal.Decimal {
	return NormalizeAmount(amountIn, decimalsIn)
}
