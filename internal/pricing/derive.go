// Package pricing derives comparable decimal exchange rates from the two
// on-chain price representations: constant-product reserve ratios and
// concentrated-liquidity square-root prices.
package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// divPrecision is the fractional precision carried through divisions.
// It exceeds the 32 digits of the exported candle format so rendering
// never exposes rounding artifacts.
const divPrecision = 48

// q192 = 2^192, the denominator for squared X96 fixed-point values.
var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// DeriveFromReserves returns token0 priced in token1 from a constant-product
// pair's reserves: (reserve1 / reserve0) * 10^(decimals0 - decimals1).
//
// Returns zero if either reserve is nil or zero. Zero is "no observation",
// not a real price; callers must exclude it from aggregation.
func DeriveFromReserves(reserve0, reserve1 *big.Int, decimals0, decimals1 uint8) decimal.Decimal {
	if reserve0 == nil || reserve1 == nil || reserve0.Sign() == 0 || reserve1.Sign() == 0 {
		return decimal.Zero
	}

	// The decimal shift is applied as an exponent on the numerator, so the
	// only rounding is the single division at divPrecision.
	num := decimal.NewFromBigInt(reserve1, int32(decimals0)-int32(decimals1))
	return num.DivRound(decimal.NewFromBigInt(reserve0, 0), divPrecision)
}

// DeriveFromSqrtPrice returns token0 priced in token1 from a
// concentrated-liquidity pool's sqrtPriceX96:
// (sqrtPriceX96 / 2^96)^2 * 10^(decimals0 - decimals1).
//
// The square of a 160-bit value needs up to 320 bits, so the value is
// squared in big.Int and divided by 2^192 in decimal. Returns zero for a
// nil or non-positive input.
func DeriveFromSqrtPrice(sqrtPriceX96 *big.Int, decimals0, decimals1 uint8) decimal.Decimal {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return decimal.Zero
	}

	squared := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	num := decimal.NewFromBigInt(squared, int32(decimals0)-int32(decimals1))
	return num.DivRound(decimal.NewFromBigInt(q192, 0), divPrecision)
}

// NormalizeAmount converts a raw token amount to human units:
// amount * 10^-decimals. Nil amounts normalize to zero.
func NormalizeAmount(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}
