package domain

import "github.com/ethereum/go-ethereum/common"

// PoolKind selects the price representation a pool exposes.
type PoolKind string

const (
	// PoolKindConstantProduct covers Uniswap-V2-style pairs where the price
	// is implied by the reserve ratio (Sync events).
	PoolKindConstantProduct PoolKind = "constant_product"

	// PoolKindConcentratedLiquidity covers Uniswap-V3-style pools where the
	// price is carried explicitly as sqrtPriceX96 (Swap events).
	PoolKindConcentratedLiquidity PoolKind = "concentrated_liquidity"
)

// Valid reports whether k is a known pool kind.
func (k PoolKind) Valid() bool {
	return k == PoolKindConstantProduct || k == PoolKindConcentratedLiquidity
}

// PoolMetadata holds the token metadata a pool needs for price normalization.
// Fetched once from the chain (token0()/token1() + ERC-20 decimals()/symbol())
// and passed into the normalizer as context.
type PoolMetadata struct {
	Pool      common.Address // pool (pair) contract address
	Kind      PoolKind       // price representation
	Token0    common.Address // token0 contract address
	Token1    common.Address // token1 contract address
	Symbol0   string         // token0 symbol
	Symbol1   string         // token1 symbol
	Decimals0 uint8          // token0 decimals
	Decimals1 uint8          // token1 decimals
	FetchedAt int64          // when metadata was fetched (epoch seconds)
}

// PairLabel returns the "<symbol0>-<symbol1>" label used on enriched trades.
func (m *PoolMetadata) PairLabel() string {
	return m.Symbol0 + "-" + m.Symbol1
}
