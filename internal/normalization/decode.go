package normalization

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"amm-candle-oracle/internal/domain"
)

// Event signature topics for the events the normalizer understands.
var (
	// TopicSync is Sync(uint112,uint112), emitted by constant-product pairs
	// after every reserve change.
	TopicSync = crypto.Keccak256Hash([]byte("Sync(uint112,uint112)"))

	// TopicSwapV2 is the constant-product
	// Swap(address,uint256,uint256,uint256,uint256,address).
	TopicSwapV2 = crypto.Keccak256Hash([]byte("Swap(address,uint256,uint256,uint256,uint256,address)"))

	// TopicSwapV3 is the concentrated-liquidity
	// Swap(address,address,int256,int256,uint160,uint128,int24).
	TopicSwapV3 = crypto.Keccak256Hash([]byte("Swap(address,address,int256,int256,uint160,uint128,int24)"))
)

const wordSize = 32

// word extracts the i-th 32-byte word as an unsigned big.Int.
func word(payload []byte, i int) *big.Int {
	return new(big.Int).SetBytes(payload[i*wordSize : (i+1)*wordSize])
}

// signedWord extracts the i-th word as a two's-complement int256.
func signedWord(payload []byte, i int) *big.Int {
	v := word(payload, i)
	if payload[i*wordSize]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return v
}

// DecodeSync decodes a Sync payload: two padded uint112 reserves.
func DecodeSync(payload []byte) (*domain.ReserveUpdate, error) {
	if len(payload) != 2*wordSize {
		return nil, fmt.Errorf("%w: sync payload is %d bytes, want %d", ErrMalformedPayload, len(payload), 2*wordSize)
	}
	return &domain.ReserveUpdate{
		Reserve0: word(payload, 0),
		Reserve1: word(payload, 1),
	}, nil
}

// DecodeSwapV2 decodes a constant-product Swap payload: the four directional
// amounts (sender and recipient live in the indexed topics).
func DecodeSwapV2(payload []byte) (*domain.SwapEvent, error) {
	if len(payload) != 4*wordSize {
		return nil, fmt.Errorf("%w: v2 swap payload is %d bytes, want %d", ErrMalformedPayload, len(payload), 4*wordSize)
	}
	return &domain.SwapEvent{
		Amount0In:  word(payload, 0),
		Amount1In:  word(payload, 1),
		Amount0Out: word(payload, 2),
		Amount1Out: word(payload, 3),
	}, nil
}

// DecodeSwapV3 decodes a concentrated-liquidity Swap payload: signed token
// deltas, the post-swap sqrtPriceX96, liquidity, and tick. The signed deltas
// (positive = into the pool) are resolved into the directional amount pairs
// so classification works uniformly across pool kinds.
func DecodeSwapV3(payload []byte) (*domain.SwapEvent, error) {
	if len(payload) != 5*wordSize {
		return nil, fmt.Errorf("%w: v3 swap payload is %d bytes, want %d", ErrMalformedPayload, len(payload), 5*wordSize)
	}

	amount0 := signedWord(payload, 0)
	amount1 := signedWord(payload, 1)

	swap := &domain.SwapEvent{
		Amount0In:    big.NewInt(0),
		Amount1In:    big.NewInt(0),
		Amount0Out:   big.NewInt(0),
		Amount1Out:   big.NewInt(0),
		SqrtPriceX96: word(payload, 2),
	}

	if amount0.Sign() > 0 {
		swap.Amount0In = amount0
	} else {
		swap.Amount0Out = new(big.Int).Neg(amount0)
	}
	if amount1.Sign() > 0 {
		swap.Amount1In = amount1
	} else {
		swap.Amount1Out = new(big.Int).Neg(amount1)
	}

	return swap, nil
}

// topicLabel names a topic for error reporting.
func topicLabel(topic common.Hash) string {
	switch topic {
	case TopicSync:
		return "Sync"
	case TopicSwapV2:
		return "SwapV2"
	case TopicSwapV3:
		return "SwapV3"
	default:
		return topic.Hex()
	}
}
