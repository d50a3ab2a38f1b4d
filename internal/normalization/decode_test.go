package normalization

import (
	"errors"
	"math/big"
	"testing"
)

// pad left-pads a big.Int to one 32-byte word.
func pad(v *big.Int) []byte {
	word := make([]byte, 32)
	b := v.Bytes()
	copy(word[32-len(b):], b)
	return word
}

// padSigned encodes a two's-complement int256 word.
func padSigned(v *big.Int) []byte {
	if v.Sign() >= 0 {
		return pad(v)
	}
	wrapped := new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 256), v)
	return pad(wrapped)
}

func words(ws ...[]byte) []byte {
	var payload []byte
	for _, w := range ws {
		payload = append(payload, w...)
	}
	return payload
}

func TestDecodeSync(t *testing.T) {
	payload := words(pad(big.NewInt(12345)), pad(big.NewInt(67890)))

	update, err := DecodeSync(payload)
	if err != nil {
		t.Fatalf("DecodeSync: %v", err)
	}
	if update.Reserve0.Cmp(big.NewInt(12345)) != 0 {
		t.Errorf("reserve0: expected 12345, got %s", update.Reserve0)
	}
	if update.Reserve1.Cmp(big.NewInt(67890)) != 0 {
		t.Errorf("reserve1: expected 67890, got %s", update.Reserve1)
	}
}

func TestDecodeSync_ShortPayload(t *testing.T) {
	_, err := DecodeSync(make([]byte, 63))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestDecodeSwapV2(t *testing.T) {
	payload := words(
		pad(big.NewInt(5)), pad(big.NewInt(0)),
		pad(big.NewInt(0)), pad(big.NewInt(3)),
	)

	swap, err := DecodeSwapV2(payload)
	if err != nil {
		t.Fatalf("DecodeSwapV2: %v", err)
	}
	if swap.Amount0In.Cmp(big.NewInt(5)) != 0 || swap.Amount1Out.Cmp(big.NewInt(3)) != 0 {
		t.Errorf("expected amount0In=5 amount1Out=3, got %s and %s", swap.Amount0In, swap.Amount1Out)
	}
	if swap.Amount1In.Sign() != 0 || swap.Amount0Out.Sign() != 0 {
		t.Errorf("expected inactive pair to be zero, got %s and %s", swap.Amount1In, swap.Amount0Out)
	}
}

func TestDecodeSwapV2_ShortPayload(t *testing.T) {
	_, err := DecodeSwapV2(make([]byte, 96))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestDecodeSwapV3_SignedAmounts(t *testing.T) {
	// amount0 = +1000 (into the pool), amount1 = -500 (out of the pool):
	// token0 in, token1 out => buy-shaped pairs.
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 96)
	payload := words(
		padSigned(big.NewInt(1000)),
		padSigned(big.NewInt(-500)),
		pad(sqrtPrice),
		pad(big.NewInt(777)),
		padSigned(big.NewInt(-100)),
	)

	swap, err := DecodeSwapV3(payload)
	if err != nil {
		t.Fatalf("DecodeSwapV3: %v", err)
	}
	if swap.Amount0In.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("amount0In: expected 1000, got %s", swap.Amount0In)
	}
	if swap.Amount1Out.Cmp(big.NewInt(500)) != 0 {
		t.Errorf("amount1Out: expected 500, got %s", swap.Amount1Out)
	}
	if swap.Amount0Out.Sign() != 0 || swap.Amount1In.Sign() != 0 {
		t.Errorf("expected inactive pair to be zero, got %s and %s", swap.Amount0Out, swap.Amount1In)
	}
	if swap.SqrtPriceX96.Cmp(sqrtPrice) != 0 {
		t.Errorf("sqrtPriceX96: expected 2^96, got %s", swap.SqrtPriceX96)
	}
}

func TestDecodeSwapV3_SellDirection(t *testing.T) {
	payload := words(
		padSigned(big.NewInt(-200)),
		padSigned(big.NewInt(900)),
		pad(new(big.Int).Lsh(big.NewInt(1), 96)),
		pad(big.NewInt(1)),
		pad(big.NewInt(0)),
	)

	swap, err := DecodeSwapV3(payload)
	if err != nil {
		t.Fatalf("DecodeSwapV3: %v", err)
	}
	if ClassifyDirection(swap) != "sell" {
		t.Errorf("expected sell direction, got %s", ClassifyDirection(swap))
	}
	if swap.Amount0Out.Cmp(big.NewInt(200)) != 0 || swap.Amount1In.Cmp(big.NewInt(900)) != 0 {
		t.Errorf("expected amount0Out=200 amount1In=900, got %s and %s", swap.Amount0Out, swap.Amount1In)
	}
}

func TestDecodeSwapV3_ShortPayload(t *testing.T) {
	_, err := DecodeSwapV3(make([]byte, 128))
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("expected ErrMalformedPayload, got %v", err)
	}
}
