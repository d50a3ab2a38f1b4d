package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"amm-candle-oracle/internal/domain"
)

// Function selectors, first four bytes of the keccak256 of the signature.
var (
	selToken0   = crypto.Keccak256([]byte("token0()"))[:4]
	selToken1   = crypto.Keccak256([]byte("token1()"))[:4]
	selDecimals = crypto.Keccak256([]byte("decimals()"))[:4]
	selSymbol   = crypto.Keccak256([]byte("symbol()"))[:4]
	selSlot0    = crypto.Keccak256([]byte("slot0()"))[:4]
)

// ResolvePoolMetadata fetches token0/token1 from the pool contract and the
// ERC-20 decimals/symbol of both tokens. The pool kind is probed via
// slot0(), which only concentrated liquidity pools expose.
func ResolvePoolMetadata(ctx context.Context, client RPCClient, pool common.Address) (*domain.PoolMetadata, error) {
	token0, err := callAddress(ctx, client, pool, selToken0)
	if err != nil {
		return nil, fmt.Errorf("resolve token0 of %s: %w", pool.Hex(), err)
	}
	token1, err := callAddress(ctx, client, pool, selToken1)
	if err != nil {
		return nil, fmt.Errorf("resolve token1 of %s: %w", pool.Hex(), err)
	}

	decimals0, err := callUint8(ctx, client, token0, selDecimals)
	if err != nil {
		return nil, fmt.Errorf("resolve decimals of %s: %w", token0.Hex(), err)
	}
	decimals1, err := callUint8(ctx, client, token1, selDecimals)
	if err != nil {
		return nil, fmt.Errorf("resolve decimals of %s: %w", token1.Hex(), err)
	}

	symbol0, err := callString(ctx, client, token0, selSymbol)
	if err != nil {
		return nil, fmt.Errorf("resolve symbol of %s: %w", token0.Hex(), err)
	}
	symbol1, err := callString(ctx, client, token1, selSymbol)
	if err != nil {
		return nil, fmt.Errorf("resolve symbol of %s: %w", token1.Hex(), err)
	}

	kind := domain.PoolKindConstantProduct
	if _, err := client.Call(ctx, pool, selSlot0); err == nil {
		kind = domain.PoolKindConcentratedLiquidity
	}

	return &domain.PoolMetadata{
		Pool:      pool,
		Kind:      kind,
		Token0:    token0,
		Token1:    token1,
		Symbol0:   symbol0,
		Symbol1:   symbol1,
		Decimals0: decimals0,
		Decimals1: decimals1,
		FetchedAt: time.Now().Unix(),
	}, nil
}

func callAddress(ctx context.Context, client RPCClient, to common.Address, sel []byte) (common.Address, error) {
	out, err := client.Call(ctx, to, sel)
	if err != nil {
		return common.Address{}, err
	}
	if len(out) < 32 {
		return common.Address{}, fmt.Errorf("short return: %d bytes", len(out))
	}
	return common.BytesToAddress(out[12:32]), nil
}

func callUint8(ctx context.Context, client RPCClient, to common.Address, sel []byte) (uint8, error) {
	out, err := client.Call(ctx, to, sel)
	if err != nil {
		return 0, err
	}
	if len(out) < 32 {
		return 0, fmt.Errorf("short return: %d bytes", len(out))
	}
	v := new(big.Int).SetBytes(out[:32])
	if !v.IsUint64() || v.Uint64() > 255 {
		return 0, fmt.Errorf("decimals out of range: %s", v)
	}
	return uint8(v.Uint64()), nil
}

// callString decodes a string return value. Most tokens return an
// ABI-encoded dynamic string; a few old ones return a right-padded bytes32.
func callString(ctx context.Context, client RPCClient, to common.Address, sel []byte) (string, error) {
	out, err := client.Call(ctx, to, sel)
	if err != nil {
		return "", err
	}

	if len(out) == 32 {
		return trimRightZeros(out), nil
	}

	if len(out) >= 64 {
		offset := new(big.Int).SetBytes(out[:32])
		if offset.IsUint64() && offset.Uint64()+32 <= uint64(len(out)) {
			o := offset.Uint64()
			length := new(big.Int).SetBytes(out[o : o+32])
			if length.IsUint64() && o+32+length.Uint64() <= uint64(len(out)) {
				return string(out[o+32 : o+32+length.Uint64()]), nil
			}
		}
	}

	return "", fmt.Errorf("undecodable string return: %d bytes", len(out))
}

func trimRightZeros(b []byte) string {
	s := strings.TrimRight(string(b), "\x00")
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsPrint(r)
	})
}
