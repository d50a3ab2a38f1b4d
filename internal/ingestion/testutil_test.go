package ingestion

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/normalization"
	"amm-candle-oracle/internal/pricing"
)

var (
	testPoolAddr = common.HexToAddress("0x0d4a11d5EEaaC28EC3F61d100daF4d40471f1852")
	testTxHash   = common.HexToHash("0x1100000000000000000000000000000000000000000000000000000000000000")
)

func testMeta() *domain.PoolMetadata {
	return &domain.PoolMetadata{
		Pool:      testPoolAddr,
		Kind:      domain.PoolKindConstantProduct,
		Symbol0:   "WETH",
		Symbol1:   "USDT",
		Decimals0: 18,
		Decimals1: 6,
	}
}

func testNormalizer() *normalization.Normalizer {
	return normalization.NewNormalizer(testMeta(), pricing.NewVolumeEstimator(decimal.Zero), nil)
}

// syncPayload encodes a Sync(uint112,uint112) event body.
func syncPayload(reserve0, reserve1 *big.Int) []byte {
	out := make([]byte, 64)
	reserve0.FillBytes(out[:32])
	reserve1.FillBytes(out[32:64])
	return out
}

// syncRecord builds a Sync record whose derived price is priceUnits
// (token1 per token0) for the 18/6 decimal test pair.
func syncRecord(ts int64, block uint64, logIndex uint, priceUnits int64) *domain.RawPoolRecord {
	// reserve0 = 1 token0, reserve1 holds priceUnits of token1
	r0 := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	r1 := new(big.Int).Mul(big.NewInt(priceUnits), new(big.Int).Exp(big.NewInt(10), big.NewInt(6), nil))
	return &domain.RawPoolRecord{
		Pool:           testPoolAddr,
		Topic:          normalization.TopicSync,
		Payload:        syncPayload(r0, r1),
		BlockNumber:    block,
		LogIndex:       logIndex,
		BlockTimestamp: ts,
		TxHash:         testTxHash,
	}
}

// swapV2Record builds a constant-product Swap record buying token0 with
// amount0In wei of token0 for amount1Out base units of token1.
func swapV2Record(ts int64, block uint64, logIndex uint, amount0In, amount1Out int64) *domain.RawPoolRecord {
	out := make([]byte, 128)
	big.NewInt(amount0In).FillBytes(out[:32])
	big.NewInt(amount1Out).FillBytes(out[96:128])
	return &domain.RawPoolRecord{
		Pool:           testPoolAddr,
		Topic:          normalization.TopicSwapV2,
		Payload:        out,
		BlockNumber:    block,
		LogIndex:       logIndex,
		BlockTimestamp: ts,
		TxHash:         testTxHash,
	}
}

// fakeBatchSource serves canned records.
type fakeBatchSource struct {
	records []*domain.RawPoolRecord
	err     error
}

func (f *fakeBatchSource) Fetch(_ context.Context, _ common.Address, _, _ uint64) ([]*domain.RawPoolRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// fakeStream delivers pre-loaded records and closes on Close.
type fakeStream struct {
	ch        chan *domain.RawPoolRecord
	closeOnce sync.Once
}

func newFakeStream(records ...*domain.RawPoolRecord) *fakeStream {
	ch := make(chan *domain.RawPoolRecord, len(records)+1)
	for _, r := range records {
		ch <- r
	}
	return &fakeStream{ch: ch}
}

func (f *fakeStream) Subscribe(context.Context) (<-chan *domain.RawPoolRecord, error) {
	return f.ch, nil
}

func (f *fakeStream) Close() error {
	f.closeOnce.Do(func() { close(f.ch) })
	return nil
}

// capturingPublisher records everything published.
type capturingPublisher struct {
	mu      sync.Mutex
	candles []*domain.Candle
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, _ int64, candles []*domain.Candle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candles = append(p.candles, candles...)
	return nil
}

func (p *capturingPublisher) published() []*domain.Candle {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*domain.Candle, len(p.candles))
	copy(out, p.candles)
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
