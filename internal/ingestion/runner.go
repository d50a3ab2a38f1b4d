package ingestion

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"amm-candle-oracle/internal/aggregation"
	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/normalization"
	"amm-candle-oracle/internal/observability"
	"amm-candle-oracle/internal/storage"
)

// CandlePublisher pushes closed candles to downstream consumers.
type CandlePublisher interface {
	Publish(ctx context.Context, pool string, intervalSeconds int64, candles []*domain.Candle) error
}

// Runner orchestrates the live path: a worker pool normalizes incoming
// records, observations accumulate in per-pool interval buckets, and a
// flush loop closes buckets once they trail the newest bucket by a lag
// window. Closed buckets become candles, which are stored and published.
type Runner struct {
	stream          StreamSource
	normalizers     map[common.Address]*normalization.Normalizer
	intervalSeconds int64
	bucketLag       int64 // buckets to hold open for stragglers
	flushInterval   time.Duration
	workers         int
	candleStore     storage.CandleStore
	tradeStore      storage.TradeStore
	publisher       CandlePublisher
	logger          *zap.Logger

	// per-pool open buckets, guarded by mu; workers append concurrently
	mu            sync.Mutex
	buckets       map[common.Address]map[int64][]*domain.PriceObservation
	highestBucket int64
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Stream          StreamSource
	Normalizers     map[common.Address]*normalization.Normalizer
	IntervalSeconds int64
	BucketLag       int64         // Default: 1 bucket
	FlushInterval   time.Duration // Default: 5s
	Workers         int           // Default: 4
	CandleStore     storage.CandleStore
	TradeStore      storage.TradeStore
	Publisher       CandlePublisher
	Logger          *zap.Logger
}

// NewRunner creates a streaming runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Stream == nil {
		return nil, errors.New("stream source is required")
	}
	if len(opts.Normalizers) == 0 {
		return nil, errors.New("at least one pool normalizer is required")
	}
	if opts.IntervalSeconds <= 0 {
		return nil, errors.New("interval must be positive")
	}

	bucketLag := opts.BucketLag
	if bucketLag <= 0 {
		bucketLag = 1
	}
	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 5 * time.Second
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		stream:          opts.Stream,
		normalizers:     opts.Normalizers,
		intervalSeconds: opts.IntervalSeconds,
		bucketLag:       bucketLag,
		flushInterval:   flushInterval,
		workers:         workers,
		candleStore:     opts.CandleStore,
		tradeStore:      opts.TradeStore,
		publisher:       opts.Publisher,
		logger:          logger,
		buckets:         make(map[common.Address]map[int64][]*domain.PriceObservation),
	}, nil
}

// Run starts the workers and the flush loop. It blocks until the context
// is cancelled or the stream ends, flushing all residual buckets before
// returning.
func (r *Runner) Run(ctx context.Context) error {
	records, err := r.stream.Subscribe(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("runner started",
		zap.Int("pools", len(r.normalizers)),
		zap.Int64("interval_seconds", r.intervalSeconds),
		zap.Int64("bucket_lag", r.bucketLag),
		zap.Int("workers", r.workers))

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range records {
				r.handleRecord(ctx, record)
			}
		}()
	}

	flushTicker := time.NewTicker(r.flushInterval)
	defer flushTicker.Stop()

	streamDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(streamDone)
	}()

	for {
		select {
		case <-ctx.Done():
			// Stop intake, drain workers, then flush everything left.
			r.stream.Close()
			wg.Wait()
			r.flushAll(context.Background())
			r.logger.Info("runner stopped")
			return ctx.Err()

		case <-streamDone:
			r.flushAll(ctx)
			return errors.New("record stream closed")

		case <-flushTicker.C:
			r.flushClosed(ctx)
		}
	}
}

// handleRecord normalizes one record. A bad record is skipped and reported;
// it never affects sibling workers.
func (r *Runner) handleRecord(ctx context.Context, record *domain.RawPoolRecord) {
	started := time.Now()
	observability.RecordEventProcessed()

	normalizer, ok := r.normalizers[record.Pool]
	if !ok {
		observability.RecordEventSkipped("unknown_pool")
		return
	}

	result, err := normalizer.Normalize(record)
	if err != nil {
		observability.RecordEventSkipped(normalization.ErrorKind(err))
		r.logger.Warn("event skipped",
			zap.String("pool", record.Pool.Hex()),
			zap.Uint64("block", record.BlockNumber),
			zap.Uint("log_index", record.LogIndex),
			zap.Error(err))
		return
	}

	if result.Observation != nil {
		r.bufferObservation(record.Pool, result.Observation)
		observability.RecordObservation()
	}

	if result.Trade != nil {
		r.handleTrade(ctx, record.Pool, result.Trade)
	}

	observability.DefaultMetrics.EventProcessingLatency.Observe(time.Since(started).Seconds())
}

// bufferObservation files an observation under its interval bucket.
func (r *Runner) bufferObservation(pool common.Address, obs *domain.PriceObservation) {
	bucket := aggregation.BucketStart(obs.Timestamp, r.intervalSeconds)

	r.mu.Lock()
	byBucket, ok := r.buckets[pool]
	if !ok {
		byBucket = make(map[int64][]*domain.PriceObservation)
		r.buckets[pool] = byBucket
	}
	byBucket[bucket] = append(byBucket[bucket], obs)
	if bucket > r.highestBucket {
		r.highestBucket = bucket
	}
	open := 0
	for _, b := range r.buckets {
		open += len(b)
	}
	highest := r.highestBucket
	r.mu.Unlock()

	observability.UpdateBufferSize(open)
	observability.UpdateHighestBucket(highest)
}

// handleTrade persists and logs one enriched trade.
func (r *Runner) handleTrade(ctx context.Context, pool common.Address, trade *domain.EnrichedTrade) {
	observability.RecordTrade(string(trade.Direction))

	r.logger.Info("trade",
		zap.String("pair", trade.PairLabel),
		zap.String("direction", string(trade.Direction)),
		zap.String("amount_in", trade.AmountIn.String()),
		zap.String("amount_out", trade.AmountOut.String()),
		zap.Uint64("block", trade.BlockNumber))

	if r.tradeStore == nil {
		return
	}
	if err := r.tradeStore.Insert(ctx, pool.Hex(), trade); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			r.logger.Error("store trade", zap.Error(err))
		}
		// Duplicate is expected on resubscribe replay, not an error
	}
}

// flushClosed flushes every bucket that trails the newest bucket by at
// least the lag window.
func (r *Runner) flushClosed(ctx context.Context) {
	r.mu.Lock()
	cutoff := r.highestBucket - r.bucketLag*r.intervalSeconds
	closed := r.takeBucketsLocked(cutoff)
	r.mu.Unlock()

	r.emit(ctx, closed)
}

// flushAll flushes every remaining bucket. Used on shutdown, when holding
// buckets open no longer serves stragglers.
func (r *Runner) flushAll(ctx context.Context) {
	r.mu.Lock()
	closed := r.takeBucketsLocked(int64(1)<<62 - 1)
	r.mu.Unlock()

	r.emit(ctx, closed)
}

// takeBucketsLocked removes and returns all buckets with start <= cutoff.
// Caller holds mu.
func (r *Runner) takeBucketsLocked(cutoff int64) map[common.Address][]*domain.PriceObservation {
	out := make(map[common.Address][]*domain.PriceObservation)
	for pool, byBucket := range r.buckets {
		for start, observations := range byBucket {
			if start <= cutoff {
				out[pool] = append(out[pool], observations...)
				delete(byBucket, start)
			}
		}
		if len(byBucket) == 0 {
			delete(r.buckets, pool)
		}
	}
	return out
}

// emit aggregates flushed observations per pool, stores and publishes the
// resulting candles.
// storeCandles inserts a flushed batch. A duplicate bucket (a straggler
// re-closing an already-stored bucket after a resubscribe replay) fails the
// whole batch, so on ErrDuplicateKey the insert falls back to per-candle
// writes and only the duplicates are skipped.
func (r *Runner) storeCandles(ctx context.Context, pool common.Address, candles []*domain.Candle) {
	err := r.candleStore.InsertBulk(ctx, pool.Hex(), r.intervalSeconds, candles)
	if err == nil {
		return
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		r.logger.Error("store candles", zap.String("pool", pool.Hex()), zap.Error(err))
		return
	}

	for _, candle := range candles {
		err := r.candleStore.InsertBulk(ctx, pool.Hex(), r.intervalSeconds, []*domain.Candle{candle})
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			r.logger.Error("store candle",
				zap.String("pool", pool.Hex()),
				zap.Int64("bucket", candle.BucketStart),
				zap.Error(err))
		}
	}
}

func (r *Runner) emit(ctx context.Context, flushed map[common.Address][]*domain.PriceObservation) {
	if len(flushed) == 0 {
		return
	}

	// Deterministic pool order
	pools := make([]common.Address, 0, len(flushed))
	for pool := range flushed {
		pools = append(pools, pool)
	}
	sort.Slice(pools, func(i, j int) bool {
		return pools[i].Hex() < pools[j].Hex()
	})

	for _, pool := range pools {
		candles := aggregation.Aggregate(flushed[pool], r.intervalSeconds)
		if len(candles) == 0 {
			continue
		}

		observability.RecordFlush(len(candles), time.Now().Unix())

		if r.candleStore != nil {
			r.storeCandles(ctx, pool, candles)
		}

		if r.publisher != nil {
			if err := r.publisher.Publish(ctx, pool.Hex(), r.intervalSeconds, candles); err != nil {
				r.logger.Error("publish candles", zap.String("pool", pool.Hex()), zap.Error(err))
			}
		}

		r.logger.Info("buckets flushed",
			zap.String("pool", pool.Hex()),
			zap.Int("candles", len(candles)),
			zap.Int64("first_bucket", candles[0].BucketStart),
			zap.Int64("last_bucket", candles[len(candles)-1].BucketStart))
	}
}
