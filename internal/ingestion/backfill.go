package ingestion

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"amm-candle-oracle/internal/aggregation"
	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/normalization"
	"amm-candle-oracle/internal/observability"
	"amm-candle-oracle/internal/storage"
	"amm-candle-oracle/internal/storage/memory"
)

// Backfiller runs the batch path for one pool: scan a block range, normalize
// every event, collect the surviving observations in a working set, then
// aggregate them into a candle series.
type Backfiller struct {
	source       BatchSource
	meta         *domain.PoolMetadata
	normalizer   *normalization.Normalizer
	builder      *aggregation.SeriesBuilder
	observations storage.ObservationStore
	logger       *zap.Logger
}

// BackfillerOptions contains configuration for creating a Backfiller.
type BackfillerOptions struct {
	Source          BatchSource
	Meta            *domain.PoolMetadata
	Normalizer      *normalization.Normalizer
	IntervalSeconds int64
	Observations    storage.ObservationStore // Default: in-memory
	Logger          *zap.Logger
}

// NewBackfiller creates a backfiller.
func NewBackfiller(opts BackfillerOptions) (*Backfiller, error) {
	if opts.Source == nil || opts.Meta == nil || opts.Normalizer == nil {
		return nil, errors.New("source, meta and normalizer are required")
	}

	builder, err := aggregation.NewSeriesBuilder(opts.Meta.Pool.Hex(), opts.Meta.PairLabel(), opts.IntervalSeconds)
	if err != nil {
		return nil, err
	}

	observations := opts.Observations
	if observations == nil {
		observations = memory.NewObservationStore()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Backfiller{
		source:       opts.Source,
		meta:         opts.Meta,
		normalizer:   opts.Normalizer,
		builder:      builder,
		observations: observations,
		logger:       logger,
	}, nil
}

// Run fetches [fromBlock, toBlock], normalizes and aggregates. A bad event
// is skipped and reported; only an unusable range (no observations at all)
// or an unavailable upstream fails the run.
func (b *Backfiller) Run(ctx context.Context, fromBlock, toBlock uint64) (*domain.CandleSeries, error) {
	records, err := b.source.Fetch(ctx, b.meta.Pool, fromBlock, toBlock)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}

	b.logger.Info("backfill fetched records",
		zap.String("pool", b.meta.Pool.Hex()),
		zap.Uint64("from_block", fromBlock),
		zap.Uint64("to_block", toBlock),
		zap.Int("records", len(records)))

	pool := b.meta.Pool.Hex()
	var skipped int

	for _, record := range records {
		observability.RecordEventProcessed()

		result, err := b.normalizer.Normalize(record)
		if err != nil {
			skipped++
			observability.RecordEventSkipped(normalization.ErrorKind(err))
			b.logger.Warn("event skipped",
				zap.Uint64("block", record.BlockNumber),
				zap.Uint("log_index", record.LogIndex),
				zap.Error(err))
			continue
		}

		if result.Observation != nil {
			if err := b.observations.Append(ctx, pool, result.Observation); err != nil {
				return nil, fmt.Errorf("append observation: %w", err)
			}
			observability.RecordObservation()
		}
	}

	collected, err := b.observations.GetByPool(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("collect observations: %w", err)
	}

	series, err := b.builder.Build(collected)
	if err != nil {
		return nil, err
	}

	b.logger.Info("backfill complete",
		zap.String("pair", series.PairLabel),
		zap.Int("observations", series.ObservationsConsumed),
		zap.Int("candles", series.CandlesEmitted),
		zap.Int("skipped", skipped))

	return series, nil
}
