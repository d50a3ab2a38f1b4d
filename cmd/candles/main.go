package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"amm-candle-oracle/internal/aggregation"
	"amm-candle-oracle/internal/config"
	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/evm"
	"amm-candle-oracle/internal/export"
	"amm-candle-oracle/internal/ingestion"
	"amm-candle-oracle/internal/normalization"
	"amm-candle-oracle/internal/pricing"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	rpcEndpoint := flag.String("rpc-endpoint", "", "EVM RPC HTTP endpoint (overrides config)")
	poolAddr := flag.String("pool", "", "Pool address to scan (overrides config)")
	fromBlock := flag.Uint64("from-block", 0, "First block of the scan range")
	toBlock := flag.Uint64("to-block", 0, "Last block of the scan range")
	interval := flag.Int64("interval", 0, "Candle interval in seconds (overrides config)")
	outFile := flag.String("out", "", "Output JSON file (overrides config)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *rpcEndpoint != "" {
		cfg.RPC.HTTPEndpoint = *rpcEndpoint
	}
	if *poolAddr != "" {
		cfg.Pools = []config.PoolConfig{{Address: *poolAddr}}
	}
	if *interval > 0 {
		cfg.Candles.IntervalSeconds = *interval
	}
	if *outFile != "" {
		cfg.Candles.OutputFile = *outFile
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	if *toBlock == 0 || *toBlock < *fromBlock {
		logger.Fatal("a valid --from-block/--to-block range is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := evm.NewHTTPClient(cfg.RPC.HTTPEndpoint, evm.WithMaxRetries(cfg.RPC.MaxRetries))
	source := ingestion.NewRPCRecordSource(client, 0)

	for _, pc := range cfg.Pools {
		if err := backfillPool(ctx, logger, client, source, cfg, pc, *fromBlock, *toBlock); err != nil {
			logger.Fatal("backfill failed",
				zap.String("pool", pc.Address),
				zap.Error(err))
		}
	}
}

func backfillPool(
	ctx context.Context,
	logger *zap.Logger,
	client evm.RPCClient,
	source ingestion.BatchSource,
	cfg *config.Config,
	pc config.PoolConfig,
	fromBlock, toBlock uint64,
) error {
	pool := common.HexToAddress(pc.Address)

	meta, err := evm.ResolvePoolMetadata(ctx, client, pool)
	if err != nil {
		return fmt.Errorf("resolve pool metadata: %w", err)
	}
	if pc.Kind != "" {
		meta.Kind = domain.PoolKind(pc.Kind)
	}
	logger.Info("resolved pool",
		zap.String("pool", pool.Hex()),
		zap.String("pair", meta.PairLabel()),
		zap.String("kind", string(meta.Kind)))

	normalizer := normalization.NewNormalizer(meta, pricing.NewVolumeEstimator(cfg.Turnover()), logger)

	backfiller, err := ingestion.NewBackfiller(ingestion.BackfillerOptions{
		Source:          source,
		Meta:            meta,
		Normalizer:      normalizer,
		IntervalSeconds: cfg.Candles.IntervalSeconds,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	series, err := backfiller.Run(ctx, fromBlock, toBlock)
	if err != nil {
		if errors.Is(err, aggregation.ErrNoObservations) {
			return fmt.Errorf("no usable price observations in blocks %d-%d: %w", fromBlock, toBlock, err)
		}
		return err
	}

	path := outputPath(cfg.Candles.OutputFile, pool, len(cfg.Pools) > 1)
	if err := export.WriteSeriesFile(series, path); err != nil {
		return fmt.Errorf("write series: %w", err)
	}

	logger.Info("series written",
		zap.String("pool", pool.Hex()),
		zap.String("pair", meta.PairLabel()),
		zap.String("path", path),
		zap.Int("observations", series.ObservationsConsumed),
		zap.Int("candles", series.CandlesEmitted))
	return nil
}

// outputPath inserts the pool address before the extension when more than
// one pool shares the output file.
func outputPath(base string, pool common.Address, multi bool) string {
	if !multi {
		return base
	}
	ext := ".json"
	stem := strings.TrimSuffix(base, ext)
	return stem + "." + strings.ToLower(pool.Hex()) + ext
}
