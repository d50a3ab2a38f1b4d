package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"amm-candle-oracle/internal/config"
	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/evm"
	"amm-candle-oracle/internal/ingestion"
	"amm-candle-oracle/internal/normalization"
	"amm-candle-oracle/internal/observability"
	"amm-candle-oracle/internal/pricing"
	"amm-candle-oracle/internal/publish"
	"amm-candle-oracle/internal/storage"
	chstore "amm-candle-oracle/internal/storage/clickhouse"
	"amm-candle-oracle/internal/storage/memory"
	pgstore "amm-candle-oracle/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (overrides config, empty keeps config value)")
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
	if *metricsAddr != "" {
		cfg.Metrics.ListenAddr = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	if cfg.RPC.WSEndpoint == "" {
		logger.Fatal("rpc.ws_endpoint is required for live mode")
	}

	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(logger, cfg.Metrics.ListenAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
		cancel()

		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing immediate shutdown", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = runWatch(ctx, logger, cfg)

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("watch failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func serveMetrics(logger *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Info("starting metrics server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server error", zap.Error(err))
	}
}

func runWatch(ctx context.Context, logger *zap.Logger, cfg *config.Config) error {
	rpc := evm.NewHTTPClient(cfg.RPC.HTTPEndpoint, evm.WithMaxRetries(cfg.RPC.MaxRetries))

	ws, err := evm.NewWSClient(ctx, cfg.RPC.WSEndpoint, nil, logger)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer ws.Close()

	var candleStore storage.CandleStore = memory.NewCandleStore()
	var tradeStore storage.TradeStore = memory.NewTradeStore()
	var metadataStore storage.PoolMetadataStore = memory.NewPoolMetadataStore()

	if cfg.Storage.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		tradeStore = pgstore.NewTradeStore(pool)
		metadataStore = pgstore.NewPoolMetadataStore(pool)
	}

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		candleStore = chstore.NewCandleStore(conn)
	}

	var publisher ingestion.CandlePublisher
	if cfg.NATS.URL != "" {
		np, err := publish.NewNATSPublisher(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer np.Close()
		publisher = np
	}

	estimator := pricing.NewVolumeEstimator(cfg.Turnover())
	normalizers := make(map[common.Address]*normalization.Normalizer, len(cfg.Pools))
	pools := make([]common.Address, 0, len(cfg.Pools))

	for _, pc := range cfg.Pools {
		pool := common.HexToAddress(pc.Address)

		meta, err := evm.ResolvePoolMetadata(ctx, rpc, pool)
		if err != nil {
			return fmt.Errorf("resolve metadata for %s: %w", pool.Hex(), err)
		}
		if pc.Kind != "" {
			meta.Kind = domain.PoolKind(pc.Kind)
		}
		logger.Info("watching pool",
			zap.String("pool", pool.Hex()),
			zap.String("pair", meta.PairLabel()),
			zap.String("kind", string(meta.Kind)))

		if err := metadataStore.Insert(ctx, meta); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("persist metadata for %s: %w", pool.Hex(), err)
		}

		normalizers[pool] = normalization.NewNormalizer(meta, estimator, logger)
		pools = append(pools, pool)
	}

	stream := ingestion.NewWSRecordSource(ws, rpc, pools, logger)

	runner, err := ingestion.NewRunner(ingestion.RunnerOptions{
		Stream:          stream,
		Normalizers:     normalizers,
		IntervalSeconds: cfg.Candles.IntervalSeconds,
		BucketLag:       cfg.Stream.BucketLag,
		FlushInterval:   time.Duration(cfg.Stream.FlushSeconds) * time.Second,
		Workers:         cfg.Stream.Workers,
		CandleStore:     candleStore,
		TradeStore:      tradeStore,
		Publisher:       publisher,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	logger.Info("starting live candle stream",
		zap.Int("pools", len(pools)),
		zap.Int64("interval_seconds", cfg.Candles.IntervalSeconds))
	return runner.Run(ctx)
}
