// Package publish pushes closed candles onto NATS JetStream for downstream
// consumers.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"amm-candle-oracle/internal/domain"
	"amm-candle-oracle/internal/export"
)

const (
	streamName = "CANDLES"
	// subject layout: candles.<interval>s.<pool address>
	subjectPattern = "candles.*.*"
)

// NATSPublisher publishes candle messages to a JetStream stream.
type NATSPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *zap.Logger
}

// NewNATSPublisher connects to NATS and ensures the candle stream exists.
func NewNATSPublisher(url string, logger *zap.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPattern},
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist with older settings
		if _, err := js.UpdateStream(cfg); err != nil {
			logger.Warn("failed to create or update stream", zap.Error(err))
		}
	}

	return &NATSPublisher{nc: nc, js: js, logger: logger}, nil
}

// Publish sends each candle as one message on
// candles.<interval>s.<pool address>. Messages use the export wire shape,
// so subscribers see the same fixed-precision fields as file output.
func (p *NATSPublisher) Publish(_ context.Context, pool string, intervalSeconds int64, candles []*domain.Candle) error {
	subject := fmt.Sprintf("candles.%ds.%s", intervalSeconds, pool)

	for _, candle := range candles {
		data, err := json.Marshal(export.NewCandleRecord(candle))
		if err != nil {
			return fmt.Errorf("marshal candle: %w", err)
		}
		if _, err := p.js.Publish(subject, data); err != nil {
			return fmt.Errorf("publish candle on %s: %w", subject, err)
		}
	}

	p.logger.Debug("candles published",
		zap.String("subject", subject),
		zap.Int("count", len(candles)))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	p.nc.Close()
}
