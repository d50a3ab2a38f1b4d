// Package export renders candle series into the JSON wire shape consumers
// read: millisecond timestamps and fixed-precision decimal strings.
package export

import (
	"encoding/json"
	"fmt"
	"os"

	"amm-candle-oracle/internal/domain"
)

// Fixed output precision. Prices carry 32 fractional digits, volumes 16.
const (
	PriceDigits  = 32
	VolumeDigits = 16
)

// CandleRecord is the wire form of one candle.
type CandleRecord struct {
	Timestamp int64  `json:"timestamp"` // bucket start, epoch milliseconds
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

// NewCandleRecord renders one candle. Values are padded or rounded to the
// fixed digit counts, so equal prices always serialize identically.
func NewCandleRecord(c *domain.Candle) CandleRecord {
	return CandleRecord{
		Timestamp: c.BucketStart * 1000,
		Open:      c.Open.StringFixed(PriceDigits),
		High:      c.High.StringFixed(PriceDigits),
		Low:       c.Low.StringFixed(PriceDigits),
		Close:     c.Close.StringFixed(PriceDigits),
		Volume:    c.Volume.StringFixed(VolumeDigits),
	}
}

// Records renders a whole series in bucket order.
func Records(series *domain.CandleSeries) []CandleRecord {
	out := make([]CandleRecord, 0, len(series.Candles))
	for _, c := range series.Candles {
		out = append(out, NewCandleRecord(c))
	}
	return out
}

// MarshalSeries renders a series as an indented JSON array.
func MarshalSeries(series *domain.CandleSeries) ([]byte, error) {
	data, err := json.MarshalIndent(Records(series), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal candle series: %w", err)
	}
	return data, nil
}

// WriteSeriesFile writes the series JSON to path.
func WriteSeriesFile(series *domain.CandleSeries, path string) error {
	data, err := MarshalSeries(series)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
