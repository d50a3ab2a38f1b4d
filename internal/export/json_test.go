package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"amm-candle-oracle/internal/domain"
)

func testSeries() *domain.CandleSeries {
	return &domain.CandleSeries{
		Pool:            "0x0d4a11d5EEaaC28EC3F61d100daF4d40471f1852",
		PairLabel:       "WETH-USDT",
		IntervalSeconds: 60,
		Candles: []*domain.Candle{
			{
				BucketStart: 60,
				Open:        decimal.RequireFromString("3000.5"),
				High:        decimal.RequireFromString("3010"),
				Low:         decimal.RequireFromString("2995.25"),
				Close:       decimal.RequireFromString("3001"),
				Volume:      decimal.RequireFromString("12.5"),
			},
		},
		ObservationsConsumed: 3,
		CandlesEmitted:       1,
	}
}

func TestNewCandleRecord_FixedPrecision(t *testing.T) {
	rec := NewCandleRecord(testSeries().Candles[0])

	if rec.Timestamp != 60000 {
		t.Errorf("expected timestamp 60000 ms, got %d", rec.Timestamp)
	}
	if rec.Open != "3000.50000000000000000000000000000000" {
		t.Errorf("unexpected open %q", rec.Open)
	}
	if rec.Volume != "12.5000000000000000" {
		t.Errorf("unexpected volume %q", rec.Volume)
	}

	// 32 fractional digits on prices, 16 on volume
	if frac := len(rec.High) - strings.IndexByte(rec.High, '.') - 1; frac != 32 {
		t.Errorf("expected 32 fractional digits, got %d in %q", frac, rec.High)
	}
	if frac := len(rec.Volume) - strings.IndexByte(rec.Volume, '.') - 1; frac != 16 {
		t.Errorf("expected 16 fractional digits, got %d in %q", frac, rec.Volume)
	}
}

func TestWriteSeriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candles.json")

	if err := WriteSeriesFile(testSeries(), path); err != nil {
		t.Fatalf("WriteSeriesFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	var records []CandleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Close != "3001.00000000000000000000000000000000" {
		t.Errorf("unexpected close %q", records[0].Close)
	}
}

func TestMarshalSeries_EmptyIsArray(t *testing.T) {
	series := &domain.CandleSeries{}
	data, err := MarshalSeries(series)
	if err != nil {
		t.Fatalf("MarshalSeries: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("expected empty array, got %s", data)
	}
}
