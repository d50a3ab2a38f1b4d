package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"amm-candle-oracle/internal/evm"
	"amm-candle-oracle/internal/normalization"
)

// fakeEVMClient records GetLogs ranges and serves canned logs.
type fakeEVMClient struct {
	logs       []evm.Log
	ranges     [][2]uint64
	timestamps map[uint64]int64
	tsErr      error
}

func (f *fakeEVMClient) BlockNumber(context.Context) (uint64, error) { return 0, nil }

func (f *fakeEVMClient) GetLogs(_ context.Context, filter evm.LogFilter) ([]evm.Log, error) {
	f.ranges = append(f.ranges, [2]uint64{filter.FromBlock, filter.ToBlock})

	var out []evm.Log
	for _, log := range f.logs {
		if uint64(log.BlockNumber) >= filter.FromBlock && uint64(log.BlockNumber) <= filter.ToBlock {
			out = append(out, log)
		}
	}
	return out, nil
}

func (f *fakeEVMClient) BlockTimestamp(_ context.Context, block uint64) (int64, error) {
	if f.tsErr != nil {
		return 0, f.tsErr
	}
	return f.timestamps[block], nil
}

func (f *fakeEVMClient) Call(context.Context, common.Address, []byte) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func testLog(block uint64, logIndex uint, removed bool) evm.Log {
	return evm.Log{
		Address:     testPoolAddr,
		Topics:      []common.Hash{normalization.TopicSync},
		Data:        make([]byte, 64),
		BlockNumber: hexutil.Uint64(block),
		TxHash:      testTxHash,
		LogIndex:    hexutil.Uint(logIndex),
		Removed:     removed,
	}
}

func TestRPCRecordSource_Fetch(t *testing.T) {
	client := &fakeEVMClient{
		logs: []evm.Log{
			testLog(10, 0, false),
			testLog(11, 3, false),
			testLog(11, 7, true), // reorged out
		},
		timestamps: map[uint64]int64{10: 100, 11: 112},
	}

	source := NewRPCRecordSource(client, 0)

	records, err := source.Fetch(context.Background(), testPoolAddr, 10, 11)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records (removed log dropped), got %d", len(records))
	}
	if records[0].BlockNumber != 10 || records[0].BlockTimestamp != 100 {
		t.Errorf("unexpected first record %+v", records[0])
	}
	if records[1].LogIndex != 3 || records[1].BlockTimestamp != 112 {
		t.Errorf("unexpected second record %+v", records[1])
	}
}

func TestRPCRecordSource_Chunking(t *testing.T) {
	client := &fakeEVMClient{timestamps: map[uint64]int64{}}
	source := NewRPCRecordSource(client, 100)

	if _, err := source.Fetch(context.Background(), testPoolAddr, 0, 250); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	want := [][2]uint64{{0, 99}, {100, 199}, {200, 250}}
	if len(client.ranges) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(client.ranges), client.ranges)
	}
	for i, r := range want {
		if client.ranges[i] != r {
			t.Errorf("chunk %d: expected %v, got %v", i, r, client.ranges[i])
		}
	}
}

func TestRPCRecordSource_InvalidRange(t *testing.T) {
	source := NewRPCRecordSource(&fakeEVMClient{}, 0)
	if _, err := source.Fetch(context.Background(), testPoolAddr, 20, 10); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestRPCRecordSource_UpstreamUnavailableOnTimestamp(t *testing.T) {
	client := &fakeEVMClient{
		logs:  []evm.Log{testLog(10, 0, false)},
		tsErr: evm.ErrUpstreamUnavailable,
	}
	source := NewRPCRecordSource(client, 0)

	_, err := source.Fetch(context.Background(), testPoolAddr, 10, 10)
	if !errors.Is(err, evm.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestRPCRecordSource_MissingTimestampFlows(t *testing.T) {
	client := &fakeEVMClient{
		logs:  []evm.Log{testLog(10, 0, false)},
		tsErr: errors.New("block not found"),
	}
	source := NewRPCRecordSource(client, 0)

	records, err := source.Fetch(context.Background(), testPoolAddr, 10, 10)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 || records[0].BlockTimestamp != 0 {
		t.Fatalf("expected record with zero timestamp, got %+v", records)
	}
}
