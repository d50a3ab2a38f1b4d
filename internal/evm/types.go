package evm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Log is one entry from eth_getLogs / the logs subscription.
type Log struct {
	Address     common.Address `json:"address"`
	Topics      []common.Hash  `json:"topics"`
	Data        hexutil.Bytes  `json:"data"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	TxHash      common.Hash    `json:"transactionHash"`
	LogIndex    hexutil.Uint   `json:"logIndex"`
	Removed     bool           `json:"removed"`
}

// LogFilter selects logs for eth_getLogs over an inclusive block range.
type LogFilter struct {
	FromBlock uint64
	ToBlock   uint64
	Addresses []common.Address
	Topics    []common.Hash // matched against topic0, any-of
}

// SubscriptionFilter selects logs for eth_subscribe("logs").
type SubscriptionFilter struct {
	Addresses []common.Address
	Topics    []common.Hash // matched against topic0, any-of
}
