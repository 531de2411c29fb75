package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Task is one proof-of-work job handed out by the task source
type Task struct {
	Nonce      *uint256.Int
	Address    common.Address
	Difficulty *uint256.Int
}

// Result represents a mining result
type Result struct {
	Solution *uint256.Int
	Hash     common.Hash
	Worker   int
	Attempts uint64
	Duration time.Duration
}

// WorkerConfig contains configuration for individual workers.
// Prefix and Target are shared read-only by every worker of a search.
type WorkerConfig struct {
	Prefix    []byte   // 52 bytes: nonce (32) + address (20)
	Target    [32]byte // big-endian threshold, digest must be <= Target
	Stride    uint64   // number of workers
	BatchSize int
}

// WorkerResult represents a winning candidate from a single worker
type WorkerResult struct {
	Worker   int
	Solution uint256.Int
	Hash     [32]byte
}
