package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/klauspost/cpuid/v2"
	"gopkg.in/yaml.v3"

	"github.com/screa/pow-miner/internal/crypto"
	"github.com/screa/pow-miner/pkg/hint"
	"github.com/screa/pow-miner/pkg/types"
)

// Defaults
const (
	DefaultBatchSize   = 32
	DefaultTimeout     = 600 * time.Second
	DefaultLogInterval = 5
	minWorkers         = 6
)

// Errors
var (
	ErrNoTaskSpecified = errors.New("must specify --nonce, --address and --difficulty")
	ErrInvalidWorkers  = errors.New("workers must be greater than zero")
	ErrInvalidBatch    = errors.New("batch size must be greater than zero")
)

// Config holds the application configuration
type Config struct {
	Workers     int           `yaml:"workers"`
	BatchSize   int           `yaml:"batch_size"`
	PoolSize    int           `yaml:"pool_size"`   // 0 sizes the pool to workers*batch
	MaxBatches  uint64        `yaml:"max_batches"` // per worker, 0 is unbounded
	HintMargin  uint64        `yaml:"hint_margin"`
	NoHint      bool          `yaml:"no_hint"`
	Timeout     time.Duration `yaml:"timeout"`
	LogInterval int           `yaml:"log_interval"` // seconds
	LogFile     string        `yaml:"log_file"`
	Verbose     bool          `yaml:"verbose"`
	MetricsAddr string        `yaml:"metrics_addr"`

	Nonce      string `yaml:"nonce"`
	Address    string `yaml:"address"`
	Difficulty string `yaml:"difficulty"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Workers:     DefaultWorkers(),
		BatchSize:   DefaultBatchSize,
		HintMargin:  hint.DefaultMargin,
		Timeout:     DefaultTimeout,
		LogInterval: DefaultLogInterval,
	}
}

// DefaultWorkers returns two more workers than logical cores, and never
// fewer than six, so small hosts stay saturated.
func DefaultWorkers() int {
	cores := cpuid.CPU.LogicalCores
	if cores <= 0 {
		cores = runtime.NumCPU()
	}
	return max(cores+2, minWorkers)
}

// Load reads a YAML file over the current values. Keys absent from the
// file keep their defaults.
func (c *Config) Load(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(content, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Nonce == "" || c.Address == "" || c.Difficulty == "" {
		return ErrNoTaskSpecified
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatch
	}
	return nil
}

// Task parses the task parameters
func (c *Config) Task() (*types.Task, error) {
	nonce, err := crypto.ParseUint256(c.Nonce)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	address, err := crypto.ParseAddress(c.Address)
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	difficulty, err := crypto.ParseUint256(c.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("difficulty: %w", err)
	}
	if difficulty.IsZero() {
		return nil, types.ErrInvalidDifficulty
	}
	return &types.Task{Nonce: nonce, Address: address, Difficulty: difficulty}, nil
}

// Hint builds the success hint, or nil when it is disabled
func (c *Config) Hint() *hint.Hint {
	if c.NoHint {
		return nil
	}
	return hint.New(c.HintMargin)
}

// CPUDescription returns the CPU brand and the vector features that matter
// for hashing throughput
func CPUDescription() string {
	return fmt.Sprintf("%s (%d cores, AVX2=%t, AVX512=%t)",
		cpuid.CPU.BrandName,
		cpuid.CPU.LogicalCores,
		cpuid.CPU.Supports(cpuid.AVX2),
		cpuid.CPU.Supports(cpuid.AVX512F),
	)
}
