package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/screa/pow-miner/internal/config"
	logpkg "github.com/screa/pow-miner/internal/logger"
)

var (
	cfg        = config.NewConfig()
	configFile string
	logger     *logpkg.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "powminer",
		Short: "Parallel keccak256 proof-of-work solver",
		Long: `A command line solver for contract-issued proof-of-work tasks.
It searches for a solution such that keccak256(nonce ‖ address ‖ solution),
packed as the verifying contract encodes it, is at most (2^256-1)/difficulty.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE:              runMine,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "YAML config file (flags override it)")
	flags.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "Number of worker goroutines")
	flags.IntVarP(&cfg.BatchSize, "batch", "b", cfg.BatchSize, "Candidates per worker batch")
	flags.Uint64Var(&cfg.MaxBatches, "max-batches", 0, "Batches per worker before giving up (0: unbounded)")
	flags.Uint64Var(&cfg.HintMargin, "hint-margin", cfg.HintMargin, "Distance below the last solution where the hinted worker starts")
	flags.BoolVar(&cfg.NoHint, "no-hint", false, "Disable the restart hint")
	flags.DurationVarP(&cfg.Timeout, "timeout", "T", cfg.Timeout, "Give up on a task after this long")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")
	flags.StringVarP(&cfg.LogFile, "log-file", "l", "", "Log file for progress tracking (default: stdout)")
	flags.IntVarP(&cfg.LogInterval, "log-interval", "i", cfg.LogInterval, "Logging interval in seconds")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9100)")
	flags.StringVarP(&cfg.Nonce, "nonce", "n", "", "Task nonce (decimal or 0x hex)")
	flags.StringVarP(&cfg.Address, "address", "a", "", "Miner address the task was issued to")
	flags.StringVarP(&cfg.Difficulty, "difficulty", "d", "", "Task difficulty (decimal or 0x hex)")

	rootCmd.AddCommand(newBenchCmd())
	return rootCmd
}

// setup loads the config file under the flags that were set explicitly and
// opens the logger.
func setup(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		fileCfg := config.NewConfig()
		if err := fileCfg.Load(configFile); err != nil {
			return err
		}
		mergeFlags(cmd, fileCfg)
		*cfg = *fileCfg
	}

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logger = logpkg.NewWriter(file, cfg.Verbose)
	} else {
		logger = logpkg.New(cfg.Verbose)
	}
	return nil
}

// mergeFlags copies every explicitly set flag from cfg onto dst.
func mergeFlags(cmd *cobra.Command, dst *config.Config) {
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("workers", func() { dst.Workers = cfg.Workers })
	set("batch", func() { dst.BatchSize = cfg.BatchSize })
	set("max-batches", func() { dst.MaxBatches = cfg.MaxBatches })
	set("hint-margin", func() { dst.HintMargin = cfg.HintMargin })
	set("no-hint", func() { dst.NoHint = cfg.NoHint })
	set("timeout", func() { dst.Timeout = cfg.Timeout })
	set("verbose", func() { dst.Verbose = cfg.Verbose })
	set("log-file", func() { dst.LogFile = cfg.LogFile })
	set("log-interval", func() { dst.LogInterval = cfg.LogInterval })
	set("metrics-addr", func() { dst.MetricsAddr = cfg.MetricsAddr })
	set("nonce", func() { dst.Nonce = cfg.Nonce })
	set("address", func() { dst.Address = cfg.Address })
	set("difficulty", func() { dst.Difficulty = cfg.Difficulty })
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
