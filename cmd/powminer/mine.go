package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/screa/pow-miner/internal/config"
	"github.com/screa/pow-miner/internal/crypto"
	minerpkg "github.com/screa/pow-miner/pkg/miner"
	"github.com/screa/pow-miner/pkg/metrics"
	"github.com/screa/pow-miner/pkg/types"
)

func runMine(cmd *cobra.Command, args []string) error {
	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return err
	}
	task, err := cfg.Task()
	if err != nil {
		return err
	}

	logger.Infow("starting pow miner",
		"workers", cfg.Workers,
		"batch", cfg.BatchSize,
		"timeout", cfg.Timeout,
		"cpu", config.CPUDescription(),
	)

	miner := minerpkg.NewMiner(cfg, logger, cfg.Hint())

	ctx, stop := signalContext()
	defer stop()
	startMetrics(ctx, miner)

	mineCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	result, err := miner.Mine(mineCtx, task)
	if err != nil {
		if ctx.Err() != nil {
			logger.Infow("Mining stopped by user.", "hashes", humanize.Comma(int64(miner.Progress().Hashes)))
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("no solution within %s: %w", cfg.Timeout, err)
		}
		return err
	}

	if err := report(task, result); err != nil {
		return err
	}
	fmt.Println(result.Solution.Dec())
	return nil
}

// report re-checks the solution through the verifier's hashing path and
// logs it.
func report(task *types.Task, result *types.Result) error {
	digest, ok, err := crypto.Verify(task, result.Solution)
	if err != nil {
		return err
	}
	if !ok || digest != result.Hash {
		return fmt.Errorf("solution %s failed verification (hash %s)", result.Solution.Dec(), digest.Hex())
	}

	// Calculate rate safely
	rate := 0.0
	if result.Duration.Seconds() > 0 {
		rate = float64(result.Attempts) / result.Duration.Seconds()
	}

	logger.Infow("🎉 Found solution!",
		"solution", result.Solution.Dec(),
		"solution_hex", result.Solution.Hex(),
		"hash", result.Hash.Hex(),
		"worker", result.Worker,
		"attempts", humanize.Comma(int64(result.Attempts)),
		"duration", result.Duration.Round(time.Millisecond),
		"rate", humanize.SIWithDigits(rate, 2, "H/s"),
	)
	return nil
}

// startMetrics serves Prometheus metrics in the background when configured
func startMetrics(ctx context.Context, miner *minerpkg.Miner) {
	if cfg.MetricsAddr == "" {
		return
	}
	collector := metrics.NewCollector(miner)
	go func() {
		if err := metrics.Serve(ctx, cfg.MetricsAddr, collector, logger); err != nil {
			logger.Errorw("metrics server failed", "error", err)
		}
	}()
}
