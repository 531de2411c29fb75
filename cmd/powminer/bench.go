package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/screa/pow-miner/internal/config"
	"github.com/screa/pow-miner/internal/crypto"
	minerpkg "github.com/screa/pow-miner/pkg/miner"
	"github.com/screa/pow-miner/pkg/types"
)

const (
	defaultBenchRounds     = 10
	defaultBenchDifficulty = "1048576"
	zeroAddress            = "0x0000000000000000000000000000000000000000"
)

var benchRounds int

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Solve consecutive synthetic tasks and report throughput",
		Long: `Solves a series of tasks with increasing nonces against the same
miner, the way consecutive contract tasks arrive, and reports the hash rate.
--nonce, --address and --difficulty set the first task.`,
		RunE: runBench,
	}
	cmd.Flags().IntVarP(&benchRounds, "rounds", "r", defaultBenchRounds, "Number of tasks to solve")
	return cmd
}

func runBench(cmd *cobra.Command, args []string) error {
	if cfg.Nonce == "" {
		cfg.Nonce = "1"
	}
	if cfg.Address == "" {
		cfg.Address = zeroAddress
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = defaultBenchDifficulty
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	task, err := cfg.Task()
	if err != nil {
		return err
	}
	if benchRounds <= 0 {
		return fmt.Errorf("rounds must be greater than zero")
	}

	logger.Infow("starting benchmark",
		"rounds", benchRounds,
		"workers", cfg.Workers,
		"difficulty", task.Difficulty.Dec(),
		"cpu", config.CPUDescription(),
	)

	miner := minerpkg.NewMiner(cfg, logger, cfg.Hint())
	ctx, stop := signalContext()
	defer stop()
	startMetrics(ctx, miner)

	var (
		totalHashes uint64
		totalTime   time.Duration
		solved      int
	)
	for round := 0; round < benchRounds; round++ {
		roundTask := &types.Task{
			Nonce:      new(uint256.Int).AddUint64(task.Nonce, uint64(round)),
			Address:    task.Address,
			Difficulty: task.Difficulty,
		}

		roundCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		result, err := miner.Mine(roundCtx, roundTask)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warnw("round failed", "round", round, "error", err)
			continue
		}
		if _, ok, err := crypto.Verify(roundTask, result.Solution); err != nil || !ok {
			return fmt.Errorf("round %d: solution %s failed verification", round, result.Solution.Dec())
		}

		solved++
		totalHashes += result.Attempts
		totalTime += result.Duration
		logger.Infow("round solved",
			"round", round,
			"solution", result.Solution.Dec(),
			"worker", result.Worker,
			"attempts", humanize.Comma(int64(result.Attempts)),
			"duration", result.Duration.Round(time.Millisecond),
		)
	}

	rate := 0.0
	if totalTime.Seconds() > 0 {
		rate = float64(totalHashes) / totalTime.Seconds()
	}
	logger.Infow("benchmark finished",
		"solved", solved,
		"hashes", humanize.Comma(int64(totalHashes)),
		"time", totalTime.Round(time.Millisecond),
		"rate", humanize.SIWithDigits(rate, 2, "H/s"),
	)
	return nil
}
