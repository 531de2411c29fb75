package miner

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/screa/pow-miner/internal/config"
	"github.com/screa/pow-miner/internal/crypto"
	"github.com/screa/pow-miner/internal/logger"
	"github.com/screa/pow-miner/pkg/hint"
	"github.com/screa/pow-miner/pkg/pool"
	"github.com/screa/pow-miner/pkg/types"
	"github.com/screa/pow-miner/pkg/worker"
)

// Miner runs the parallel solution search. Calls to Mine are serialized;
// Progress, HashRate and Stop may be called from any goroutine at any time.
type Miner struct {
	config  *config.Config
	logger  *logger.Logger
	hint    *hint.Hint
	pool    *pool.Pool
	running sync.Mutex
	current atomic.Pointer[search]
}

// search is the state shared by the workers of one Mine call
type search struct {
	start  time.Time
	end    atomic.Int64
	found  atomic.Bool
	winner atomic.Pointer[types.WorkerResult]
	total  atomic.Uint64
	hashes []atomic.Uint64
}

func newSearch(workers int) *search {
	return &search{
		start:  time.Now(),
		hashes: make([]atomic.Uint64, workers),
	}
}

func (s *search) stop() {
	s.found.Store(true)
}

func (s *search) finish() {
	s.end.CompareAndSwap(0, time.Now().UnixNano())
}

func (s *search) elapsed() time.Duration {
	if end := s.end.Load(); end != 0 {
		return time.Unix(0, end).Sub(s.start)
	}
	return time.Since(s.start)
}

// NewMiner creates a new miner instance. h may be nil to disable the
// restart hint.
func NewMiner(cfg *config.Config, log *logger.Logger, h *hint.Hint) *Miner {
	if cfg.Workers <= 0 {
		cfg.Workers = config.DefaultWorkers()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = config.DefaultBatchSize
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = cfg.Workers * cfg.BatchSize
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Miner{
		config: cfg,
		logger: log.Named("miner"),
		hint:   h,
		pool:   pool.New(size, crypto.InputLen),
	}
}

// Mine searches for a solution of task. It returns when a worker finds one,
// when Stop is called, when ctx is done, or when every worker has used up
// its MaxBatches budget; the last three return ErrNoSolution.
func (m *Miner) Mine(ctx context.Context, task *types.Task) (*types.Result, error) {
	if task == nil {
		return nil, fmt.Errorf("%w: nil task", types.ErrEncoding)
	}
	target, err := crypto.NewTarget(task.Difficulty)
	if err != nil {
		return nil, err
	}
	prefix, err := crypto.EncodePrefix(task.Nonce, task.Address.Bytes())
	if err != nil {
		return nil, err
	}

	m.running.Lock()
	defer m.running.Unlock()

	workers := m.config.Workers
	s := newSearch(workers)
	m.current.Store(s)
	defer s.finish()

	workerConfig := &types.WorkerConfig{
		Prefix:    prefix,
		Target:    target,
		Stride:    uint64(workers),
		BatchSize: m.config.BatchSize,
	}

	stop := context.AfterFunc(ctx, s.stop)
	defer stop()

	m.logger.Infow("search started",
		"workers", workers,
		"batch", m.config.BatchSize,
		"nonce", task.Nonce.Dec(),
		"address", task.Address.Hex(),
		"difficulty", task.Difficulty.Dec(),
	)

	// Start periodic logging if verbose mode is enabled
	var logTicker *time.Ticker
	var logDone chan struct{}
	if m.config.Verbose && m.config.LogInterval > 0 {
		logTicker = time.NewTicker(time.Duration(m.config.LogInterval) * time.Second)
		logDone = make(chan struct{})
		go m.periodicLogger(logTicker, logDone, s)
	}

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			return m.worker(ctx, i, s, workerConfig)
		})
	}
	waitErr := g.Wait()
	s.finish()

	if logTicker != nil {
		logTicker.Stop()
		close(logDone)
	}

	winner := s.winner.Load()
	if winner == nil {
		m.logger.Infow("search ended without solution",
			"hashes", s.total.Load(),
			"elapsed", s.elapsed(),
		)
		if waitErr != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrNoSolution, waitErr)
		}
		return nil, types.ErrNoSolution
	}

	result := &types.Result{
		Solution: new(uint256.Int).Set(&winner.Solution),
		Hash:     winner.Hash,
		Worker:   winner.Worker,
		Attempts: s.total.Load(),
		Duration: s.elapsed(),
	}
	m.logger.Infow("solution found",
		"solution", result.Solution.Dec(),
		"worker", result.Worker,
		"hashes", result.Attempts,
		"elapsed", result.Duration,
	)
	return result, nil
}

// worker runs the search loop for a single worker. It visits id, id+N,
// id+2N, ... in batches; a hinted worker checks one batch near the last
// solution first.
func (m *Miner) worker(ctx context.Context, id int, s *search, cfg *types.WorkerConfig) error {
	w := worker.NewWorker(id, cfg, m.pool, worker.Counters{
		Found:  &s.found,
		Total:  &s.total,
		Hashes: &s.hashes[id],
	})

	var batches uint64
	if start, ok := m.hint.Start(id, cfg.Stride); ok {
		m.logger.Debugw("starting near last solution", "worker", id, "start", start.Dec())
		batches++
		if res := w.ProcessBatch(&start); res != nil {
			m.claim(s, res)
			return nil
		}
	}

	cursor := uint256.NewInt(uint64(id))
	for ; m.config.MaxBatches == 0 || batches < m.config.MaxBatches; batches++ {
		if s.found.Load() {
			return ctx.Err()
		}
		if res := w.ProcessBatch(cursor); res != nil {
			m.claim(s, res)
			return nil
		}
		w.Advance(cursor)
		runtime.Gosched()
	}
	return nil
}

// claim publishes res as the winner unless another worker got there first.
// The winner is stored before found flips, so a reader that sees found
// also sees the winner.
func (m *Miner) claim(s *search, res *types.WorkerResult) {
	if !s.winner.CompareAndSwap(nil, res) {
		return
	}
	s.found.Store(true)
	m.hint.Record(res.Worker, &res.Solution)
}

// Stop ends the running search, if any
func (m *Miner) Stop() {
	if s := m.current.Load(); s != nil {
		s.stop()
	}
}

// Progress returns the counters of the current or most recent search
func (m *Miner) Progress() Progress {
	s := m.current.Load()
	if s == nil {
		return Progress{}
	}
	perWorker := make([]uint64, len(s.hashes))
	for i := range s.hashes {
		perWorker[i] = s.hashes[i].Load()
	}
	return Progress{
		Hashes:    s.total.Load(),
		PerWorker: perWorker,
		Elapsed:   s.elapsed(),
		Found:     s.winner.Load() != nil,
	}
}

// HashRate returns the average hashes per second of the current search
func (m *Miner) HashRate() float64 {
	return m.Progress().Rate()
}

// PoolStats returns the buffer pool usage
func (m *Miner) PoolStats() pool.Stats {
	return m.pool.Stats()
}

// Workers returns the number of workers per search
func (m *Miner) Workers() int {
	return m.config.Workers
}

// periodicLogger logs mining progress at regular intervals
func (m *Miner) periodicLogger(ticker *time.Ticker, done chan struct{}, s *search) {
	var lastHashes uint64
	lastTick := s.start
	for {
		select {
		case now := <-ticker.C:
			hashes := s.total.Load()
			elapsed := s.elapsed()

			// Calculate rates safely
			avg, current := 0.0, 0.0
			if elapsed.Seconds() > 0 {
				avg = float64(hashes) / elapsed.Seconds()
			}
			if d := now.Sub(lastTick).Seconds(); d > 0 {
				current = float64(hashes-lastHashes) / d
			}
			lastHashes, lastTick = hashes, now

			m.logger.Infow("progress",
				"hashes", humanize.Comma(int64(hashes)),
				"avg", humanize.SIWithDigits(avg, 2, "H/s"),
				"current", humanize.SIWithDigits(current, 2, "H/s"),
			)
		case <-done:
			return
		}
	}
}
