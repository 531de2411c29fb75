package worker

import (
	"sync/atomic"

	"github.com/holiman/uint256"

	"github.com/screa/pow-miner/internal/crypto"
	"github.com/screa/pow-miner/pkg/pool"
	"github.com/screa/pow-miner/pkg/types"
)

// Counters are the shared search state a worker reports into
type Counters struct {
	Found  *atomic.Bool   // set once any party wants the search to end
	Total  *atomic.Uint64 // hashes across all workers
	Hashes *atomic.Uint64 // hashes of this worker
}

// Worker enumerates candidates of one residue class and checks them
// against the target
type Worker struct {
	id       int
	config   *types.WorkerConfig
	pool     *pool.Pool
	counters Counters
	hasher   *crypto.Hasher
	target   crypto.Target

	stride uint256.Int // distance between consecutive candidates
	span   uint256.Int // cursor advance per batch

	// Pre-allocated per-batch state, reused across batches
	candidates []uint256.Int
	inputs     [][]byte
	held       []*pool.Buffer
	fallback   [][]byte
	digest     [crypto.HashLen]byte
}

// NewWorker creates a new worker instance
func NewWorker(id int, config *types.WorkerConfig, p *pool.Pool, counters Counters) *Worker {
	batch := max(config.BatchSize, 1)
	w := &Worker{
		id:         id,
		config:     config,
		pool:       p,
		counters:   counters,
		hasher:     crypto.NewHasher(),
		target:     crypto.Target(config.Target),
		candidates: make([]uint256.Int, batch),
		inputs:     make([][]byte, batch),
		held:       make([]*pool.Buffer, 0, batch),
		fallback:   make([][]byte, batch),
	}
	for i := range w.fallback {
		w.fallback[i] = make([]byte, 0, len(config.Prefix)+crypto.CandidateLen)
	}
	w.stride.SetUint64(config.Stride)
	w.span.Mul(&w.stride, uint256.NewInt(uint64(batch)))
	return w
}

// ID returns the worker index
func (w *Worker) ID() int {
	return w.id
}

// Advance moves cursor past the batch that starts at it. Arithmetic wraps
// modulo 2^256.
func (w *Worker) Advance(cursor *uint256.Int) {
	cursor.Add(cursor, &w.span)
}

// Candidates returns the candidates of the most recent batch
func (w *Worker) Candidates() []uint256.Int {
	return w.candidates
}

// fill computes cursor, cursor+stride, ... into the candidate slots.
func (w *Worker) fill(cursor *uint256.Int) {
	w.candidates[0].Set(cursor)
	for i := 1; i < len(w.candidates); i++ {
		w.candidates[i].Add(&w.candidates[i-1], &w.stride)
	}
}

// encode writes every candidate of the batch into a pooled buffer, or into
// the worker's own scratch buffer when the pool is exhausted.
func (w *Worker) encode() {
	for i := range w.candidates {
		if b := w.pool.Get(); b != nil {
			b.Set(crypto.EncodeCandidate(b.Bytes(), w.config.Prefix, &w.candidates[i]))
			w.held = append(w.held, b)
			w.inputs[i] = b.Bytes()
			continue
		}
		w.fallback[i] = crypto.EncodeCandidate(w.fallback[i], w.config.Prefix, &w.candidates[i])
		w.inputs[i] = w.fallback[i]
	}
}

func (w *Worker) release() {
	for i, b := range w.held {
		b.Release()
		w.held[i] = nil
	}
	w.held = w.held[:0]
}

// ProcessBatch checks the batch starting at cursor. It returns the first
// candidate whose digest meets the target, or nil when none does or the
// search was ended by someone else mid-batch.
func (w *Worker) ProcessBatch(cursor *uint256.Int) *types.WorkerResult {
	w.fill(cursor)
	w.encode()
	defer w.release()

	for i := range w.candidates {
		if w.counters.Found.Load() {
			return nil
		}

		w.hasher.SumInto(w.inputs[i], &w.digest)

		w.counters.Hashes.Add(1)
		w.counters.Total.Add(1)

		if w.target.Meets(w.digest[:]) {
			return &types.WorkerResult{
				Worker:   w.id,
				Solution: w.candidates[i],
				Hash:     w.digest,
			}
		}
	}

	return nil
}
