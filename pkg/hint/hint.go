// Package hint remembers where the last solution was found so the next
// search can start one worker near it. It only affects expected search
// time; a stale, missing or concurrently overwritten hint is harmless.
package hint

import (
	"sync/atomic"

	"github.com/holiman/uint256"
)

// DefaultMargin is how far below the last solution the hinted worker starts
const DefaultMargin = 2000

type entry struct {
	worker    int
	candidate uint256.Int
}

// Hint holds the last successful (worker, candidate) pair. A nil *Hint is
// valid and disables the heuristic.
type Hint struct {
	margin uint256.Int
	last   atomic.Pointer[entry]
}

// New creates an empty hint with the given margin
func New(margin uint64) *Hint {
	h := &Hint{}
	h.margin.SetUint64(margin)
	return h
}

// Record stores the latest successful worker and candidate.
func (h *Hint) Record(worker int, candidate *uint256.Int) {
	if h == nil {
		return
	}
	e := &entry{worker: worker}
	e.candidate.Set(candidate)
	h.last.Store(e)
}

// Load returns the last recorded pair, if any.
func (h *Hint) Load() (int, uint256.Int, bool) {
	if h == nil {
		return 0, uint256.Int{}, false
	}
	e := h.last.Load()
	if e == nil {
		return 0, uint256.Int{}, false
	}
	return e.worker, e.candidate, true
}

// Reset forgets the recorded pair
func (h *Hint) Reset() {
	if h == nil {
		return
	}
	h.last.Store(nil)
}

// Start returns the first cursor for worker of a search with stride workers.
// The hinted worker starts at max(0, candidate-margin) rounded down into its
// own residue class, every other worker at its index. ok reports whether
// the hint applied.
func (h *Hint) Start(worker int, stride uint64) (start uint256.Int, ok bool) {
	start.SetUint64(uint64(worker))
	hinted, candidate, found := h.Load()
	if !found || hinted != worker || stride == 0 {
		return start, false
	}
	var base uint256.Int
	if candidate.Gt(&h.margin) {
		base.Sub(&candidate, &h.margin)
	}
	var rem uint256.Int
	rem.Mod(&base, uint256.NewInt(stride))
	base.Sub(&base, &rem)
	start.Add(&base, &start)
	return start, true
}
