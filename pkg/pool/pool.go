// Package pool provides a fixed set of preallocated byte buffers that are
// handed out to workers without allocating.
package pool

import (
	"sync/atomic"
)

// Buffer is a pooled byte buffer held by exactly one goroutine between
// Get and Release.
type Buffer struct {
	pool *Pool
	buf  []byte
	busy atomic.Bool
}

// Bytes returns the buffer, length zero on acquisition and with the
// pool's reserved capacity.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Set stores the slice returned by an append onto Bytes so the grown
// length survives until Release.
func (b *Buffer) Set(p []byte) {
	b.buf = p
}

// Release hands the buffer back to the pool. Calling it more than once is
// a no-op.
func (b *Buffer) Release() {
	if b == nil || !b.busy.CompareAndSwap(true, false) {
		return
	}
	b.pool.inUse.Add(-1)
}

// Pool is a fixed-size pool of reusable byte buffers
type Pool struct {
	slots []Buffer
	inUse atomic.Int64
	next  atomic.Uint64

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats is a snapshot of pool usage
type Stats struct {
	Size   int
	InUse  int64
	Hits   uint64
	Misses uint64
}

// New preallocates count buffers of the given capacity
func New(count, capacity int) *Pool {
	p := &Pool{slots: make([]Buffer, count)}
	backing := make([]byte, count*capacity)
	for i := range p.slots {
		p.slots[i].pool = p
		p.slots[i].buf = backing[i*capacity : i*capacity : (i+1)*capacity]
	}
	return p
}

// Get claims a free buffer. It returns nil when every buffer is held; the
// caller is expected to fall back to its own scratch space rather than wait.
func (p *Pool) Get() *Buffer {
	n := int64(len(p.slots))
	if p.inUse.Add(1) > n {
		p.inUse.Add(-1)
		p.misses.Add(1)
		return nil
	}
	// The counter admitted us, so a slot is free or is being released.
	start := p.next.Add(1)
	for i := uint64(0); ; i++ {
		b := &p.slots[(start+i)%uint64(n)]
		if b.busy.CompareAndSwap(false, true) {
			b.buf = b.buf[:0]
			p.hits.Add(1)
			return b
		}
	}
}

// Size returns the number of buffers in the pool
func (p *Pool) Size() int {
	return len(p.slots)
}

// Stats returns a snapshot of pool usage
func (p *Pool) Stats() Stats {
	return Stats{
		Size:   len(p.slots),
		InUse:  p.inUse.Load(),
		Hits:   p.hits.Load(),
		Misses: p.misses.Load(),
	}
}
