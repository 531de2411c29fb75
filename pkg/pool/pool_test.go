package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolExhaustion(t *testing.T) {
	const k = 4
	p := New(k, 84)

	held := make([]*Buffer, 0, k)
	for i := 0; i < k; i++ {
		b := p.Get()
		require.NotNil(t, b, "get %d", i)
		held = append(held, b)
	}
	assert.Nil(t, p.Get(), "the (K+1)-th concurrent get must return no buffer")
	assert.Equal(t, int64(k), p.Stats().InUse)

	held[2].Release()
	b := p.Get()
	require.NotNil(t, b)
	assert.Same(t, held[2], b)

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(k+1), stats.Hits)
}

func TestBufferClearedOnAcquire(t *testing.T) {
	p := New(1, 16)
	b := p.Get()
	require.NotNil(t, b)
	assert.Len(t, b.Bytes(), 0)
	assert.Equal(t, 16, cap(b.Bytes()))

	b.Set(append(b.Bytes(), 1, 2, 3))
	assert.Len(t, b.Bytes(), 3)
	b.Release()

	b = p.Get()
	require.NotNil(t, b)
	assert.Len(t, b.Bytes(), 0)
	assert.Equal(t, 16, cap(b.Bytes()))
}

func TestReleaseIdempotent(t *testing.T) {
	p := New(2, 8)
	b := p.Get()
	require.NotNil(t, b)
	b.Release()
	b.Release()
	assert.Equal(t, int64(0), p.Stats().InUse)

	var nilBuf *Buffer
	assert.NotPanics(t, nilBuf.Release)
}

func TestReleaseOnEarlyReturn(t *testing.T) {
	p := New(1, 8)
	use := func(fail bool) error {
		b := p.Get()
		if b == nil {
			return assert.AnError
		}
		defer b.Release()
		if fail {
			return assert.AnError
		}
		return nil
	}
	assert.Error(t, use(true))
	assert.NoError(t, use(false))
	assert.Equal(t, int64(0), p.Stats().InUse)
}

func TestZeroSizePool(t *testing.T) {
	p := New(0, 8)
	assert.Nil(t, p.Get())
	assert.Equal(t, 0, p.Size())
}

func TestConcurrentExclusiveAccess(t *testing.T) {
	const (
		k          = 8
		goroutines = 32
		rounds     = 2000
	)
	p := New(k, 8)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders = make(map[*Buffer]int)
		maxLive int
		live    int
		clashes int
	)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				b := p.Get()
				if b == nil {
					continue
				}
				mu.Lock()
				if _, ok := holders[b]; ok {
					clashes++
				}
				holders[b] = id
				live++
				if live > maxLive {
					maxLive = live
				}
				mu.Unlock()

				b.Set(append(b.Bytes(), byte(id)))

				mu.Lock()
				delete(holders, b)
				live--
				mu.Unlock()
				b.Release()
			}
		}(g)
	}
	wg.Wait()

	assert.Zero(t, clashes, "a buffer was handed to two holders")
	assert.LessOrEqual(t, maxLive, k)
	assert.Equal(t, int64(0), p.Stats().InUse)
}
