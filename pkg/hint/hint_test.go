package hint

import (
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestNilHintIsDisabled(t *testing.T) {
	var h *Hint
	h.Record(1, uint256.NewInt(10))
	_, _, ok := h.Load()
	assert.False(t, ok)

	start, ok := h.Start(3, 4)
	assert.False(t, ok)
	assert.Equal(t, uint64(3), start.Uint64())
}

func TestRecordAndLoad(t *testing.T) {
	h := New(DefaultMargin)
	_, _, ok := h.Load()
	assert.False(t, ok)

	c := uint256.NewInt(123456)
	h.Record(2, c)
	c.SetUint64(0) // the hint keeps its own copy

	worker, candidate, ok := h.Load()
	assert.True(t, ok)
	assert.Equal(t, 2, worker)
	assert.Equal(t, uint64(123456), candidate.Uint64())

	h.Reset()
	_, _, ok = h.Load()
	assert.False(t, ok)
}

func TestStartStaysInResidueClass(t *testing.T) {
	h := New(2000)
	h.Record(3, uint256.NewInt(10_007))

	start, ok := h.Start(3, 8)
	assert.True(t, ok)
	// 10007-2000 = 8007, aligned down to 8000, plus worker 3
	assert.Equal(t, uint64(8003), start.Uint64())
	assert.Equal(t, uint64(3), start.Uint64()%8)

	start, ok = h.Start(1, 8)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), start.Uint64())
}

func TestStartClampsAtZero(t *testing.T) {
	h := New(2000)
	h.Record(0, uint256.NewInt(150))

	start, ok := h.Start(0, 4)
	assert.True(t, ok)
	assert.True(t, start.IsZero())
}

func TestConcurrentRecordLoad(t *testing.T) {
	h := New(DefaultMargin)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				h.Record(w, uint256.NewInt(uint64(j)))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				h.Load()
			}
		}()
	}
	wg.Wait()
	worker, _, ok := h.Load()
	assert.True(t, ok)
	assert.GreaterOrEqual(t, worker, 0)
	assert.Less(t, worker, 8)
}
