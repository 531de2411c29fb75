package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screa/pow-miner/pkg/miner"
	"github.com/screa/pow-miner/pkg/pool"
)

type fakeSource struct {
	progress miner.Progress
	stats    pool.Stats
}

func (f *fakeSource) Progress() miner.Progress { return f.progress }
func (f *fakeSource) PoolStats() pool.Stats    { return f.stats }

func newFake() *fakeSource {
	return &fakeSource{
		progress: miner.Progress{
			Hashes:    30,
			PerWorker: []uint64{10, 20},
			Elapsed:   2 * time.Second,
			Found:     true,
		},
		stats: pool.Stats{Size: 8, InUse: 3, Misses: 4},
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector(newFake())

	// hashes, 2 workers, rate, elapsed, found, in use, misses
	assert.Equal(t, 8, testutil.CollectAndCount(c))

	expected := `
# HELP powminer_hashes_total Hashes computed by the current search.
# TYPE powminer_hashes_total counter
powminer_hashes_total 30
# HELP powminer_hash_rate Average hashes per second of the current search.
# TYPE powminer_hash_rate gauge
powminer_hash_rate 15
# HELP powminer_worker_hashes_total Hashes computed by each worker in the current search.
# TYPE powminer_worker_hashes_total counter
powminer_worker_hashes_total{worker="0"} 10
powminer_worker_hashes_total{worker="1"} 20
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"powminer_hashes_total", "powminer_hash_rate", "powminer_worker_hashes_total"))
}

func TestHandler(t *testing.T) {
	srv := httptest.NewServer(Handler(NewCollector(newFake())))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "powminer_pool_misses_total 4")
	assert.Contains(t, string(body), "powminer_solution_found 1")
}
