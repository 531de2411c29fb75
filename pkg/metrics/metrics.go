// Package metrics exports search progress to Prometheus by polling the
// miner's read-only accessors on every scrape.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/screa/pow-miner/internal/logger"
	"github.com/screa/pow-miner/pkg/miner"
	"github.com/screa/pow-miner/pkg/pool"
)

const namespace = "powminer"

// Source is what the collector reads from; *miner.Miner implements it.
type Source interface {
	Progress() miner.Progress
	PoolStats() pool.Stats
}

// Collector implements prometheus.Collector over a Source
type Collector struct {
	source Source

	hashes       *prometheus.Desc
	workerHashes *prometheus.Desc
	rate         *prometheus.Desc
	elapsed      *prometheus.Desc
	found        *prometheus.Desc
	poolInUse    *prometheus.Desc
	poolMisses   *prometheus.Desc
}

// NewCollector creates a collector for source
func NewCollector(source Source) *Collector {
	return &Collector{
		source: source,
		hashes: prometheus.NewDesc(namespace+"_hashes_total",
			"Hashes computed by the current search.", nil, nil),
		workerHashes: prometheus.NewDesc(namespace+"_worker_hashes_total",
			"Hashes computed by each worker in the current search.", []string{"worker"}, nil),
		rate: prometheus.NewDesc(namespace+"_hash_rate",
			"Average hashes per second of the current search.", nil, nil),
		elapsed: prometheus.NewDesc(namespace+"_search_seconds",
			"Wall-clock time of the current search.", nil, nil),
		found: prometheus.NewDesc(namespace+"_solution_found",
			"1 once the current search has a solution.", nil, nil),
		poolInUse: prometheus.NewDesc(namespace+"_pool_buffers_in_use",
			"Encoding buffers currently held by workers.", nil, nil),
		poolMisses: prometheus.NewDesc(namespace+"_pool_misses_total",
			"Buffer requests that found the pool exhausted.", nil, nil),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hashes
	ch <- c.workerHashes
	ch <- c.rate
	ch <- c.elapsed
	ch <- c.found
	ch <- c.poolInUse
	ch <- c.poolMisses
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	p := c.source.Progress()
	ch <- prometheus.MustNewConstMetric(c.hashes, prometheus.CounterValue, float64(p.Hashes))
	for i, n := range p.PerWorker {
		ch <- prometheus.MustNewConstMetric(c.workerHashes, prometheus.CounterValue, float64(n), strconv.Itoa(i))
	}
	ch <- prometheus.MustNewConstMetric(c.rate, prometheus.GaugeValue, p.Rate())
	ch <- prometheus.MustNewConstMetric(c.elapsed, prometheus.GaugeValue, p.Elapsed.Seconds())

	found := 0.0
	if p.Found {
		found = 1
	}
	ch <- prometheus.MustNewConstMetric(c.found, prometheus.GaugeValue, found)

	stats := c.source.PoolStats()
	ch <- prometheus.MustNewConstMetric(c.poolInUse, prometheus.GaugeValue, float64(stats.InUse))
	ch <- prometheus.MustNewConstMetric(c.poolMisses, prometheus.CounterValue, float64(stats.Misses))
}

// Handler returns an HTTP handler serving the collector
func Handler(c *Collector) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string, c *Collector, log *logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(c))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Infow("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
