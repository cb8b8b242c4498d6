// File: metrics/collector.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Prometheus exporter for the buffering subsystem. The heavy lifting is
// already done by the atomic counters inside the slab caches and pair
// caches; this collector just pulls current values on each scrape.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/momentics/hioload-iobuf/api"
	"github.com/momentics/hioload-iobuf/pool"
)

// CacheStatsSource abstracts the buffer-pair cache. An interface so this
// package does not import iobuf and stays usable with test doubles.
type CacheStatsSource interface {
	Stats() api.CacheStats
}

// Collector implements prometheus.Collector over registered arenas and
// pair caches, plus the named-region registry.
type Collector struct {
	mu     sync.RWMutex
	arenas map[string]api.Arena
	caches map[string]CacheStatsSource
	reg    *pool.Registry

	arenaAcquired *prometheus.Desc
	arenaReleased *prometheus.Desc
	arenaBytes    *prometheus.Desc
	arenaHits     *prometheus.Desc
	arenaMisses   *prometheus.Desc

	pairsAcquired *prometheus.Desc
	pairsReleased *prometheus.Desc
	pairsHits     *prometheus.Desc
	pairsFree     *prometheus.Desc
	pairsShrinks  *prometheus.Desc

	regionBytes *prometheus.Desc
}

// NewCollector creates a collector reading region usage from reg.
func NewCollector(reg *pool.Registry) *Collector {
	ns := "iobuf"
	return &Collector{
		arenas: make(map[string]api.Arena),
		caches: make(map[string]CacheStatsSource),
		reg:    reg,
		arenaAcquired: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "arena", "blocks_acquired_total"),
			"Total blocks leased from the slab cache.", []string{"ctx"}, nil),
		arenaReleased: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "arena", "blocks_released_total"),
			"Total blocks returned to the slab cache.", []string{"ctx"}, nil),
		arenaBytes: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "arena", "bytes_in_use"),
			"Bytes currently leased out of the slab cache.", []string{"ctx"}, nil),
		arenaHits: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "arena", "cache_hits_total"),
			"Block acquisitions served from per-class free lists.", []string{"ctx"}, nil),
		arenaMisses: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "arena", "cache_misses_total"),
			"Block acquisitions that hit the platform allocator.", []string{"ctx"}, nil),
		pairsAcquired: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "pairs", "acquired_total"),
			"Total buffer-pair checkouts.", []string{"ctx"}, nil),
		pairsReleased: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "pairs", "released_total"),
			"Total buffer-pair releases back to the cache.", []string{"ctx"}, nil),
		pairsHits: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "pairs", "freelist_hits_total"),
			"Checkouts served from the free list.", []string{"ctx"}, nil),
		pairsFree: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "pairs", "free"),
			"Pairs currently parked in the free list.", []string{"ctx"}, nil),
		pairsShrinks: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "pairs", "shrinks_total"),
			"Release-time shrinks of oversized buffers.", []string{"ctx"}, nil),
		regionBytes: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "region", "bytes"),
			"Bytes accounted per named region.", []string{"name"}, nil),
	}
}

// RegisterArena adds an arena to scrape under the ctx label.
func (c *Collector) RegisterArena(ctx string, arena api.Arena) {
	c.mu.Lock()
	c.arenas[ctx] = arena
	c.mu.Unlock()
}

// RegisterCache adds a pair cache to scrape under the ctx label.
func (c *Collector) RegisterCache(ctx string, src CacheStatsSource) {
	c.mu.Lock()
	c.caches[ctx] = src
	c.mu.Unlock()
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.arenaAcquired
	ch <- c.arenaReleased
	ch <- c.arenaBytes
	ch <- c.arenaHits
	ch <- c.arenaMisses
	ch <- c.pairsAcquired
	ch <- c.pairsReleased
	ch <- c.pairsHits
	ch <- c.pairsFree
	ch <- c.pairsShrinks
	ch <- c.regionBytes
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for ctx, arena := range c.arenas {
		s := arena.Stats()
		ch <- prometheus.MustNewConstMetric(c.arenaAcquired, prometheus.CounterValue, float64(s.TotalAcquired), ctx)
		ch <- prometheus.MustNewConstMetric(c.arenaReleased, prometheus.CounterValue, float64(s.TotalReleased), ctx)
		ch <- prometheus.MustNewConstMetric(c.arenaBytes, prometheus.GaugeValue, float64(s.BytesInUse), ctx)
		ch <- prometheus.MustNewConstMetric(c.arenaHits, prometheus.CounterValue, float64(s.CacheHits), ctx)
		ch <- prometheus.MustNewConstMetric(c.arenaMisses, prometheus.CounterValue, float64(s.CacheMisses), ctx)
	}
	for ctx, src := range c.caches {
		s := src.Stats()
		ch <- prometheus.MustNewConstMetric(c.pairsAcquired, prometheus.CounterValue, float64(s.Acquired), ctx)
		ch <- prometheus.MustNewConstMetric(c.pairsReleased, prometheus.CounterValue, float64(s.Released), ctx)
		ch <- prometheus.MustNewConstMetric(c.pairsHits, prometheus.CounterValue, float64(s.FreeListHits), ctx)
		ch <- prometheus.MustNewConstMetric(c.pairsFree, prometheus.GaugeValue, float64(s.FreePairs), ctx)
		ch <- prometheus.MustNewConstMetric(c.pairsShrinks, prometheus.CounterValue, float64(s.Shrinks), ctx)
	}
	if c.reg != nil {
		for name, used := range c.reg.Snapshot() {
			ch <- prometheus.MustNewConstMetric(c.regionBytes, prometheus.GaugeValue, float64(used), name)
		}
	}
}

var _ prometheus.Collector = (*Collector)(nil)
