// Copyright 2026 The uCore-SMP Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the page cache's and inode table's health as
// Prometheus counters/gauges, the domain-stack-sized analogue of the
// teacher's OpenCensus/OTel request-metrics pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics is a nil-safe bundle handed to internal/inode and
// internal/pagecache. A nil *Metrics disables reporting entirely.
type Metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter
	InodeOccupancy prometheus.Gauge
}

// New registers and returns a Metrics bundle on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ucore_smp",
			Subsystem: "pagecache",
			Name:      "hits_total",
			Help:      "Page cache acquires that hit an already-valid slot.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ucore_smp",
			Subsystem: "pagecache",
			Name:      "misses_total",
			Help:      "Page cache acquires that required a fill from the lower FS.",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ucore_smp",
			Subsystem: "pagecache",
			Name:      "evictions_total",
			Help:      "Page cache slots reclaimed via LRU eviction.",
		}),
		InodeOccupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ucore_smp",
			Subsystem: "inode",
			Name:      "table_occupancy",
			Help:      "Number of live slots in the inode table.",
		}),
	}

	reg.MustRegister(m.CacheHits, m.CacheMisses, m.CacheEvictions, m.InodeOccupancy)

	return m
}
