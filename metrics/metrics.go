// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package metrics exposes a skymap.Map's size and shape as Prometheus
// gauges, plus an embedded HTTP server to serve them (and an optional
// periodic push to InfluxDB for deployments that pull metrics centrally
// instead of scraping).
package metrics

import (
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skymapdb/skymap/internal/logger"
)

// Gauges reports the current size and shape of a Map. A *skymap.Map
// (and a *kvstore.Store) satisfies it directly through its own
// Len/BucketCount/Capacity methods, without the core container
// importing this package.
type Gauges interface {
	Len() int
	BucketCount() int
	Capacity() int
}

var (
	lenDesc = prometheus.NewDesc(
		"skymap_len", "Number of entries currently stored.", []string{"name"}, nil)
	bucketCountDesc = prometheus.NewDesc(
		"skymap_bucket_count", "Number of buckets backing the table.", []string{"name"}, nil)
	capacityDesc = prometheus.NewDesc(
		"skymap_capacity", "Entries that fit under the load factor at the current size.",
		[]string{"name"}, nil)
	loadFactorDesc = prometheus.NewDesc(
		"skymap_load_factor", "len / capacity, as a fraction.", []string{"name"}, nil)
)

// Collector adapts one or more named Maps into a prometheus.Collector.
// It is safe to register with a single prometheus.Registry even though
// it reports on multiple named maps (e.g. one per shard, or one for the
// keyspace and one for the auth store).
type Collector struct {
	maps map[string]Gauges
}

// NewCollector builds a Collector with no maps registered yet.
func NewCollector() *Collector {
	return &Collector{maps: make(map[string]Gauges)}
}

// Add registers a named Map (or anything exposing the Gauges surface)
// to be reported on every Collect. Calling Add with a name already in
// use replaces the prior registration.
func (c *Collector) Add(name string, g Gauges) {
	c.maps[name] = g
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- lenDesc
	ch <- bucketCountDesc
	ch <- capacityDesc
	ch <- loadFactorDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, g := range c.maps {
		length := g.Len()
		buckets := g.BucketCount()
		capacity := g.Capacity()
		ch <- prometheus.MustNewConstMetric(lenDesc, prometheus.GaugeValue, float64(length), name)
		ch <- prometheus.MustNewConstMetric(bucketCountDesc, prometheus.GaugeValue, float64(buckets), name)
		ch <- prometheus.MustNewConstMetric(capacityDesc, prometheus.GaugeValue, float64(capacity), name)
		var loadFactor float64
		if capacity > 0 {
			loadFactor = float64(length) / float64(capacity)
		}
		ch <- prometheus.MustNewConstMetric(loadFactorDesc, prometheus.GaugeValue, loadFactor, name)
	}
}

// Server is an embedded HTTP server exposing /metrics (Prometheus
// exposition format) and /debug (pprof/expvar links).
type Server struct {
	addr       string
	collector  *Collector
	registerer prometheus.Registerer
	log        logger.Logger
}

// NewServer builds a Server that listens on addr and reports the given
// Collector alongside the process's built-in Go runtime metrics.
func NewServer(addr string, collector *Collector) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collector, collectors.NewGoCollector())
	return &Server{addr: addr, collector: collector, registerer: reg}
}

// WithLogger attaches l to report a fatal Run error; if never called,
// Run silently drops it.
func (s *Server) WithLogger(log logger.Logger) *Server {
	s.log = log
	return s
}

func debugHandler(w http.ResponseWriter, r *http.Request) {
	indexTmpl := `<html>
<head>
<title>/debug</title>
</head>
<body>
<p>/debug</p>
<div><a href="/debug/vars">vars</a></div>
<div><a href="/debug/pprof">pprof</a></div>
<div><a href="/metrics">metrics</a></div>
</body>
</html>
`
	fmt.Fprint(w, indexTmpl)
}

// Run starts the HTTP server; it blocks until ListenAndServe returns,
// which only happens on a fatal setup error (e.g. the address is
// already in use).
func (s *Server) Run() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug", debugHandler)
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	reg, ok := s.registerer.(*prometheus.Registry)
	if !ok {
		return fmt.Errorf("metrics: registerer is not a *prometheus.Registry")
	}
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	err := http.ListenAndServe(s.addr, mux)
	if err != nil && s.log != nil {
		s.log.Errorf("metrics: server on %s exited: %s", s.addr, err)
	}
	return err
}
