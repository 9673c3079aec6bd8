// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package metrics

import (
	"time"

	influxdb "github.com/influxdata/influxdb1-client/v2"

	"github.com/skymapdb/skymap/internal/logger"
)

// InfluxConfig configures a periodic push to an InfluxDB 1.x server, for
// deployments that centrally pull metrics rather than scraping each
// process with Prometheus.
type InfluxConfig struct {
	Addr            string
	Database        string
	RetentionPolicy string
	Username        string
	Password        string
}

// InfluxPusher periodically writes every registered Map's Gauges as a
// single InfluxDB point per map, tagged by name.
type InfluxPusher struct {
	client    influxdb.Client
	config    InfluxConfig
	collector *Collector
	log       logger.Logger
}

// WithLogger attaches l to trace push failures; if never called, Run
// silently drops them.
func (p *InfluxPusher) WithLogger(l logger.Logger) *InfluxPusher {
	p.log = l
	return p
}

// NewInfluxPusher opens an HTTP connection to the InfluxDB server
// described by config. The connection is lazy: no network I/O happens
// until the first Push.
func NewInfluxPusher(config InfluxConfig, collector *Collector) (*InfluxPusher, error) {
	client, err := influxdb.NewHTTPClient(influxdb.HTTPConfig{
		Addr:     config.Addr,
		Username: config.Username,
		Password: config.Password,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &InfluxPusher{client: client, config: config, collector: collector}, nil
}

// Push writes one point per registered map to InfluxDB.
func (p *InfluxPusher) Push() error {
	bp, err := influxdb.NewBatchPoints(influxdb.BatchPointsConfig{
		Database:        p.config.Database,
		RetentionPolicy: p.config.RetentionPolicy,
		Precision:       "s",
	})
	if err != nil {
		return err
	}
	for name, g := range p.collector.maps {
		length, buckets, capacity := g.Len(), g.BucketCount(), g.Capacity()
		var loadFactor float64
		if capacity > 0 {
			loadFactor = float64(length) / float64(capacity)
		}
		pt, err := influxdb.NewPoint("skymap", map[string]string{"name": name}, map[string]interface{}{
			"len":          length,
			"bucket_count": buckets,
			"capacity":     capacity,
			"load_factor":  loadFactor,
		}, time.Now())
		if err != nil {
			return err
		}
		bp.AddPoint(pt)
	}
	return p.client.Write(bp)
}

// Run pushes on every tick until stop is closed.
func (p *InfluxPusher) Run(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := p.Push(); err != nil && p.log != nil {
				p.log.Errorf("metrics: influx push failed: %s", err)
			}
		}
	}
}

// Close closes the underlying InfluxDB client connection.
func (p *InfluxPusher) Close() error {
	return p.client.Close()
}
