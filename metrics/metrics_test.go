// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/skymapdb/skymap/skymap"
)

type fakeGauges struct {
	length, buckets, capacity int
}

func (f fakeGauges) Len() int         { return f.length }
func (f fakeGauges) BucketCount() int { return f.buckets }
func (f fakeGauges) Capacity() int    { return f.capacity }

func TestCollectorReportsEveryRegisteredMap(t *testing.T) {
	c := NewCollector()
	c.Add("keyspace", fakeGauges{length: 3, buckets: 16, capacity: 13})

	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	var metrics []prometheus.Metric
	for m := range ch {
		metrics = append(metrics, m)
	}
	if len(metrics) != 4 {
		t.Fatalf("Collect sent %d metrics, want 4 (len, bucket_count, capacity, load_factor)", len(metrics))
	}

	for _, m := range metrics {
		var pb dto.Metric
		if err := m.Write(&pb); err != nil {
			t.Fatalf("Write returned error: %s", err)
		}
		if len(pb.Label) != 1 || pb.Label[0].GetValue() != "keyspace" {
			t.Errorf("metric %v missing the expected name label", pb)
		}
	}
}

func TestSkymapMapSatisfiesGauges(t *testing.T) {
	var _ Gauges = (*skymap.Map[string, int])(nil)
}
