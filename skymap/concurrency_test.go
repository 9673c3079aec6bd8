// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package skymap

import (
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"
)

// TestConcurrentDisjointInserts has 8 goroutines each insert 1,000
// disjoint keys concurrently into a default-capacity Map. It asserts
// the final length reflects every insert and every key round-trips,
// exercising the rehashes that happen along the way under contention.
func TestConcurrentDisjointInserts(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 1000

	m := New[string, int](HashString)

	var eg errgroup.Group
	for g := 0; g < goroutines; g++ {
		g := g
		eg.Go(func() error {
			for i := 0; i < perGoroutine; i++ {
				key := fmt.Sprintf("g%d-k%d", g, i)
				inserted, err := m.Insert(key, g*perGoroutine+i)
				if err != nil {
					return fmt.Errorf("Insert(%q): %w", key, err)
				}
				if !inserted {
					return fmt.Errorf("Insert(%q) reported already-present on disjoint keyspace", key)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}

	want := goroutines * perGoroutine
	if m.Len() != want {
		t.Fatalf("Len() = %d, want %d", m.Len(), want)
	}

	for g := 0; g < goroutines; g++ {
		for i := 0; i < perGoroutine; i++ {
			key := fmt.Sprintf("g%d-k%d", g, i)
			gu, ok := m.Get(key)
			if !ok {
				t.Errorf("key %q missing after concurrent insert", key)
				continue
			}
			if v := gu.Value(); v != g*perGoroutine+i {
				t.Errorf("key %q = %d, want %d", key, v, g*perGoroutine+i)
			}
			gu.Release()
		}
	}
}

// TestConcurrentReadersWritersOnDisjointKeys exercises mixed concurrent
// reads and writes targeting disjoint keys — the workload the
// per-bucket locking exists to keep from serializing.
func TestConcurrentReadersWritersOnDisjointKeys(t *testing.T) {
	const n = 500

	m := New[string, int](HashString)
	for i := 0; i < n; i++ {
		if _, err := m.Insert(fmt.Sprintf("k%d", i), i); err != nil {
			t.Fatalf("Insert returned error: %s", err)
		}
	}

	var eg errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			key := fmt.Sprintf("k%d", i)
			wg, ok := m.GetMut(key)
			if !ok {
				return fmt.Errorf("GetMut(%q): not found", key)
			}
			wg.Set(wg.Value() + 1)
			wg.Release()
			return nil
		})
		eg.Go(func() error {
			key := fmt.Sprintf("k%d", (i+1)%n)
			rg, ok := m.Get(key)
			if !ok {
				return fmt.Errorf("Get(%q): not found", key)
			}
			rg.Release()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < n; i++ {
		key := fmt.Sprintf("k%d", i)
		g, ok := m.Get(key)
		if !ok {
			t.Fatalf("key %q missing after concurrent mutation", key)
		}
		if v := g.Value(); v != i+1 {
			t.Errorf("key %q = %d, want %d", key, v, i+1)
		}
		g.Release()
	}
}
