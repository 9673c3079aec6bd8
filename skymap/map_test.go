// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package skymap

import (
	"fmt"
	"testing"
)

func TestInsertGetContainsRemove(t *testing.T) {
	m := New[string, int](HashString)

	if m.Contains("a") {
		t.Fatal("fresh map should not contain \"a\"")
	}
	if _, ok := m.Get("a"); ok {
		t.Fatal("Get on a fresh map should return false")
	}

	inserted, err := m.Insert("a", 1)
	if err != nil {
		t.Fatalf("Insert returned error: %s", err)
	}
	if !inserted {
		t.Fatal("Insert of a new key should return true")
	}

	inserted, err = m.Insert("a", 2)
	if err != nil {
		t.Fatalf("Insert returned error: %s", err)
	}
	if inserted {
		t.Fatal("Insert of an existing key should return false and not overwrite")
	}

	g, ok := m.Get("a")
	if !ok {
		t.Fatal("Get should find \"a\" after Insert")
	}
	if v := g.Value(); v != 1 {
		t.Fatalf("Get(\"a\") = %d, want 1 (second Insert must not overwrite)", v)
	}
	g.Release()

	if !m.Update("a", 99) {
		t.Fatal("Update of an existing key should return true")
	}
	g, _ = m.Get("a")
	if v := g.Value(); v != 99 {
		t.Fatalf("after Update, Get(\"a\") = %d, want 99", v)
	}
	g.Release()

	if m.Update("never-inserted", 1) {
		t.Fatal("Update of an absent key should return false")
	}

	v, ok := m.Remove("a")
	if !ok || v != 99 {
		t.Fatalf("Remove(\"a\") = (%d, %t), want (99, true)", v, ok)
	}
	if m.Contains("a") {
		t.Fatal("Contains should be false for a removed key")
	}
	if _, ok := m.Remove("a"); ok {
		t.Fatal("Remove of an already-removed key should return false")
	}
}

func TestUpsert(t *testing.T) {
	m := New[string, int](HashString)
	if err := m.Upsert("a", 1); err != nil {
		t.Fatalf("Upsert returned error: %s", err)
	}
	g, _ := m.Get("a")
	if v := g.Value(); v != 1 {
		t.Fatalf("Get(\"a\") = %d after first Upsert, want 1", v)
	}
	g.Release()

	if err := m.Upsert("a", 2); err != nil {
		t.Fatalf("Upsert returned error: %s", err)
	}
	g, _ = m.Get("a")
	if v := g.Value(); v != 2 {
		t.Fatalf("Get(\"a\") = %d after second Upsert, want 2", v)
	}
	g.Release()
}

func TestGetMutMutatesInPlace(t *testing.T) {
	m := New[string, int](HashString)
	if _, err := m.Insert("a", 1); err != nil {
		t.Fatalf("Insert returned error: %s", err)
	}

	wg, ok := m.GetMut("a")
	if !ok {
		t.Fatal("GetMut should find \"a\"")
	}
	wg.Set(7)
	wg.Release()

	g, _ := m.Get("a")
	if v := g.Value(); v != 7 {
		t.Fatalf("Get(\"a\") = %d after GetMut().Set(7), want 7", v)
	}
	g.Release()
}

func TestInsertTriggersRehashPastLoadFactor(t *testing.T) {
	m := NewWithCapacity[string, int](128, HashString)
	initialBuckets := m.BucketCount()

	const n = 200
	for i := 0; i < n; i++ {
		inserted, err := m.Insert(fmt.Sprintf("key-%d", i), i)
		if err != nil {
			t.Fatalf("Insert(%d) returned error: %s", i, err)
		}
		if !inserted {
			t.Fatalf("Insert(%d) reported already-present on a fresh map", i)
		}
	}

	if m.Len() != n {
		t.Fatalf("Len() = %d, want %d", m.Len(), n)
	}
	if m.BucketCount() <= initialBuckets {
		t.Fatalf("BucketCount() = %d, should have grown past the initial %d", m.BucketCount(), initialBuckets)
	}

	for i := 0; i < n; i++ {
		g, ok := m.Get(fmt.Sprintf("key-%d", i))
		if !ok {
			t.Fatalf("key-%d missing after rehash", i)
		}
		if v := g.Value(); v != i {
			t.Errorf("key-%d = %d after rehash, want %d", i, v, i)
		}
		g.Release()
	}
}

func TestClearResetsMap(t *testing.T) {
	m := New[string, int](HashString)
	for i := 0; i < 50; i++ {
		if _, err := m.Insert(fmt.Sprintf("key-%d", i), i); err != nil {
			t.Fatalf("Insert returned error: %s", err)
		}
	}
	m.Clear()
	if m.Len() != 0 || !m.IsEmpty() {
		t.Fatalf("Len()=%d IsEmpty()=%t after Clear, want 0/true", m.Len(), m.IsEmpty())
	}
	if m.Contains("key-0") {
		t.Fatal("Clear should remove every key")
	}
}

func TestSnapshotObservesAllOccupiedEntries(t *testing.T) {
	m := New[string, int](HashString)
	want := map[string]int{"a": 1, "b": 2, "c": 3}
	for k, v := range want {
		if _, err := m.Insert(k, v); err != nil {
			t.Fatalf("Insert returned error: %s", err)
		}
	}
	if _, err := m.Insert("d", 4); err != nil {
		t.Fatalf("Insert returned error: %s", err)
	}
	m.Remove("d")

	snap := m.Snapshot()
	if len(snap) != len(want) {
		t.Fatalf("Snapshot() has %d entries, want %d", len(snap), len(want))
	}
	got := make(map[string]int, len(snap))
	for _, e := range snap {
		got[e.Key] = e.Value
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("Snapshot()[%q] = %d, want %d", k, got[k], v)
		}
	}
	if _, ok := got["d"]; ok {
		t.Error("Snapshot() should not include the removed key \"d\"")
	}
}
