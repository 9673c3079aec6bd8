// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package skymap

import "testing"

func TestNewTableWithCapacityEnforcesMinimum(t *testing.T) {
	tbl := newTableWithCapacity[string, int](1, HashString)
	if tbl.bucketCount() < defMinCapacity {
		t.Fatalf("bucketCount() = %d, want at least %d", tbl.bucketCount(), defMinCapacity)
	}
}

func TestNewTableWithCapacityHonorsLoadFactor(t *testing.T) {
	tbl := newTableWithCapacity[string, int](1000, HashString)
	// 1000 entries must fit under the 85% load factor.
	if tbl.bucketCount()*maxLoadFactorNum < 1000*maxLoadFactorDenom {
		t.Fatalf("bucketCount() = %d is too small to hold 1000 entries at %d%% load factor",
			tbl.bucketCount(), maxLoadFactorNum)
	}
}

func TestFindFreeWriteThenLookupReadRoundTrips(t *testing.T) {
	tbl := newTable[string, int](defMinCapacity, HashString)

	idx := tbl.findFreeWrite("a")
	tbl.buckets[idx].occupy("a", 1)
	tbl.buckets[idx].mu.Unlock()

	idx = tbl.lookupRead("a")
	b := &tbl.buckets[idx]
	if b.state != bucketOccupied || b.value != 1 {
		t.Fatalf("lookupRead(%q) found state=%v value=%d, want occupied/1", "a", b.state, b.value)
	}
	b.mu.RUnlock()

	idx = tbl.lookupRead("missing")
	b = &tbl.buckets[idx]
	if b.state != bucketEmpty {
		t.Fatalf("lookupRead(%q) found state=%v, want empty", "missing", b.state)
	}
	b.mu.RUnlock()
}

func TestFillFromCopiesOccupiedEntriesOnly(t *testing.T) {
	src := newTable[string, int](defMinCapacity, HashString)
	for i, k := range []string{"a", "b", "c"} {
		idx := src.findFreeWrite(k)
		src.buckets[idx].occupy(k, i)
		src.buckets[idx].mu.Unlock()
	}
	// Remove "b" so src has a tombstone that must not be copied as an entry.
	idx := src.lookupWrite("b")
	src.buckets[idx].vacate()
	src.buckets[idx].mu.Unlock()

	dst := newTable[string, int](defMinCapacity, HashString)
	dst.fillFrom(src)

	for _, k := range []string{"a", "c"} {
		idx := dst.lookupRead(k)
		b := &dst.buckets[idx]
		if b.state != bucketOccupied {
			t.Errorf("fillFrom did not carry over key %q", k)
		}
		b.mu.RUnlock()
	}
	idx = dst.lookupRead("b")
	b := &dst.buckets[idx]
	if b.state != bucketEmpty {
		t.Errorf("fillFrom should not have copied the tombstoned key %q, got state=%v", "b", b.state)
	}
	b.mu.RUnlock()

	var occupied int
	for i := range dst.buckets {
		if dst.buckets[i].state == bucketOccupied {
			occupied++
		}
	}
	if occupied != 2 {
		t.Errorf("dst has %d occupied buckets, want 2", occupied)
	}
}
