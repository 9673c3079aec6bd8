// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package skymap

import "testing"

func TestBucketLifecycle(t *testing.T) {
	var b bucket[string, int]
	if !b.isEmpty() {
		t.Fatal("zero-value bucket should be empty")
	}
	if !b.isAvailable() {
		t.Fatal("an empty bucket should be available")
	}

	b.occupy("k", 42)
	if b.isEmpty() || b.isTombstone() {
		t.Fatalf("occupied bucket reports wrong state: %v", b.state)
	}
	if b.isAvailable() {
		t.Fatal("an occupied bucket should not be available")
	}
	if b.key != "k" || b.value != 42 {
		t.Fatalf("occupy did not store key/value: got (%q, %d)", b.key, b.value)
	}

	old := b.vacate()
	if old != 42 {
		t.Fatalf("vacate returned %d, want 42", old)
	}
	if !b.isTombstone() {
		t.Fatal("vacated bucket should be a tombstone")
	}
	if !b.isAvailable() {
		t.Fatal("a tombstone should be available for reuse")
	}
	if b.key != "" || b.value != 0 {
		t.Fatalf("vacate did not zero key/value: got (%q, %d)", b.key, b.value)
	}
}
