// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package skymap

import "sync"

// bucketState is the tri-state tag of a bucket cell.
type bucketState int8

const (
	// bucketEmpty marks a cell that has never been used. It terminates a
	// probe chain: a lookup that reaches an empty bucket knows the key is
	// absent, because a key is never inserted past an unused cell.
	bucketEmpty bucketState = iota
	// bucketTombstone marks a cell that held a key which was later
	// removed. Unlike empty, a tombstone does not terminate a probe
	// chain — the key that collided with it may still be further along.
	bucketTombstone
	// bucketOccupied marks a cell currently holding a key/value pair.
	bucketOccupied
)

// bucket is one cell of a Table: a tri-state slot with its own
// reader-writer lock. Every exported Table operation first locks the
// bucket (read or write, depending on the scan flavor) before inspecting
// or mutating state/key/value.
type bucket[K comparable, V any] struct {
	mu    sync.RWMutex
	state bucketState
	key   K
	value V
}

// isEmpty reports whether the bucket has never been used. Caller must
// hold at least mu.RLock().
func (b *bucket[K, V]) isEmpty() bool {
	return b.state == bucketEmpty
}

// isTombstone reports whether the bucket holds a vacated, reusable slot.
func (b *bucket[K, V]) isTombstone() bool {
	return b.state == bucketTombstone
}

// isAvailable reports whether the bucket can accept a new key, i.e. it is
// empty or a tombstone.
func (b *bucket[K, V]) isAvailable() bool {
	return b.state == bucketEmpty || b.state == bucketTombstone
}

// occupy overwrites the bucket with a new key/value pair in the occupied
// state. Caller must hold mu.Lock().
func (b *bucket[K, V]) occupy(key K, value V) {
	b.state = bucketOccupied
	b.key = key
	b.value = value
}

// vacate transitions an occupied bucket to a tombstone, returning the
// value it held. Caller must hold mu.Lock() and have verified state ==
// bucketOccupied.
func (b *bucket[K, V]) vacate() V {
	v := b.value
	var zero V
	b.value = zero
	var zeroK K
	b.key = zeroK
	b.state = bucketTombstone
	return v
}
