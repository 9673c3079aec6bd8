// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package skymap implements a sharded concurrent associative container:
// a fixed-bucket, open-addressed hash table behind a table-wide
// reader-writer lock, with a further per-bucket reader-writer lock for
// fine-grained access. It is built to back the hot keyspace of an
// in-memory store, where mixed concurrent reads and writes on disjoint
// keys must not serialize against each other except during a rehash.
//
// Skymap uses linear probing for collision resolution and a three-state
// bucket (empty/tombstone/occupied) so that removal doesn't break probe
// chains for keys that collided with the removed slot. It rehashes into
// a larger table once the load factor crosses 85%, and never shrinks.
package skymap

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/skymapdb/skymap/internal/logger"
)

// Map is a sharded concurrent hash table mapping keys of type K to
// values of type V. The zero value is not usable; construct one with New
// or NewWithCapacity. A *Map is safe to share across goroutines: all
// exported methods may be called concurrently from any goroutine.
type Map[K comparable, V any] struct {
	mu     sync.RWMutex
	table  *table[K, V]
	length atomic.Int64
	hash   HashFunc[K]
	log    logger.Logger
}

// Option configures a Map at construction time.
type Option[K comparable, V any] func(*Map[K, V])

// WithLogger attaches a logger that Map uses to trace rehash events. If
// omitted, Map logs nothing.
func WithLogger[K comparable, V any](l logger.Logger) Option[K, V] {
	return func(m *Map[K, V]) {
		m.log = l
	}
}

// New creates an empty Map with the default initial capacity (128
// buckets), using hash to fingerprint keys.
func New[K comparable, V any](hash HashFunc[K], opts ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{
		table: newTable[K, V](defInitCapacity, hash),
		hash:  hash,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewWithCapacity creates an empty Map sized to hold at least capacity
// entries before its first rehash.
func NewWithCapacity[K comparable, V any](capacity int, hash HashFunc[K], opts ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{
		table: newTableWithCapacity[K, V](capacity, hash),
		hash:  hash,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Len returns the current number of occupied entries. Wait-free; the
// counter is updated with relaxed ordering and is purely informational —
// it must not be used to reason about whether a specific key is present.
func (m *Map[K, V]) Len() int {
	return int(m.length.Load())
}

// IsEmpty reports whether Len() == 0.
func (m *Map[K, V]) IsEmpty() bool {
	return m.Len() == 0
}

// BucketCount returns the number of buckets backing the table right now.
func (m *Map[K, V]) BucketCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.table.bucketCount()
}

// Capacity returns the number of entries that fit under the 85% load
// factor at the table's current size. Informational only.
func (m *Map[K, V]) Capacity() int {
	n := m.BucketCount()
	if n < defMinCapacity {
		n = defMinCapacity
	}
	return n * maxLoadFactorNum / maxLoadFactorDenom
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.table.lookupRead(key)
	b := &m.table.buckets[idx]
	defer b.mu.RUnlock()
	return !b.isAvailable()
}

// Get looks up key and, if present, returns a ReadGuard pinning it for
// observation. The caller must call Release on the returned guard
// exactly once. Returns nil, false if key is absent.
func (m *Map[K, V]) Get(key K) (*ReadGuard[K, V], bool) {
	m.mu.RLock()
	idx := m.table.lookupRead(key)
	b := &m.table.buckets[idx]
	if b.state != bucketOccupied {
		b.mu.RUnlock()
		m.mu.RUnlock()
		return nil, false
	}
	return &ReadGuard[K, V]{tableLock: &m.mu, bucket: b}, true
}

// GetMut looks up key and, if present, returns a WriteGuard permitting
// in-place mutation of its value. The caller must call Release on the
// returned guard exactly once. Returns nil, false if key is absent.
func (m *Map[K, V]) GetMut(key K) (*WriteGuard[K, V], bool) {
	m.mu.RLock()
	idx := m.table.lookupWrite(key)
	b := &m.table.buckets[idx]
	if b.state != bucketOccupied {
		b.mu.Unlock()
		m.mu.RUnlock()
		return nil, false
	}
	return &WriteGuard[K, V]{tableLock: &m.mu, bucket: b}, true
}

// Insert associates key with value only if key is not already present.
// Returns true if the insertion happened, false if key already existed
// (in which case the existing value is left untouched — contrast
// Update). A successful insert may trigger a rehash; if the allocation
// for that rehash fails the error is returned and the Map is left exactly
// as it was before the insert attempted to grow (the new key is not
// lost: it is already committed to the old table by the time rehash
// runs).
func (m *Map[K, V]) Insert(key K, value V) (inserted bool, rehashErr error) {
	m.mu.RLock()
	idx := m.table.lookupRead(key)
	b := &m.table.buckets[idx]
	if !b.isAvailable() {
		// Occupied by key already.
		b.mu.RUnlock()
		m.mu.RUnlock()
		return false, nil
	}
	b.mu.RUnlock()

	idx = m.table.findFreeWrite(key)
	b = &m.table.buckets[idx]
	b.occupy(key, value)
	b.mu.Unlock()
	newLen := m.length.Add(1)

	rehashErr = m.maybeRehash(newLen)
	m.mu.RUnlock()
	return true, rehashErr
}

// Update replaces the value stored for key if and only if key is already
// present. It never inserts. Returns true if the replacement happened.
func (m *Map[K, V]) Update(key K, value V) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.table.lookupWrite(key)
	b := &m.table.buckets[idx]
	defer b.mu.Unlock()
	if b.state != bucketOccupied {
		return false
	}
	b.value = value
	return true
}

// Upsert replaces key's value if present, otherwise inserts it. This is
// implemented as Update-then-Insert and is NOT atomic across the two lock
// acquisitions: a concurrent remove between the two calls can cause a
// spurious insert. Callers needing atomicity should use GetMut/Insert
// directly under their own external synchronization.
func (m *Map[K, V]) Upsert(key K, value V) error {
	if m.Update(key, value) {
		return nil
	}
	_, err := m.Insert(key, value)
	return err
}

// Remove deletes key if present, returning its prior value. The vacated
// bucket becomes a tombstone so later probe chains through it stay
// intact. Returns false (and the zero value) if key was absent.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx := m.table.lookupWrite(key)
	b := &m.table.buckets[idx]
	defer b.mu.Unlock()
	if b.state != bucketOccupied {
		var zero V
		return zero, false
	}
	v := b.vacate()
	m.length.Add(-1)
	return v, true
}

// RemoveIfPresent is Remove without the returned value, for callers that
// only need the boolean outcome (e.g. delete-user, DEL key).
func (m *Map[K, V]) RemoveIfPresent(key K) bool {
	_, ok := m.Remove(key)
	return ok
}

// Entry is a single key/value pair produced by Snapshot.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Snapshot returns every currently occupied entry as an owned copy. The
// entire walk runs under the table-wide write lock, so it observes a
// single consistent point in time with no concurrent mutation
// interleaved into it — the same guarantee the two-phase
// "acquire-write-lock, copy occupied entries, release" dance gives
// without ever publishing a second Table.
func (m *Map[K, V]) Snapshot() []Entry[K, V] {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry[K, V], 0, m.length.Load())
	for i := range m.table.buckets {
		b := &m.table.buckets[i]
		if b.state == bucketOccupied {
			out = append(out, Entry[K, V]{Key: b.key, Value: b.value})
		}
	}
	return out
}

// Clear replaces the table with a fresh, default-capacity table and
// resets the length to zero. Requires the table-wide write lock: no
// other operation can be in flight while Clear runs, and none can start
// until it returns.
func (m *Map[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.table = newTable[K, V](defInitCapacity, m.hash)
	m.length.Store(0)
}

// maybeRehash implements the two-step rehash trigger. It must be
// called with m.mu held in read mode and newLen already reflecting the
// insert that just succeeded. If the load factor is exceeded it drops
// the read lock, acquires the write lock, re-checks the condition (a
// concurrent writer may have already grown the table), and if still
// over threshold swaps in a larger table. The caller's read lock is
// always left held on return.
func (m *Map[K, V]) maybeRehash(newLen int64) error {
	bucketCount := int64(m.table.bucketCount())
	if newLen*maxLoadFactorDenom <= bucketCount*maxLoadFactorNum {
		return nil
	}
	m.mu.RUnlock()
	err := m.reserveSpace(1)
	m.mu.RLock()
	return err
}

// reserveSpace grows the table to hold len(m)+forHowMany entries times
// rehashMultiplier, unless another writer already enlarged it enough
// while we were waiting for the write lock.
func (m *Map[K, V]) reserveSpace(forHowMany int) error {
	target := (int(m.length.Load()) + forHowMany) * rehashMultiplier
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.table.bucketCount() >= target {
		// Another writer already grew the table past what we need.
		return nil
	}
	if m.log != nil {
		m.log.Infof("skymap: rehashing from %d buckets toward >=%d entries", m.table.bucketCount(), target)
	}
	newTbl, err := m.allocateTable(target)
	if err != nil {
		return err
	}
	newTbl.fillFrom(m.table)
	m.table = newTbl
	return nil
}

// allocateTable is split out from reserveSpace so the "capacity failure"
// error outcome has a single, named point of origin: a runtime that
// cannot satisfy the make() below (or a future allocator with an
// explicit limit) returns it here without disturbing m.table.
func (m *Map[K, V]) allocateTable(target int) (tbl *table[K, V], err error) {
	defer func() {
		if r := recover(); r != nil {
			tbl = nil
			err = fmt.Errorf("skymap: rehash allocation for %d buckets failed: %v", target, r)
		}
	}()
	return newTableWithCapacity[K, V](target, m.hash), nil
}
