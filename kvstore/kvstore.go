// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package kvstore is a minimal key-value façade over a skymap.Map,
// giving the core hash table the GET/SET/UPDATE/DEL/EXISTS vocabulary
// of an in-memory NoSQL keyspace instead of the table's own
// Insert/Update/Remove naming.
package kvstore

import (
	"errors"

	"golang.org/x/exp/slices"

	"github.com/skymapdb/skymap/internal/logger"
	"github.com/skymapdb/skymap/skymap"
)

// ErrNotFound is returned by Get, Update and Del when key isn't present.
var ErrNotFound = errors.New("kvstore: key not found")

// ErrOverwrite is returned by Set when key is already present: Set never
// clobbers an existing value, use Update for that.
var ErrOverwrite = errors.New("kvstore: key already exists")

// Store is a string-keyed, []byte-valued keyspace backed by a sharded
// concurrent hash table. The zero value is not usable; construct one
// with New.
type Store struct {
	m *skymap.Map[string, []byte]
}

// New creates an empty Store.
func New(opts ...skymap.Option[string, []byte]) *Store {
	return &Store{m: skymap.New[string, []byte](skymap.HashString, opts...)}
}

// WithLogger returns an Option that attaches l to the underlying Map so
// rehash events are traced.
func WithLogger(l logger.Logger) skymap.Option[string, []byte] {
	return skymap.WithLogger[string, []byte](l)
}

// Get returns the value stored for key, or ErrNotFound if key is absent.
// The returned slice is a copy: mutating it does not affect the stored
// value.
func (s *Store) Get(key string) ([]byte, error) {
	g, ok := s.m.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	defer g.Release()
	return cloneBytes(g.Value()), nil
}

// Set stores value for key only if key is not already present.
// Returns ErrOverwrite if key already exists.
func (s *Store) Set(key string, value []byte) error {
	inserted, err := s.m.Insert(key, cloneBytes(value))
	if err != nil {
		return err
	}
	if !inserted {
		return ErrOverwrite
	}
	return nil
}

// Update replaces the value stored for key. Returns ErrNotFound if key
// is absent.
func (s *Store) Update(key string, value []byte) error {
	if !s.m.Update(key, cloneBytes(value)) {
		return ErrNotFound
	}
	return nil
}

// Del removes key. Returns ErrNotFound if key was absent.
func (s *Store) Del(key string) error {
	if !s.m.RemoveIfPresent(key) {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether key is present.
func (s *Store) Exists(key string) bool {
	return s.m.Contains(key)
}

// Len returns the number of keys currently stored.
func (s *Store) Len() int {
	return s.m.Len()
}

// BucketCount returns the number of buckets backing the store right
// now. Exposed so a Store can be registered directly with a
// metrics.Collector, which expects Len/BucketCount/Capacity.
func (s *Store) BucketCount() int {
	return s.m.BucketCount()
}

// Capacity returns the number of entries that fit under the store's
// load factor at its current size.
func (s *Store) Capacity() int {
	return s.m.Capacity()
}

// Entry is a single key/value pair returned by List.
type Entry struct {
	Key   string
	Value []byte
}

// List returns a snapshot of every key currently in the store, sorted
// lexically. The underlying Map's Snapshot already takes the table-wide
// write lock for the entire walk, so the pairs reflect one consistent
// instant; List adds only the deterministic ordering operators expect
// from an enumeration command.
func (s *Store) List() []Entry {
	pairs := s.m.Snapshot()
	slices.SortFunc(pairs, func(a, b skymap.Entry[string, []byte]) bool {
		return a.Key < b.Key
	})
	entries := make([]Entry, len(pairs))
	for i, p := range pairs {
		entries[i] = Entry{Key: p.Key, Value: p.Value}
	}
	return entries
}

// Clear removes every key.
func (s *Store) Clear() {
	s.m.Clear()
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
