// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package skymap

import "hash/maphash"

// HashFunc produces a 64-bit fingerprint for a key. It must be a pure
// function of the key's bytes: equal keys must always hash equal, and a
// given Table's hash must not change once the Table is constructed (the
// Table passes its own seed, which is immutable for the Table's lifetime).
type HashFunc[K any] func(seed maphash.Seed, key K) uint64

// HashString is a HashFunc for string keys, seeded per Table.
func HashString(seed maphash.Seed, key string) uint64 {
	return maphash.String(seed, key)
}

// HashBytes is a HashFunc for []byte keys, seeded per Table.
func HashBytes(seed maphash.Seed, key []byte) uint64 {
	return maphash.Bytes(seed, key)
}
