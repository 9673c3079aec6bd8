// Copyright (c) 2024 Arista Networks, Inc.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package skymap

import (
	"hash/maphash"
	"testing"
)

func TestHashStringIsStableForAFixedSeed(t *testing.T) {
	seed := maphash.MakeSeed()
	a := HashString(seed, "hello")
	b := HashString(seed, "hello")
	if a != b {
		t.Fatalf("HashString is not stable for a fixed seed: %d != %d", a, b)
	}
}

func TestHashBytesMatchesStringOverEquivalentBytes(t *testing.T) {
	seed := maphash.MakeSeed()
	s := HashString(seed, "hello")
	b := HashBytes(seed, []byte("hello"))
	if s != b {
		t.Fatalf("HashString and HashBytes diverge for the same bytes: %d != %d", s, b)
	}
}

func TestHashBytesOfAFixedSizeArraySlicesConsistently(t *testing.T) {
	seed := maphash.MakeSeed()
	var arr [8]byte
	copy(arr[:], "abcdefgh")
	got := HashBytes(seed, arr[:])
	want := HashBytes(seed, []byte("abcdefgh"))
	if got != want {
		t.Fatalf("HashBytes of a fixed-size array diverges from its byte-slice borrow: %d != %d", got, want)
	}
}
