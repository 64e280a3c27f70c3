// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256KnownVector(t *testing.T) {
	got := NewSHA256().Sum([]byte("abc"))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hex.EncodeToString(got))
}

func TestHashDigestSizes(t *testing.T) {
	cases := []struct {
		name string
		h    Hash
		size int
	}{
		{"sha1", NewSHA1(), 20},
		{"sha256", NewSHA256(), 32},
		{"sha512", NewSHA512(), 64},
		{"ripemd160", NewRIPEMD160(), 20},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.size, c.h.DigestSize())
			assert.Len(t, c.h.Sum([]byte("test")), c.size)
		})
	}
}

func TestIncrementalStateMatchesOneShotSum(t *testing.T) {
	h := NewSHA256()
	oneShot := h.Sum([]byte("hello world"))

	state := h.Init()
	incremental := state.Update([]byte("hello ")).Update([]byte("world")).Final()

	require.Equal(t, oneShot, incremental)
}
