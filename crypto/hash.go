// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package crypto provides the narrow capability interfaces the compiler's
// operations call into: digest algorithms, secp256k1 signing, and HD-key
// decode/derivation. Every implementation here is a pure, deterministic
// function of its input; none of them perform I/O.
package crypto

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // BCH scripts hash with RIPEMD-160
)

// Hash is a one-shot digest algorithm plus its incremental state machine.
// DigestSize reports the fixed width of Final's output.
type Hash interface {
	// Sum hashes b in one call.
	Sum(b []byte) []byte

	// Init returns a fresh incremental hash.State.
	Init() State

	// DigestSize is the number of bytes Final produces.
	DigestSize() int
}

// State is an incremental hash accumulator, fed chunk by chunk with Update
// and drained once with Final.
type State interface {
	Update(b []byte) State
	Final() []byte
}

type stdHash struct {
	newHash func() hash.Hash
	size    int
}

func (h stdHash) Sum(b []byte) []byte {
	d := h.newHash()
	d.Write(b)
	return d.Sum(nil)
}

func (h stdHash) Init() State {
	return &stdState{h: h.newHash()}
}

func (h stdHash) DigestSize() int { return h.size }

type stdState struct {
	h hash.Hash
}

func (s *stdState) Update(b []byte) State {
	s.h.Write(b)
	return s
}

func (s *stdState) Final() []byte {
	return s.h.Sum(nil)
}

// NewSHA1 returns the SHA-1 capability (20-byte digests). The standard
// library already implements this primitive correctly and carries no
// third-party competitor in the pack; wrapping it is the entire job.
func NewSHA1() Hash { return stdHash{newHash: sha1.New, size: sha1.Size} }

// NewSHA256 returns the SHA-256 capability (32-byte digests).
func NewSHA256() Hash { return stdHash{newHash: sha256.New, size: sha256.Size} }

// NewSHA512 returns the SHA-512 capability (64-byte digests).
func NewSHA512() Hash { return stdHash{newHash: sha512.New, size: sha512.Size} }

// NewRIPEMD160 returns the RIPEMD-160 capability (20-byte digests). HD-key
// public_key derivation requires it to be present in the environment.
func NewRIPEMD160() Hash { return stdHash{newHash: ripemd160.New, size: ripemd160.Size} }
