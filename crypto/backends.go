// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import "github.com/btcsuite/btclog"

// log is a logger that is initialized with no output filters. This means
// the package will not perform any logging by default until the caller
// requests it.
var log btclog.Logger

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// init disables logging by default until the caller requests it.
func init() {
	DisableLog()
}

// DisableLog disables all library log output. Logging output is disabled
// by default until UseLogger is called.
func DisableLog() {
	log = btclog.Disabled
}

// Backends bundles every capability handle a CompilationEnvironment can
// carry. Constructing one is the only place this system touches a "cold
// path": in a WASM-backed host the digest and curve engines would need
// loading before first use, so the constructor is kept as a single call a
// process makes once at startup and reuses for every later compilation.
type Backends struct {
	SHA1      Hash
	SHA256    Hash
	SHA512    Hash
	RIPEMD160 Hash
	Secp256k1 Secp256k1
	HDKeyUtil HDKeyUtil
}

// NewDefaultBackends constructs every capability with its default,
// production implementation. Once returned, every method on every field is
// a pure in-memory function safe to call concurrently from independent
// compilations.
func NewDefaultBackends() Backends {
	log.Debugf("constructing default capability backends (sha1, sha256, sha512, ripemd160, secp256k1, hd key util)")
	return Backends{
		SHA1:      NewSHA1(),
		SHA256:    NewSHA256(),
		SHA512:    NewSHA512(),
		RIPEMD160: NewRIPEMD160(),
		Secp256k1: NewSecp256k1(),
		HDKeyUtil: NewHDKeyUtil(),
	}
}
