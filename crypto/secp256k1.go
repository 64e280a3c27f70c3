// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Secp256k1 is the curve capability the compiler's signing operations call
// into. Every method works on 32-byte private keys and 32-byte message
// digests; a malformed key or digest is a fatal, non-recoverable condition
// for the caller.
type Secp256k1 interface {
	// DerivePublicKeyCompressed returns the 33-byte compressed public key
	// for a 32-byte private key.
	DerivePublicKeyCompressed(priv []byte) ([]byte, error)

	// SignMessageHashDER produces a DER-encoded ECDSA signature over a
	// 32-byte message digest.
	SignMessageHashDER(priv []byte, hash32 []byte) ([]byte, error)

	// SignMessageHashSchnorr produces a 64-byte BIP340-style Schnorr
	// signature over a 32-byte message digest.
	SignMessageHashSchnorr(priv []byte, hash32 []byte) ([]byte, error)
}

type secp256k1 struct{}

// NewSecp256k1 returns the default secp256k1 capability, backed by
// btcec/v2's ECDSA and Schnorr implementations.
func NewSecp256k1() Secp256k1 { return secp256k1{} }

func parsePrivateKey(priv []byte) (*btcec.PrivateKey, error) {
	if len(priv) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(priv))
	}
	return btcec.PrivKeyFromBytes(priv), nil
}

func parseMessageHash(hash32 []byte) error {
	if len(hash32) != 32 {
		return fmt.Errorf("message hash must be 32 bytes, got %d", len(hash32))
	}
	return nil
}

func (secp256k1) DerivePublicKeyCompressed(priv []byte) ([]byte, error) {
	key, err := parsePrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}
	return key.PubKey().SerializeCompressed(), nil
}

func (secp256k1) SignMessageHashDER(priv []byte, hash32 []byte) ([]byte, error) {
	key, err := parsePrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("sign message hash: %w", err)
	}
	if err := parseMessageHash(hash32); err != nil {
		return nil, fmt.Errorf("sign message hash: %w", err)
	}
	sig := ecdsa.Sign(key, hash32)
	return sig.Serialize(), nil
}

func (secp256k1) SignMessageHashSchnorr(priv []byte, hash32 []byte) ([]byte, error) {
	key, err := parsePrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("sign message hash schnorr: %w", err)
	}
	if err := parseMessageHash(hash32); err != nil {
		return nil, fmt.Errorf("sign message hash schnorr: %w", err)
	}
	sig, err := schnorr.Sign(key, hash32)
	if err != nil {
		return nil, fmt.Errorf("sign message hash schnorr: %w", err)
	}
	return sig.Serialize(), nil
}
