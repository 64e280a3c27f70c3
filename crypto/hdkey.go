// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// HDNode wraps a BIP32 extended key, private or public, at some point in
// its derivation tree.
type HDNode interface {
	// IsPrivate reports whether this node still carries its private key.
	IsPrivate() bool

	// PublicKeyCompressed returns the 33-byte compressed public key for
	// this node, whether it was derived from a private or public parent.
	PublicKeyCompressed() ([]byte, error)

	// PrivateKeyBytes returns the 32-byte private key. It fails if this
	// node is public-only.
	PrivateKeyBytes() ([]byte, error)
}

type hdNode struct {
	key *hdkeychain.ExtendedKey
}

func (n hdNode) IsPrivate() bool { return n.key.IsPrivate() }

func (n hdNode) PublicKeyCompressed() ([]byte, error) {
	pub, err := n.key.ECPubKey()
	if err != nil {
		return nil, fmt.Errorf("hd node public key: %w", err)
	}
	return pub.SerializeCompressed(), nil
}

func (n hdNode) PrivateKeyBytes() ([]byte, error) {
	if !n.key.IsPrivate() {
		return nil, fmt.Errorf("hd node is public-only, cannot extract a private key")
	}
	priv, err := n.key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("hd node private key: %w", err)
	}
	return priv.Serialize(), nil
}

// HDKeyUtil decodes serialized extended keys and walks BIP32 derivation
// paths. Paths are "m/..." (private, may contain hardened segments) or
// "M/..." (public, hardened segments are an error); the caller is
// responsible for substituting the "i" placeholder with the concrete
// address index before calling DeriveHdPath.
type HDKeyUtil interface {
	// DecodeHdPublicKey parses a base58check-encoded extended public key.
	DecodeHdPublicKey(serialized string) (HDNode, error)

	// DecodeHdPrivateKey parses a base58check-encoded extended private key.
	DecodeHdPrivateKey(serialized string) (HDNode, error)

	// DeriveHdPath walks path's segments from node, returning the node at
	// the end of the path.
	DeriveHdPath(node HDNode, path string) (HDNode, error)
}

type hdKeyUtil struct{}

// NewHDKeyUtil returns the default HD-key capability, backed by
// btcutil/hdkeychain.
func NewHDKeyUtil() HDKeyUtil { return hdKeyUtil{} }

func (hdKeyUtil) DecodeHdPublicKey(serialized string) (HDNode, error) {
	key, err := hdkeychain.NewKeyFromString(serialized)
	if err != nil {
		return nil, fmt.Errorf("decode HD public key: %w", err)
	}
	if key.IsPrivate() {
		neutered, err := key.Neuter()
		if err != nil {
			return nil, fmt.Errorf("decode HD public key: %w", err)
		}
		key = neutered
	}
	return hdNode{key: key}, nil
}

func (hdKeyUtil) DecodeHdPrivateKey(serialized string) (HDNode, error) {
	key, err := hdkeychain.NewKeyFromString(serialized)
	if err != nil {
		return nil, fmt.Errorf("decode HD private key: %w", err)
	}
	if !key.IsPrivate() {
		return nil, fmt.Errorf("decode HD private key: %q is a public key", serialized)
	}
	return hdNode{key: key}, nil
}

func (hdKeyUtil) DeriveHdPath(node HDNode, path string) (HDNode, error) {
	n, ok := node.(hdNode)
	if !ok {
		return nil, fmt.Errorf("derive HD path: unsupported node implementation")
	}

	segments, err := parseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("derive HD path %q: %w", path, err)
	}

	key := n.key
	for _, index := range segments {
		key, err = key.Child(index)
		if err != nil {
			return nil, fmt.Errorf("derive HD path %q: %w", path, err)
		}
	}
	return hdNode{key: key}, nil
}

// parseDerivationPath turns "m/0/5" or "M/0'/5" into a sequence of BIP32
// child indexes. The leading "m"/"M" segment is consumed and discarded; it
// only records whether the path is rooted at a private or public node,
// which the caller already knows from which key it decoded.
func parseDerivationPath(path string) ([]uint32, error) {
	segments := strings.Split(path, "/")
	if len(segments) == 0 || (segments[0] != "m" && segments[0] != "M") {
		return nil, fmt.Errorf("derivation path must start with \"m\" or \"M\"")
	}

	indexes := make([]uint32, 0, len(segments)-1)
	for _, segment := range segments[1:] {
		if segment == "" {
			return nil, fmt.Errorf("empty path segment")
		}

		hardened := false
		numeric := segment
		switch {
		case strings.HasSuffix(segment, "'"):
			hardened = true
			numeric = strings.TrimSuffix(segment, "'")
		case strings.HasSuffix(segment, "h") || strings.HasSuffix(segment, "H"):
			hardened = true
			numeric = segment[:len(segment)-1]
		}

		value, err := strconv.ParseUint(numeric, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid path segment %q: %w", segment, err)
		}
		if value >= hdkeychain.HardenedKeyStart {
			return nil, fmt.Errorf("path segment %q overflows a 31-bit index", segment)
		}

		index := uint32(value)
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}
		indexes = append(indexes, index)
	}
	return indexes, nil
}
