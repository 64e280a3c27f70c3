// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package crypto

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExtendedPrivateKey(t *testing.T) string {
	t.Helper()
	seed := make([]byte, hdkeychain.RecommendedSeedLen)
	for i := range seed {
		seed[i] = byte(i)
	}
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)
	return master.String()
}

func TestDecodeAndDerivePrivatePath(t *testing.T) {
	util := NewHDKeyUtil()
	serialized := testExtendedPrivateKey(t)

	root, err := util.DecodeHdPrivateKey(serialized)
	require.NoError(t, err)
	assert.True(t, root.IsPrivate())

	node, err := util.DeriveHdPath(root, "m/44'/0'/0'/0/5")
	require.NoError(t, err)
	assert.True(t, node.IsPrivate())

	pub, err := node.PublicKeyCompressed()
	require.NoError(t, err)
	assert.Len(t, pub, 33)

	priv, err := node.PrivateKeyBytes()
	require.NoError(t, err)
	assert.Len(t, priv, 32)
}

func TestDeriveHdPathHardenedSegments(t *testing.T) {
	util := NewHDKeyUtil()
	serialized := testExtendedPrivateKey(t)
	root, err := util.DecodeHdPrivateKey(serialized)
	require.NoError(t, err)

	t.Run("ApostropheSuffixIsHardened", func(t *testing.T) {
		_, err := util.DeriveHdPath(root, "m/44'/0'")
		assert.NoError(t, err)
	})

	t.Run("LowercaseHSuffixIsHardened", func(t *testing.T) {
		_, err := util.DeriveHdPath(root, "m/44h/0h")
		assert.NoError(t, err)
	})

	t.Run("PathMustStartWithMOrCapitalM", func(t *testing.T) {
		_, err := util.DeriveHdPath(root, "44/0")
		assert.Error(t, err)
	})

	t.Run("OverflowingIndexIsAnError", func(t *testing.T) {
		_, err := util.DeriveHdPath(root, "m/4294967296")
		assert.Error(t, err)
	})
}

func TestDecodeHdPublicKeyNeutersAPrivateKeyString(t *testing.T) {
	util := NewHDKeyUtil()
	serialized := testExtendedPrivateKey(t)

	pub, err := util.DecodeHdPublicKey(serialized)
	require.NoError(t, err)
	assert.False(t, pub.IsPrivate())

	_, err = pub.PrivateKeyBytes()
	assert.Error(t, err)
}
