// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bchauth/authcompiler/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstancePathSubstitutesAddressIndexPlusOffset(t *testing.T) {
	t.Run("NoOffset", func(t *testing.T) {
		assert.Equal(t, "m/44'/0'/0'/0/7", instancePath("m/44'/0'/0'/0/i", 7, 0))
	})

	t.Run("WithOffset", func(t *testing.T) {
		assert.Equal(t, "m/44'/0'/0'/0/12", instancePath("m/44'/0'/0'/0/i", 7, 5))
	})

	t.Run("NonIndexSegmentsAreUntouched", func(t *testing.T) {
		assert.Equal(t, "m/0/1", instancePath("m/0/1", 99, 0))
	})
}

func TestPublicDerivationPathFor(t *testing.T) {
	t.Run("ExplicitPublicPathWins", func(t *testing.T) {
		hd := HdKey{PrivateDerivationPath: "m/0/i", PublicDerivationPath: "M/9/i"}
		assert.Equal(t, "M/9/i", publicDerivationPathFor(hd))
	})

	t.Run("DefaultsBySwappingLeadingM", func(t *testing.T) {
		hd := HdKey{PrivateDerivationPath: "m/0/i"}
		assert.Equal(t, "M/0/i", publicDerivationPathFor(hd))
	})
}

// --- fakes for the crypto capability interfaces ---------------------------

type fakeSecp256k1 struct {
	signErr error
}

func (f fakeSecp256k1) DerivePublicKeyCompressed(priv []byte) ([]byte, error) {
	return append([]byte("pub:"), priv...), nil
}

func (f fakeSecp256k1) SignMessageHashDER(priv, hash32 []byte) ([]byte, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	return append([]byte("der:"), hash32...), nil
}

func (f fakeSecp256k1) SignMessageHashSchnorr(priv, hash32 []byte) ([]byte, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	return append([]byte("schnorr:"), hash32...), nil
}

type fakeHDNode struct {
	path    string
	private bool
}

func (n fakeHDNode) IsPrivate() bool { return n.private }

func (n fakeHDNode) PublicKeyCompressed() ([]byte, error) {
	return []byte("pub@" + n.path), nil
}

func (n fakeHDNode) PrivateKeyBytes() ([]byte, error) {
	if !n.private {
		return nil, errors.New("public-only node")
	}
	return []byte("priv@" + n.path), nil
}

type fakeHDKeyUtil struct{}

func (fakeHDKeyUtil) DecodeHdPublicKey(serialized string) (crypto.HDNode, error) {
	return fakeHDNode{path: serialized, private: false}, nil
}

func (fakeHDKeyUtil) DecodeHdPrivateKey(serialized string) (crypto.HDNode, error) {
	return fakeHDNode{path: serialized, private: true}, nil
}

func (fakeHDKeyUtil) DeriveHdPath(node crypto.HDNode, path string) (crypto.HDNode, error) {
	n := node.(fakeHDNode)
	return fakeHDNode{path: fmt.Sprintf("%s|%s", n.path, path), private: n.private}, nil
}

func testEnvironmentWithCrypto() CompilationEnvironment {
	env := NewEnvironment()
	env.Secp256k1 = fakeSecp256k1{}
	env.SHA256 = crypto.NewSHA256()
	env.SHA512 = crypto.NewSHA512()
	env.RIPEMD160 = crypto.NewRIPEMD160()
	env.HDKeyUtil = fakeHDKeyUtil{}
	return env
}

func TestPublicKeyOperationKey(t *testing.T) {
	env := testEnvironmentWithCrypto()
	env.Variables["alice"] = Key{Id: "alice"}
	id := ParseIdentifier("alice.public_key")

	t.Run("PrecomputedPublicKeyShortCircuitsDerivation", func(t *testing.T) {
		data := CompilationData{Keys: &Keys{PublicKeys: map[VariableId][]byte{"alice": []byte("precomputed-pub")}}}
		result := publicKeyOperation(id, data, env)
		require.True(t, result.IsSuccess())
		assert.Equal(t, []byte("precomputed-pub"), result.Bytecode())
	})

	t.Run("DerivesFromPrivateKeyWhenNoPrecomputedKey", func(t *testing.T) {
		data := CompilationData{Keys: &Keys{PrivateKeys: map[VariableId][]byte{"alice": []byte("priv-bytes")}}}
		result := publicKeyOperation(id, data, env)
		require.True(t, result.IsSuccess())
		assert.Equal(t, []byte("pub:priv-bytes"), result.Bytecode())
	})

	t.Run("MissingEverythingIsAFatalError", func(t *testing.T) {
		result := publicKeyOperation(id, CompilationData{}, env)
		assert.True(t, result.IsError())
		assert.False(t, result.Recoverable())
	})
}

func TestPublicKeyOperationHdKey(t *testing.T) {
	env := testEnvironmentWithCrypto()
	env.Variables["alice"] = HdKey{Id: "alice", PrivateDerivationPath: "m/0/i"}
	env.EntityOwnership["alice"] = "alice-entity"
	id := ParseIdentifier("alice.public_key")
	index := uint32(3)

	t.Run("DerivesFromEntityHdPrivateKey", func(t *testing.T) {
		data := CompilationData{
			HdKeys: &HdKeys{
				HdPrivateKeys: map[EntityId]string{"alice-entity": "xprv-root"},
				AddressIndex:  &index,
			},
		}
		result := publicKeyOperation(id, data, env)
		require.True(t, result.IsSuccess())
		assert.Equal(t, []byte("pub@xprv-root|m/0/3"), result.Bytecode())
	})

	t.Run("FallsBackToHdPublicKeyWhenNoPrivateKey", func(t *testing.T) {
		data := CompilationData{
			HdKeys: &HdKeys{
				HdPublicKeys: map[EntityId]string{"alice-entity": "xpub-root"},
				AddressIndex: &index,
			},
		}
		result := publicKeyOperation(id, data, env)
		require.True(t, result.IsSuccess())
		assert.Equal(t, []byte("pub@xpub-root|M/0/3"), result.Bytecode())
	})

	t.Run("NoKeyMaterialIsRecoverable", func(t *testing.T) {
		data := CompilationData{HdKeys: &HdKeys{AddressIndex: &index}}
		result := publicKeyOperation(id, data, env)
		require.True(t, result.IsError())
		assert.True(t, result.Recoverable())
	})
}

func TestSignatureOperation(t *testing.T) {
	env := testEnvironmentWithCrypto()
	env.Variables["alice"] = Key{Id: "alice"}
	id := ParseIdentifier("alice.signature.all_outputs")
	opData := sampleOperationData()

	t.Run("PrecomputedSignatureShortCircuits", func(t *testing.T) {
		data := CompilationData{
			Keys:          &Keys{Signatures: map[string][]byte{"alice.signature.all_outputs": []byte("canned-sig")}},
			OperationData: opData,
		}
		result := signatureOperation(false)(id, data, env)
		require.True(t, result.IsSuccess())
		assert.Equal(t, []byte("canned-sig"), result.Bytecode())
	})

	t.Run("ComputesDERSignatureAndAppendsSighashByte", func(t *testing.T) {
		data := CompilationData{
			Keys:          &Keys{PrivateKeys: map[VariableId][]byte{"alice": []byte("priv-bytes")}},
			OperationData: opData,
		}
		result := signatureOperation(false)(id, data, env)
		require.True(t, result.IsSuccess())
		got := result.Bytecode()
		require.True(t, len(got) > 5)
		assert.Equal(t, "der:", string(got[:4]))
		assert.Equal(t, AlgorithmAllOutputs.SigHashByte(), got[len(got)-1])
	})

	t.Run("ComputesSchnorrSignatureVariant", func(t *testing.T) {
		data := CompilationData{
			Keys:          &Keys{PrivateKeys: map[VariableId][]byte{"alice": []byte("priv-bytes")}},
			OperationData: opData,
		}
		result := signatureOperation(true)(id, data, env)
		require.True(t, result.IsSuccess())
		assert.Equal(t, "schnorr:", string(result.Bytecode()[:8]))
	})

	t.Run("MissingPrivateKeyAndNoPrecomputedIsRecoverable", func(t *testing.T) {
		data := CompilationData{OperationData: opData}
		result := signatureOperation(false)(id, data, env)
		require.True(t, result.IsError())
		assert.True(t, result.Recoverable())
	})

	t.Run("UnknownAlgorithmIsFatal", func(t *testing.T) {
		badId := ParseIdentifier("alice.signature.not_an_algorithm")
		result := signatureOperation(false)(badId, CompilationData{}, env)
		require.True(t, result.IsError())
		assert.False(t, result.Recoverable())
	})
}

// fakeDataSignatureCompiler implements dataSignatureCompiler for testing
// data_signature/schnorr_data_signature without a real tokenizer/parser.
type fakeDataSignatureCompiler struct {
	bytecode []byte
	err      error
}

func (f fakeDataSignatureCompiler) Compile(id ScriptId, data CompilationData, env CompilationEnvironment) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bytecode, nil
}

func TestDataSignatureOperation(t *testing.T) {
	env := testEnvironmentWithCrypto()
	env.Variables["alice"] = Key{Id: "alice"}
	env.Scripts["lock"] = Script{Id: "lock", Source: "alice.public_key"}
	id := ParseIdentifier("alice.data_signature.lock")

	t.Run("SignsTheCompiledTargetScriptDigest", func(t *testing.T) {
		compiler := fakeDataSignatureCompiler{bytecode: []byte("target-bytecode")}
		data := CompilationData{Keys: &Keys{PrivateKeys: map[VariableId][]byte{"alice": []byte("priv-bytes")}}}
		result := dataSignatureOperation(compiler, false)(id, data, env)
		require.True(t, result.IsSuccess())
		assert.Equal(t, "der:", string(result.Bytecode()[:4]))
	})

	t.Run("UnknownTargetScriptIsFatal", func(t *testing.T) {
		badId := ParseIdentifier("alice.data_signature.no_such_script")
		result := dataSignatureOperation(fakeDataSignatureCompiler{}, false)(badId, CompilationData{}, env)
		require.True(t, result.IsError())
		assert.False(t, result.Recoverable())
	})

	t.Run("TargetCompileFailureIsFatal", func(t *testing.T) {
		compiler := fakeDataSignatureCompiler{err: errors.New("boom")}
		data := CompilationData{Keys: &Keys{PrivateKeys: map[VariableId][]byte{"alice": []byte("priv-bytes")}}}
		result := dataSignatureOperation(compiler, false)(id, data, env)
		require.True(t, result.IsError())
		assert.False(t, result.Recoverable())
	})
}
