// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func success(b string) CompilerOperation {
	return func(ParsedIdentifier, CompilationData, CompilationEnvironment) CompilerOperationResult {
		return Success([]byte(b))
	}
}

func skip() CompilerOperation {
	return func(ParsedIdentifier, CompilationData, CompilationEnvironment) CompilerOperationResult {
		return Skip()
	}
}

func recoverableError(msg string) CompilerOperation {
	return func(ParsedIdentifier, CompilationData, CompilationEnvironment) CompilerOperationResult {
		return Error(true, msg)
	}
}

func fatalError(msg string) CompilerOperation {
	return func(ParsedIdentifier, CompilationData, CompilationEnvironment) CompilerOperationResult {
		return Error(false, msg)
	}
}

func TestRequiresGatesOnPrerequisite(t *testing.T) {
	id := ParseIdentifier("alice.public_key")
	env := NewEnvironment()

	t.Run("MissingPropertyWithoutSkipIsFatal", func(t *testing.T) {
		op := Requires(RequiresConfig{
			Properties: []Prerequisite{present("secp256k1", hasSecp256k1)},
			Operation:  success("bytecode"),
		})
		result := op(id, CompilationData{}, env)
		require.True(t, result.IsError())
		assert.False(t, result.Recoverable())
	})

	t.Run("MissingPropertyWithSkipIsSkip", func(t *testing.T) {
		op := Requires(RequiresConfig{
			CanBeSkipped: true,
			Properties:   []Prerequisite{present("secp256k1", hasSecp256k1)},
			Operation:    success("bytecode"),
		})
		result := op(id, CompilationData{}, env)
		assert.True(t, result.IsSkip())
	})

	t.Run("SatisfiedPrerequisiteRunsOperation", func(t *testing.T) {
		envWithSecp := env
		envWithSecp.Secp256k1 = stubSecp256k1{}
		op := Requires(RequiresConfig{
			Properties: []Prerequisite{present("secp256k1", hasSecp256k1)},
			Operation:  success("bytecode"),
		})
		result := op(id, CompilationData{}, envWithSecp)
		require.True(t, result.IsSuccess())
		assert.Equal(t, []byte("bytecode"), result.Bytecode())
	})
}

func TestAttemptChain(t *testing.T) {
	id := ParseIdentifier("alice.signature.all_outputs")
	data := CompilationData{}
	env := NewEnvironment()

	t.Run("FirstSuccessWins", func(t *testing.T) {
		chain := AttemptChain(success("first"), success("second"))
		result := chain(id, data, env)
		require.True(t, result.IsSuccess())
		assert.Equal(t, []byte("first"), result.Bytecode())
	})

	t.Run("SkipAdvancesToNextStep", func(t *testing.T) {
		chain := AttemptChain(skip(), success("second"))
		result := chain(id, data, env)
		require.True(t, result.IsSuccess())
		assert.Equal(t, []byte("second"), result.Bytecode())
	})

	t.Run("RecoverableErrorAdvancesToNextStep", func(t *testing.T) {
		chain := AttemptChain(recoverableError("no private key"), success("fallback"))
		result := chain(id, data, env)
		require.True(t, result.IsSuccess())
		assert.Equal(t, []byte("fallback"), result.Bytecode())
	})

	t.Run("FatalErrorAbortsImmediately", func(t *testing.T) {
		chain := AttemptChain(fatalError("bad grammar"), success("never reached"))
		result := chain(id, data, env)
		require.True(t, result.IsError())
		assert.Equal(t, "bad grammar", result.Message())
	})

	t.Run("AllSkipSynthesizesError", func(t *testing.T) {
		chain := AttemptChain(skip(), skip())
		result := chain(id, data, env)
		require.True(t, result.IsError())
	})

	t.Run("AllRecoverableReturnsLastError", func(t *testing.T) {
		chain := AttemptChain(recoverableError("first miss"), recoverableError("second miss"))
		result := chain(id, data, env)
		require.True(t, result.IsError())
		assert.Equal(t, "second miss", result.Message())
	})
}

// stubSecp256k1 satisfies crypto.Secp256k1 for prerequisite-presence tests
// that never actually sign or derive anything.
type stubSecp256k1 struct{}

func (stubSecp256k1) DerivePublicKeyCompressed(priv []byte) ([]byte, error) { return nil, nil }
func (stubSecp256k1) SignMessageHashDER(priv, hash32 []byte) ([]byte, error) { return nil, nil }
func (stubSecp256k1) SignMessageHashSchnorr(priv, hash32 []byte) ([]byte, error) {
	return nil, nil
}
