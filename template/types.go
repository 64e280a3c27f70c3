// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package template implements the authentication-template compiler: the
// environment and per-invocation data every compiler operation reads, the
// identifier resolver that walks a script's dotted references, and the
// signing-serialization machinery that produces BCH signature preimages.
//
// The script tokenizer/parser, the bytecode emitter, and the virtual
// machine that eventually executes the result are external collaborators;
// this package only produces the bytes they consume.
package template

import (
	"github.com/bchauth/authcompiler/crypto"
	"github.com/bchauth/authcompiler/opcode"
	"github.com/bchauth/authcompiler/vm"
)

// EntityId, VariableId, and ScriptId name the three kinds of identifier a
// template declares. They are plain strings; uniqueness within each
// namespace is the caller's responsibility (see DESIGN.md's Open Question
// on ambiguous entity ownership).
type (
	EntityId   string
	VariableId string
	ScriptId   string
)

// VariableCategory classifies a Variable for dispatch: the category, plus
// the operation name in segment 1 of an identifier, selects which
// CompilerOperation resolves it.
type VariableCategory int

const (
	// CategoryKey is a Variable holding a raw ECDSA/Schnorr private key.
	CategoryKey VariableCategory = iota

	// CategoryHdKey is a Variable holding a BIP32-style hierarchical key.
	CategoryHdKey

	// CategoryAddressData is a Variable whose bytes are supplied fresh by
	// the caller on every compilation.
	CategoryAddressData

	// CategoryWalletData is a Variable whose bytes are supplied by the
	// caller and expected to remain stable across compilations.
	CategoryWalletData
)

// Variable is one entry in a CompilationEnvironment's variable namespace.
// Concrete types are Key, HdKey, AddressData, and WalletData.
type Variable interface {
	// VariableId is the identifier's first segment.
	VariableId() VariableId

	// Category selects which operations can resolve this variable.
	Category() VariableCategory
}

// Key is a Variable backed by a single ECDSA/Schnorr private key.
type Key struct {
	Id VariableId
}

func (k Key) VariableId() VariableId    { return k.Id }
func (k Key) Category() VariableCategory { return CategoryKey }

// HdKey is a Variable backed by a BIP32 hierarchical key. PrivateDerivationPath
// and PublicDerivationPath use "m/..." / "M/..." notation with "i"
// standing in for the address index; if PublicDerivationPath is empty it is
// derived from PrivateDerivationPath by swapping the leading "m" for "M".
// AddressOffset is added to the per-invocation address index before
// substitution (see DESIGN.md's Open Question on this field's direction).
type HdKey struct {
	Id                    VariableId
	PrivateDerivationPath string
	PublicDerivationPath  string
	AddressOffset         uint32
}

func (k HdKey) VariableId() VariableId    { return k.Id }
func (k HdKey) Category() VariableCategory { return CategoryHdKey }

// AddressData is a Variable whose bytes are supplied by the caller at
// compile time via CompilationData.AddressData and are not expected to
// repeat across invocations (e.g. a UTXO's specific unlocking parameters).
type AddressData struct {
	Id VariableId
}

func (d AddressData) VariableId() VariableId    { return d.Id }
func (d AddressData) Category() VariableCategory { return CategoryAddressData }

// WalletData is a Variable whose bytes are supplied by the caller and are
// expected to be stable across invocations (e.g. a wallet's configured
// spending delay).
type WalletData struct {
	Id VariableId
}

func (d WalletData) VariableId() VariableId    { return d.Id }
func (d WalletData) Category() VariableCategory { return CategoryWalletData }

// Script is one named source fragment of the template language. Scripts may
// reference other scripts by id; the reference graph is assumed acyclic —
// callers validate that before handing scripts to this package.
type Script struct {
	Id     ScriptId
	Source string
}

// KeyOperations holds the operation-name-keyed dispatch table shared by the
// Key and HdKey categories: public_key, signature, schnorr_signature,
// data_signature, schnorr_data_signature.
type KeyOperations map[string]CompilerOperation

// OperationsTable is the CompilationEnvironment's pluggable dispatch table.
// NewEnvironment populates it with the standard operations from
// operations_common.go and operations_keys.go; callers may replace any
// entry to customize or extend resolution.
type OperationsTable struct {
	Key                  KeyOperations
	HdKey                KeyOperations
	AddressData          CompilerOperation
	WalletData           CompilerOperation
	SigningSerialization map[string]CompilerOperation
}

// CompilationEnvironment is the static, process-lifetime input to every
// compilation: the template's scripts and variables, the opcode table, the
// operation dispatch table, and whichever capability handles the caller has
// made available. A nil capability field means that capability is absent;
// operations that require it report a missing-prerequisite error (or Skip,
// if marked canBeSkipped) rather than panicking.
type CompilationEnvironment struct {
	Scripts         map[ScriptId]Script
	Variables       map[VariableId]Variable
	EntityOwnership map[VariableId]EntityId
	Opcodes         opcode.Table
	Operations      OperationsTable

	SHA1      crypto.Hash
	SHA256    crypto.Hash
	SHA512    crypto.Hash
	RIPEMD160 crypto.Hash
	Secp256k1 crypto.Secp256k1
	HDKeyUtil crypto.HDKeyUtil
	VM        vm.Handle

	CreateState vm.CreateStateFunc
}

// NewEnvironment builds a CompilationEnvironment with the standard
// operation dispatch table and the default opcode table wired in.
// Capability handles are left nil; set them (or use
// crypto.NewDefaultBackends()) before compiling anything that needs them.
func NewEnvironment() CompilationEnvironment {
	return CompilationEnvironment{
		Scripts:         map[ScriptId]Script{},
		Variables:       map[VariableId]Variable{},
		EntityOwnership: map[VariableId]EntityId{},
		Opcodes:         opcode.Default(),
		Operations:      standardOperations(),
	}
}

// Keys is the directly-held-key portion of CompilationData.
type Keys struct {
	// PrivateKeys holds 32-byte private keys, keyed by variable id.
	PrivateKeys map[VariableId][]byte

	// PublicKeys holds precomputed compressed public keys, keyed by
	// variable id. When present, it short-circuits derivation from
	// PrivateKeys.
	PublicKeys map[VariableId][]byte

	// Signatures holds precomputed signatures, keyed by the full
	// identifier string that would otherwise have computed them (e.g.
	// "alice.signature.all_outputs").
	Signatures map[string][]byte
}

// HdKeys is the hierarchical-key portion of CompilationData.
type HdKeys struct {
	// HdPrivateKeys holds serialized extended private keys, keyed by the
	// owning entity's id.
	HdPrivateKeys map[EntityId]string

	// HdPublicKeys holds serialized extended public keys, keyed by the
	// owning entity's id. Consulted only when the entity has no private
	// key available.
	HdPublicKeys map[EntityId]string

	// DerivedPublicKeys holds precomputed compressed public keys, keyed by
	// variable id, bypassing derivation entirely.
	DerivedPublicKeys map[VariableId][]byte

	// AddressIndex is the per-invocation index substituted for "i" in a
	// derivation path (after adding the variable's AddressOffset).
	AddressIndex *uint32

	// Signatures holds precomputed signatures, keyed by the full
	// identifier string, exactly like Keys.Signatures.
	Signatures map[string][]byte
}

// OperationData is the transaction context required to produce a signing
// serialization. All byte-blob fields are pre-serialized by the caller;
// this package treats them as opaque except where it must hash or
// concatenate them per the signing-serialization layout.
type OperationData struct {
	Version        uint32
	Locktime       uint32
	SequenceNumber uint32
	OutpointIndex  uint32
	OutputValue    uint64

	OutpointTransactionHash [32]byte
	CoveredBytecode         []byte

	// TransactionOutpoints is the concatenated serialization of every
	// input's outpoint, in transaction order.
	TransactionOutpoints []byte

	// TransactionSequenceNumbers is the concatenated serialization of
	// every input's sequence number, in transaction order.
	TransactionSequenceNumbers []byte

	// TransactionOutputs is the concatenated serialization of every
	// output, in transaction order. Used by the ALL-family algorithms.
	TransactionOutputs []byte

	// CorrespondingOutput is this input's own output, serialized, for the
	// SINGLE-family algorithms. Nil if this input has no corresponding
	// output (SINGLE with no matching index).
	CorrespondingOutput []byte
}

// CompilationData is the per-invocation input to a compilation: whichever
// keys, wallet/address bytes, transaction context, and block metadata the
// caller has available for this particular compile.
type CompilationData struct {
	Keys               *Keys
	HdKeys             *HdKeys
	AddressData        map[VariableId][]byte
	WalletData         map[VariableId][]byte
	OperationData      *OperationData
	CurrentBlockHeight *uint32
	CurrentBlockTime   *uint32
}
