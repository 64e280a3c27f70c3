// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

import "strings"

// addressDataOperation resolves a bare AddressData variable identifier to
// the bytes the caller supplied for this invocation.
func addressDataOperation(id ParsedIdentifier, data CompilationData, _ CompilationEnvironment) CompilerOperationResult {
	bytecode, ok := data.AddressData[id.VariableId()]
	if !ok {
		return Error(false, "Cannot resolve %q: no address data was provided for this compilation.", id.Raw)
	}
	return Success(bytecode)
}

// walletDataOperation resolves a bare WalletData variable identifier to the
// bytes the caller supplied.
func walletDataOperation(id ParsedIdentifier, data CompilationData, _ CompilationEnvironment) CompilerOperationResult {
	bytecode, ok := data.WalletData[id.VariableId()]
	if !ok {
		return Error(false, "Cannot resolve %q: no wallet data was provided for this compilation.", id.Raw)
	}
	return Success(bytecode)
}

// currentBlockHeightOperation resolves "current_block_height".
func currentBlockHeightOperation(id ParsedIdentifier, data CompilationData, _ CompilationEnvironment) CompilerOperationResult {
	if data.CurrentBlockHeight == nil {
		return Error(false, "Cannot resolve %q: the current block height was not provided.", id.Raw)
	}
	b := make([]byte, 4)
	putUint32LE(b, *data.CurrentBlockHeight)
	return Success(b)
}

// currentBlockTimeOperation resolves "current_block_time".
func currentBlockTimeOperation(id ParsedIdentifier, data CompilationData, _ CompilationEnvironment) CompilerOperationResult {
	if data.CurrentBlockTime == nil {
		return Error(false, "Cannot resolve %q: the current block time was not provided.", id.Raw)
	}
	b := make([]byte, 4)
	putUint32LE(b, *data.CurrentBlockTime)
	return Success(b)
}

// fullPreimagePrefix marks a signing-serialization identifier as a request
// for the raw, unhashed, unsigned preimage rather than a finished signature.
const fullPreimagePrefix = "full_"

// signingSerializationOperation resolves "signing_serialization.<name>".
// <name> is either one of the named components from spec §4.4 (returned raw
// or pre-hashed, as that section specifies) or "full_<algorithm>", which
// returns the entire preimage for the named algorithm with no hashing or
// signing — used for in-script signing-serialization inspection.
func signingSerializationOperation(id ParsedIdentifier, data CompilationData, _ CompilationEnvironment) CompilerOperationResult {
	name := id.Operation()
	if id.HasExtra() {
		return Error(false, "Unknown component in %q: %q.", id.Raw, id.Segments[3])
	}
	if name == "" || id.Parameter() != "" {
		return Error(false, "Signing serialization components must be of the form: \"signing_serialization.[component]\".")
	}

	if strings.HasPrefix(name, fullPreimagePrefix) {
		algName := strings.TrimPrefix(name, fullPreimagePrefix)
		alg, ok := ParseAlgorithm(algName)
		if !ok {
			return Error(false, "Unknown signing serialization algorithm, %q.", algName)
		}
		if data.OperationData == nil {
			return Error(false, "Cannot resolve %q: no transaction context was provided for this compilation.", id.Raw)
		}
		preimage, err := generateSigningSerializationBCH(data.OperationData, alg)
		if err != nil {
			return Error(false, "Cannot resolve %q: %s", id.Raw, err)
		}
		return Success(preimage)
	}

	if data.OperationData == nil {
		return Error(false, "Cannot resolve %q: no transaction context was provided for this compilation.", id.Raw)
	}

	// The component operations never need a specific algorithm except to
	// decide the SIGHASH-rule zeroing of the *_hash fields; outside of a
	// signature, the ALL algorithm's rules (nothing zeroed on the
	// input/sequence side) are the only sensible default.
	component, err := signingSerializationComponent(name, data.OperationData, AlgorithmAllOutputs)
	if err != nil {
		return Error(false, "Cannot resolve %q: %s", id.Raw, err)
	}
	return Success(component)
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// standardOperations builds the default OperationsTable: the common
// operations above, plus the Key/HdKey signing operations from
// operations_keys.go.
func standardOperations() OperationsTable {
	return OperationsTable{
		Key:         standardKeyOperations(),
		HdKey:       standardHdKeyOperations(),
		AddressData: addressDataOperation,
		WalletData:  walletDataOperation,
		SigningSerialization: map[string]CompilerOperation{
			// A single operation dispatches on the component name; every
			// "signing_serialization.*" identifier routes here, keyed by
			// the literal top-level name so the resolver's lookup by
			// segment 0 is uniform across all three special identifiers.
			signingSerializationPrefix: signingSerializationOperation,
			currentBlockHeightName:     currentBlockHeightOperation,
			currentBlockTimeName:       currentBlockTimeOperation,
		},
	}
}
