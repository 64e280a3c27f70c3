// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

// Resolve turns one identifier token from a script's source into bytecode,
// a Skip, or a classified error. It implements spec §4.3's grammar: special
// top-level names (signing_serialization.*, current_block_height,
// current_block_time) dispatch directly; everything else names a variable,
// whose category picks which operation-name table (Key, HdKey, AddressData,
// WalletData) resolves segment 1.
func Resolve(identifier string, data CompilationData, env CompilationEnvironment) CompilerOperationResult {
	parsed := ParseIdentifier(identifier)

	switch {
	case parsed.IsCurrentBlockHeight():
		return env.Operations.SigningSerialization[currentBlockHeightName](parsed, data, env)
	case parsed.IsCurrentBlockTime():
		return env.Operations.SigningSerialization[currentBlockTimeName](parsed, data, env)
	case parsed.IsSigningSerialization():
		return env.Operations.SigningSerialization[signingSerializationPrefix](parsed, data, env)
	}

	v, ok := env.Variables[parsed.VariableId()]
	if !ok {
		return Error(false, "Cannot resolve %q: no script, wallet data, address data, or key with this id exists in the current compilation environment.", identifier)
	}

	switch v.Category() {
	case CategoryKey:
		return dispatchKeyOperation(parsed, data, env, env.Operations.Key)
	case CategoryHdKey:
		return dispatchKeyOperation(parsed, data, env, env.Operations.HdKey)
	case CategoryAddressData:
		return dispatchDataOperation(parsed, data, env, env.Operations.AddressData)
	case CategoryWalletData:
		return dispatchDataOperation(parsed, data, env, env.Operations.WalletData)
	default:
		return Error(false, "Cannot resolve %q: unrecognized variable category.", identifier)
	}
}

func dispatchKeyOperation(id ParsedIdentifier, data CompilationData, env CompilationEnvironment, table KeyOperations) CompilerOperationResult {
	opName := id.Operation()
	if opName == "" {
		return Error(false, "Cannot resolve %q: a key identifier must name an operation, e.g. \"%s.public_key\".", id.Raw, id.VariableId())
	}
	op, ok := table[opName]
	if !ok {
		return Error(false, "Cannot resolve %q: unknown key operation %q.", id.Raw, opName)
	}
	return op(id, data, env)
}

func dispatchDataOperation(id ParsedIdentifier, data CompilationData, env CompilationEnvironment, op CompilerOperation) CompilerOperationResult {
	if len(id.Segments) > 1 {
		return Error(false, "Cannot resolve %q: unknown component %q — address data and wallet data identifiers take no operation.", id.Raw, id.Segments[1])
	}
	return op(id, data, env)
}
