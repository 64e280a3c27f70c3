// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

import "strings"

// present is a small constructor for the common "is this map entry there"
// shape of Prerequisite.Present, used throughout this file.
func present(name string, check func(data CompilationData, env CompilationEnvironment) bool) Prerequisite {
	return Prerequisite{Name: name, Present: check}
}

func hasSecp256k1(_ CompilationData, env CompilationEnvironment) bool { return env.Secp256k1 != nil }
func hasSHA256(_ CompilationData, env CompilationEnvironment) bool    { return env.SHA256 != nil }
func hasSHA512(_ CompilationData, env CompilationEnvironment) bool    { return env.SHA512 != nil }
func hasRIPEMD160(_ CompilationData, env CompilationEnvironment) bool { return env.RIPEMD160 != nil }
func hasHDKeyUtil(_ CompilationData, env CompilationEnvironment) bool { return env.HDKeyUtil != nil }
func hasVariables(_ CompilationData, env CompilationEnvironment) bool { return env.Variables != nil }
func hasEntityOwnership(_ CompilationData, env CompilationEnvironment) bool {
	return env.EntityOwnership != nil
}
func hasAddressIndex(data CompilationData, _ CompilationEnvironment) bool {
	return data.HdKeys != nil && data.HdKeys.AddressIndex != nil
}
func hasOperationData(data CompilationData, _ CompilationEnvironment) bool {
	return data.OperationData != nil
}

func hasPrivateKey(id ParsedIdentifier) Prerequisite {
	return present("keys.privateKeys", func(data CompilationData, _ CompilationEnvironment) bool {
		return data.Keys != nil && data.Keys.PrivateKeys[id.VariableId()] != nil
	})
}

func hasPublicKeyData(id ParsedIdentifier) Prerequisite {
	return present("keys.publicKeys", func(data CompilationData, _ CompilationEnvironment) bool {
		return data.Keys != nil && data.Keys.PublicKeys[id.VariableId()] != nil
	})
}

func hasDerivedPublicKey(id ParsedIdentifier) Prerequisite {
	return present("hdKeys.derivedPublicKeys", func(data CompilationData, _ CompilationEnvironment) bool {
		return data.HdKeys != nil && data.HdKeys.DerivedPublicKeys[id.VariableId()] != nil
	})
}

func hasHdPrivateKey(entity EntityId) Prerequisite {
	return present("hdKeys.hdPrivateKeys", func(data CompilationData, _ CompilationEnvironment) bool {
		if data.HdKeys == nil {
			return false
		}
		_, ok := data.HdKeys.HdPrivateKeys[entity]
		return ok
	})
}

func hasHdPublicKey(entity EntityId) Prerequisite {
	return present("hdKeys.hdPublicKeys", func(data CompilationData, _ CompilationEnvironment) bool {
		if data.HdKeys == nil {
			return false
		}
		_, ok := data.HdKeys.HdPublicKeys[entity]
		return ok
	})
}

func hasPrecomputedSignature(store func(data CompilationData) map[string][]byte) func(ParsedIdentifier) Prerequisite {
	return func(id ParsedIdentifier) Prerequisite {
		return present("signature", func(data CompilationData, _ CompilationEnvironment) bool {
			m := store(data)
			return m != nil && m[id.Raw] != nil
		})
	}
}

func keySignatureStore(data CompilationData) map[string][]byte {
	if data.Keys == nil {
		return nil
	}
	return data.Keys.Signatures
}

func hdKeySignatureStore(data CompilationData) map[string][]byte {
	if data.HdKeys == nil {
		return nil
	}
	return data.HdKeys.Signatures
}

// instancePath substitutes the "i" placeholder in path with the
// invocation's address index (plus the variable's AddressOffset), per spec
// §4.5 / §9: "the instance path uses i = addressIndex + addressOffset".
func instancePath(path string, addressIndex, addressOffset uint32) string {
	instance := addressIndex + addressOffset
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "i" {
			segments[i] = uintToDecimal(instance)
		}
	}
	return strings.Join(segments, "/")
}

func uintToDecimal(v uint32) string {
	if v == 0 {
		return "0"
	}
	var digits [10]byte
	n := len(digits)
	for v > 0 {
		n--
		digits[n] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[n:])
}

// publicDerivationPathFor returns the HdKey variable's public derivation
// path, defaulting from its private path by swapping a leading "m" for "M"
// when PublicDerivationPath is empty.
func publicDerivationPathFor(hd HdKey) string {
	if hd.PublicDerivationPath != "" {
		return hd.PublicDerivationPath
	}
	if strings.HasPrefix(hd.PrivateDerivationPath, "m") {
		return "M" + strings.TrimPrefix(hd.PrivateDerivationPath, "m")
	}
	return hd.PrivateDerivationPath
}

func lookupHdKeyVariable(id ParsedIdentifier, env CompilationEnvironment) (HdKey, CompilerOperationResult, bool) {
	v, ok := env.Variables[id.VariableId()]
	if !ok {
		return HdKey{}, Error(false, "Cannot resolve %q: unknown variable.", id.Raw), false
	}
	hd, ok := v.(HdKey)
	if !ok {
		return HdKey{}, Error(false, "Cannot resolve %q: %q is not an HD key.", id.Raw, id.VariableId()), false
	}
	return hd, CompilerOperationResult{}, true
}

// derivedHdPublicKey implements spec §4.5's HdKey public_key derivation: it
// prefers the entity's HdPrivateKeys (deriving the private node, then its
// public key) and otherwise derives from HdPublicKeys along the variable's
// public path.
func derivedHdPublicKey(id ParsedIdentifier, data CompilationData, env CompilationEnvironment) CompilerOperationResult {
	hd, errResult, ok := lookupHdKeyVariable(id, env)
	if !ok {
		return errResult
	}
	entity, ok := env.EntityOwnership[id.VariableId()]
	if !ok {
		return Error(false, "Cannot resolve %q: no entity owns this variable.", id.Raw)
	}
	addressIndex := *data.HdKeys.AddressIndex

	if serialized, ok := data.HdKeys.HdPrivateKeys[entity]; ok {
		root, err := env.HDKeyUtil.DecodeHdPrivateKey(serialized)
		if err != nil {
			return Error(false, "Cannot resolve %q: %s", id.Raw, err)
		}
		path := instancePath(hd.PrivateDerivationPath, addressIndex, hd.AddressOffset)
		node, err := env.HDKeyUtil.DeriveHdPath(root, path)
		if err != nil {
			return Error(false, "Cannot resolve %q: %s", id.Raw, err)
		}
		pub, err := node.PublicKeyCompressed()
		if err != nil {
			return Error(false, "Cannot resolve %q: %s", id.Raw, err)
		}
		return Success(pub)
	}

	if serialized, ok := data.HdKeys.HdPublicKeys[entity]; ok {
		root, err := env.HDKeyUtil.DecodeHdPublicKey(serialized)
		if err != nil {
			return Error(false, "Cannot resolve %q: %s", id.Raw, err)
		}
		path := instancePath(publicDerivationPathFor(hd), addressIndex, hd.AddressOffset)
		node, err := env.HDKeyUtil.DeriveHdPath(root, path)
		if err != nil {
			return Error(false, "Cannot resolve %q: %s", id.Raw, err)
		}
		pub, err := node.PublicKeyCompressed()
		if err != nil {
			return Error(false, "Cannot resolve %q: %s", id.Raw, err)
		}
		return Success(pub)
	}

	return Error(true, "Cannot resolve %q: no HD private or public key was provided for entity %q.", id.Raw, entity)
}

// hdPrivateKeyBytes derives the 32-byte private key for an HdKey variable,
// the prerequisite both signature and data-signature computation need. Only
// the entity's HdPrivateKeys can produce one; a missing one is recoverable
// since a precomputed signature may still satisfy the request.
func hdPrivateKeyBytes(id ParsedIdentifier, data CompilationData, env CompilationEnvironment) ([]byte, *CompilerOperationResult) {
	if env.HDKeyUtil == nil {
		e := Error(false, "Cannot resolve %q: missing required property %q.", id.Raw, "hdKeyUtil")
		return nil, &e
	}
	hd, errResult, ok := lookupHdKeyVariable(id, env)
	if !ok {
		return nil, &errResult
	}
	entity, ok := env.EntityOwnership[id.VariableId()]
	if !ok {
		e := Error(false, "Cannot resolve %q: no entity owns this variable.", id.Raw)
		return nil, &e
	}
	serialized, ok := data.HdKeys.HdPrivateKeys[entity]
	if !ok {
		e := Error(true, "Cannot resolve %q: no HD private key was provided for entity %q.", id.Raw, entity)
		return nil, &e
	}
	root, err := env.HDKeyUtil.DecodeHdPrivateKey(serialized)
	if err != nil {
		e := Error(false, "Cannot resolve %q: %s", id.Raw, err)
		return nil, &e
	}
	addressIndex := *data.HdKeys.AddressIndex
	path := instancePath(hd.PrivateDerivationPath, addressIndex, hd.AddressOffset)
	node, err := env.HDKeyUtil.DeriveHdPath(root, path)
	if err != nil {
		e := Error(false, "Cannot resolve %q: %s", id.Raw, err)
		return nil, &e
	}
	priv, err := node.PrivateKeyBytes()
	if err != nil {
		e := Error(false, "Cannot resolve %q: %s", id.Raw, err)
		return nil, &e
	}
	return priv, nil
}

// --- public_key --------------------------------------------------------

func precomputedPublicKeyOperation(category VariableCategory) CompilerOperation {
	return func(id ParsedIdentifier, data CompilationData, env CompilationEnvironment) CompilerOperationResult {
		if data.Keys != nil && data.Keys.PublicKeys[id.VariableId()] != nil {
			return Success(data.Keys.PublicKeys[id.VariableId()])
		}
		if category == CategoryHdKey && data.HdKeys != nil && data.HdKeys.DerivedPublicKeys[id.VariableId()] != nil {
			return Success(data.HdKeys.DerivedPublicKeys[id.VariableId()])
		}
		return Skip()
	}
}

func derivedKeyPublicKeyOperation(id ParsedIdentifier, data CompilationData, env CompilationEnvironment) CompilerOperationResult {
	priv := data.Keys.PrivateKeys[id.VariableId()]
	pub, err := env.Secp256k1.DerivePublicKeyCompressed(priv)
	if err != nil {
		return Error(false, "Cannot resolve %q: %s", id.Raw, err)
	}
	return Success(pub)
}

func publicKeyOperation(id ParsedIdentifier, data CompilationData, env CompilationEnvironment) CompilerOperationResult {
	if id.HasExtra() {
		return Error(false, "Unknown component in %q: %q.", id.Raw, id.Segments[3])
	}
	if id.Parameter() != "" {
		return Error(false, "Public keys must be of the form: \"[variable_id].public_key\".")
	}

	v, ok := env.Variables[id.VariableId()]
	if !ok {
		return Error(false, "Cannot resolve %q: unknown variable.", id.Raw)
	}

	switch v.Category() {
	case CategoryKey:
		return AttemptChain(
			precomputedPublicKeyOperation(CategoryKey),
			Requires(RequiresConfig{
				Properties: []Prerequisite{hasPrivateKey(id), present("secp256k1", hasSecp256k1)},
				Operation:  derivedKeyPublicKeyOperation,
			}),
		)(id, data, env)
	case CategoryHdKey:
		return AttemptChain(
			precomputedPublicKeyOperation(CategoryHdKey),
			Requires(RequiresConfig{
				Properties: []Prerequisite{
					present("entityOwnership", hasEntityOwnership),
					present("secp256k1", hasSecp256k1),
					present("sha256", hasSHA256),
					present("sha512", hasSHA512),
					present("ripemd160", hasRIPEMD160),
					present("variables", hasVariables),
					present("hdKeys.addressIndex", hasAddressIndex),
					present("hdKeyUtil", hasHDKeyUtil),
				},
				Operation: derivedHdPublicKey,
			}),
		)(id, data, env)
	default:
		return Error(false, "Cannot resolve %q: %q does not hold a key.", id.Raw, id.VariableId())
	}
}

// --- signature / schnorr_signature -------------------------------------

func signatureOperation(schnorrVariant bool) CompilerOperation {
	opName := OpSignature
	if schnorrVariant {
		opName = OpSchnorrSignature
	}

	return func(id ParsedIdentifier, data CompilationData, env CompilationEnvironment) CompilerOperationResult {
		if id.HasExtra() {
			return Error(false, "Unknown component in %q: %q.", id.Raw, id.Segments[3])
		}
		if id.Parameter() == "" {
			return Error(false, "Signatures must be of the form: \"[variable_id].%s.[signing_serialization_type]\".", opName)
		}
		alg, ok := ParseAlgorithm(id.Parameter())
		if !ok {
			return Error(false, "Unknown signing serialization algorithm, %q.", id.Parameter())
		}

		v, ok := env.Variables[id.VariableId()]
		if !ok {
			return Error(false, "Cannot resolve %q: unknown variable.", id.Raw)
		}

		precomputedStore := keySignatureStore
		if v.Category() == CategoryHdKey {
			precomputedStore = hdKeySignatureStore
		}

		precomputed := Requires(RequiresConfig{
			CanBeSkipped: true,
			Properties:   []Prerequisite{hasPrecomputedSignature(precomputedStore)(id)},
			Operation: func(id ParsedIdentifier, data CompilationData, _ CompilationEnvironment) CompilerOperationResult {
				return Success(precomputedStore(data)[id.Raw])
			},
		})

		computed := func(id ParsedIdentifier, data CompilationData, env CompilationEnvironment) CompilerOperationResult {
			return computeSignature(id, data, env, v.Category(), alg, schnorrVariant)
		}

		return AttemptChain(precomputed, computed)(id, data, env)
	}
}

func computeSignature(id ParsedIdentifier, data CompilationData, env CompilationEnvironment, category VariableCategory, alg Algorithm, schnorrVariant bool) CompilerOperationResult {
	if env.Secp256k1 == nil {
		return Error(false, "Cannot resolve %q: missing required property %q.", id.Raw, "secp256k1")
	}
	if data.OperationData == nil {
		return Error(false, "Cannot resolve %q: missing required property %q.", id.Raw, "operationData")
	}

	var priv []byte
	switch category {
	case CategoryKey:
		if data.Keys == nil || data.Keys.PrivateKeys[id.VariableId()] == nil {
			return Error(true, "Cannot resolve %q: no private key was provided.", id.Raw)
		}
		priv = data.Keys.PrivateKeys[id.VariableId()]
	case CategoryHdKey:
		if data.HdKeys == nil || data.HdKeys.AddressIndex == nil {
			return Error(true, "Cannot resolve %q: no HD address index was provided.", id.Raw)
		}
		bytes, errResult := hdPrivateKeyBytes(id, data, env)
		if errResult != nil {
			return *errResult
		}
		priv = bytes
	default:
		return Error(false, "Cannot resolve %q: %q does not hold a key.", id.Raw, id.VariableId())
	}

	preimage, err := generateSigningSerializationBCH(data.OperationData, alg)
	if err != nil {
		return Error(false, "Cannot resolve %q: %s", id.Raw, err)
	}
	digest := doubleSHA256(preimage)

	var sig []byte
	if schnorrVariant {
		sig, err = env.Secp256k1.SignMessageHashSchnorr(priv, digest)
	} else {
		sig, err = env.Secp256k1.SignMessageHashDER(priv, digest)
	}
	if err != nil {
		return Error(false, "Cannot resolve %q: %s", id.Raw, err)
	}

	return Success(append(sig, alg.SigHashByte()))
}

// --- data_signature / schnorr_data_signature -----------------------------

// dataSignatureCompiler is the narrow view a data signature needs of the
// external script compiler: compile the target script, or fail. It is
// implemented by compilerAsScriptCompiler, adapting the richer
// ScriptCompiler interface GenerateBytecode uses.
type dataSignatureCompiler interface {
	Compile(id ScriptId, data CompilationData, env CompilationEnvironment) ([]byte, error)
}

func dataSignatureOperation(compiler dataSignatureCompiler, schnorrVariant bool) CompilerOperation {
	opName := OpDataSignature
	if schnorrVariant {
		opName = OpSchnorrDataSignature
	}

	return func(id ParsedIdentifier, data CompilationData, env CompilationEnvironment) CompilerOperationResult {
		if id.HasExtra() {
			return Error(false, "Unknown component in %q: %q.", id.Raw, id.Segments[3])
		}
		if id.Parameter() == "" {
			return Error(false, "Data signatures must be of the form: \"[variable_id].%s.[target_script_id]\".", opName)
		}
		targetScript := ScriptId(id.Parameter())
		if _, ok := env.Scripts[targetScript]; !ok {
			return Error(false, "Data signature tried to sign an unknown target script, %q.", targetScript)
		}

		v, ok := env.Variables[id.VariableId()]
		if !ok {
			return Error(false, "Cannot resolve %q: unknown variable.", id.Raw)
		}

		precomputedStore := keySignatureStore
		if v.Category() == CategoryHdKey {
			precomputedStore = hdKeySignatureStore
		}

		precomputed := Requires(RequiresConfig{
			CanBeSkipped: true,
			Properties:   []Prerequisite{hasPrecomputedSignature(precomputedStore)(id)},
			Operation: func(id ParsedIdentifier, data CompilationData, _ CompilationEnvironment) CompilerOperationResult {
				return Success(precomputedStore(data)[id.Raw])
			},
		})

		computed := func(id ParsedIdentifier, data CompilationData, env CompilationEnvironment) CompilerOperationResult {
			return computeDataSignature(id, data, env, v.Category(), targetScript, compiler, schnorrVariant)
		}

		return AttemptChain(precomputed, computed)(id, data, env)
	}
}

func computeDataSignature(id ParsedIdentifier, data CompilationData, env CompilationEnvironment, category VariableCategory, targetScript ScriptId, compiler dataSignatureCompiler, schnorrVariant bool) CompilerOperationResult {
	if env.Secp256k1 == nil {
		return Error(false, "Cannot resolve %q: missing required property %q.", id.Raw, "secp256k1")
	}
	if env.SHA256 == nil {
		return Error(false, "Cannot resolve %q: missing required property %q.", id.Raw, "sha256")
	}

	var priv []byte
	switch category {
	case CategoryKey:
		if data.Keys == nil || data.Keys.PrivateKeys[id.VariableId()] == nil {
			return Error(true, "Cannot resolve %q: no private key was provided.", id.Raw)
		}
		priv = data.Keys.PrivateKeys[id.VariableId()]
	case CategoryHdKey:
		if data.HdKeys == nil || data.HdKeys.AddressIndex == nil {
			return Error(true, "Cannot resolve %q: no HD address index was provided.", id.Raw)
		}
		bytes, errResult := hdPrivateKeyBytes(id, data, env)
		if errResult != nil {
			return *errResult
		}
		priv = bytes
	default:
		return Error(false, "Cannot resolve %q: %q does not hold a key.", id.Raw, id.VariableId())
	}

	targetBytecode, err := compiler.Compile(targetScript, data, env)
	if err != nil {
		return Error(false, "Cannot resolve %q: %s", id.Raw, err)
	}
	digest := env.SHA256.Sum(targetBytecode)

	var sig []byte
	if schnorrVariant {
		sig, err = env.Secp256k1.SignMessageHashSchnorr(priv, digest)
	} else {
		sig, err = env.Secp256k1.SignMessageHashDER(priv, digest)
	}
	if err != nil {
		return Error(false, "Cannot resolve %q: %s", id.Raw, err)
	}

	return Success(sig)
}

// standardKeyOperations and standardHdKeyOperations build the Key/HdKey
// portions of the default OperationsTable. Both categories share the same
// operation names; dataSignatureOperation needs a ScriptCompiler, so the two
// data-signature entries are left out here and filled in by NewCompiler.
func standardKeyOperations() KeyOperations {
	return KeyOperations{
		OpPublicKey:        publicKeyOperation,
		OpSignature:        signatureOperation(false),
		OpSchnorrSignature: signatureOperation(true),
	}
}

func standardHdKeyOperations() KeyOperations {
	return KeyOperations{
		OpPublicKey:        publicKeyOperation,
		OpSignature:        signatureOperation(false),
		OpSchnorrSignature: signatureOperation(true),
	}
}
