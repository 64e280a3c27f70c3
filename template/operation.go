// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

// CompilerOperation resolves one parsed identifier into bytecode, a Skip,
// or a classified error. It is the single capability every concrete
// operation, and every combinator that builds on one, implements.
type CompilerOperation func(id ParsedIdentifier, data CompilationData, env CompilationEnvironment) CompilerOperationResult

// Prerequisite names one property Requires must find present before running
// its wrapped operation, and how to check for it.
type Prerequisite struct {
	// Name appears in the "missing property" error message.
	Name string

	// Present reports whether this prerequisite is satisfied by data/env.
	Present func(data CompilationData, env CompilationEnvironment) bool
}

// RequiresConfig configures Requires.
type RequiresConfig struct {
	// CanBeSkipped turns a missing prerequisite into a Skip instead of a
	// non-recoverable error. Used when a later AttemptChain step is the
	// authoritative fallback.
	CanBeSkipped bool

	// Properties are checked in order; the first absent one determines
	// the error (or Skip).
	Properties []Prerequisite

	// Operation runs once every prerequisite is satisfied.
	Operation CompilerOperation
}

// Requires wraps cfg.Operation with a prerequisite check: every property in
// cfg.Properties must be present on the supplied data and environment
// before cfg.Operation runs. A missing property yields a Skip (if
// CanBeSkipped) or a non-recoverable error naming the property — either way,
// cfg.Operation's body never executes.
func Requires(cfg RequiresConfig) CompilerOperation {
	return func(id ParsedIdentifier, data CompilationData, env CompilationEnvironment) CompilerOperationResult {
		for _, p := range cfg.Properties {
			if p.Present(data, env) {
				continue
			}
			if cfg.CanBeSkipped {
				return Skip()
			}
			return Error(false, "Cannot resolve %q: missing required property %q.", id.Raw, p.Name)
		}
		return cfg.Operation(id, data, env)
	}
}

// AttemptChain invokes operations in order and commits to the first
// decisive result: a Success returns immediately; a Skip or a recoverable
// Error advances to the next operation; a non-recoverable Error aborts the
// chain immediately. If every operation skips or recoverably errors, the
// chain returns the last error seen, or a synthesized "no operation
// produced a result" error if every operation only skipped.
func AttemptChain(ops ...CompilerOperation) CompilerOperation {
	return func(id ParsedIdentifier, data CompilationData, env CompilationEnvironment) CompilerOperationResult {
		var lastError *CompilerOperationResult
		for _, op := range ops {
			result := op(id, data, env)
			switch {
			case result.IsSuccess():
				return result
			case result.IsSkip():
				continue
			case result.Recoverable():
				r := result
				lastError = &r
			default:
				return result
			}
		}
		if lastError != nil {
			return *lastError
		}
		return Error(false, "No operation produced a result for %q.", id.Raw)
	}
}
