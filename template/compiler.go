// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

import "fmt"

// ErrorType classifies which phase of compilation a Result's errors came
// from, per spec §6.
type ErrorType string

const (
	ErrorTypeParse   ErrorType = "parse"
	ErrorTypeResolve ErrorType = "resolve"
	ErrorTypeReduce  ErrorType = "reduce"
)

// SourceRange locates a diagnostic within a script's source text.
type SourceRange struct {
	StartLine, StartColumn int
	EndLine, EndColumn     int
}

// CompileError is one entry in a failed Result's Errors slice.
type CompileError struct {
	Error string
	Range SourceRange
}

// Result is what GenerateBytecode returns in non-debug mode: either
// finished bytecode, or a classified, source-range-annotated error list. A
// single fatal identifier never aborts resolution of the others in the same
// script — every identifier is attempted and every failure collected.
type Result struct {
	Success   bool
	Bytecode  []byte
	ErrorType ErrorType
	Errors    []CompileError
}

// TraceEntry records one resolved identifier's outcome, for debug-mode
// compilation (spec §4.6/§9's "full trace object").
type TraceEntry struct {
	Identifier string
	Range      SourceRange
	Result     CompilerOperationResult
}

// CompilationTrace is the debug-mode return value: the same Result a normal
// compile would produce, plus every identifier resolution that contributed
// to it.
type CompilationTrace struct {
	Result  Result
	Entries []TraceEntry
}

// IdentifierResolver is the callback an external ScriptCompiler invokes once
// per identifier token it encounters; it is Resolve, bound to one
// CompilationEnvironment and CompilationData pair.
type IdentifierResolver func(identifier string) CompilerOperationResult

// ScriptCompiler is the external, out-of-scope collaborator that tokenizes
// and parses a script's source, asks the resolver to turn each identifier
// into bytecode, and assembles the pushes/opcodes/resolved bytes into a
// final Result — annotating every diagnostic with its source range and
// recording a trace entry per identifier it resolves.
type ScriptCompiler interface {
	CompileScript(scriptId ScriptId, resolve IdentifierResolver) CompileOutcome
}

// CompileOutcome is what a ScriptCompiler returns: the Result plus every
// identifier it resolved along the way, so GenerateBytecode can build a
// CompilationTrace without re-running anything.
type CompileOutcome struct {
	Result  Result
	Entries []TraceEntry
}

// Compiler is the compiler façade: a CompilationEnvironment plus the
// external ScriptCompiler that tokenizes/parses/assembles scripts.
type Compiler struct {
	Environment    CompilationEnvironment
	ScriptCompiler ScriptCompiler
}

// NewCompiler builds a Compiler, wiring data_signature/schnorr_data_signature
// operations into env's dispatch table (they need the ScriptCompiler to
// compile their target script) wherever the caller has not already supplied
// a custom one.
func NewCompiler(env CompilationEnvironment, scriptCompiler ScriptCompiler) *Compiler {
	c := &Compiler{ScriptCompiler: scriptCompiler}
	wireDataSignatureOperations(&env, compilerAsScriptCompiler{c})
	c.Environment = env
	return c
}

// compilerAsScriptCompiler adapts the rich ScriptCompiler (used by
// GenerateBytecode) to the narrow bytes-or-error shape a data signature's
// computation needs: it runs the target script non-debug and joins any
// diagnostics into a single error. It reads the Compiler's ScriptCompiler
// field on every call, so a replacement assigned after NewCompiler is used.
type compilerAsScriptCompiler struct {
	inner *Compiler
}

func (c compilerAsScriptCompiler) Compile(id ScriptId, data CompilationData, env CompilationEnvironment) ([]byte, error) {
	resolve := func(identifier string) CompilerOperationResult {
		return Resolve(identifier, data, env)
	}
	outcome := c.inner.ScriptCompiler.CompileScript(id, resolve)
	if !outcome.Result.Success {
		if len(outcome.Result.Errors) == 0 {
			return nil, fmt.Errorf("failed to compile target script %q", id)
		}
		return nil, fmt.Errorf("failed to compile target script %q: %s", id, outcome.Result.Errors[0].Error)
	}
	return outcome.Result.Bytecode, nil
}

func wireDataSignatureOperations(env *CompilationEnvironment, compiler dataSignatureCompiler) {
	if env.Operations.Key == nil {
		env.Operations.Key = KeyOperations{}
	}
	if env.Operations.HdKey == nil {
		env.Operations.HdKey = KeyOperations{}
	}
	if _, ok := env.Operations.Key[OpDataSignature]; !ok {
		env.Operations.Key[OpDataSignature] = dataSignatureOperation(compiler, false)
	}
	if _, ok := env.Operations.Key[OpSchnorrDataSignature]; !ok {
		env.Operations.Key[OpSchnorrDataSignature] = dataSignatureOperation(compiler, true)
	}
	if _, ok := env.Operations.HdKey[OpDataSignature]; !ok {
		env.Operations.HdKey[OpDataSignature] = dataSignatureOperation(compiler, false)
	}
	if _, ok := env.Operations.HdKey[OpSchnorrDataSignature]; !ok {
		env.Operations.HdKey[OpSchnorrDataSignature] = dataSignatureOperation(compiler, true)
	}
}

// GenerateBytecode invokes the external ScriptCompiler for scriptId,
// returning finished bytecode or a structured, classified error. In debug
// mode, it also returns the full resolution trace.
func (c *Compiler) GenerateBytecode(scriptId ScriptId, data CompilationData, debug bool) (Result, *CompilationTrace) {
	resolve := func(identifier string) CompilerOperationResult {
		return Resolve(identifier, data, c.Environment)
	}

	outcome := c.ScriptCompiler.CompileScript(scriptId, resolve)
	if !debug {
		return outcome.Result, nil
	}
	return outcome.Result, &CompilationTrace{Result: outcome.Result, Entries: outcome.Entries}
}
