// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

// AuthenticationTemplate is the caller-facing, serialization-agnostic
// template object: named entities (each owning a set of variables) and
// named scripts. Parsing an on-disk template file into this shape is a
// host concern, out of scope here (spec §1).
type AuthenticationTemplate struct {
	Entities map[EntityId]TemplateEntity
	Scripts  map[ScriptId]string
}

// TemplateEntity is one entity's variable set, keyed by variable id.
type TemplateEntity struct {
	Variables map[VariableId]Variable
}

// NewEnvironmentFromTemplate flattens an AuthenticationTemplate's entities
// and scripts into a CompilationEnvironment, with the standard operation
// dispatch table and opcode set already wired in (see NewEnvironment).
//
// Per spec §3/§9's Open Question, a variable id declared by more than one
// entity is resolved last-write-wins in template.Entities' iteration order;
// templates are assumed unambiguous; a validating caller should reject such
// templates before reaching this adapter.
func NewEnvironmentFromTemplate(tmpl AuthenticationTemplate) CompilationEnvironment {
	env := NewEnvironment()

	for entityId, entity := range tmpl.Entities {
		for variableId, variable := range entity.Variables {
			env.Variables[variableId] = variable
			env.EntityOwnership[variableId] = entityId
		}
	}

	for scriptId, source := range tmpl.Scripts {
		env.Scripts[scriptId] = Script{Id: scriptId, Source: source}
	}

	return env
}
