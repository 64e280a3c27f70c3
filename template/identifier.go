// Copyright (c) 2025 Shell Reserve developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package template

import "strings"

// Well-known top-level identifiers that are never variable references.
const (
	signingSerializationPrefix = "signing_serialization"
	currentBlockHeightName     = "current_block_height"
	currentBlockTimeName       = "current_block_time"
)

// Key/HdKey operation names selectable by an identifier's second segment.
const (
	OpPublicKey            = "public_key"
	OpSignature            = "signature"
	OpSchnorrSignature     = "schnorr_signature"
	OpDataSignature        = "data_signature"
	OpSchnorrDataSignature = "schnorr_data_signature"
)

// ParsedIdentifier is a strongly-typed, positional view of a dot-separated
// identifier token, as described in spec §4.3: segment 0 names a variable
// (or a special top-level name), segment 1 names an operation, segment 2 is
// the algorithm or target script id, and segment 3 must be absent.
type ParsedIdentifier struct {
	Raw      string
	Segments []string
}

// ParseIdentifier splits raw on "." into its positional segments. It never
// fails: malformed arity is a property of the segment count, which callers
// inspect with Operation, Parameter, and HasExtra.
func ParseIdentifier(raw string) ParsedIdentifier {
	return ParsedIdentifier{Raw: raw, Segments: strings.Split(raw, ".")}
}

func (p ParsedIdentifier) segment(i int) string {
	if i < len(p.Segments) {
		return p.Segments[i]
	}
	return ""
}

// VariableId is segment 0, interpreted as a variable reference.
func (p ParsedIdentifier) VariableId() VariableId { return VariableId(p.Segments[0]) }

// Operation is segment 1: the operation name for a Key/HdKey identifier, or
// the signing-serialization component name for a "signing_serialization.*"
// identifier. Empty if absent.
func (p ParsedIdentifier) Operation() string { return p.segment(1) }

// Parameter is segment 2: a signature's algorithm identifier, or a data
// signature's target script id. Empty if absent.
func (p ParsedIdentifier) Parameter() string { return p.segment(2) }

// HasExtra reports whether a segment 3 or beyond is present; its presence is
// always a "Unknown component" error.
func (p ParsedIdentifier) HasExtra() bool { return len(p.Segments) > 3 }

// IsSigningSerialization reports whether this identifier names
// "signing_serialization.<component>".
func (p ParsedIdentifier) IsSigningSerialization() bool {
	return p.segment(0) == signingSerializationPrefix
}

// IsCurrentBlockHeight reports whether this identifier is exactly
// "current_block_height".
func (p ParsedIdentifier) IsCurrentBlockHeight() bool {
	return len(p.Segments) == 1 && p.Segments[0] == currentBlockHeightName
}

// IsCurrentBlockTime reports whether this identifier is exactly
// "current_block_time".
func (p ParsedIdentifier) IsCurrentBlockTime() bool {
	return len(p.Segments) == 1 && p.Segments[0] == currentBlockTimeName
}
