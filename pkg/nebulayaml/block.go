// Package nebulayaml provides the YAML emission primitives specific to
// Nebula's whitespace-sensitive configuration format: PEM values must be
// rendered as block scalars so embedded newlines survive byte-for-byte.
//
// This is the statically-typed realization of the "polymorphic config
// value (path string OR inline PEM block)" re-architecture note: Block
// always renders as an inline `|` scalar, while a plain string path is
// just a string — callers choose which to put in a struct field instead
// of relying on a dynamic union.
package nebulayaml

import "gopkg.in/yaml.v3"

// Block is a string that always marshals as a YAML literal block scalar
// (the `|` style), matching the `LiteralStr` + custom representer trick
// used to force PEM blocks to survive round-tripping without
// reformatting.
type Block string

var _ yaml.Marshaler = Block("")

// MarshalYAML implements yaml.Marshaler by returning a yaml.Node tagged
// with the literal block style.
func (b Block) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Value: string(b),
		Style: yaml.LiteralStyle,
	}, nil
}
