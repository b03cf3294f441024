// Package jsonschema holds the JSON Schema document produced by
// schema.JSONSchema. Only the keywords the projection emits are modeled.
package jsonschema

// Draft is the dialect emitted in Schema.Schema.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Schema is a JSON Schema node.
type Schema struct {
	Schema string `json:"$schema,omitempty"`
	Ref    string `json:"$ref,omitempty"`
	Title  string `json:"title,omitempty"`

	// Core
	Type  string `json:"type,omitempty"`
	Enum  []any  `json:"enum,omitempty"`
	Const any    `json:"const,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`
	PropertyNames        *Schema            `json:"propertyNames,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`

	// Union. Variants are tried in order, so anyOf rather than oneOf.
	AnyOf []*Schema `json:"anyOf,omitempty"`

	Defs map[string]*Schema `json:"$defs,omitempty"`
}

// DefRef returns the $ref pointer for a named definition.
func DefRef(name string) string { return "#/$defs/" + name }
