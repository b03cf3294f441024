package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	j "github.com/goccy/go-json"
	jsv "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed descriptor.schema.json
var descriptorSchema []byte

// Document is a loaded descriptor: the registry plus an optional root type.
type Document struct {
	Registry *Registry
	Root     Type
}

type descriptor struct {
	Root  string    `json:"root"`
	Types []typeDef `json:"types"`
}

type typeDef struct {
	Name    string          `json:"name"`
	Kind    string          `json:"kind"`
	Open    bool            `json:"open"`
	Fields  []fieldDef      `json:"fields"`
	Values  []string        `json:"values"`
	Aliases []aliasDef      `json:"aliases"`
	Type    string          `json:"type"`
	Checks  []constraintDef `json:"checks"`
	Asserts []constraintDef `json:"asserts"`
}

type fieldDef struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Alias    string          `json:"alias"`
	Optional bool            `json:"optional"`
	Checks   []constraintDef `json:"checks"`
	Asserts  []constraintDef `json:"asserts"`
}

type aliasDef struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type constraintDef struct {
	Name string `json:"name"`
	Expr string `json:"expr"`
}

var compiledDescriptor = sync.OnceValues(func() (*jsv.Schema, error) {
	var doc any
	if err := j.Unmarshal(descriptorSchema, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal descriptor schema: %w", err)
	}
	c := jsv.NewCompiler()
	if err := c.AddResource("descriptor.schema.json", doc); err != nil {
		return nil, fmt.Errorf("add descriptor schema: %w", err)
	}
	return c.Compile("descriptor.schema.json")
})

// LoadFile reads a YAML or JSON descriptor from disk.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := LoadYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// LoadYAML decodes a descriptor (YAML or JSON), checks its shape against the
// embedded descriptor schema, builds the registry and validates it.
func LoadYAML(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Msg: "decode descriptor: " + err.Error()}
	}
	// Round trip through JSON so the validator sees JSON-shaped values.
	normalized, err := j.Marshal(raw)
	if err != nil {
		return nil, &Error{Msg: "normalize descriptor: " + err.Error()}
	}
	var generic any
	if err := j.Unmarshal(normalized, &generic); err != nil {
		return nil, &Error{Msg: "normalize descriptor: " + err.Error()}
	}
	meta, err := compiledDescriptor()
	if err != nil {
		return nil, err
	}
	if err := meta.Validate(generic); err != nil {
		return nil, fmt.Errorf("schema: descriptor: %w", err)
	}
	var d descriptor
	if err := j.Unmarshal(normalized, &d); err != nil {
		return nil, &Error{Msg: "decode descriptor: " + err.Error()}
	}
	return d.build()
}

func (d descriptor) build() (*Document, error) {
	reg := NewRegistry()
	for _, td := range d.Types {
		t, err := td.build()
		if err != nil {
			return nil, err
		}
		if err := reg.Define(td.Name, t); err != nil {
			return nil, err
		}
	}
	doc := &Document{Registry: reg}
	if d.Root != "" {
		root, err := ParseType(d.Root)
		if err != nil {
			return nil, err
		}
		doc.Root = root
	}
	var roots []Type
	if doc.Root != nil {
		roots = append(roots, doc.Root)
	}
	if err := reg.Validate(roots...); err != nil {
		return nil, err
	}
	return doc, nil
}

func (td typeDef) build() (Type, error) {
	switch td.Kind {
	case "enum":
		e := &Enum{Name: td.Name, Values: td.Values}
		for _, a := range td.Aliases {
			e.Aliases = append(e.Aliases, Alias(a))
		}
		return e, nil
	case "alias":
		t, err := ParseType(td.Type)
		if err != nil {
			return nil, err
		}
		return constrain(t, td.Checks, td.Asserts), nil
	case "record":
		rec := &Record{Name: td.Name, Open: td.Open}
		for _, fd := range td.Fields {
			ft, err := ParseType(fd.Type)
			if err != nil {
				return nil, &Error{Where: td.Name + "." + fd.Name, Msg: err.Error()}
			}
			rec.Fields = append(rec.Fields, Field{
				Name:     fd.Name,
				Type:     constrain(ft, fd.Checks, fd.Asserts),
				Optional: fd.Optional,
				Alias:    fd.Alias,
			})
		}
		return constrain(rec, td.Checks, td.Asserts), nil
	}
	return nil, &Error{Where: td.Name, Msg: "unknown kind " + td.Kind}
}

func constrain(t Type, checks, asserts []constraintDef) Type {
	if len(checks) == 0 && len(asserts) == 0 {
		return t
	}
	c := &Constrained{Inner: t}
	for _, k := range checks {
		c.Constraints = append(c.Constraints, Constraint{Name: k.Name, Expression: k.Expr, Level: Check})
	}
	for _, k := range asserts {
		c.Constraints = append(c.Constraints, Constraint{Name: k.Name, Expression: k.Expr, Level: Assert})
	}
	return c
}
