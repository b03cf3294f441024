package schema

import (
	"github.com/reoring/jsonish/jsonschema"
)

// JSONSchema projects root into a JSON Schema document. Named records and
// enums become $defs entries; constraints have no JSON Schema equivalent and
// are omitted.
func JSONSchema(reg *Registry, root Type) (*jsonschema.Schema, error) {
	if err := reg.Validate(root); err != nil {
		return nil, err
	}
	p := &projector{reg: reg, defs: map[string]*jsonschema.Schema{}}
	out := p.project(root)
	out.Schema = jsonschema.Draft
	if len(p.defs) > 0 {
		out.Defs = p.defs
	}
	return out, nil
}

type projector struct {
	reg  *Registry
	defs map[string]*jsonschema.Schema
}

func (p *projector) define(name string, build func() *jsonschema.Schema) *jsonschema.Schema {
	if _, ok := p.defs[name]; !ok {
		// placeholder first so recursive references terminate
		p.defs[name] = &jsonschema.Schema{}
		*p.defs[name] = *build()
	}
	return &jsonschema.Schema{Ref: jsonschema.DefRef(name)}
}

func (p *projector) project(t Type) *jsonschema.Schema {
	switch x := t.(type) {
	case *Scalar:
		return &jsonschema.Schema{Type: scalarType(x.Of)}
	case *Literal:
		return &jsonschema.Schema{Const: x.Value}
	case *Enum:
		return p.define(x.Name, func() *jsonschema.Schema {
			s := &jsonschema.Schema{Title: x.Name, Type: "string"}
			for _, v := range x.Values {
				s.Enum = append(s.Enum, v)
			}
			return s
		})
	case *Record:
		return p.define(x.Name, func() *jsonschema.Schema { return p.record(x) })
	case *List:
		return &jsonschema.Schema{Type: "array", Items: p.project(x.Elem)}
	case *Map:
		s := &jsonschema.Schema{Type: "object", AdditionalProperties: p.project(x.Value)}
		if k, ok := x.Key.(*Scalar); !ok || k.Of != String {
			s.PropertyNames = p.project(x.Key)
		}
		return s
	case *Union:
		s := &jsonschema.Schema{}
		for _, v := range x.Variants {
			s.AnyOf = append(s.AnyOf, p.project(v))
		}
		return s
	case *Optional:
		return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{p.project(x.Inner), {Type: "null"}}}
	case *Ref:
		target, _ := p.reg.Lookup(x.Name)
		if nameOf(target) == x.Name {
			// records and enums define themselves under their own name
			return p.project(target)
		}
		return p.define(x.Name, func() *jsonschema.Schema { return p.project(target) })
	case *Constrained:
		return p.project(x.Inner)
	}
	return &jsonschema.Schema{}
}

func (p *projector) record(r *Record) *jsonschema.Schema {
	s := &jsonschema.Schema{Title: r.Name, Type: "object", Properties: map[string]*jsonschema.Schema{}}
	for _, f := range r.Fields {
		s.Properties[f.Name] = p.project(f.Type)
		if !f.Optional && f.Type.Kind() != KindOptional {
			s.Required = append(s.Required, f.Name)
		}
	}
	if !r.Open {
		s.AdditionalProperties = false
	}
	return s
}

func scalarType(k ScalarKind) string {
	switch k {
	case Int:
		return "integer"
	case Float:
		return "number"
	case Bool:
		return "boolean"
	case Null:
		return "null"
	}
	return "string"
}
