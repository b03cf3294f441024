package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Error describes an invalid schema. Where names the type or field path.
type Error struct {
	Where string
	Msg   string
}

func (e *Error) Error() string {
	if e.Where == "" {
		return "schema: " + e.Msg
	}
	return "schema: " + e.Where + ": " + e.Msg
}

// ErrUnknownType is wrapped by lookups of names that were never defined.
var ErrUnknownType = errors.New("unknown type")

// Registry is the name table of one schema. Build it once, then treat it as
// read-only; it may be shared by any number of streams. A nil *Registry is
// an empty table.
type Registry struct {
	types map[string]Type
	order []string
}

func NewRegistry() *Registry {
	return &Registry{types: map[string]Type{}}
}

// Define binds name to t. Names are unique.
func (r *Registry) Define(name string, t Type) error {
	if name == "" {
		return &Error{Msg: "empty type name"}
	}
	if t == nil {
		return &Error{Where: name, Msg: "nil type"}
	}
	if r.types == nil {
		r.types = map[string]Type{}
	}
	if _, dup := r.types[name]; dup {
		return &Error{Where: name, Msg: "defined twice"}
	}
	r.types[name] = t
	r.order = append(r.order, name)
	return nil
}

// Add defines records and enums under their own names.
func (r *Registry) Add(types ...Type) error {
	for _, t := range types {
		name := nameOf(t)
		if name == "" {
			return &Error{Where: t.String(), Msg: "type has no name; use Define"}
		}
		if err := r.Define(name, t); err != nil {
			return err
		}
	}
	return nil
}

func nameOf(t Type) string {
	switch x := t.(type) {
	case *Record:
		return x.Name
	case *Enum:
		return x.Name
	case *Constrained:
		return nameOf(x.Inner)
	}
	return ""
}

// Lookup returns the type bound to name.
func (r *Registry) Lookup(name string) (Type, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.types[name]
	return t, ok
}

// Names lists defined names in definition order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Resolve follows references until it reaches a non-reference type. An
// alias chain that only ever names other aliases is an error.
func (r *Registry) Resolve(t Type) (Type, error) {
	var seen []string
	for {
		ref, ok := t.(*Ref)
		if !ok {
			return t, nil
		}
		for _, s := range seen {
			if s == ref.Name {
				return nil, &Error{Where: ref.Name, Msg: "alias cycle " + strings.Join(append(seen, ref.Name), " -> ")}
			}
		}
		seen = append(seen, ref.Name)
		next, ok := r.Lookup(ref.Name)
		if !ok {
			return nil, fmt.Errorf("schema: %w %s", ErrUnknownType, ref.Name)
		}
		t = next
	}
}

// Validate checks every defined type and the given roots. All problems are
// reported, joined in definition order.
func (r *Registry) Validate(roots ...Type) error {
	v := &validator{reg: r}
	for _, name := range r.Names() {
		t := r.types[name]
		if _, err := r.Resolve(&Ref{Name: name}); err != nil {
			v.errs = append(v.errs, err)
			continue
		}
		v.walk(name, t)
	}
	for _, root := range roots {
		if root == nil {
			v.errs = append(v.errs, &Error{Where: "root", Msg: "nil type"})
			continue
		}
		v.walk("root", root)
	}
	return errors.Join(v.errs...)
}

type validator struct {
	reg  *Registry
	errs []error
}

func (v *validator) fail(where, format string, args ...any) {
	v.errs = append(v.errs, &Error{Where: where, Msg: fmt.Sprintf(format, args...)})
}

func (v *validator) walk(where string, t Type) {
	switch x := t.(type) {
	case nil:
		v.fail(where, "nil type")
	case *Scalar:
		if x.Of < String || x.Of > Null {
			v.fail(where, "unknown scalar %d", int(x.Of))
		}
	case *Literal:
		switch x.Value.(type) {
		case string, bool, int64, float64:
		default:
			v.fail(where, "unsupported literal %T", x.Value)
		}
	case *Enum:
		if len(x.Values) == 0 {
			v.fail(where, "enum %s has no values", x.Name)
		}
		seen := map[string]bool{}
		for _, c := range x.Values {
			if seen[c] {
				v.fail(where, "enum value %q repeated", c)
			}
			seen[c] = true
		}
		for _, a := range x.Aliases {
			if !seen[a.Value] {
				v.fail(where, "alias %q targets unknown value %q", a.Label, a.Value)
			}
		}
	case *Record:
		seen := map[string]bool{}
		for _, f := range x.Fields {
			fw := where + "." + f.Name
			if f.Name == "" {
				v.fail(where, "field with empty name")
			}
			if seen[f.Name] {
				v.fail(fw, "field declared twice")
			}
			seen[f.Name] = true
			if f.Alias != "" {
				if seen[f.Alias] {
					v.fail(fw, "alias %q collides with another key", f.Alias)
				}
				seen[f.Alias] = true
			}
			v.walk(fw, f.Type)
		}
	case *List:
		v.walk(where+"[]", x.Elem)
	case *Map:
		v.walk(where+"<key>", x.Key)
		v.walk(where+"<value>", x.Value)
		if x.Key != nil && !v.keyType(x.Key, 0) {
			v.fail(where, "map key must be string, enum or string literal, got %s", x.Key)
		}
	case *Union:
		if len(x.Variants) == 0 {
			v.fail(where, "empty union")
		}
		for i, vt := range x.Variants {
			v.walk(fmt.Sprintf("%s|%d", where, i), vt)
		}
	case *Optional:
		v.walk(where+"?", x.Inner)
	case *Ref:
		if _, ok := v.reg.Lookup(x.Name); !ok {
			v.fail(where, "%s %s", ErrUnknownType, x.Name)
		}
	case *Constrained:
		for _, c := range x.Constraints {
			if c.Name == "" || strings.TrimSpace(c.Expression) == "" {
				v.fail(where, "%s needs a name and an expression", c.Level)
			}
		}
		v.walk(where, x.Inner)
	default:
		v.fail(where, "unsupported type %T", t)
	}
}

func (v *validator) keyType(t Type, depth int) bool {
	if depth > 32 {
		return false
	}
	switch x := t.(type) {
	case *Scalar:
		return x.Of == String
	case *Enum:
		return true
	case *Literal:
		_, ok := x.Value.(string)
		return ok
	case *Union:
		for _, vt := range x.Variants {
			if !v.keyType(vt, depth+1) {
				return false
			}
		}
		return len(x.Variants) > 0
	case *Constrained:
		return v.keyType(x.Inner, depth+1)
	case *Ref:
		rt, err := v.reg.Resolve(x)
		return err == nil && v.keyType(rt, depth+1)
	}
	return false
}
