// Package schema describes the target types that model output is coerced
// into. A schema is a finite graph of Type values; recursion goes through
// named references resolved by a Registry, never through pointer cycles.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags a Type variant.
type Kind int

const (
	KindScalar Kind = iota
	KindLiteral
	KindEnum
	KindRecord
	KindList
	KindMap
	KindUnion
	KindOptional
	KindRef
	KindConstrained
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindLiteral:
		return "literal"
	case KindEnum:
		return "enum"
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindUnion:
		return "union"
	case KindOptional:
		return "optional"
	case KindRef:
		return "ref"
	case KindConstrained:
		return "constrained"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Type is one node of a schema graph. Implementations are the pointer types
// declared in this package; a Type is immutable once handed to a stream.
type Type interface {
	Kind() Kind
	// String renders the type in descriptor syntax.
	String() string
}

// ScalarKind selects a primitive target.
type ScalarKind int

const (
	String ScalarKind = iota
	Int
	Float
	Bool
	Null
)

func (s ScalarKind) String() string {
	switch s {
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Null:
		return "null"
	}
	return "scalar(" + strconv.Itoa(int(s)) + ")"
}

type Scalar struct{ Of ScalarKind }

func (*Scalar) Kind() Kind       { return KindScalar }
func (s *Scalar) String() string { return s.Of.String() }

// Literal matches exactly one value. Value is a string, bool, int64 or
// float64; other Go integer types are accepted by NewLiteral.
type Literal struct{ Value any }

func (*Literal) Kind() Kind { return KindLiteral }
func (l *Literal) String() string {
	if s, ok := l.Value.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(l.Value)
}

// NewLiteral normalizes integer kinds to int64 and float32 to float64.
func NewLiteral(v any) *Literal {
	switch x := v.(type) {
	case int:
		v = int64(x)
	case int32:
		v = int64(x)
	case int16:
		v = int64(x)
	case int8:
		v = int64(x)
	case uint:
		v = int64(x)
	case uint32:
		v = int64(x)
	case uint16:
		v = int64(x)
	case uint8:
		v = int64(x)
	case float32:
		v = float64(x)
	}
	return &Literal{Value: v}
}

// Alias maps a raw label onto a canonical enum value. Aliases are matched in
// declaration order.
type Alias struct {
	Label string
	Value string
}

type Enum struct {
	Name    string
	Values  []string
	Aliases []Alias
}

func (*Enum) Kind() Kind       { return KindEnum }
func (e *Enum) String() string { return e.Name }

// Has reports whether v is a canonical value.
func (e *Enum) Has(v string) bool {
	for _, c := range e.Values {
		if c == v {
			return true
		}
	}
	return false
}

// Field is a declared record member. Alias is an alternate raw key.
type Field struct {
	Name     string
	Type     Type
	Optional bool
	Alias    string
}

// Record is a named object type. Open records keep undeclared keys.
type Record struct {
	Name   string
	Fields []Field
	Open   bool
}

func (*Record) Kind() Kind       { return KindRecord }
func (r *Record) String() string { return r.Name }

// Field returns the declared field matching a raw key, by name first and
// alias second.
func (r *Record) Field(key string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == key {
			return f, true
		}
	}
	for _, f := range r.Fields {
		if f.Alias != "" && f.Alias == key {
			return f, true
		}
	}
	return Field{}, false
}

type List struct{ Elem Type }

func (*List) Kind() Kind { return KindList }
func (l *List) String() string {
	if needsParens(l.Elem) {
		return "(" + l.Elem.String() + ")[]"
	}
	return l.Elem.String() + "[]"
}

type Map struct{ Key, Value Type }

func (*Map) Kind() Kind { return KindMap }
func (m *Map) String() string {
	return "map<" + m.Key.String() + ", " + m.Value.String() + ">"
}

// Union tries Variants in order; the first that coerces wins.
type Union struct{ Variants []Type }

func (*Union) Kind() Kind { return KindUnion }
func (u *Union) String() string {
	parts := make([]string, len(u.Variants))
	for i, v := range u.Variants {
		parts[i] = v.String()
	}
	return strings.Join(parts, " | ")
}

type Optional struct{ Inner Type }

func (*Optional) Kind() Kind { return KindOptional }
func (o *Optional) String() string {
	if needsParens(o.Inner) {
		return "(" + o.Inner.String() + ")?"
	}
	return o.Inner.String() + "?"
}

// Ref names a type defined in a Registry.
type Ref struct{ Name string }

func (*Ref) Kind() Kind       { return KindRef }
func (r *Ref) String() string { return r.Name }

// Constrained attaches checks and asserts to Inner. When Inner is a record
// the constraints see the whole record, so sibling fields are visible.
type Constrained struct {
	Inner       Type
	Constraints []Constraint
}

func (*Constrained) Kind() Kind { return KindConstrained }
func (c *Constrained) String() string {
	var b strings.Builder
	b.WriteString(c.Inner.String())
	for _, k := range c.Constraints {
		fmt.Fprintf(&b, " @%s(%s)", k.Level, k.Name)
	}
	return b.String()
}

// HasChecks reports whether any constraint is check level.
func (c *Constrained) HasChecks() bool {
	for _, k := range c.Constraints {
		if k.Level == Check {
			return true
		}
	}
	return false
}

func needsParens(t Type) bool {
	switch t.(type) {
	case *Union, *Constrained:
		return true
	}
	return false
}

// Shorthand constructors used by hand-built schemas and tests.

func Str() *Scalar                  { return &Scalar{Of: String} }
func IntT() *Scalar                 { return &Scalar{Of: Int} }
func FloatT() *Scalar               { return &Scalar{Of: Float} }
func BoolT() *Scalar                { return &Scalar{Of: Bool} }
func NullT() *Scalar                { return &Scalar{Of: Null} }
func ListOf(elem Type) *List        { return &List{Elem: elem} }
func MapOf(key, val Type) *Map      { return &Map{Key: key, Value: val} }
func OneOf(variants ...Type) *Union { return &Union{Variants: variants} }
func Opt(inner Type) *Optional      { return &Optional{Inner: inner} }
func Named(name string) *Ref        { return &Ref{Name: name} }
