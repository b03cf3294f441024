// Package value holds the dynamic result of coercion: an immutable tree that
// remembers which parts are still unset, which type names records and enums
// were coerced to, and the check results attached along the way.
package value

import (
	"strconv"
	"strings"
)

// Kind of a Value. The zero Value has kind Unset.
type Kind int

const (
	Unset Kind = iota
	Null
	String
	Int
	Float
	Bool
	List
	Map
	Record
	Enum
)

var kindNames = [...]string{"unset", "null", "string", "int", "float", "bool", "list", "map", "record", "enum"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Status is the outcome of one check.
type Status string

const (
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
)

// Check is the evaluated result of one named constraint.
type Check struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Status     Status `json:"status"`
}

// Entry is a keyed member of a map or record, kept in order.
type Entry struct {
	Key   string
	Value Value
}

// Value is a coerced node. Copies share their backing slices; no method
// mutates a Value after construction.
type Value struct {
	kind    Kind
	str     string
	i       int64
	f       float64
	b       bool
	name    string
	items   []Value
	entries []Entry
	checks  []Check
}

func NullValue() Value           { return Value{kind: Null} }
func OfString(s string) Value    { return Value{kind: String, str: s} }
func OfInt(n int64) Value        { return Value{kind: Int, i: n} }
func OfFloat(f float64) Value    { return Value{kind: Float, f: f} }
func OfBool(b bool) Value        { return Value{kind: Bool, b: b} }
func OfList(items []Value) Value { return Value{kind: List, items: items} }
func OfMap(entries []Entry) Value {
	return Value{kind: Map, entries: entries}
}

// OfRecord builds a record of the named type. Declared fields come first,
// followed by any preserved extras.
func OfRecord(name string, entries []Entry) Value {
	return Value{kind: Record, name: name, entries: entries}
}

// OfEnum builds a canonical member of the named enum.
func OfEnum(name, member string) Value {
	return Value{kind: Enum, name: name, str: member}
}

func (v Value) Kind() Kind { return v.kind }

// IsSet reports whether v holds anything, null included.
func (v Value) IsSet() bool { return v.kind != Unset }

// Str returns the string of a String or the member of an Enum.
func (v Value) Str() string    { return v.str }
func (v Value) Int() int64     { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Bool() bool     { return v.b }

// Name is the type name of a record or enum.
func (v Value) Name() string     { return v.name }
func (v Value) Items() []Value   { return v.items }
func (v Value) Entries() []Entry { return v.entries }

// Get returns the first entry under key.
func (v Value) Get(key string) (Value, bool) {
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Checks are the results of check level constraints, in declaration order.
// A nil slice means the node's type declares no checks.
func (v Value) Checks() []Check { return v.checks }

// WithChecks returns a copy of v annotated with checks.
func (v Value) WithChecks(checks []Check) Value {
	v.checks = checks
	return v
}

// Complete reports whether no node in the subtree is Unset.
func (v Value) Complete() bool {
	switch v.kind {
	case Unset:
		return false
	case List:
		for _, it := range v.items {
			if !it.Complete() {
				return false
			}
		}
	case Map, Record:
		for _, e := range v.entries {
			if !e.Value.Complete() {
				return false
			}
		}
	}
	return true
}

// Native converts v to plain Go values: nil, string, int64, float64, bool,
// []any and map[string]any. Unset becomes nil. Checks are dropped.
func (v Value) Native() any {
	switch v.kind {
	case String, Enum:
		return v.str
	case Int:
		return v.i
	case Float:
		return v.f
	case Bool:
		return v.b
	case List:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Native()
		}
		return out
	case Map, Record:
		out := make(map[string]any, len(v.entries))
		for _, e := range v.entries {
			if _, dup := out[e.Key]; !dup {
				out[e.Key] = e.Value.Native()
			}
		}
		return out
	}
	return nil
}

// Equal compares values structurally, type names and checks included.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.name != o.name || len(v.checks) != len(o.checks) {
		return false
	}
	for i := range v.checks {
		if v.checks[i] != o.checks[i] {
			return false
		}
	}
	switch v.kind {
	case String, Enum:
		return v.str == o.str
	case Int:
		return v.i == o.i
	case Float:
		return v.f == o.f
	case Bool:
		return v.b == o.b
	case List:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
	case Map, Record:
		if len(v.entries) != len(o.entries) {
			return false
		}
		for i := range v.entries {
			if v.entries[i].Key != o.entries[i].Key || !v.entries[i].Value.Equal(o.entries[i].Value) {
				return false
			}
		}
	}
	return true
}

// String renders v compactly for logs and test failures. Unset prints as
// "<unset>"; record and enum names are prefixed.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case Unset:
		b.WriteString("<unset>")
	case Null:
		b.WriteString("null")
	case String:
		b.WriteString(strconv.Quote(v.str))
	case Enum:
		b.WriteString(v.name + "." + v.str)
	case Int:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case Float:
		b.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case Bool:
		b.WriteString(strconv.FormatBool(v.b))
	case List:
		b.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				b.WriteString(", ")
			}
			it.write(b)
		}
		b.WriteByte(']')
	case Map, Record:
		b.WriteString(v.name)
		b.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.Key)
			b.WriteString(": ")
			e.Value.write(b)
		}
		b.WriteByte('}')
	}
	if len(v.checks) > 0 {
		b.WriteString(" #")
		for i, c := range v.checks {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(c.Name + "=" + string(c.Status))
		}
	}
}
