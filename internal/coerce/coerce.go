// Package coerce maps a decoded JSON tree onto a schema type. Failures are
// returned as values; partial mode downgrades failing parts to unset instead
// of failing the whole tree.
package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/reoring/jsonish/i18n"
	"github.com/reoring/jsonish/internal/engine"
	"github.com/reoring/jsonish/schema"
	"github.com/reoring/jsonish/value"
)

// Issue codes produced by coercion.
const (
	CodeInvalidType       = "invalid_type"
	CodeRequired          = "required"
	CodeInvalidEnum       = "invalid_enum"
	CodeLiteralMismatch   = "literal_mismatch"
	CodeUnionNoMatch      = "union_no_match"
	CodeAssertFailed      = "assert_failed"
	CodeCircularReference = "circular_reference"
	CodeUnknownType       = "unknown_type"
)

// Evaluator runs constraints on a coerced value. See internal/constraint.
type Evaluator interface {
	Evaluate(v value.Value, cs []schema.Constraint, strict bool) ([]value.Check, *value.Check)
}

type Options struct {
	// Partial tolerates missing fields and failing elements.
	Partial  bool
	Registry *schema.Registry
	// Evaluator is optional; without one constraints are ignored.
	Evaluator Evaluator
}

// Error is a coercion failure at Path (a JSON Pointer, "" for the root).
// Aggregates keep the failures of their parts in Causes.
type Error struct {
	Path    string
	Code    string
	Message string
	Causes  []*Error
}

func (e *Error) Error() string {
	var b strings.Builder
	e.write(&b, 0)
	return b.String()
}

func (e *Error) write(b *strings.Builder, depth int) {
	if depth > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString("- ")
	}
	p := e.Path
	if p == "" {
		p = "/"
	}
	fmt.Fprintf(b, "%s: %s", p, e.Message)
	for _, c := range e.Causes {
		c.write(b, depth+1)
	}
}

// Leaves returns the innermost failures, depth first.
func (e *Error) Leaves() []*Error {
	if len(e.Causes) == 0 {
		return []*Error{e}
	}
	var out []*Error
	for _, c := range e.Causes {
		out = append(out, c.Leaves()...)
	}
	return out
}

func newError(path, code string, data map[string]string) *Error {
	return &Error{Path: path, Code: code, Message: i18n.T(code, data)}
}

func typeError(path string, want schema.Type, n engine.Node) *Error {
	return newError(path, CodeInvalidType, map[string]string{"expected": want.String(), "got": n.Kind.String()})
}

// aggregate folds part failures into one error. A single cause is returned
// as is.
func aggregate(path string, t schema.Type, causes []*Error) *Error {
	if len(causes) == 1 {
		return causes[0]
	}
	return &Error{
		Path:    path,
		Code:    causes[0].Code,
		Message: fmt.Sprintf("%d errors coercing %s", len(causes), t),
		Causes:  causes,
	}
}

type guardKey struct{ name, path string }

type coercer struct {
	opt    Options
	active map[guardKey]bool
}

// Coerce converts n to t.
func Coerce(n engine.Node, t schema.Type, opt Options) (value.Value, *Error) {
	c := &coercer{opt: opt, active: map[guardKey]bool{}}
	return c.coerce(n, t, "")
}

func (c *coercer) coerce(n engine.Node, t schema.Type, path string) (value.Value, *Error) {
	return c.coerceAs(n, t, path, false)
}

// coerceAs is coerce with variant set while t is tried as a union member.
// The flag passes through refs, optionals and constraints to a record.
func (c *coercer) coerceAs(n engine.Node, t schema.Type, path string, variant bool) (value.Value, *Error) {
	switch x := t.(type) {
	case *schema.Scalar:
		return scalar(n, x, path)
	case *schema.Literal:
		return literal(n, x, path)
	case *schema.Enum:
		return enum(n, x, path)
	case *schema.Record:
		return c.record(n, x, path, variant)
	case *schema.List:
		return c.list(n, x, path)
	case *schema.Map:
		return c.mapping(n, x, path)
	case *schema.Union:
		return c.union(n, x, path)
	case *schema.Optional:
		if n.Kind == engine.NodeNull {
			return value.NullValue(), nil
		}
		return c.coerceAs(n, x.Inner, path, variant)
	case *schema.Ref:
		return c.ref(n, x, path, variant)
	case *schema.Constrained:
		return c.constrained(n, x, path, variant)
	}
	return value.Value{}, newError(path, CodeUnknownType, map[string]string{"name": fmt.Sprintf("%T", t)})
}

func (c *coercer) ref(n engine.Node, r *schema.Ref, path string, variant bool) (value.Value, *Error) {
	key := guardKey{r.Name, path}
	if c.active[key] {
		return value.Value{}, newError(path, CodeCircularReference, map[string]string{"name": r.Name})
	}
	target, ok := c.opt.Registry.Lookup(r.Name)
	if !ok {
		return value.Value{}, newError(path, CodeUnknownType, map[string]string{"name": r.Name})
	}
	c.active[key] = true
	defer delete(c.active, key)
	return c.coerceAs(n, target, path, variant)
}

func (c *coercer) constrained(n engine.Node, k *schema.Constrained, path string, variant bool) (value.Value, *Error) {
	v, err := c.coerceAs(n, k.Inner, path, variant)
	if err != nil || c.opt.Evaluator == nil || !v.IsSet() {
		return v, err
	}
	checks, failed := c.opt.Evaluator.Evaluate(v, k.Constraints, !c.opt.Partial)
	if failed != nil {
		e := newError(path, CodeAssertFailed, map[string]string{"name": failed.Name})
		e.Message += ": " + failed.Expression
		return value.Value{}, e
	}
	if checks != nil {
		v = v.WithChecks(checks)
	}
	return v, nil
}

func scalar(n engine.Node, s *schema.Scalar, path string) (value.Value, *Error) {
	switch s.Of {
	case schema.String:
		switch n.Kind {
		case engine.NodeString:
			return value.OfString(n.String), nil
		case engine.NodeNumber:
			return value.OfString(n.Number), nil
		case engine.NodeBool:
			return value.OfString(strconv.FormatBool(n.Bool)), nil
		}
	case schema.Int:
		text, ok := numericText(n)
		if !ok {
			break
		}
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return value.OfInt(i), nil
		}
		// 2.0 and 1e3 are integral
		if f, err := strconv.ParseFloat(text, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return value.OfInt(int64(f)), nil
		}
	case schema.Float:
		text, ok := numericText(n)
		if !ok {
			break
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return value.OfFloat(f), nil
		}
	case schema.Bool:
		switch n.Kind {
		case engine.NodeBool:
			return value.OfBool(n.Bool), nil
		case engine.NodeString:
			switch t := strings.TrimSpace(n.String); {
			case strings.EqualFold(t, "true"):
				return value.OfBool(true), nil
			case strings.EqualFold(t, "false"):
				return value.OfBool(false), nil
			}
		}
	case schema.Null:
		if n.Kind == engine.NodeNull {
			return value.NullValue(), nil
		}
	}
	return value.Value{}, typeError(path, s, n)
}

// numericText returns the number text of a number node, or of a string node
// holding one.
func numericText(n engine.Node) (string, bool) {
	switch n.Kind {
	case engine.NodeNumber:
		return n.Number, true
	case engine.NodeString:
		t := strings.TrimSpace(n.String)
		if t == "" || strings.ContainsAny(t, "nNiI") {
			// reject "NaN", "Inf" and friends that ParseFloat would accept
			return "", false
		}
		return t, true
	}
	return "", false
}

func literal(n engine.Node, l *schema.Literal, path string) (value.Value, *Error) {
	switch want := l.Value.(type) {
	case string:
		if n.Kind == engine.NodeString && n.String == want {
			return value.OfString(want), nil
		}
	case bool:
		if n.Kind == engine.NodeBool && n.Bool == want {
			return value.OfBool(want), nil
		}
	case int64:
		if n.Kind == engine.NodeNumber {
			if i, err := strconv.ParseInt(n.Number, 10, 64); err == nil && i == want {
				return value.OfInt(i), nil
			}
		}
	case float64:
		if n.Kind == engine.NodeNumber {
			if f, err := strconv.ParseFloat(n.Number, 64); err == nil && f == want {
				return value.OfFloat(f), nil
			}
		}
	}
	return value.Value{}, newError(path, CodeLiteralMismatch, map[string]string{"expected": l.String(), "got": describe(n)})
}

// enum matches canonical values first, then aliases in declaration order,
// then retries both on the trimmed label.
func enum(n engine.Node, e *schema.Enum, path string) (value.Value, *Error) {
	if n.Kind != engine.NodeString {
		return value.Value{}, typeError(path, e, n)
	}
	raw := n.String
	if m, ok := enumMember(e, raw); ok {
		return value.OfEnum(e.Name, m), nil
	}
	if t := strings.TrimSpace(raw); t != raw {
		if m, ok := enumMember(e, t); ok {
			return value.OfEnum(e.Name, m), nil
		}
	}
	return value.Value{}, newError(path, CodeInvalidEnum, map[string]string{"name": e.Name, "got": strconv.Quote(raw)})
}

func enumMember(e *schema.Enum, label string) (string, bool) {
	if e.Has(label) {
		return label, true
	}
	for _, a := range e.Aliases {
		if a.Label == label {
			return a.Value, true
		}
	}
	return "", false
}

func describe(n engine.Node) string {
	switch n.Kind {
	case engine.NodeString:
		return strconv.Quote(n.String)
	case engine.NodeNumber:
		return n.Number
	case engine.NodeBool:
		return strconv.FormatBool(n.Bool)
	}
	return n.Kind.String()
}
