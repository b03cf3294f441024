// Package constraint evaluates checks and asserts. Expressions are
// expr-lang programs with the coerced value bound as `this`.
package constraint

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/reoring/jsonish/schema"
	"github.com/reoring/jsonish/value"
)

// CompileError reports an expression that does not compile.
type CompileError struct {
	Name       string
	Expression string
	Err        error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("constraint %s: %v", e.Name, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Evaluator holds compiled programs keyed by expression source. It is not
// safe for concurrent use; each stream owns one.
type Evaluator struct {
	programs map[string]*vm.Program
}

// Compile walks every type reachable from roots and from the registry and
// compiles each distinct expression once.
func Compile(reg *schema.Registry, roots ...schema.Type) (*Evaluator, error) {
	e := &Evaluator{programs: map[string]*vm.Program{}}
	seen := map[schema.Type]bool{}
	var walk func(t schema.Type) error
	walk = func(t schema.Type) error {
		if t == nil || seen[t] {
			return nil
		}
		seen[t] = true
		switch x := t.(type) {
		case *schema.Constrained:
			for _, c := range x.Constraints {
				if _, err := e.program(c); err != nil {
					return err
				}
			}
			return walk(x.Inner)
		case *schema.Record:
			for _, f := range x.Fields {
				if err := walk(f.Type); err != nil {
					return err
				}
			}
		case *schema.List:
			return walk(x.Elem)
		case *schema.Map:
			if err := walk(x.Key); err != nil {
				return err
			}
			return walk(x.Value)
		case *schema.Union:
			for _, v := range x.Variants {
				if err := walk(v); err != nil {
					return err
				}
			}
		case *schema.Optional:
			return walk(x.Inner)
		}
		return nil
	}
	for _, name := range reg.Names() {
		t, _ := reg.Lookup(name)
		if err := walk(t); err != nil {
			return nil, err
		}
	}
	for _, r := range roots {
		if err := walk(r); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Evaluator) program(c schema.Constraint) (*vm.Program, error) {
	if p, ok := e.programs[c.Expression]; ok {
		return p, nil
	}
	p, err := expr.Compile(c.Expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, &CompileError{Name: c.Name, Expression: c.Expression, Err: err}
	}
	e.programs[c.Expression] = p
	return p, nil
}

// holds runs one constraint. Runtime errors and non-boolean results count
// as false.
func (e *Evaluator) holds(c schema.Constraint, this any) bool {
	p, err := e.program(c)
	if err != nil {
		return false
	}
	out, err := expr.Run(p, map[string]any{"this": this})
	if err != nil {
		return false
	}
	ok, isBool := out.(bool)
	return isBool && ok
}

// Evaluate runs cs against v. It returns the check results in declaration
// order, never nil when cs holds a check, and in strict mode the first
// failing assert. Partial evaluation skips incomplete values and never
// enforces asserts.
func (e *Evaluator) Evaluate(v value.Value, cs []schema.Constraint, strict bool) ([]value.Check, *value.Check) {
	var checks []value.Check
	for _, c := range cs {
		if c.Level == schema.Check {
			checks = make([]value.Check, 0, len(cs))
			break
		}
	}
	if !strict && !v.Complete() {
		return checks, nil
	}
	this := v.Native()
	var failed *value.Check
	for _, c := range cs {
		st := value.Failed
		if c.Level == schema.Assert && (!strict || failed != nil) {
			continue
		}
		if e.holds(c, this) {
			st = value.Succeeded
		}
		res := value.Check{Name: c.Name, Expression: c.Expression, Status: st}
		if c.Level == schema.Check {
			checks = append(checks, res)
		} else if st == value.Failed {
			failed = &res
		}
	}
	return checks, failed
}
