package schema

// Level distinguishes observational checks from enforcing asserts.
type Level int

const (
	// Check annotates a value with a pass/fail status and never blocks it.
	Check Level = iota
	// Assert invalidates the value when its expression is false.
	Assert
)

func (l Level) String() string {
	if l == Assert {
		return "assert"
	}
	return "check"
}

// Constraint is a named boolean expression over a coerced value, bound as
// `this`.
type Constraint struct {
	Name       string
	Expression string
	Level      Level
}

// WithChecks wraps t with check level constraints. Pairs are name, expression.
func WithChecks(t Type, pairs ...string) *Constrained {
	return with(t, Check, pairs)
}

// WithAsserts wraps t with assert level constraints. Pairs are name, expression.
func WithAsserts(t Type, pairs ...string) *Constrained {
	return with(t, Assert, pairs)
}

func with(t Type, lvl Level, pairs []string) *Constrained {
	c, ok := t.(*Constrained)
	if !ok {
		c = &Constrained{Inner: t}
	} else {
		cp := *c
		cp.Constraints = append([]Constraint(nil), c.Constraints...)
		c = &cp
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		c.Constraints = append(c.Constraints, Constraint{Name: pairs[i], Expression: pairs[i+1], Level: lvl})
	}
	return c
}
