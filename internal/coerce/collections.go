package coerce

import (
	"strconv"

	"github.com/reoring/jsonish/internal/engine"
	"github.com/reoring/jsonish/schema"
	"github.com/reoring/jsonish/value"
)

// record coerces an object field by field. Outside a union a failing field
// is left Unset where it sits; as a union variant, a partial object whose
// matched fields all fail is rejected so the next variant gets a try.
func (c *coercer) record(n engine.Node, r *schema.Record, path string, variant bool) (value.Value, *Error) {
	if n.Kind != engine.NodeObject {
		return value.Value{}, typeError(path, r, n)
	}
	entries := make([]value.Entry, 0, len(r.Fields))
	var causes []*Error
	matched, good := 0, 0
	for _, f := range r.Fields {
		key := f.Name
		raw, ok := n.Lookup(key)
		if !ok && f.Alias != "" {
			key = f.Alias
			raw, ok = n.Lookup(key)
		}
		if !ok {
			switch {
			case c.opt.Partial:
				entries = append(entries, value.Entry{Key: f.Name})
			case c.optional(f):
				entries = append(entries, value.Entry{Key: f.Name, Value: value.NullValue()})
			default:
				causes = append(causes, newError(engine.JoinPointer(path, f.Name), CodeRequired, map[string]string{"name": f.Name}))
			}
			continue
		}
		matched++
		v, err := c.coerce(raw, f.Type, engine.JoinPointer(path, key))
		if err != nil {
			if !c.opt.Partial {
				causes = append(causes, err)
			}
			v = value.Value{}
		} else {
			good++
		}
		entries = append(entries, value.Entry{Key: f.Name, Value: v})
	}
	// An object sharing no key with the record is some other shape; this is
	// what lets unions of records discriminate.
	if matched == 0 && len(r.Fields) > 0 && len(n.Members) > 0 {
		return value.Value{}, typeError(path, r, n)
	}
	if c.opt.Partial && variant && matched > 0 && good == 0 {
		return value.Value{}, typeError(path, r, n)
	}
	if len(causes) > 0 {
		return value.Value{}, aggregate(path, r, causes)
	}
	if r.Open {
		seen := map[string]bool{}
		for _, m := range n.Members {
			if _, declared := r.Field(m.Key); declared || seen[m.Key] {
				continue
			}
			// first occurrence wins
			seen[m.Key] = true
			entries = append(entries, value.Entry{Key: m.Key, Value: nodeValue(m.Value)})
		}
	}
	return value.OfRecord(r.Name, entries), nil
}

// optional reports whether a missing field may be filled with null.
func (c *coercer) optional(f schema.Field) bool {
	if f.Optional {
		return true
	}
	t, err := c.opt.Registry.Resolve(f.Type)
	if err != nil {
		return false
	}
	if k, ok := t.(*schema.Constrained); ok {
		t = k.Inner
	}
	return t.Kind() == schema.KindOptional
}

func (c *coercer) list(n engine.Node, l *schema.List, path string) (value.Value, *Error) {
	if n.Kind != engine.NodeArray {
		return value.Value{}, typeError(path, l, n)
	}
	items := make([]value.Value, len(n.Items))
	var causes []*Error
	for i, it := range n.Items {
		v, err := c.coerce(it, l.Elem, engine.JoinPointer(path, strconv.Itoa(i)))
		if err != nil {
			if !c.opt.Partial {
				causes = append(causes, err)
			}
			continue
		}
		items[i] = v
	}
	if len(causes) > 0 {
		return value.Value{}, aggregate(path, l, causes)
	}
	return value.OfList(items), nil
}

func (c *coercer) mapping(n engine.Node, m *schema.Map, path string) (value.Value, *Error) {
	if n.Kind != engine.NodeObject {
		return value.Value{}, typeError(path, m, n)
	}
	entries := make([]value.Entry, 0, len(n.Members))
	seen := map[string]bool{}
	var causes []*Error
	for _, mem := range n.Members {
		p := engine.JoinPointer(path, mem.Key)
		k, err := c.coerce(engine.Node{Kind: engine.NodeString, String: mem.Key}, m.Key, p)
		if err != nil {
			if !c.opt.Partial {
				causes = append(causes, err)
			}
			continue
		}
		// keys are compared after coercion so enum aliases collapse too
		if seen[k.Str()] {
			continue
		}
		seen[k.Str()] = true
		v, err := c.coerce(mem.Value, m.Value, p)
		if err != nil {
			if !c.opt.Partial {
				causes = append(causes, err)
			}
			v = value.Value{}
		}
		entries = append(entries, value.Entry{Key: k.Str(), Value: v})
	}
	if len(causes) > 0 {
		return value.Value{}, aggregate(path, m, causes)
	}
	return value.OfMap(entries), nil
}

// union returns the first variant that coerces, in declaration order.
func (c *coercer) union(n engine.Node, u *schema.Union, path string) (value.Value, *Error) {
	causes := make([]*Error, 0, len(u.Variants))
	for _, vt := range u.Variants {
		v, err := c.coerceAs(n, vt, path, true)
		if err == nil {
			return v, nil
		}
		causes = append(causes, err)
	}
	e := newError(path, CodeUnionNoMatch, nil)
	e.Causes = causes
	return value.Value{}, e
}

// nodeValue keeps an undeclared member verbatim.
func nodeValue(n engine.Node) value.Value {
	switch n.Kind {
	case engine.NodeString:
		return value.OfString(n.String)
	case engine.NodeNumber:
		if i, err := strconv.ParseInt(n.Number, 10, 64); err == nil {
			return value.OfInt(i)
		}
		f, _ := strconv.ParseFloat(n.Number, 64)
		return value.OfFloat(f)
	case engine.NodeBool:
		return value.OfBool(n.Bool)
	case engine.NodeArray:
		items := make([]value.Value, len(n.Items))
		for i, it := range n.Items {
			items[i] = nodeValue(it)
		}
		return value.OfList(items)
	case engine.NodeObject:
		entries := make([]value.Entry, len(n.Members))
		for i, m := range n.Members {
			entries[i] = value.Entry{Key: m.Key, Value: nodeValue(m.Value)}
		}
		return value.OfMap(entries)
	}
	return value.NullValue()
}
