package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseType reads a type expression:
//
//	string | int | float | bool | null      scalars
//	"text", 42, 1.5, true, false            literals
//	Name                                    reference to a registry type
//	T[]   T?   map<K, V>   A | B   (T)      composites
//
// Postfix operators bind tighter than '|'.
func ParseType(expr string) (Type, error) {
	p := &typeParser{src: expr}
	t, err := p.union()
	if err != nil {
		return nil, err
	}
	p.skip()
	if p.pos < len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &Error{Where: fmt.Sprintf("%q at %d", p.src, p.pos), Msg: fmt.Sprintf(format, args...)}
}

func (p *typeParser) skip() {
	for p.pos < len(p.src) && strings.IndexByte(" \t\r\n", p.src[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skip()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *typeParser) expect(c byte) error {
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *typeParser) union() (Type, error) {
	first, err := p.postfix()
	if err != nil {
		return nil, err
	}
	variants := []Type{first}
	for p.peek() == '|' {
		p.pos++
		next, err := p.postfix()
		if err != nil {
			return nil, err
		}
		variants = append(variants, next)
	}
	if len(variants) == 1 {
		return first, nil
	}
	return &Union{Variants: variants}, nil
}

func (p *typeParser) postfix() (Type, error) {
	t, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek() {
		case '[':
			p.pos++
			if err := p.expect(']'); err != nil {
				return nil, err
			}
			t = &List{Elem: t}
		case '?':
			p.pos++
			t = &Optional{Inner: t}
		default:
			return t, nil
		}
	}
}

func (p *typeParser) primary() (Type, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		t, err := p.union()
		if err != nil {
			return nil, err
		}
		return t, p.expect(')')
	case c == '"':
		return p.stringLiteral()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.numberLiteral()
	case isIdentStart(c):
		start := p.pos
		for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
			p.pos++
		}
		return p.named(p.src[start:p.pos])
	case c == 0:
		return nil, p.errorf("unexpected end of expression")
	}
	return nil, p.errorf("unexpected %q", c)
}

func (p *typeParser) named(id string) (Type, error) {
	switch id {
	case "string":
		return &Scalar{Of: String}, nil
	case "int":
		return &Scalar{Of: Int}, nil
	case "float":
		return &Scalar{Of: Float}, nil
	case "bool":
		return &Scalar{Of: Bool}, nil
	case "null":
		return &Scalar{Of: Null}, nil
	case "true", "false":
		return &Literal{Value: id == "true"}, nil
	case "map":
		if p.peek() != '<' {
			break
		}
		p.pos++
		k, err := p.union()
		if err != nil {
			return nil, err
		}
		if err := p.expect(','); err != nil {
			return nil, err
		}
		v, err := p.union()
		if err != nil {
			return nil, err
		}
		return &Map{Key: k, Value: v}, p.expect('>')
	}
	return &Ref{Name: id}, nil
}

func (p *typeParser) stringLiteral() (Type, error) {
	start := p.pos
	p.pos++
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
			continue
		case '"':
			p.pos++
			s, err := strconv.Unquote(p.src[start:p.pos])
			if err != nil {
				return nil, p.errorf("bad string literal: %v", err)
			}
			return &Literal{Value: s}, nil
		}
		p.pos++
	}
	return nil, p.errorf("unterminated string literal")
}

func (p *typeParser) numberLiteral() (Type, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	isFloat := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '.' || c == 'e' || c == 'E' || c == '+' {
			isFloat = true
		} else if (c < '0' || c > '9') && !(c == '-' && isFloat) {
			break
		}
		p.pos++
	}
	text := p.src[start:p.pos]
	if !isFloat {
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, p.errorf("bad integer literal %q", text)
		}
		return &Literal{Value: n}, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errorf("bad number literal %q", text)
	}
	return &Literal{Value: f}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }
