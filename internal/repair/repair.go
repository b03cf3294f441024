// Package repair turns a truncated JSON container into valid JSON. It only
// ever removes an unresolvable trailing token or appends closing punctuation;
// it never invents keys or values.
package repair

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncomplete reports that no safe repair exists yet: the fragment is empty
// or holds nothing but whitespace past its opening bracket.
var ErrIncomplete = errors.New("repair: structure incomplete")

// SyntaxError reports text that is not a JSON prefix.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("repair: %s at offset %d", e.Msg, e.Offset)
}

type state int

const (
	stKeyOrEnd   state = iota // just after '{'
	stKey                     // after ',' in an object
	stColon                   // after a key
	stValueOrEnd              // just after '['
	stValue                   // after ':' or after ',' in an array
	stAfterValue              // after a complete value
)

type frame struct {
	open  byte
	state state
}

// safePoint is a prefix that closes into valid JSON by appending closers.
type safePoint struct {
	cut      int
	closers  string
	rootOnly bool
	valid    bool
}

type repairer struct {
	text  string
	stack []frame
	last  safePoint
	// content is set once anything but whitespace follows the root opener.
	content bool

	inString bool
	isKey    bool
	escaped  bool
	// uniStart is the offset of a "\u" escape still missing hex digits; -1 otherwise.
	uniStart int
	uniLeft  int
}

// Repair closes a possibly truncated container. A fragment that is already
// a complete container is returned unchanged up to its closing bracket.
func Repair(fragment string) (string, error) {
	r := &repairer{text: fragment, uniStart: -1}
	return r.run()
}

func (r *repairer) run() (string, error) {
	text := r.text
	n := len(text)
	for i := 0; i < n; {
		c := text[i]
		if len(r.stack) > 0 && !isSpace(c) {
			r.content = true
		}
		if r.inString {
			r.stringByte(i, c)
			i++
			continue
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			i++
		case '{', '[':
			if len(r.stack) > 0 && !r.expectsValue() {
				return "", &SyntaxError{Offset: i, Msg: "unexpected " + string(c)}
			}
			if len(r.stack) > 0 {
				r.top().state = stAfterValue
			}
			st := stKeyOrEnd
			if c == '[' {
				st = stValueOrEnd
			}
			r.stack = append(r.stack, frame{open: c, state: st})
			r.mark(i + 1)
			i++
		case '}', ']':
			if len(r.stack) == 0 || !matches(r.top().open, c) || !r.closable() {
				return "", &SyntaxError{Offset: i, Msg: "unexpected " + string(c)}
			}
			r.stack = r.stack[:len(r.stack)-1]
			if len(r.stack) == 0 {
				return text[:i+1], nil
			}
			r.mark(i + 1)
			i++
		case ',':
			if len(r.stack) == 0 || r.top().state != stAfterValue {
				return "", &SyntaxError{Offset: i, Msg: "unexpected ','"}
			}
			if r.top().open == '{' {
				r.top().state = stKey
			} else {
				r.top().state = stValue
			}
			i++
		case ':':
			if len(r.stack) == 0 || r.top().state != stColon {
				return "", &SyntaxError{Offset: i, Msg: "unexpected ':'"}
			}
			r.top().state = stValue
			i++
		case '"':
			if len(r.stack) == 0 {
				return "", &SyntaxError{Offset: i, Msg: "value outside container"}
			}
			switch {
			case r.top().state == stKeyOrEnd || r.top().state == stKey:
				r.isKey = true
			case r.expectsValue():
				r.isKey = false
			default:
				return "", &SyntaxError{Offset: i, Msg: "unexpected string"}
			}
			r.inString = true
			i++
		default:
			if len(r.stack) == 0 || !r.expectsValue() || !isTokenByte(c) {
				return "", &SyntaxError{Offset: i, Msg: fmt.Sprintf("unexpected %q", c)}
			}
			j := i
			for j < n && isTokenByte(text[j]) {
				j++
			}
			tok := text[i:j]
			if !completeToken(tok) {
				if j == n {
					// trailing partial literal or number: drop it
					return r.fallback()
				}
				return "", &SyntaxError{Offset: i, Msg: "invalid literal " + tok}
			}
			r.top().state = stAfterValue
			r.mark(j)
			i = j
		}
	}
	return r.finish()
}

func (r *repairer) stringByte(i int, c byte) {
	if r.uniLeft > 0 {
		if isHex(c) {
			r.uniLeft--
			if r.uniLeft == 0 {
				r.uniStart = -1
			}
			return
		}
		r.uniLeft, r.uniStart = 0, -1
	}
	if r.escaped {
		r.escaped = false
		if c == 'u' {
			r.uniStart, r.uniLeft = i-1, 4
		}
		return
	}
	switch c {
	case '\\':
		r.escaped = true
	case '"':
		r.inString = false
		if r.isKey {
			r.top().state = stColon
			return
		}
		r.top().state = stAfterValue
		r.mark(i + 1)
	}
}

func (r *repairer) finish() (string, error) {
	if len(r.stack) == 0 {
		return "", ErrIncomplete
	}
	if r.inString {
		if r.isKey {
			return r.fallback()
		}
		body := r.text
		switch {
		case r.uniStart >= 0:
			body = body[:r.uniStart]
		case r.escaped:
			body = body[:len(body)-1]
		}
		return body + `"` + r.closers(), nil
	}
	if r.closable() {
		if len(r.stack) == 1 && r.top().state != stAfterValue {
			return "", ErrIncomplete
		}
		return r.text + r.closers(), nil
	}
	return r.fallback()
}

func (r *repairer) fallback() (string, error) {
	if !r.last.valid || (r.last.rootOnly && !r.content) {
		return "", ErrIncomplete
	}
	return r.text[:r.last.cut] + r.last.closers, nil
}

// mark records the prefix ending at cut as a safe point.
func (r *repairer) mark(cut int) {
	r.last = safePoint{
		cut:      cut,
		closers:  r.closers(),
		rootOnly: len(r.stack) == 1 && r.top().state != stAfterValue,
		valid:    true,
	}
}

func (r *repairer) closers() string {
	var b strings.Builder
	for i := len(r.stack) - 1; i >= 0; i-- {
		if r.stack[i].open == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

func (r *repairer) top() *frame { return &r.stack[len(r.stack)-1] }

func (r *repairer) expectsValue() bool {
	st := r.top().state
	return st == stValue || st == stValueOrEnd
}

func (r *repairer) closable() bool {
	st := r.top().state
	return st == stKeyOrEnd || st == stValueOrEnd || st == stAfterValue
}

func matches(open, cl byte) bool {
	return (open == '{' && cl == '}') || (open == '[' && cl == ']')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isTokenByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func completeToken(tok string) bool {
	switch tok {
	case "true", "false", "null":
		return true
	}
	return isNumber(tok)
}

// isNumber reports whether tok is a complete JSON number:
// -? (0 | [1-9][0-9]*) (. [0-9]+)? ([eE] [+-]? [0-9]+)?
func isNumber(tok string) bool {
	i, n := 0, len(tok)
	digits := func() int {
		start := i
		for i < n && tok[i] >= '0' && tok[i] <= '9' {
			i++
		}
		return i - start
	}
	if i < n && tok[i] == '-' {
		i++
	}
	switch {
	case i < n && tok[i] == '0':
		i++
	case digits() == 0:
		return false
	}
	if i < n && tok[i] == '.' {
		i++
		if digits() == 0 {
			return false
		}
	}
	if i < n && (tok[i] == 'e' || tok[i] == 'E') {
		i++
		if i < n && (tok[i] == '+' || tok[i] == '-') {
			i++
		}
		if digits() == 0 {
			return false
		}
	}
	return i == n
}
