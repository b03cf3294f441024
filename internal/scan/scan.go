// Package scan locates the outermost bracketed JSON container inside
// arbitrary model output. It tracks only brackets and string literals; JSON
// validity is left to the repairer and the decoder.
package scan

import "strings"

// Shape is the expected root container.
type Shape int

const (
	Object Shape = iota
	Array
)

func (s Shape) open() byte {
	if s == Array {
		return '['
	}
	return '{'
}

func (s Shape) close() byte {
	if s == Array {
		return ']'
	}
	return '}'
}

// Fragment is a candidate JSON container.
type Fragment struct {
	Text  string
	Start int
	Shape Shape
	// Complete reports whether the closing bracket was found.
	Complete bool
}

// Extract returns the container that opens at the earliest occurrence of any
// of the allowed shapes. The fragment runs to the matching close bracket, or
// to the end of text when depth never returns to zero.
func Extract(text string, shapes ...Shape) (Fragment, bool) {
	start := -1
	var shape Shape
	for _, s := range shapes {
		i := strings.IndexByte(text, s.open())
		if i >= 0 && (start < 0 || i < start) {
			start, shape = i, s
		}
	}
	if start < 0 {
		return Fragment{}, false
	}
	openc, closec := shape.open(), shape.close()
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case openc:
			depth++
		case closec:
			depth--
			if depth == 0 {
				return Fragment{Text: text[start : i+1], Start: start, Shape: shape, Complete: true}, true
			}
		}
	}
	return Fragment{Text: text[start:], Start: start, Shape: shape}, true
}
