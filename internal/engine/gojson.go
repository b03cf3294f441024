package engine

import (
	"errors"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

// goJSONSource is a TokenSource over the go-json streaming decoder.
type goJSONSource struct {
	dec   *j.Decoder
	stack []frame
}

// NewString wraps JSON text into a TokenSource backed by go-json.
func NewString(s string) TokenSource {
	dec := j.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	return &goJSONSource{dec: dec}
}

func (s *goJSONSource) NextToken() (Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Token{}, io.EOF
		}
		return Token{}, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return Token{Kind: KindBeginObject, Offset: -1}, nil
		case '}':
			s.pop()
			return Token{Kind: KindEndObject, Offset: -1}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return Token{Kind: KindBeginArray, Offset: -1}, nil
		case ']':
			s.pop()
			return Token{Kind: KindEndArray, Offset: -1}, nil
		}
	case string:
		if n := len(s.stack); n > 0 {
			top := &s.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				top.expectingKey = false
				return Token{Kind: KindKey, String: v, Offset: -1}, nil
			}
		}
		s.valueDone()
		return Token{Kind: KindString, String: v, Offset: -1}, nil
	case bool:
		s.valueDone()
		return Token{Kind: KindBool, Bool: v, Offset: -1}, nil
	case j.Number:
		s.valueDone()
		return Token{Kind: KindNumber, Number: string(v), Offset: -1}, nil
	case float64:
		s.valueDone()
		return Token{Kind: KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: -1}, nil
	case nil:
		s.valueDone()
		return Token{Kind: KindNull, Offset: -1}, nil
	}
	s.valueDone()
	return Token{Kind: KindNull, Offset: -1}, nil
}

func (s *goJSONSource) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
}

// valueDone marks the enclosing object as waiting for its next key.
func (s *goJSONSource) valueDone() {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}
}

func (s *goJSONSource) Location() int64 { return -1 }

// Decode validates text as a single JSON document and decodes it into a Node
// under the given enforcement options.
func Decode(text string, opt EnforceOptions) (Node, error) {
	if !j.Valid([]byte(text)) {
		return Node{}, IssueError{SimpleIssue{Code: "parse_error", Path: "/", Message: "invalid JSON"}}
	}
	src := WrapWithEnforcement(NewString(text), opt)
	return DecodeNodeFromSource(src)
}
