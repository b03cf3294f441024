package engine

import (
	"errors"
	"io"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// NodeKind identifies the shape of a decoded JSON node.
type NodeKind int

const (
	NodeNull NodeKind = iota
	NodeString
	NodeNumber
	NodeBool
	NodeArray
	NodeObject
)

func (k NodeKind) String() string {
	switch k {
	case NodeNull:
		return "null"
	case NodeString:
		return "string"
	case NodeNumber:
		return "number"
	case NodeBool:
		return "bool"
	case NodeArray:
		return "array"
	case NodeObject:
		return "object"
	}
	return "unknown"
}

// Node is an order-preserving JSON value. Numbers keep their source text so
// that the coercer decides between int and float.
type Node struct {
	Kind    NodeKind
	String  string
	Number  string
	Bool    bool
	Items   []Node
	Members []Member
}

// Member is a single object entry.
type Member struct {
	Key   string
	Value Node
}

// Lookup returns the first member with the given key.
func (n Node) Lookup(key string) (Node, bool) {
	for _, m := range n.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Node{}, false
}

// ErrUnexpectedToken reports a token that cannot start or continue a value.
var ErrUnexpectedToken = errors.New("engine: unexpected token")

// DecodeNodeFromSource builds a Node from the streaming token source.
func DecodeNodeFromSource(src TokenSource) (Node, error) {
	tok, err := src.NextToken()
	if err != nil {
		return Node{}, err
	}
	return decodeValue(src, tok)
}

func decodeValue(src TokenSource, tok Token) (Node, error) {
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src)
	case KindBeginArray:
		return decodeArray(src)
	case KindString:
		return Node{Kind: NodeString, String: tok.String}, nil
	case KindNumber:
		return Node{Kind: NodeNumber, Number: tok.Number}, nil
	case KindBool:
		return Node{Kind: NodeBool, Bool: tok.Bool}, nil
	case KindNull:
		return Node{Kind: NodeNull}, nil
	default:
		return Node{}, ErrUnexpectedToken
	}
}

func decodeObject(src TokenSource) (Node, error) {
	n := Node{Kind: NodeObject, Members: []Member{}}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return Node{}, eofAsUnexpected(err)
		}
		if tok.Kind == KindEndObject {
			return n, nil
		}
		if tok.Kind != KindKey {
			return Node{}, ErrUnexpectedToken
		}
		vt, err := src.NextToken()
		if err != nil {
			return Node{}, eofAsUnexpected(err)
		}
		v, err := decodeValue(src, vt)
		if err != nil {
			return Node{}, err
		}
		n.Members = append(n.Members, Member{Key: tok.String, Value: v})
	}
}

func decodeArray(src TokenSource) (Node, error) {
	n := Node{Kind: NodeArray, Items: []Node{}}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return Node{}, eofAsUnexpected(err)
		}
		if tok.Kind == KindEndArray {
			return n, nil
		}
		v, err := decodeValue(src, tok)
		if err != nil {
			return Node{}, err
		}
		n.Items = append(n.Items, v)
	}
}

func eofAsUnexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
