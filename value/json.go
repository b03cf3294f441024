package value

import (
	"bytes"
	"strconv"

	j "github.com/goccy/go-json"
)

// MarshalJSON encodes v with entry order preserved. Unset and Null both
// encode as null. A node that carries checks encodes as
// {"value": ..., "checks": {"name": {...}}}.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	if v.checks != nil {
		buf.WriteString(`{"value":`)
		if err := v.encodeBare(buf); err != nil {
			return err
		}
		buf.WriteString(`,"checks":{`)
		for i, c := range v.checks {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, c.Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			b, err := j.Marshal(c)
			if err != nil {
				return err
			}
			buf.Write(b)
		}
		buf.WriteString("}}")
		return nil
	}
	return v.encodeBare(buf)
}

func (v Value) encodeBare(buf *bytes.Buffer) error {
	switch v.kind {
	case Unset, Null:
		buf.WriteString("null")
	case String, Enum:
		return writeString(buf, v.str)
	case Int:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case Float:
		b, err := j.Marshal(v.f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case List:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Map, Record:
		buf.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, e.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := e.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := j.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
