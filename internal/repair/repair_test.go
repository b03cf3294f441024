package repair

import (
	"errors"
	"testing"
)

func TestRepair_Table(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"complete", `{"a": 1}`, `{"a": 1}`},
		{"complete number kept", `{"a": 1`, `{"a": 1}`},
		{"negative exponent kept", `[1, -2.5e3`, `[1, -2.5e3]`},
		{"partial decimal dropped", `{"a": 1, "b": 1.`, `{"a": 1}`},
		{"partial exponent dropped", `[1, 2e`, `[1]`},
		{"lone minus dropped", `[1, -`, `[1]`},
		{"partial true dropped", `{"a": "x", "b": tru`, `{"a": "x"}`},
		{"partial null dropped", `[null, nul`, `[null]`},
		{"complete literal kept", `[true, false`, `[true, false]`},
		{"open value string closed", `{"a": "hel`, `{"a": "hel"}`},
		{"dangling escape dropped", `{"a": "x\`, `{"a": "x"}`},
		{"partial unicode escape dropped", `{"a": "x\u00`, `{"a": "x"}`},
		{"complete escape kept", `{"a": "x\"y`, `{"a": "x\"y"}`},
		{"open key dropped", `{"a": 1, "b`, `{"a": 1}`},
		{"key without colon dropped", `{"a": 1, "b"`, `{"a": 1}`},
		{"key with colon dropped", `{"a": 1, "b": `, `{"a": 1}`},
		{"trailing comma dropped", `{"a": 1,`, `{"a": 1}`},
		{"array trailing comma dropped", `[1, 2, `, `[1, 2]`},
		{"nested open containers closed", `{"a": [{"b": [1`, `{"a": [{"b": [1]}]}`},
		{"empty nested object kept", `{"a": {`, `{"a": {}}`},
		{"empty nested array kept", `{"a": [`, `{"a": []}`},
		{"nested key dropped to empty", `{"a": {"b`, `{"a": {}}`},
		{"whitespace tail", "[1, 2 \n", "[1, 2 \n]"},
		{"root open key dropped to empty", `{"a`, `{}`},
		{"root key without colon dropped to empty", `{"a"`, `{}`},
		{"root dangling colon dropped to empty", `{"user": `, `{}`},
		{"root partial literal dropped to empty", `{"a": tr`, `{}`},
		{"root partial number dropped to empty", `[-`, `[]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Repair(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Repair(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRepair_Incomplete(t *testing.T) {
	for _, in := range []string{"", "{", "[", "  {  ", "[\n\t"} {
		if _, err := Repair(in); !errors.Is(err, ErrIncomplete) {
			t.Fatalf("Repair(%q): want ErrIncomplete, got %v", in, err)
		}
	}
}

func TestRepair_SyntaxError(t *testing.T) {
	for _, in := range []string{`{'a': 1`, `{"a" 1`, `[1 2`, `[1,]`, `{"a": undefined,`, `x{`} {
		_, err := Repair(in)
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("Repair(%q): want SyntaxError, got %v", in, err)
		}
	}
}

func TestRepair_StopsAtRootClose(t *testing.T) {
	got, err := Repair(`[1] trailing`)
	if err != nil || got != `[1]` {
		t.Fatalf("got %q err=%v", got, err)
	}
}

func TestIsNumber(t *testing.T) {
	for _, tok := range []string{"0", "-0", "12", "-3.25", "1e9", "2E-3", "0.5e+1"} {
		if !isNumber(tok) {
			t.Fatalf("isNumber(%q) = false", tok)
		}
	}
	for _, tok := range []string{"", "-", "01", "1.", ".5", "1e", "1e+", "+1", "1.2.3", "0x1", "--1"} {
		if isNumber(tok) {
			t.Fatalf("isNumber(%q) = true", tok)
		}
	}
}
