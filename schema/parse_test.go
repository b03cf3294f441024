package schema_test

import (
	"testing"

	"github.com/reoring/jsonish/schema"
)

func TestParseType_RoundTrip(t *testing.T) {
	cases := map[string]string{
		"int":                        "int",
		"string[]":                   "string[]",
		"Person?":                    "Person?",
		"map<string, int[]>":         "map<string, int[]>",
		"int | string | null":        "int | string | null",
		"(int | string)[]":           "(int | string)[]",
		`"done" | "pending"`:         `"done" | "pending"`,
		"42 | -1.5 | true":           "42 | -1.5 | true",
		"  Tree [ ] ? ":              "Tree[]?",
		"map<Color, map<string, A>>": "map<Color, map<string, A>>",
	}
	for in, want := range cases {
		got, err := schema.ParseType(in)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", in, err)
		}
		if got.String() != want {
			t.Fatalf("ParseType(%q) = %q, want %q", in, got.String(), want)
		}
	}
}

func TestParseType_Literals(t *testing.T) {
	got, err := schema.ParseType(`42`)
	if err != nil {
		t.Fatal(err)
	}
	if lit, ok := got.(*schema.Literal); !ok || lit.Value != int64(42) {
		t.Fatalf("want int64 literal, got %#v", got)
	}
	got, _ = schema.ParseType(`"a\"b"`)
	if lit, ok := got.(*schema.Literal); !ok || lit.Value != `a"b` {
		t.Fatalf("want string literal, got %#v", got)
	}
}

func TestParseType_Errors(t *testing.T) {
	for _, in := range []string{"", "int |", "map<string>", "(int", "int[", `"open`, "int int", "%"} {
		if _, err := schema.ParseType(in); err == nil {
			t.Fatalf("ParseType(%q): expected error", in)
		}
	}
}
