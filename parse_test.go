package jsonish_test

import (
	"context"
	"errors"
	"testing"

	"github.com/reoring/jsonish"
	"github.com/reoring/jsonish/schema"
	"github.com/reoring/jsonish/value"
)

func TestParsePartial(t *testing.T) {
	reg, root := fooSchema(t)
	ctx := context.Background()
	w := jsonish.ParsePartial[value.Value](ctx, reg, root, `{"a": 5, "b": 1`)
	if !w.IsSet() || w.Value().String() != "Foo{a: 5, b: 1}" {
		t.Fatalf("partial = %v", w)
	}
	if w := jsonish.ParsePartial[value.Value](ctx, reg, root, `{ `); w.IsSet() {
		t.Fatalf("bare opener recovered a value: %s", w.Value())
	}
	w = jsonish.ParsePartial[value.Value](ctx, reg, root, `{"a`)
	if !w.IsSet() || w.Value().String() != "Foo{a: <unset>, b: <unset>}" {
		t.Fatalf("open key at the root = %v", w)
	}
	w = jsonish.ParsePartial[value.Value](ctx, reg, root, `{"a": `)
	if !w.IsSet() || w.Value().String() != "Foo{a: <unset>, b: <unset>}" {
		t.Fatalf("dangling colon at the root = %v", w)
	}
	if w := jsonish.ParsePartial[value.Value](ctx, reg, nil, `{}`); w.IsSet() {
		t.Fatalf("nil schema yielded a value")
	}
}

func TestCheckInput(t *testing.T) {
	reg := schema.NewRegistry()
	if err := reg.Add(&schema.Record{Name: "Req", Fields: []schema.Field{
		{Name: "count", Type: schema.WithAsserts(schema.IntT(), "small", "this < 10")},
		{Name: "note", Type: schema.Opt(schema.Str())},
	}}); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	root := schema.Named("Req")
	if err := jsonish.CheckInput(ctx, reg, root, map[string]any{"count": 3}); err != nil {
		t.Fatalf("valid input: %v", err)
	}
	err := jsonish.CheckInput(ctx, reg, root, map[string]any{"count": 30})
	var ia *jsonish.InvalidArgumentError
	if !errors.As(err, &ia) {
		t.Fatalf("want *InvalidArgumentError, got %v", err)
	}
	if len(ia.Issues) == 0 || ia.Issues[0].Code != jsonish.CodeAssertFailed || ia.Issues[0].Path != "/count" {
		t.Fatalf("issues = %+v", ia.Issues)
	}
	err = jsonish.CheckInput(ctx, reg, root, map[string]any{"note": "x"})
	if !errors.As(err, &ia) || ia.Issues[0].Code != jsonish.CodeRequired {
		t.Fatalf("missing count: %v", err)
	}
}

func TestIssues_Error(t *testing.T) {
	iss := jsonish.Issues{
		{Path: "/a", Code: "required"},
		{Path: "/b", Code: "invalid_type"},
		{Path: "/c", Code: "invalid_type"},
		{Path: "/d", Code: "invalid_type"},
	}
	if got := iss.Error(); got != "required at /a; invalid_type at /b; invalid_type at /c; ... (total 4)" {
		t.Fatalf("Error() = %q", got)
	}
	if _, ok := jsonish.AsIssues(errors.New("plain")); ok {
		t.Fatalf("plain error reported issues")
	}
}
