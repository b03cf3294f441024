package jsonish_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/reoring/jsonish"
	"github.com/reoring/jsonish/schema"
	"github.com/reoring/jsonish/value"
)

type foo struct {
	A *int `json:"a"`
	B *int `json:"b"`
}

func fooSchema(t *testing.T) (*schema.Registry, schema.Type) {
	t.Helper()
	reg := schema.NewRegistry()
	if err := reg.Add(&schema.Record{Name: "Foo", Fields: []schema.Field{
		{Name: "a", Type: schema.IntT()},
		{Name: "b", Type: schema.IntT()},
	}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	return reg, schema.Named("Foo")
}

func newValueStream(t *testing.T, src jsonish.DeltaSource, reg *schema.Registry, root schema.Type, opts ...jsonish.StreamOpt) *jsonish.Stream[value.Value, value.Value] {
	t.Helper()
	st, err := jsonish.NewStream[value.Value, value.Value](src, reg, root, opts...)
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	return st
}

func TestStream_PartialsThenFinal(t *testing.T) {
	reg, root := fooSchema(t)
	st := newValueStream(t, jsonish.FromSlice(`{"a": 1`, `, "b": 2}`), reg, root)
	ctx := context.Background()

	var got []string
	for ev := range st.Partials(ctx) {
		if !ev.Partial.IsSet() {
			t.Fatalf("partial after %q is unset", ev.Delta)
		}
		got = append(got, ev.Partial.Value().String())
	}
	want := []string{"Foo{a: 1, b: <unset>}", "Foo{a: 1, b: 2}"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("partials = %v, want %v", got, want)
	}
	if st.State() != jsonish.StateResolved {
		t.Fatalf("state = %s", st.State())
	}
	v, err := st.Final(ctx)
	if err != nil {
		t.Fatalf("final: %v", err)
	}
	if v.String() != "Foo{a: 1, b: 2}" || !v.Complete() {
		t.Fatalf("final = %s", v)
	}
	if _, err := st.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("next after resolve: %v", err)
	}
}

func TestStream_TypedTargets(t *testing.T) {
	reg, root := fooSchema(t)
	st, err := jsonish.NewStream[foo, foo](jsonish.FromSlice(`Sure: {"a": 1`, `, "b": 2} done`), reg, root)
	if err != nil {
		t.Fatalf("new stream: %v", err)
	}
	ctx := context.Background()
	ev, err := st.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	p := ev.Partial.Value()
	if p.A == nil || *p.A != 1 || p.B != nil {
		t.Fatalf("partial = %+v", p)
	}
	out, err := st.Final(ctx)
	if err != nil {
		t.Fatalf("final: %v", err)
	}
	if out.A == nil || out.B == nil || *out.B != 2 {
		t.Fatalf("final = %+v", out)
	}
	if st.Buffer() != `Sure: {"a": 1, "b": 2} done` {
		t.Fatalf("buffer = %q", st.Buffer())
	}
}

func TestStream_FinalValidationError(t *testing.T) {
	reg, root := fooSchema(t)
	st := newValueStream(t, jsonish.FromSlice(`{"a": 1}`), reg, root, jsonish.StreamOpt{Prompt: "give me a Foo"})
	_, err := st.Final(context.Background())
	var ve *jsonish.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want *ValidationError, got %T %v", err, err)
	}
	if ve.Prompt != "give me a Foo" || ve.RawOutput != `{"a": 1}` {
		t.Fatalf("prompt/raw = %q %q", ve.Prompt, ve.RawOutput)
	}
	if len(ve.Issues) != 1 || ve.Issues[0].Code != jsonish.CodeRequired || ve.Issues[0].Path != "/b" {
		t.Fatalf("issues = %+v", ve.Issues)
	}
	iss, ok := jsonish.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("AsIssues = %v %v", iss, ok)
	}
}

func TestStream_TruncatedFinal(t *testing.T) {
	reg, root := fooSchema(t)
	st := newValueStream(t, jsonish.FromSlice(`{"a": 1, "b": 2`), reg, root)
	ctx := context.Background()
	ev, err := st.Next(ctx)
	if err != nil || !ev.Partial.IsSet() {
		t.Fatalf("partial: %v %v", ev, err)
	}
	_, err = st.Final(ctx)
	iss, ok := jsonish.AsIssues(err)
	if !ok || iss[0].Code != jsonish.CodeTruncated {
		t.Fatalf("final err = %v", err)
	}
}

func TestStream_FinalIdempotent(t *testing.T) {
	reg, root := fooSchema(t)
	calls := 0
	deltas := []string{`{"a": 3,`, ` "b": 4}`}
	src := jsonish.DeltaSourceFunc(func(ctx context.Context) (string, error) {
		calls++
		if len(deltas) == 0 {
			return "", io.EOF
		}
		d := deltas[0]
		deltas = deltas[1:]
		return d, nil
	})
	st := newValueStream(t, src, reg, root)
	ctx := context.Background()
	first, err := st.Final(ctx)
	if err != nil {
		t.Fatalf("final: %v", err)
	}
	second, err := st.Final(ctx)
	if err != nil {
		t.Fatalf("final again: %v", err)
	}
	if !first.Equal(second) || calls != 3 {
		t.Fatalf("first=%s second=%s calls=%d", first, second, calls)
	}
	for range st.Partials(ctx) {
		t.Fatalf("resolved stream yielded an event")
	}
}

func TestStream_SourceErrorUnchanged(t *testing.T) {
	reg, root := fooSchema(t)
	boom := errors.New("connection reset")
	n := 0
	src := jsonish.DeltaSourceFunc(func(ctx context.Context) (string, error) {
		n++
		if n == 1 {
			return `{"a": 1`, nil
		}
		return "", boom
	})
	st := newValueStream(t, src, reg, root)
	ctx := context.Background()
	events := 0
	for range st.Partials(ctx) {
		events++
	}
	if events != 1 || !errors.Is(st.Err(), boom) {
		t.Fatalf("events=%d err=%v", events, st.Err())
	}
	if st.State() == jsonish.StateResolved {
		t.Fatalf("stream resolved after a source error")
	}
	if _, err := st.Final(ctx); err != boom {
		t.Fatalf("final err = %v, want %v", err, boom)
	}
	if st.Buffer() != `{"a": 1` {
		t.Fatalf("buffer = %q", st.Buffer())
	}
}

func TestStream_ChecksAndAsserts(t *testing.T) {
	ctx := context.Background()

	checked := schema.WithChecks(schema.IntT(), "is_positive", "this > 0")
	v, err := jsonish.Parse[value.Value](ctx, nil, checked, "-3")
	if err != nil {
		t.Fatalf("check-level failure must not fail parsing: %v", err)
	}
	cs := v.Checks()
	if v.Int() != -3 || len(cs) != 1 || cs[0].Name != "is_positive" || cs[0].Status != value.Failed {
		t.Fatalf("value %s checks %+v", v, cs)
	}

	asserted := schema.WithAsserts(schema.IntT(), "is_positive", "this > 0")
	_, err = jsonish.Parse[value.Value](ctx, nil, asserted, "-3")
	iss, ok := jsonish.AsIssues(err)
	if !ok || iss[0].Code != jsonish.CodeAssertFailed {
		t.Fatalf("assert err = %v", err)
	}
	if _, err := jsonish.Parse[value.Value](ctx, nil, asserted, "5"); err != nil {
		t.Fatalf("passing assert: %v", err)
	}
}

func TestStream_CheckedBinding(t *testing.T) {
	reg := schema.NewRegistry()
	if err := reg.Add(&schema.Record{Name: "Job", Fields: []schema.Field{
		{Name: "years", Type: schema.WithChecks(schema.IntT(), "non_negative", "this >= 0")},
	}}); err != nil {
		t.Fatal(err)
	}
	type job struct {
		Years jsonish.Checked[int] `json:"years"`
	}
	out, err := jsonish.Parse[job](context.Background(), reg, schema.Named("Job"), `{"years": -1}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.Years.Value != -1 || out.Years.Passed() {
		t.Fatalf("years = %+v", out.Years)
	}
	if f := out.Years.Failed(); len(f) != 1 || f[0] != "non_negative" {
		t.Fatalf("failed = %v", f)
	}
}

func TestStream_EnumAliasPrecedence(t *testing.T) {
	color := &schema.Enum{Name: "Color", Values: []string{"RED", "BLUE"}, Aliases: []schema.Alias{
		{Label: "RED", Value: "BLUE"},
		{Label: "sky", Value: "BLUE"},
	}}
	reg := schema.NewRegistry()
	if err := reg.Add(color); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for in, want := range map[string]string{`"RED"`: "Color.RED", `"sky"`: "Color.BLUE", "  BLUE ": "Color.BLUE"} {
		v, err := jsonish.Parse[value.Value](ctx, reg, schema.Named("Color"), in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if v.String() != want {
			t.Fatalf("%q = %s, want %s", in, v, want)
		}
	}
}

func TestStream_UnionFirstMatch(t *testing.T) {
	reg := schema.NewRegistry()
	if err := reg.Add(
		&schema.Record{Name: "Foo", Fields: []schema.Field{{Name: "a", Type: schema.IntT()}}},
		&schema.Record{Name: "Bar", Fields: []schema.Field{{Name: "a", Type: schema.IntT()}}},
	); err != nil {
		t.Fatal(err)
	}
	v, err := jsonish.Parse[value.Value](context.Background(), reg, schema.OneOf(schema.Named("Foo"), schema.Named("Bar")), `{"a": 1}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.Name() != "Foo" {
		t.Fatalf("matched %s, want Foo", v.Name())
	}
}

func TestStream_ScalarRoots(t *testing.T) {
	ctx := context.Background()
	s, err := jsonish.Parse[string](ctx, nil, schema.Str(), "  plain answer\n")
	if err != nil || s != "plain answer" {
		t.Fatalf("string root = %q, %v", s, err)
	}
	n, err := jsonish.Parse[int](ctx, nil, schema.IntT(), "42")
	if err != nil || n != 42 {
		t.Fatalf("int root = %d, %v", n, err)
	}
	if _, err := jsonish.Parse[int](ctx, nil, schema.IntT(), ""); err == nil {
		t.Fatalf("empty text accepted as int")
	}
}

func TestStream_DuplicateKeys(t *testing.T) {
	reg, root := fooSchema(t)
	ctx := context.Background()
	text := `{"a": 1, "a": 9, "b": 2}`
	v, err := jsonish.Parse[value.Value](ctx, reg, root, text)
	if err != nil {
		t.Fatalf("ignore: %v", err)
	}
	if a, _ := v.Get("a"); a.Int() != 1 {
		t.Fatalf("first occurrence not used: %s", v)
	}
	_, err = jsonish.Parse[value.Value](ctx, reg, root, text, jsonish.StreamOpt{OnDuplicateKey: jsonish.Error})
	iss, ok := jsonish.AsIssues(err)
	if !ok || iss[0].Code != jsonish.CodeDuplicateKey {
		t.Fatalf("error mode: %v", err)
	}
}

func TestStream_DuplicateKeysInMapsAndOpenRecords(t *testing.T) {
	ctx := context.Background()
	m := schema.MapOf(schema.Str(), schema.IntT())
	v, err := jsonish.Parse[value.Value](ctx, nil, m, `{"a": 1, "a": 9, "b": 2}`)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if v.String() != "{a: 1, b: 2}" {
		t.Fatalf("map = %s", v)
	}
	typed, err := jsonish.Parse[map[string]int](ctx, nil, m, `{"a": 1, "a": 9}`)
	if err != nil || len(typed) != 1 || typed["a"] != 1 {
		t.Fatalf("typed map = %v, %v", typed, err)
	}

	reg := schema.NewRegistry()
	if err := reg.Add(&schema.Record{Name: "O", Open: true, Fields: []schema.Field{{Name: "a", Type: schema.IntT()}}}); err != nil {
		t.Fatal(err)
	}
	v, err = jsonish.Parse[value.Value](ctx, reg, schema.Named("O"), `{"a": 1, "x": 1, "x": 2}`)
	if err != nil {
		t.Fatalf("open record: %v", err)
	}
	b, err := v.MarshalJSON()
	if err != nil || string(b) != `{"a":1,"x":1}` {
		t.Fatalf("open record = %s, %v", b, err)
	}
}

func TestStream_NestedEnumByteByByte(t *testing.T) {
	reg := schema.NewRegistry()
	if err := reg.Add(
		&schema.Enum{Name: "Role", Values: []string{"ADMIN", "USER"}},
		&schema.Record{Name: "User", Fields: []schema.Field{
			{Name: "role", Type: schema.Named("Role")},
			{Name: "age", Type: schema.IntT()},
		}},
		&schema.Record{Name: "Top", Fields: []schema.Field{
			{Name: "user", Type: schema.Named("User")},
			{Name: "note", Type: schema.Str()},
		}},
	); err != nil {
		t.Fatal(err)
	}
	text := `{"user": {"role": "ADMIN", "age": 3}, "note": "hi"}`
	deltas := make([]string, len(text))
	for i := range text {
		deltas[i] = text[i : i+1]
	}
	st := newValueStream(t, jsonish.FromSlice(deltas...), reg, schema.Named("Top"))
	ctx := context.Background()
	var mid string
	i := 0
	for ev := range st.Partials(ctx) {
		if i > 0 && !ev.Partial.IsSet() {
			t.Fatalf("partial after %q is unset", st.Buffer())
		}
		if st.Buffer() == `{"user": {"role": "ADM` {
			mid = ev.Partial.Value().String()
		}
		i++
	}
	if want := "Top{user: User{role: <unset>, age: <unset>}, note: <unset>}"; mid != want {
		t.Fatalf("mid-enum partial = %s, want %s", mid, want)
	}
	v, err := st.Final(ctx)
	if err != nil || v.String() != `Top{user: User{role: Role.ADMIN, age: 3}, note: "hi"}` {
		t.Fatalf("final = %s, %v", v, err)
	}
}

func TestNewStream_RejectsBadSchema(t *testing.T) {
	if _, err := jsonish.NewStream[value.Value, value.Value](jsonish.FromSlice(), nil, nil); !errors.Is(err, jsonish.ErrNilSchema) {
		t.Fatalf("nil root: %v", err)
	}
	if _, err := jsonish.NewStream[value.Value, value.Value](nil, nil, schema.IntT()); !errors.Is(err, jsonish.ErrNilSource) {
		t.Fatalf("nil source: %v", err)
	}
	_, err := jsonish.NewStream[value.Value, value.Value](jsonish.FromSlice(), nil, schema.Named("Missing"))
	iss, ok := jsonish.AsIssues(err)
	if !ok || iss[0].Code != jsonish.CodeInvalidSchema {
		t.Fatalf("unknown ref: %v", err)
	}
	_, err = jsonish.NewStream[value.Value, value.Value](jsonish.FromSlice(), nil, schema.WithChecks(schema.IntT(), "broken", "this >"))
	iss, ok = jsonish.AsIssues(err)
	if !ok || iss[0].Code != jsonish.CodeInvalidSchema {
		t.Fatalf("bad expression: %v", err)
	}
}
