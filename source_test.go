package jsonish_test

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/reoring/jsonish"
)

func drain(t *testing.T, src jsonish.DeltaSource) []string {
	t.Helper()
	var out []string
	for {
		d, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		out = append(out, d)
	}
}

func TestFromReader_KeepsRunesWhole(t *testing.T) {
	in := `{"name": "日本語テキスト"}`
	got := drain(t, jsonish.FromReader(strings.NewReader(in), 5))
	if strings.Join(got, "") != in {
		t.Fatalf("joined = %q", strings.Join(got, ""))
	}
	for _, d := range got {
		if !utf8.ValidString(d) {
			t.Fatalf("delta %q splits a rune", d)
		}
		if len(d) > 5 {
			t.Fatalf("delta %q longer than chunk", d)
		}
	}
}


func TestFromChannel(t *testing.T) {
	ch := make(chan string, 2)
	ch <- "a"
	ch <- "b"
	close(ch)
	if got := drain(t, jsonish.FromChannel(ch)); strings.Join(got, ",") != "a,b" {
		t.Fatalf("got %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := jsonish.FromChannel(make(chan string)).Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled next: %v", err)
	}
}

func TestFromSeq(t *testing.T) {
	boom := errors.New("boom")
	seq := iter.Seq2[string, error](func(yield func(string, error) bool) {
		if !yield("x", nil) {
			return
		}
		yield("", boom)
	})
	src, stop := jsonish.FromSeq(seq)
	defer stop()
	ctx := context.Background()
	if d, err := src.Next(ctx); d != "x" || err != nil {
		t.Fatalf("first = %q %v", d, err)
	}
	if _, err := src.Next(ctx); !errors.Is(err, boom) {
		t.Fatalf("second err = %v", err)
	}
	if _, err := src.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("after end = %v", err)
	}
}

func TestStream_OverReader(t *testing.T) {
	reg, root := fooSchema(t)
	text := "Here you go:\n```json\n{\"a\": 10, \"b\": 20}\n```"
	st := newValueStream(t, jsonish.FromReader(strings.NewReader(text), 4), reg, root)
	ctx := context.Background()
	n := 0
	for range st.Partials(ctx) {
		n++
	}
	v, err := st.Final(ctx)
	if err != nil {
		t.Fatalf("final: %v", err)
	}
	if v.String() != "Foo{a: 10, b: 20}" || n == 0 {
		t.Fatalf("final = %s after %d events", v, n)
	}
}
