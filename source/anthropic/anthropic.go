// Package anthropic feeds an Anthropic Messages stream into a jsonish
// Stream. It converts an already open SSE stream; opening it is left to the
// caller's client.
package anthropic

import (
	"context"
	"io"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// Kind selects which deltas become text.
type Kind int

const (
	// TextDeltas forwards text_delta events of every text block.
	TextDeltas Kind = iota
	// ToolInput forwards the input_json_delta events of one tool_use block.
	ToolInput
)

// Opt configures a Source. When several are passed the last one wins.
type Opt struct {
	Kind Kind
	// Tool restricts ToolInput to the first tool_use block with this name;
	// empty means the first tool_use block.
	Tool string
}

// Source is a jsonish.DeltaSource over Anthropic stream events.
type Source struct {
	stream *ssestream.Stream[sdk.MessageStreamEventUnion]
	opt    Opt
	// block is the content index whose input is forwarded; -1 until chosen.
	block int64
}

func New(stream *ssestream.Stream[sdk.MessageStreamEventUnion], opts ...Opt) *Source {
	var opt Opt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return &Source{stream: stream, opt: opt, block: -1}
}

// Next returns the next non-empty delta, io.EOF at the end of the stream,
// or the stream's transport error.
func (s *Source) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !s.stream.Next() {
			if err := s.stream.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		if d, ok := s.handle(s.stream.Current()); ok {
			return d, nil
		}
	}
}

func (s *Source) handle(event sdk.MessageStreamEventUnion) (string, bool) {
	switch ev := event.AsAny().(type) {
	case sdk.ContentBlockStartEvent:
		if s.opt.Kind != ToolInput || s.block >= 0 {
			return "", false
		}
		if tu, ok := ev.ContentBlock.AsAny().(sdk.ToolUseBlock); ok && (s.opt.Tool == "" || tu.Name == s.opt.Tool) {
			s.block = ev.Index
		}
	case sdk.ContentBlockDeltaEvent:
		switch delta := ev.Delta.AsAny().(type) {
		case sdk.TextDelta:
			if s.opt.Kind == TextDeltas && delta.Text != "" {
				return delta.Text, true
			}
		case sdk.InputJSONDelta:
			if s.opt.Kind == ToolInput && ev.Index == s.block && delta.PartialJSON != "" {
				return delta.PartialJSON, true
			}
		}
	}
	return "", false
}

// Close closes the underlying stream.
func (s *Source) Close() error { return s.stream.Close() }
