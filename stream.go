package jsonish

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"

	"github.com/reoring/jsonish/internal/coerce"
	"github.com/reoring/jsonish/internal/constraint"
	"github.com/reoring/jsonish/internal/engine"
	"github.com/reoring/jsonish/internal/repair"
	"github.com/reoring/jsonish/internal/scan"
	"github.com/reoring/jsonish/schema"
	"github.com/reoring/jsonish/value"
)

// State of a Stream.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateResolving
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	}
	return "unknown"
}

// Stream consumes a DeltaSource and coerces the accumulated text into P for
// every delta and into T once at the end. A Stream is not safe for
// concurrent use. Abandoning it early is fine: the buffer and any resolved
// result stay readable.
type Stream[P, T any] struct {
	id    ulid.ULID
	src   DeltaSource
	pipe  *pipeline
	log   *slog.Logger
	buf   strings.Builder
	state State
	err   error

	final    T
	finalErr error
}

// NewStream validates the schema, compiles its constraints and returns an
// idle stream over src.
func NewStream[P, T any](src DeltaSource, reg *schema.Registry, root schema.Type, opts ...StreamOpt) (*Stream[P, T], error) {
	if src == nil {
		return nil, ErrNilSource
	}
	opt := lastOpt(opts)
	p, err := newPipeline(reg, root, opt)
	if err != nil {
		return nil, err
	}
	s := &Stream[P, T]{id: ulid.Make(), src: src, pipe: p}
	s.log = opt.Logger.With("stream", s.id.String())
	return s, nil
}

// ID identifies the stream in logs.
func (s *Stream[P, T]) ID() ulid.ULID { return s.id }

func (s *Stream[P, T]) State() State { return s.state }

// Buffer returns all text received so far.
func (s *Stream[P, T]) Buffer() string { return s.buf.String() }

// Err returns the last delta source error seen by Partials.
func (s *Stream[P, T]) Err() error { return s.err }

// Next pulls one delta and returns the partial value recovered from the
// whole buffer. Once the source is exhausted the stream resolves and Next
// returns io.EOF. Delta source errors are returned unchanged and leave the
// stream unresolved.
func (s *Stream[P, T]) Next(ctx context.Context) (PartialValueWrapper[P], error) {
	if s.state == StateResolved {
		return PartialValueWrapper[P]{}, io.EOF
	}
	delta, err := s.src.Next(ctx)
	if errors.Is(err, io.EOF) {
		s.resolve()
		return PartialValueWrapper[P]{}, io.EOF
	}
	if err != nil {
		s.log.Debug("delta source failed", "err", err)
		return PartialValueWrapper[P]{}, err
	}
	s.append(delta)
	return PartialValueWrapper[P]{Delta: delta, Partial: s.partial()}, nil
}

// Partials ranges over the remaining events. Iteration ends when the stream
// resolves or the source fails; see Err.
func (s *Stream[P, T]) Partials(ctx context.Context) iter.Seq[PartialValueWrapper[P]] {
	return func(yield func(PartialValueWrapper[P]) bool) {
		for {
			ev, err := s.Next(ctx)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.err = err
				}
				return
			}
			if !yield(ev) {
				return
			}
		}
	}
}

// Final drains the source and returns the strict result. The result is
// memoized: later calls return it without touching the source. Only a
// delta source error is returned while the stream stays unresolved.
func (s *Stream[P, T]) Final(ctx context.Context) (T, error) {
	for s.state != StateResolved {
		delta, err := s.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			s.resolve()
			break
		}
		if err != nil {
			var zero T
			return zero, err
		}
		s.append(delta)
	}
	return s.final, s.finalErr
}

func (s *Stream[P, T]) append(delta string) {
	s.state = StateStreaming
	s.buf.WriteString(delta)
}

func (s *Stream[P, T]) partial() ValueWrapper[P] {
	v, err := s.pipe.run(s.buf.String(), true)
	if err != nil {
		s.log.Debug("partial unset", "bytes", s.buf.Len(), "err", err)
		return Unset[P]()
	}
	out, err := bind[P](v)
	if err != nil {
		s.log.Debug("partial unset", "stage", "bind", "err", err)
		return Unset[P]()
	}
	return Set(out)
}

func (s *Stream[P, T]) resolve() {
	s.state = StateResolving
	text := s.buf.String()
	v, err := s.pipe.run(text, false)
	if err == nil {
		s.final, err = bind[T](v)
	}
	if err != nil {
		var zero T
		s.final = zero
		s.finalErr = s.pipe.validationError(text, err)
		s.log.Info("stream resolved", "ok", false, "bytes", len(text), "err", s.finalErr)
	} else {
		s.log.Info("stream resolved", "ok", true, "bytes", len(text))
	}
	s.state = StateResolved
}

// bind converts the dynamic value into X through its JSON form.
// value.Value targets receive the tree itself.
func bind[X any](v value.Value) (X, error) {
	var out X
	if p, ok := any(&out).(*value.Value); ok {
		*p = v
		return out, nil
	}
	raw, err := j.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := j.Unmarshal(raw, &out); err != nil {
		return out, singleIssue(CodeInvalidType, err.Error(), err)
	}
	return out, nil
}

// pipeline is the scan, repair, decode, coerce and evaluate chain for one
// schema.
type pipeline struct {
	reg    *schema.Registry
	root   schema.Type
	eval   *constraint.Evaluator
	shapes []scan.Shape
	// bare is set when the root admits a non-container value.
	bare    bool
	enforce engine.EnforceOptions
	prompt  string
}

func newPipeline(reg *schema.Registry, root schema.Type, opt StreamOpt) (*pipeline, error) {
	if root == nil {
		return nil, ErrNilSchema
	}
	if err := reg.Validate(root); err != nil {
		return nil, toIssues(err)
	}
	ev, err := constraint.Compile(reg, root)
	if err != nil {
		return nil, toIssues(err)
	}
	p := &pipeline{reg: reg, root: root, eval: ev, enforce: opt.enforce(), prompt: opt.Prompt}
	p.hint(root, map[string]bool{})
	return p, nil
}

// hint derives the container shapes the root can take.
func (p *pipeline) hint(t schema.Type, seen map[string]bool) {
	switch x := t.(type) {
	case *schema.Record, *schema.Map:
		p.addShape(scan.Object)
	case *schema.List:
		p.addShape(scan.Array)
	case *schema.Union:
		for _, v := range x.Variants {
			p.hint(v, seen)
		}
	case *schema.Optional:
		p.bare = true
		p.hint(x.Inner, seen)
	case *schema.Constrained:
		p.hint(x.Inner, seen)
	case *schema.Ref:
		if seen[x.Name] {
			return
		}
		seen[x.Name] = true
		if rt, ok := p.reg.Lookup(x.Name); ok {
			p.hint(rt, seen)
		}
	default:
		p.bare = true
	}
}

func (p *pipeline) addShape(s scan.Shape) {
	for _, have := range p.shapes {
		if have == s {
			return
		}
	}
	p.shapes = append(p.shapes, s)
}

// run coerces text. Candidates are the bracketed container, then for roots
// that admit scalars the trimmed text decoded as JSON, then the trimmed text
// as a raw string. The first that coerces wins; otherwise the first failure
// is reported.
func (p *pipeline) run(text string, partial bool) (value.Value, error) {
	var first error
	try := func(n engine.Node, err error) (value.Value, bool) {
		if err == nil {
			v, cerr := coerce.Coerce(n, p.root, coerce.Options{Partial: partial, Registry: p.reg, Evaluator: p.eval})
			if cerr == nil {
				return v, true
			}
			err = cerr
		}
		if first == nil {
			first = err
		}
		return value.Value{}, false
	}
	if len(p.shapes) > 0 {
		if v, ok := try(p.container(text, partial)); ok {
			return v, nil
		}
	}
	if p.bare {
		t := strings.TrimSpace(text)
		if t == "" {
			try(engine.Node{}, repair.ErrIncomplete)
			return value.Value{}, first
		}
		if j.Valid([]byte(t)) {
			if v, ok := try(engine.Decode(t, p.enforce)); ok {
				return v, nil
			}
		}
		if v, ok := try(engine.Node{Kind: engine.NodeString, String: t}, nil); ok {
			return v, nil
		}
	}
	return value.Value{}, first
}

func (p *pipeline) container(text string, partial bool) (engine.Node, error) {
	frag, ok := scan.Extract(text, p.shapes...)
	if !ok {
		return engine.Node{}, repair.ErrIncomplete
	}
	body := frag.Text
	if partial {
		fixed, err := repair.Repair(body)
		if err != nil {
			return engine.Node{}, err
		}
		body = fixed
	} else if !frag.Complete {
		return engine.Node{}, engine.IssueError{SimpleIssue: engine.SimpleIssue{Code: CodeTruncated, Path: "/", Message: "output ends inside a JSON container"}}
	}
	return engine.Decode(body, p.enforce)
}

func (p *pipeline) validationError(text string, err error) *ValidationError {
	return &ValidationError{
		Prompt:    p.prompt,
		RawOutput: text,
		Message:   err.Error(),
		Issues:    toIssues(err),
	}
}
