package jsonish

import (
	"context"

	j "github.com/goccy/go-json"

	"github.com/reoring/jsonish/internal/coerce"
	"github.com/reoring/jsonish/internal/engine"
	"github.com/reoring/jsonish/schema"
)

// Parse runs the strict pipeline over complete text. The error is a
// *ValidationError for mismatched output and Issues for an invalid schema.
func Parse[T any](ctx context.Context, reg *schema.Registry, root schema.Type, text string, opts ...StreamOpt) (T, error) {
	st, err := NewStream[T, T](FromSlice(text), reg, root, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return st.Final(ctx)
}

// ParsePartial coerces possibly truncated text the way a stream does after
// each delta. It never fails; an unusable text or schema yields Unset.
func ParsePartial[P any](ctx context.Context, reg *schema.Registry, root schema.Type, text string, opts ...StreamOpt) ValueWrapper[P] {
	st, err := NewStream[P, P](FromSlice(text), reg, root, opts...)
	if err != nil {
		return Unset[P]()
	}
	ev, err := st.Next(ctx)
	if err != nil {
		return Unset[P]()
	}
	return ev.Partial
}

// CheckInput validates a caller-side value against root before it is sent
// anywhere: v is encoded to JSON, coerced strictly and its asserts are
// enforced. Failures are *InvalidArgumentError.
func CheckInput(ctx context.Context, reg *schema.Registry, root schema.Type, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := newPipeline(reg, root, StreamOpt{})
	if err != nil {
		return err
	}
	raw, err := j.Marshal(v)
	if err != nil {
		return &InvalidArgumentError{Message: err.Error(), Issues: singleIssue(CodeInvalidArgument, err.Error(), err)}
	}
	n, err := engine.Decode(string(raw), p.enforce)
	if err != nil {
		return &InvalidArgumentError{Message: err.Error(), Issues: toIssues(err)}
	}
	if _, cerr := coerce.Coerce(n, root, coerce.Options{Registry: reg, Evaluator: p.eval}); cerr != nil {
		return &InvalidArgumentError{Message: cerr.Error(), Issues: toIssues(cerr)}
	}
	return nil
}
