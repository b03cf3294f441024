package jsonish

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/jsonish/i18n"
	"github.com/reoring/jsonish/internal/coerce"
	"github.com/reoring/jsonish/internal/constraint"
	"github.com/reoring/jsonish/internal/engine"
	"github.com/reoring/jsonish/internal/repair"
	"github.com/reoring/jsonish/schema"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType       = coerce.CodeInvalidType
	CodeRequired          = coerce.CodeRequired
	CodeInvalidEnum       = coerce.CodeInvalidEnum
	CodeLiteralMismatch   = coerce.CodeLiteralMismatch
	CodeUnionNoMatch      = coerce.CodeUnionNoMatch
	CodeAssertFailed      = coerce.CodeAssertFailed
	CodeCircularReference = coerce.CodeCircularReference
	CodeUnknownType       = coerce.CodeUnknownType
	CodeTruncated         = "truncated"
	CodeParseError        = "parse_error"
	CodeDuplicateKey      = "duplicate_key"
	CodeInvalidSchema     = "invalid_schema"
	CodeInvalidArgument   = "invalid_argument"
)

var (
	// ErrUnset is the panic value of ValueWrapper.Value on an unset wrapper.
	ErrUnset = errors.New("jsonish: value is unset")
	// ErrNilSchema is returned when no root type is given.
	ErrNilSchema = errors.New("jsonish: nil schema")
	// ErrNilSource is returned when a stream is built without a delta source.
	ErrNilSource = errors.New("jsonish: nil delta source")
)

// Issue represents a single failure entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /items/2/price).
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
}

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(iss), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", iss[i].Code, iss[i].Path)
	}
	if len(iss) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ValidationError is the only error final resolution returns for output
// that does not fit the schema. It carries what is needed to diagnose the
// mismatch.
type ValidationError struct {
	Prompt    string
	RawOutput string
	Message   string
	Issues    Issues
}

func (e *ValidationError) Error() string {
	return "jsonish: validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Issues }

// InvalidArgumentError reports an input value rejected by CheckInput.
type InvalidArgumentError struct {
	Message string
	Issues  Issues
}

func (e *InvalidArgumentError) Error() string {
	return "jsonish: invalid argument: " + e.Message
}

func (e *InvalidArgumentError) Unwrap() error { return e.Issues }

func singleIssue(code, msg string, cause error) Issues {
	return Issues{{Path: "/", Code: code, Message: msg, Cause: cause}}
}

func pointer(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// toIssues maps errors of the internal layers onto Issues.
func toIssues(err error) Issues {
	if err == nil {
		return nil
	}
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	var ce *coerce.Error
	if errors.As(err, &ce) {
		leaves := ce.Leaves()
		out := make(Issues, 0, len(leaves))
		for _, l := range leaves {
			out = append(out, Issue{Path: pointer(l.Path), Code: l.Code, Message: l.Message})
		}
		return out
	}
	var ie engine.IssueError
	if errors.As(err, &ie) {
		return Issues{{Path: pointer(ie.Path), Code: ie.Code, Message: ie.Message, Cause: err}}
	}
	var se *repair.SyntaxError
	if errors.As(err, &se) {
		return singleIssue(CodeParseError, se.Error(), err)
	}
	if errors.Is(err, repair.ErrIncomplete) {
		return singleIssue(CodeTruncated, i18n.T(CodeTruncated, nil), err)
	}
	var sch *schema.Error
	var cmp *constraint.CompileError
	if errors.As(err, &sch) || errors.As(err, &cmp) || errors.Is(err, schema.ErrUnknownType) {
		return singleIssue(CodeInvalidSchema, err.Error(), err)
	}
	return singleIssue(CodeParseError, err.Error(), err)
}
