package jsonish

import (
	"log/slog"

	"github.com/reoring/jsonish/internal/engine"
)

// Severity expresses the severity level for issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// StreamOpt bundles stream options. When several are passed the last one
// wins.
type StreamOpt struct {
	// Prompt is the request text, reported back in ValidationError.
	Prompt string
	// MaxDepth limits container nesting of decoded output; 0 disables it.
	MaxDepth int
	// OnDuplicateKey selects how repeated object keys are treated. Under
	// Ignore and Warn the first occurrence is used.
	OnDuplicateKey Severity
	// Logger receives debug records per delta and one record per
	// resolution. Nil discards.
	Logger *slog.Logger
}

func lastOpt(opts []StreamOpt) StreamOpt {
	var opt StreamOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.DiscardHandler)
	}
	return opt
}

func (o StreamOpt) enforce() engine.EnforceOptions {
	eo := engine.EnforceOptions{MaxDepth: o.MaxDepth}
	switch o.OnDuplicateKey {
	case Warn:
		eo.OnDuplicate = engine.DupWarn
		log := o.Logger
		eo.IssueSink = func(is engine.SimpleIssue) {
			log.Warn("duplicate key in model output", "path", is.Path)
		}
	case Error:
		eo.OnDuplicate = engine.DupError
	default:
		eo.OnDuplicate = engine.DupIgnore
	}
	return eo
}
