// Package jsonish turns streamed language model output into typed values.
//
// A Stream accumulates text deltas from a DeltaSource. After every delta it
// locates the JSON container in the text so far, closes whatever is still
// open, and coerces the result against a schema.Type, yielding a best-effort
// partial value that is unset when nothing could be recovered yet. When the
// source is exhausted the same pipeline runs once more in strict mode: the
// container must be complete, every required field present and every assert
// true. The outcome is memoized.
//
// Failures while streaming never surface as errors; final resolution
// returns either the value or a *ValidationError.
//
// Typical usage:
//
//	doc, _ := schema.LoadFile("resume.yaml")
//	st, err := jsonish.NewStream[Resume, Resume](jsonish.FromChannel(deltas), doc.Registry, doc.Root)
//	for ev := range st.Partials(ctx) {
//		render(ev.Partial)
//	}
//	resume, err := st.Final(ctx)
package jsonish
