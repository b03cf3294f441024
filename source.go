package jsonish

import (
	"context"
	"errors"
	"io"
	"iter"
	"unicode/utf8"
)

// DeltaSource is a pull-based, ordered sequence of text deltas. Next returns
// io.EOF once the sequence is exhausted; any other error is a transport
// failure and is passed to the caller unchanged.
type DeltaSource interface {
	Next(ctx context.Context) (string, error)
}

// DeltaSourceFunc adapts a function to DeltaSource.
type DeltaSourceFunc func(ctx context.Context) (string, error)

func (f DeltaSourceFunc) Next(ctx context.Context) (string, error) { return f(ctx) }

type sliceSource struct {
	deltas []string
	i      int
}

// FromSlice replays fixed deltas.
func FromSlice(deltas ...string) DeltaSource { return &sliceSource{deltas: deltas} }

func (s *sliceSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.i >= len(s.deltas) {
		return "", io.EOF
	}
	d := s.deltas[s.i]
	s.i++
	return d, nil
}

type chanSource struct{ ch <-chan string }

// FromChannel reads deltas until ch is closed.
func FromChannel(ch <-chan string) DeltaSource { return chanSource{ch: ch} }

func (s chanSource) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case d, ok := <-s.ch:
		if !ok {
			return "", io.EOF
		}
		return d, nil
	}
}

type seqSource struct {
	next func() (string, error, bool)
	stop func()
}

// FromSeq pulls deltas from a range-over-func sequence. The sequence ends
// the source when it stops or yields io.EOF. Call the returned stop
// function when abandoning the source early.
func FromSeq(seq iter.Seq2[string, error]) (DeltaSource, func()) {
	next, stop := iter.Pull2(seq)
	return &seqSource{next: next, stop: stop}, stop
}

func (s *seqSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d, err, ok := s.next()
	if !ok {
		return "", io.EOF
	}
	if errors.Is(err, io.EOF) {
		s.stop()
	}
	return d, err
}

type readerSource struct {
	r       io.Reader
	buf     []byte
	pending []byte
	done    bool
}

// FromReader turns r into deltas of at most size bytes, never splitting a
// UTF-8 sequence. Sizes below utf8.UTFMax are raised to it.
func FromReader(r io.Reader, size int) DeltaSource {
	return &readerSource{r: r, buf: make([]byte, max(size, utf8.UTFMax))}
}

func (s *readerSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for {
		if cut := completePrefix(s.pending, s.done); cut > 0 {
			limit := min(cut, len(s.buf))
			if limit < cut {
				// back up to a rune start
				for limit > 0 && !utf8.RuneStart(s.pending[limit]) {
					limit--
				}
				if limit == 0 {
					limit = cut
				}
			}
			d := string(s.pending[:limit])
			s.pending = s.pending[limit:]
			return d, nil
		}
		if s.done {
			return "", io.EOF
		}
		n, err := s.r.Read(s.buf)
		s.pending = append(s.pending, s.buf[:n]...)
		if errors.Is(err, io.EOF) {
			s.done = true
		} else if err != nil {
			return "", err
		}
	}
}

// completePrefix is the length of the longest prefix of b that does not end
// inside a UTF-8 sequence. At end of input everything is complete.
func completePrefix(b []byte, done bool) int {
	if done || len(b) == 0 {
		return len(b)
	}
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if utf8.FullRune(b[i:]) {
				return len(b)
			}
			return i
		}
	}
	return len(b)
}
