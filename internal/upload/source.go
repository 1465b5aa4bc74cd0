// Package upload describes where the bytes of a DVC upload come from.
//
// A Source is built while a pipeline is being assembled and does no I/O until
// it is acquired. Acquisition is scoped: Enter opens the resource at most once,
// Exit releases it, and With brackets a function so the release runs on every
// exit path.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
)

// ErrUnsupported is returned (or panicked with, for Describe) when the bare
// Base contract is used without a concrete variant.
var ErrUnsupported = errors.New("operation is not supported on abstract upload source")

// Source is a deferred producer of bytes destined for a path in the repository.
// Open and Close are driven by Enter/Exit; callers should not invoke them directly.
type Source interface {
	// Describe returns a stable, human-readable label for logs. It does no I/O.
	Describe() string
	// Destination is the path inside the repository the bytes are written to.
	Destination() string
	Open(ctx context.Context) (io.Reader, error)
	Close(r io.Reader) error

	lifecycle() *Base
}

// Base carries the fields shared by every variant and the cached resource of
// the current acquisition. Variants embed it and override Describe, Open and Close.
//
// A Source is not safe for concurrent acquisition; use one instance per task.
type Base struct {
	destination string
	origin      string
	resource    io.Reader
}

// Option configures the Base of a source at construction.
type Option func(*Base)

// WithOrigin records where the source was created, e.g. "pipeline.go:42".
// It replaces the default origin, which is the destination path.
func WithOrigin(origin string) Option {
	return func(b *Base) { b.origin = origin }
}

func newBase(destination string, opts []Option) Base {
	b := Base{destination: destination, origin: destination}
	for _, o := range opts {
		o(&b)
	}
	return b
}

func (b *Base) Destination() string { return b.destination }

// Origin is the construction-site context used in descriptions.
func (b *Base) Origin() string { return b.origin }

func (b *Base) Describe() string {
	panic(fmt.Errorf("describe: %w", ErrUnsupported))
}

func (b *Base) Open(context.Context) (io.Reader, error) {
	return nil, fmt.Errorf("open: %w", ErrUnsupported)
}

func (b *Base) Close(io.Reader) error {
	return fmt.Errorf("close: %w", ErrUnsupported)
}

func (b *Base) lifecycle() *Base { return b }

// OpenError reports a failure to obtain the resource of a source.
type OpenError struct {
	Source string
	Err    error
}

func (e *OpenError) Error() string { return fmt.Sprintf("open %s: %v", e.Source, e.Err) }
func (e *OpenError) Unwrap() error { return e.Err }

// CloseError reports a failure to release the resource of a source.
type CloseError struct {
	Source string
	Err    error
}

func (e *CloseError) Error() string { return fmt.Sprintf("close %s: %v", e.Source, e.Err) }
func (e *CloseError) Unwrap() error { return e.Err }

// Enter acquires the resource of s. If s already holds one, the same reader is
// returned and Open is not called again.
func Enter(ctx context.Context, s Source) (io.Reader, error) {
	b := s.lifecycle()
	if b.resource != nil {
		return b.resource, nil
	}
	r, err := s.Open(ctx)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return nil, err
		}
		return nil, &OpenError{Source: s.Describe(), Err: err}
	}
	if r == nil {
		return nil, &OpenError{Source: s.Describe(), Err: errors.New("nil resource")}
	}
	b.resource = r
	return r, nil
}

// Exit releases the resource held by s, if any. The cached reference is
// cleared even when Close fails.
func Exit(s Source) error {
	b := s.lifecycle()
	r := b.resource
	if r == nil {
		return nil
	}
	b.resource = nil
	if err := s.Close(r); err != nil {
		if errors.Is(err, ErrUnsupported) {
			return err
		}
		return &CloseError{Source: s.Describe(), Err: err}
	}
	return nil
}

// With runs fn with the acquired resource of s and releases it afterwards,
// also when fn fails or panics. A close failure is combined with the error
// returned by fn so neither is lost.
func With(ctx context.Context, s Source, fn func(io.Reader) error) (err error) {
	r, err := Enter(ctx, s)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, Exit(s))
	}()
	return fn(r)
}

// Sink receives the content of a source; it is the repository side of an upload.
type Sink interface {
	Write(ctx context.Context, destination string, r io.Reader) (int64, error)
}

// Transfer acquires s and streams its content into sink at s.Destination().
func Transfer(ctx context.Context, s Source, sink Sink) (n int64, err error) {
	err = With(ctx, s, func(r io.Reader) error {
		var werr error
		n, werr = sink.Write(ctx, s.Destination(), r)
		return werr
	})
	return n, err
}
