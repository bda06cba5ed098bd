package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Stream is a bound, pull-driven sequence of elements. Stream releases
// its own resources and resources of its upstream as soon as it's
// exhausted, failed or closed.
//
// Streams are single-consumer and must not be used concurrently.
type Stream[T any] struct {
	next  SourceFunc[T]
	flush FlushFunc

	head   T
	peeked bool
	done   bool
	err    error
}

// Open allocates the source and returns a stream over it.
func Open[T any](ctx context.Context, r *Registry, source SourceAllocatorFunc[T]) (*Stream[T], error) {
	s, err := source(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("source: %w", acquisition(err))
	}
	return newStream(s.SourceFunc, s.FlushFunc), nil
}

// Through allocates the processor and binds it to the stream. Stream is
// closed if processor allocation failed.
func Through[T, U any](ctx context.Context, r *Registry, s *Stream[T], processor ProcessorAllocatorFunc[T, U]) (*Stream[U], error) {
	p, err := processor(ctx, r)
	if err != nil {
		return nil, withFlush(fmt.Errorf("processor: %w", acquisition(err)), s.Close(ctx))
	}
	return bind(s, p), nil
}

func newStream[T any](next SourceFunc[T], flush FlushFunc) *Stream[T] {
	return &Stream[T]{
		next:  next,
		flush: flush,
	}
}

// bind returns stream that pulls through the processor. Closing it
// flushes the processor first, then the upstream.
func bind[T, U any](s *Stream[T], p Processor[T, U]) *Stream[U] {
	return newStream(
		func(ctx context.Context) (U, error) {
			return p.ProcessFunc(ctx, s)
		},
		func(ctx context.Context) error {
			var errs execErrors
			errs = errs.add(p.FlushFunc.flush(ctx))
			errs = errs.add(s.Close(ctx))
			return errs.ret()
		},
	)
}

// Limit returns a view of at most n elements of the stream. Closing the
// view doesn't close the stream, so it can be shared by consequent
// sub-pipelines.
func Limit[T any](s *Stream[T], n int) *Stream[T] {
	var taken int
	return newStream(func(ctx context.Context) (T, error) {
		if taken >= n {
			var zero T
			return zero, io.EOF
		}
		v, err := s.Next(ctx)
		if err != nil {
			return v, err
		}
		taken++
		return v, nil
	}, nil)
}

// Next returns the next element. io.EOF is returned when the stream is
// exhausted. Resources are released before io.EOF or an error is
// returned.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if s.peeked {
		v := s.head
		s.head, s.peeked = zero, false
		return v, nil
	}
	if s.done {
		if s.err != nil {
			return zero, s.err
		}
		return zero, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return zero, s.fail(ctx, err)
	}

	v, err := s.next(ctx)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, io.EOF):
		if flushErr := s.finish(ctx); flushErr != nil {
			s.err = flushErr
			return zero, flushErr
		}
		return zero, io.EOF
	}
	return zero, s.fail(ctx, classify("next", err))
}

// Peek returns the next element without consuming it. At most one element
// is buffered.
func (s *Stream[T]) Peek(ctx context.Context) (T, error) {
	if s.peeked {
		return s.head, nil
	}
	v, err := s.Next(ctx)
	if err != nil {
		return v, err
	}
	s.head, s.peeked = v, true
	return v, nil
}

// More reports if stream has more elements. Error is returned if
// the pull failed.
func (s *Stream[T]) More(ctx context.Context) (bool, error) {
	_, err := s.Peek(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, io.EOF):
		return false, nil
	}
	return false, err
}

// Close abandons the stream. Resources of the stream and all its
// upstream are released before Close returns. It's safe to call Close
// multiple times.
func (s *Stream[T]) Close(ctx context.Context) error {
	var zero T
	s.head, s.peeked = zero, false
	return s.finish(ctx)
}

// Done reports if stream is exhausted, failed or closed.
func (s *Stream[T]) Done() bool {
	return s.done
}

// finish flushes the stream once.
func (s *Stream[T]) finish(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.done = true
	return s.flush.flush(ctx)
}

// fail releases resources and records the terminal error.
func (s *Stream[T]) fail(ctx context.Context, err error) error {
	err = withFlush(err, s.finish(ctx))
	s.err = err
	return err
}

// Collect pulls all elements of the stream.
func Collect[T any](ctx context.Context, s *Stream[T]) ([]T, error) {
	var result []T
	for {
		v, err := s.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return result, nil
			}
			return result, err
		}
		result = append(result, v)
	}
}

// classify wraps err into IOError unless it's already one of stream
// errors or a context error.
func classify(op string, err error) error {
	var (
		ioErr  *IOError
		acqErr *AcquisitionError
		finErr *FinalizationError
		runErr *RunError
	)
	switch {
	case errors.As(err, &ioErr), errors.As(err, &acqErr),
		errors.As(err, &finErr), errors.As(err, &runErr),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return &IOError{Op: op, Err: err}
}

// acquisition wraps err into AcquisitionError unless it's already one of
// stream errors.
func acquisition(err error) error {
	var (
		ioErr  *IOError
		acqErr *AcquisitionError
		finErr *FinalizationError
		runErr *RunError
	)
	switch {
	case errors.As(err, &ioErr), errors.As(err, &acqErr),
		errors.As(err, &finErr), errors.As(err, &runErr):
		return err
	}
	return &AcquisitionError{Err: err}
}
