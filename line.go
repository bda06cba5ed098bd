package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Line defines sequence of component allocators. It has a single
// source, zero or many processors and a single sink.
type Line[T any] struct {
	Source     SourceAllocatorFunc[T]
	Processors []ProcessorAllocatorFunc[T, T]
	Sink       SinkAllocatorFunc[T]
}

// Run binds components of the line and drains it. Number of elements
// consumed by the sink is returned.
func (l Line[T]) Run(ctx context.Context, r *Registry) (int, error) {
	s, err := l.route(ctx, r)
	if err != nil {
		return 0, err
	}
	return Drain(ctx, r, s, l.Sink)
}

// route opens source and binds processors to it.
func (l Line[T]) route(ctx context.Context, r *Registry) (*Stream[T], error) {
	s, err := Open(ctx, r, l.Source)
	if err != nil {
		return nil, err
	}
	for i := range l.Processors {
		if s, err = Through(ctx, r, s, l.Processors[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Drain allocates the sink and puts every element of the stream into
// it. Sink is flushed exactly once: after the stream is exhausted or
// after any failure. If sink fails, the stream is closed as well, so
// its resources are released before the error is returned.
func Drain[T any](ctx context.Context, r *Registry, s *Stream[T], sink SinkAllocatorFunc[T]) (int, error) {
	k, err := sink(ctx, r)
	if err != nil {
		return 0, withFlush(fmt.Errorf("sink: %w", acquisition(err)), s.Close(ctx))
	}

	var n int
	for {
		v, err := s.Next(ctx)
		if err != nil {
			flushErr := k.FlushFunc.flush(ctx)
			if errors.Is(err, io.EOF) {
				return n, flushErr
			}
			return n, withFlush(err, flushErr)
		}
		if err := k.SinkFunc(ctx, v); err != nil {
			var errs execErrors
			errs = errs.add(k.FlushFunc.flush(ctx))
			errs = errs.add(s.Close(ctx))
			return n, withFlush(classify("put", err), errs.ret())
		}
		n++
	}
}

// Split drains the stream into consequent sinks, size elements each.
// sinkFor is called with the index of the sink. Sink is allocated only
// if stream has more elements and it's flushed before the next sink is
// allocated, so only one sink is open at a time. Number of used sinks is
// returned.
func Split[T any](ctx context.Context, r *Registry, s *Stream[T], size int, sinkFor func(int) SinkAllocatorFunc[T]) (int, error) {
	if size <= 0 {
		return 0, withFlush(fmt.Errorf("split %d: %w", size, ErrInvalidSize), s.Close(ctx))
	}
	for i := 0; ; i++ {
		more, err := s.More(ctx)
		if err != nil {
			return i, err
		}
		if !more {
			return i, nil
		}
		if _, err := Drain(ctx, r, Limit(s, size), sinkFor(i)); err != nil {
			return i + 1, withFlush(err, s.Close(ctx))
		}
	}
}
