package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidSize is returned when non-positive size is provided to
// operators that split stream into parts.
var ErrInvalidSize = errors.New("size must be positive")

// FromSlice returns source of slice items.
func FromSlice[T any](items []T) SourceAllocatorFunc[T] {
	return func(context.Context, *Registry) (Source[T], error) {
		var idx int
		return Source[T]{
			SourceFunc: func(context.Context) (T, error) {
				if idx >= len(items) {
					var zero T
					return zero, io.EOF
				}
				v := items[idx]
				idx++
				return v, nil
			},
		}, nil
	}
}

// FromFunc returns source that calls fn for every element. fn must
// return io.EOF when there are no more elements.
func FromFunc[T any](fn SourceFunc[T]) SourceAllocatorFunc[T] {
	return func(context.Context, *Registry) (Source[T], error) {
		return Source[T]{SourceFunc: fn}, nil
	}
}

// Map transforms every element.
func Map[T, U any](fn func(context.Context, T) (U, error)) ProcessorAllocatorFunc[T, U] {
	return func(context.Context, *Registry) (Processor[T, U], error) {
		return Processor[T, U]{
			ProcessFunc: func(ctx context.Context, in Puller[T]) (U, error) {
				v, err := in.Next(ctx)
				if err != nil {
					var zero U
					return zero, err
				}
				return fn(ctx, v)
			},
		}, nil
	}
}

// Filter passes elements that satisfy fn.
func Filter[T any](fn func(T) bool) ProcessorAllocatorFunc[T, T] {
	return func(context.Context, *Registry) (Processor[T, T], error) {
		return Processor[T, T]{
			ProcessFunc: func(ctx context.Context, in Puller[T]) (T, error) {
				for {
					v, err := in.Next(ctx)
					if err != nil {
						return v, err
					}
					if fn(v) {
						return v, nil
					}
				}
			},
		}, nil
	}
}

// Take passes first n elements. Once n elements are taken, the stream
// ends and its upstream is released without being exhausted.
func Take[T any](n int) ProcessorAllocatorFunc[T, T] {
	return func(context.Context, *Registry) (Processor[T, T], error) {
		var taken int
		return Processor[T, T]{
			ProcessFunc: func(ctx context.Context, in Puller[T]) (T, error) {
				if taken >= n {
					var zero T
					return zero, io.EOF
				}
				v, err := in.Next(ctx)
				if err != nil {
					return v, err
				}
				taken++
				return v, nil
			},
		}, nil
	}
}

// Chunk groups elements into windows of fixed size. The last window
// might be shorter.
func Chunk[T any](size int) ProcessorAllocatorFunc[T, []T] {
	return func(context.Context, *Registry) (Processor[T, []T], error) {
		if size <= 0 {
			return Processor[T, []T]{}, fmt.Errorf("chunk %d: %w", size, ErrInvalidSize)
		}
		return Processor[T, []T]{
			ProcessFunc: func(ctx context.Context, in Puller[T]) ([]T, error) {
				chunk := make([]T, 0, size)
				for len(chunk) < size {
					v, err := in.Next(ctx)
					if err != nil {
						if errors.Is(err, io.EOF) && len(chunk) > 0 {
							return chunk, nil
						}
						return nil, err
					}
					chunk = append(chunk, v)
				}
				return chunk, nil
			},
		}, nil
	}
}

// FlatMap opens a source for every upstream element and emits its
// elements. Only one inner source is open at a time: it's released when
// exhausted, before the next upstream element is pulled.
func FlatMap[T, U any](fn func(T) SourceAllocatorFunc[U]) ProcessorAllocatorFunc[T, U] {
	return func(_ context.Context, r *Registry) (Processor[T, U], error) {
		var inner *Stream[U]
		return Processor[T, U]{
			ProcessFunc: func(ctx context.Context, in Puller[T]) (U, error) {
				var zero U
				for {
					if inner != nil {
						v, err := inner.Next(ctx)
						if err == nil {
							return v, nil
						}
						inner = nil
						if !errors.Is(err, io.EOF) {
							return zero, err
						}
					}
					item, err := in.Next(ctx)
					if err != nil {
						return zero, err
					}
					if inner, err = Open(ctx, r, fn(item)); err != nil {
						return zero, err
					}
				}
			},
			FlushFunc: func(ctx context.Context) error {
				if inner == nil {
					return nil
				}
				return inner.Close(ctx)
			},
		}, nil
	}
}

// Concat returns source that emits elements of sources one after
// another. Next source is opened only after the previous one is
// exhausted and released.
func Concat[T any](sources ...SourceAllocatorFunc[T]) SourceAllocatorFunc[T] {
	return func(ctx context.Context, r *Registry) (Source[T], error) {
		var (
			idx     int
			current *Stream[T]
		)
		return Source[T]{
			SourceFunc: func(ctx context.Context) (T, error) {
				var zero T
				for {
					if current == nil {
						if idx >= len(sources) {
							return zero, io.EOF
						}
						var err error
						if current, err = Open(ctx, r, sources[idx]); err != nil {
							return zero, err
						}
						idx++
					}
					v, err := current.Next(ctx)
					if err == nil {
						return v, nil
					}
					current = nil
					if !errors.Is(err, io.EOF) {
						return zero, err
					}
				}
			},
			FlushFunc: func(ctx context.Context) error {
				if current == nil {
					return nil
				}
				return current.Close(ctx)
			},
		}, nil
	}
}
