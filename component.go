package stream

import "context"

type (
	// SourceFunc returns next element. io.EOF is returned when source is
	// exhausted.
	SourceFunc[T any] func(context.Context) (T, error)

	// ProcessFunc pulls zero, one or many elements from upstream and
	// returns a single downstream element. io.EOF ends the downstream.
	ProcessFunc[T, U any] func(context.Context, Puller[T]) (U, error)

	// SinkFunc consumes a single element.
	SinkFunc[T any] func(context.Context, T) error

	// FlushFunc releases resources owned by component. It's called exactly
	// once: when upstream is exhausted, when pipeline is abandoned or when
	// any stage failed.
	FlushFunc func(context.Context) error

	// Puller is the upstream of a processor.
	Puller[T any] interface {
		Next(context.Context) (T, error)
	}

	// Source is the origin of elements.
	Source[T any] struct {
		SourceFunc[T]
		FlushFunc
	}

	// Processor maps upstream elements to downstream elements.
	Processor[T, U any] struct {
		ProcessFunc[T, U]
		FlushFunc
	}

	// Sink is the destination of elements.
	Sink[T any] struct {
		SinkFunc[T]
		FlushFunc
	}

	// SourceAllocatorFunc returns source bound to registry. Resources
	// should be registered in the provided registry.
	SourceAllocatorFunc[T any] func(context.Context, *Registry) (Source[T], error)

	// ProcessorAllocatorFunc returns processor bound to registry.
	ProcessorAllocatorFunc[T, U any] func(context.Context, *Registry) (Processor[T, U], error)

	// SinkAllocatorFunc returns sink bound to registry. Allocation is the
	// moment the sink opens its destination.
	SinkAllocatorFunc[T any] func(context.Context, *Registry) (Sink[T], error)
)

// flush calls the flush hook. Failure is reported as FinalizationError.
func (fn FlushFunc) flush(ctx context.Context) error {
	if fn == nil {
		return nil
	}
	var errs execErrors
	return errs.add(fn(context.WithoutCancel(ctx))).ret()
}
