/*
Package stream allows to build pull-driven pipelines that release their
resources promptly and deterministically.

Concept

A pipeline has up to three kinds of stages:

    Source - the origin of elements;
    Processor - the manipulator of elements;
    Sink - the destination of elements;

It implies the following constraints:

    Source and Sink are mandatory;
    There might be 0 to n Processors;
    Elements are pulled one at a time, nothing runs ahead of demand.

Registry

Every resource acquired by a stage (file, socket, lock) is registered in a
Registry together with its release action:

    f, token, err := stream.Acquire(r, open, close)

The stage releases the resource itself as soon as it's not needed anymore:

    err := r.Release(token)

Release is idempotent. Every registered action is executed exactly once:
either by the owning stage or by Teardown of the registry.

Components

Components are instantiated with allocator functions:

    SourceAllocatorFunc
    ProcessorAllocatorFunc
    SinkAllocatorFunc

Component structures consist of run closure and flush hook. Flush hook is
called when the stage is exhausted, abandoned or failed. Sources are
flushed before the io.EOF is returned to the consumer, so finalization is
triggered by the end of data and not deferred to an enclosing scope.

Execution

The outer boundary is Run. It owns the registry and tears it down on every
exit path:

    err := stream.Run(ctx, func(ctx context.Context, r *stream.Registry) error {
        _, err := stream.Line[[]byte]{
            Source: file.Source(fs, "in.txt", 4096),
            Sink:   file.Sink(fs, "out.txt"),
        }.Run(ctx, r)
        return err
    })

Correct components release everything before Run returns, so teardown is
a no-op in the common case.
*/
package stream
