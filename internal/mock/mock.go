// Package mock provides mocks for pipeline components and allows to
// execute integration tests. Every mock can own a resource registered in
// the registry and reports it to Tracker.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/dudk/stream"
)

// Resource kinds reported to Tracker.
const (
	KindSource    = "source"
	KindProcessor = "processor"
	KindSink      = "sink"
)

// Tracker counts open resources by kind.
type Tracker struct {
	mu       sync.Mutex
	open     map[string]int
	peak     map[string]int
	acquired map[string]int
	released map[string]int
	totalPk  int
}

// NewTracker returns empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		open:     make(map[string]int),
		peak:     make(map[string]int),
		acquired: make(map[string]int),
		released: make(map[string]int),
	}
}

func (t *Tracker) acquire(kind string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open[kind]++
	t.acquired[kind]++
	if t.open[kind] > t.peak[kind] {
		t.peak[kind] = t.open[kind]
	}
	var total int
	for _, n := range t.open {
		total += n
	}
	if total > t.totalPk {
		t.totalPk = total
	}
}

func (t *Tracker) release(kind string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open[kind]--
	t.released[kind]++
}

// Open returns number of currently open resources of kind.
func (t *Tracker) Open(kind string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open[kind]
}

// Peak returns max number of simultaneously open resources of kind.
func (t *Tracker) Peak(kind string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peak[kind]
}

// PeakTotal returns max number of simultaneously open resources of all
// kinds.
func (t *Tracker) PeakTotal() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalPk
}

// Acquired returns number of acquired resources of kind.
func (t *Tracker) Acquired(kind string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.acquired[kind]
}

// Released returns number of released resources of kind.
func (t *Tracker) Released(kind string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released[kind]
}

// Hooks allows to mock components hooks.
type Hooks struct {
	Flushed  int
	Released int

	ErrorOnFlush   error
	ErrorOnRelease error
	ErrorOnAcquire error
}

func (h *Hooks) flush() error {
	h.Flushed++
	return h.ErrorOnFlush
}

// handle registers resource of kind that reports to tracker.
func (h *Hooks) handle(r *stream.Registry, t *Tracker, kind string) *stream.Handle[string] {
	return stream.NewHandle(r,
		func() (string, error) {
			if h.ErrorOnAcquire != nil {
				return "", h.ErrorOnAcquire
			}
			t.acquire(kind)
			return kind, nil
		},
		func(string) error {
			h.Released++
			t.release(kind)
			return h.ErrorOnRelease
		},
	)
}

// Source emits Limit consequent ints starting from Value. It acquires a
// resource at first pull and releases it on exhaustion.
type Source struct {
	Hooks
	Tracker     *Tracker
	Limit       int
	Value       int
	ErrorOnCall error
	// ErrorAt is the 1-based number of the call that fails.
	ErrorAt int
	Calls   int
}

// Source returns allocator of the mock.
func (m *Source) Source() stream.SourceAllocatorFunc[int] {
	return func(_ context.Context, r *stream.Registry) (stream.Source[int], error) {
		h := m.handle(r, m.Tracker, KindSource)
		var emitted int
		return stream.Source[int]{
			SourceFunc: func(context.Context) (int, error) {
				m.Calls++
				if _, err := h.Get(); err != nil {
					return 0, err
				}
				if m.ErrorOnCall != nil && (m.ErrorAt == 0 || m.ErrorAt == m.Calls) {
					return 0, m.ErrorOnCall
				}
				if emitted >= m.Limit {
					if err := h.Release(); err != nil {
						return 0, err
					}
					return 0, io.EOF
				}
				v := m.Value + emitted
				emitted++
				return v, nil
			},
			FlushFunc: func(context.Context) error {
				if err := m.flush(); err != nil {
					return err
				}
				return h.Release()
			},
		}, nil
	}
}

// Processor passes elements through. It doesn't own a resource unless
// Tracker is set.
type Processor struct {
	Hooks
	Tracker     *Tracker
	ErrorOnCall error
	Calls       int
}

// Processor returns allocator of the mock.
func (m *Processor) Processor() stream.ProcessorAllocatorFunc[int, int] {
	return func(_ context.Context, r *stream.Registry) (stream.Processor[int, int], error) {
		var h *stream.Handle[string]
		if m.Tracker != nil {
			h = m.handle(r, m.Tracker, KindProcessor)
		}
		return stream.Processor[int, int]{
			ProcessFunc: func(ctx context.Context, in stream.Puller[int]) (int, error) {
				m.Calls++
				if h != nil {
					if _, err := h.Get(); err != nil {
						return 0, err
					}
				}
				if m.ErrorOnCall != nil {
					return 0, m.ErrorOnCall
				}
				return in.Next(ctx)
			},
			FlushFunc: func(context.Context) error {
				if err := m.flush(); err != nil {
					return err
				}
				if h != nil {
					return h.Release()
				}
				return nil
			},
		}, nil
	}
}

// Sink collects elements. It acquires a resource when allocated.
// Buffer is not thread-safe, so should not be checked while pipe is
// running.
type Sink struct {
	Hooks
	Tracker     *Tracker
	Discard     bool
	ErrorOnCall error
	// ErrorAt is the 1-based number of the element that fails.
	ErrorAt int
	Calls   int
	buffer  []int
}

// Sink returns allocator of the mock.
func (m *Sink) Sink() stream.SinkAllocatorFunc[int] {
	return func(_ context.Context, r *stream.Registry) (stream.Sink[int], error) {
		h := m.handle(r, m.Tracker, KindSink)
		if _, err := h.Get(); err != nil {
			return stream.Sink[int]{}, err
		}
		return stream.Sink[int]{
			SinkFunc: func(_ context.Context, v int) error {
				m.Calls++
				if m.ErrorOnCall != nil && (m.ErrorAt == 0 || m.ErrorAt == m.Calls) {
					return m.ErrorOnCall
				}
				if !m.Discard {
					m.buffer = append(m.buffer, v)
				}
				return nil
			},
			FlushFunc: func(context.Context) error {
				if err := m.flush(); err != nil {
					return err
				}
				return h.Release()
			},
		}, nil
	}
}

// Buffer returns sink's buffer.
func (m *Sink) Buffer() []int {
	return m.buffer
}
