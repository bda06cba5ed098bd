package stream

import "errors"

// ErrHandleReleased is returned by Handle.Get after the resource was
// released. Handles are single-use.
var ErrHandleReleased = errors.New("handle is released")

// Handle is a resource owned by a single stage. Resource is acquired at
// first demand and registered in the registry, so teardown claims it if
// the stage never releases it.
type Handle[R any] struct {
	registry *Registry
	acquire  func() (R, error)
	release  func(R) error

	token    Token
	value    R
	acquired bool
	released bool
}

// NewHandle returns handle that is not acquired yet.
func NewHandle[R any](r *Registry, acquire func() (R, error), release func(R) error) *Handle[R] {
	return &Handle[R]{
		registry: r,
		acquire:  acquire,
		release:  release,
	}
}

// Get returns the resource, acquiring it on the first call.
func (h *Handle[R]) Get() (R, error) {
	if h.released {
		var zero R
		return zero, ErrHandleReleased
	}
	if h.acquired {
		return h.value, nil
	}
	v, t, err := Acquire(h.registry, h.acquire, h.release)
	if err != nil {
		var zero R
		return zero, err
	}
	h.value, h.token, h.acquired = v, t, true
	return v, nil
}

// Release releases the resource if it was acquired. It's safe to call
// Release multiple times.
func (h *Handle[R]) Release() error {
	if h.released {
		return nil
	}
	h.released = true
	if !h.acquired {
		return nil
	}
	var zero R
	h.value = zero
	return h.registry.Release(h.token)
}

// Acquired reports if resource is currently held.
func (h *Handle[R]) Acquired() bool {
	return h.acquired && !h.released
}
