package stream

import (
	"fmt"
	"sync"

	"github.com/rs/xid"
)

type (
	// Token identifies a registered release action.
	Token string

	// Registry keeps release actions of acquired resources. Every
	// registered action is executed exactly once: either by Release or
	// by Teardown.
	Registry struct {
		mu       sync.Mutex
		entries  []*entry
		index    map[Token]int
		closed   bool
		released int
		log      Logger
	}

	entry struct {
		token   Token
		release func() error
	}
)

// NewRegistry returns empty registry.
func NewRegistry(options ...Option) *Registry {
	c := newConfig(options...)
	return &Registry{
		index: make(map[Token]int),
		log:   c.log,
	}
}

// newToken returns new unique token value.
func newToken() Token {
	return Token(xid.New().String())
}

// Register calls acquire and, if it succeeded, stores release action.
// AcquisitionError is returned if acquire failed, nothing is stored in
// this case.
func (r *Registry) Register(acquire, release func() error) (Token, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return "", ErrRegistryClosed
	}

	if acquire != nil {
		if err := acquire(); err != nil {
			return "", &AcquisitionError{Err: err}
		}
	}

	t := newToken()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		// registry was torn down while acquiring, resource is not owned
		// by anyone else.
		if err := callRelease(release); err != nil {
			return "", &FinalizationError{Errs: []error{err}}
		}
		return "", ErrRegistryClosed
	}
	r.index[t] = len(r.entries)
	r.entries = append(r.entries, &entry{token: t, release: release})
	r.log.Debug("registered ", t)
	return t, nil
}

// Acquire is a typed form of Register. Release function receives the
// acquired value.
func Acquire[R any](r *Registry, acquire func() (R, error), release func(R) error) (R, Token, error) {
	var res R
	t, err := r.Register(
		func() error {
			var err error
			res, err = acquire()
			return err
		},
		func() error {
			return release(res)
		},
	)
	if err != nil {
		var zero R
		return zero, "", err
	}
	return res, t, nil
}

// Release executes release action for provided token and removes it from
// registry. Release of unknown or already released token is no-op.
// FinalizationError is returned if release action failed.
func (r *Registry) Release(t Token) error {
	r.mu.Lock()
	i, ok := r.index[t]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	e := r.entries[i]
	delete(r.index, t)
	r.entries[i] = nil
	r.trim()
	r.released++
	r.mu.Unlock()

	r.log.Debug("released ", t)
	if err := callRelease(e.release); err != nil {
		return &FinalizationError{Errs: []error{fmt.Errorf("release %s: %w", t, err)}}
	}
	return nil
}

// Teardown releases all pending entries in reverse registration order.
// Failures of release actions are aggregated into FinalizationError.
// Only the first call has effect.
func (r *Registry) Teardown() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := r.entries
	r.entries = nil
	r.index = make(map[Token]int)
	r.mu.Unlock()

	var errs execErrors
	var pending int
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e == nil {
			continue
		}
		pending++
		if err := callRelease(e.release); err != nil {
			errs = errs.add(fmt.Errorf("release %s: %w", e.token, err))
		}
	}
	r.mu.Lock()
	r.released += pending
	r.mu.Unlock()
	if pending > 0 {
		r.log.Debug("teardown released ", pending, " pending resources")
	}
	return errs.ret()
}

// Pending returns number of registered, not yet released actions.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.index)
}

// Released returns number of executed release actions.
func (r *Registry) Released() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// trim drops released entries from the tail. If released entries still
// outnumber pending ones, the list is compacted and re-indexed, so
// acquire-release cycles in any order don't grow the registry.
func (r *Registry) trim() {
	n := len(r.entries)
	for n > 0 && r.entries[n-1] == nil {
		n--
	}
	r.entries = r.entries[:n]
	if n-len(r.index) <= len(r.index) {
		return
	}
	entries := make([]*entry, 0, len(r.index))
	for _, e := range r.entries {
		if e == nil {
			continue
		}
		r.index[e.token] = len(entries)
		entries = append(entries, e)
	}
	r.entries = entries
}

// callRelease executes release action. Panic is converted into error.
func callRelease(release func() error) (err error) {
	if release == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("release panic: %v", p)
		}
	}()
	return release()
}
