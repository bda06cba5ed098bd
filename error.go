package stream

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRegistryClosed is returned by Register if registry was already torn
// down. Acquire function is not called in this case.
var ErrRegistryClosed = errors.New("registry is closed")

// AcquisitionError is returned when resource could not be acquired.
// Nothing is registered and no release is owed.
type AcquisitionError struct {
	Err error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquire: %v", e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// IOError is returned when read or write failed while resource was in use.
// Stage that owns the resource releases it before IOError is propagated.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// FinalizationError is returned when one or more release actions failed.
// Errors are kept in the order release actions were executed.
type FinalizationError struct {
	Errs []error
}

func (e *FinalizationError) Error() string {
	s := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		s = append(s, err.Error())
	}
	return fmt.Sprintf("finalize: %s", strings.Join(s, ","))
}

func (e *FinalizationError) Unwrap() []error {
	return e.Errs
}

// RunError is returned if execution failed and release of resources
// failed as well.
type RunError struct {
	Err   error
	Flush error
}

func (e *RunError) Error() string {
	switch {
	case e.Err != nil && e.Flush != nil:
		return fmt.Sprintf("flush error: %v after execute error: %v", e.Flush, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("execute error: %v", e.Err)
	case e.Flush != nil:
		return fmt.Sprintf("flush error: %v", e.Flush)
	}
	return ""
}

// Unwrap allows to match both execution and flush errors.
func (e *RunError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Flush != nil {
		errs = append(errs, e.Flush)
	}
	return errs
}

// withFlush combines execution error with flush error. Untyped nil is
// returned if both are nil.
func withFlush(err, flushErr error) error {
	switch {
	case flushErr == nil:
		return err
	case err == nil:
		return flushErr
	}
	return &RunError{Err: err, Flush: flushErr}
}

// execErrors collects errors of multiple release actions.
type execErrors []error

// ret returns untyped nil if error list is empty.
func (e execErrors) ret() error {
	if len(e) > 0 {
		return &FinalizationError{Errs: e}
	}
	return nil
}

// add appends err. Errors of nested FinalizationError are flattened, so
// teardown reports a single list.
func (e execErrors) add(err error) execErrors {
	if err == nil {
		return e
	}
	var fe *FinalizationError
	if errors.As(err, &fe) {
		return append(e, fe.Errs...)
	}
	return append(e, err)
}
