package registry

import (
	"errors"
	"fmt"
)

// ErrUnknownTarget is wrapped by an InstantiationError whose target
// identifier has no registered factory.
var ErrUnknownTarget = errors.New("unknown target")

// InstantiationError reports a target that could not be constructed. Like
// resolution errors, instantiation errors are fatal to the run and carry the
// offending path.
type InstantiationError struct {
	// Target is the target identifier being instantiated.
	Target string

	// Path is the location of the target-bearing node in the document.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *InstantiationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("instantiation of %s failed at %s: %v", e.Target, e.Path, e.Err)
	}
	return fmt.Sprintf("instantiation of %s failed: %v", e.Target, e.Err)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *InstantiationError) Unwrap() error {
	return e.Err
}

func newInstantiationError(target, path string, err error) *InstantiationError {
	return &InstantiationError{Target: target, Path: path, Err: err}
}

// IsInstantiationError reports whether err is (or wraps) an
// InstantiationError.
func IsInstantiationError(err error) bool {
	var e *InstantiationError
	return errors.As(err, &e)
}
