package config

import (
	"errors"
	"fmt"
)

// ErrUnknownPath is wrapped by a ResolutionError whose reference names a path
// that does not exist in the document.
var ErrUnknownPath = errors.New("path not found")

// ErrCyclicReference is wrapped by a ResolutionError whose reference chain
// closes on itself.
var ErrCyclicReference = errors.New("cyclic reference")

// ResolutionError reports an interpolation reference that could not be
// resolved. Configuration errors are not recoverable: the error is fatal to
// the run and carries the offending path.
type ResolutionError struct {
	// Path is the location of the value being resolved.
	Path string

	// Ref is the referenced path that failed to resolve.
	Ref string

	// Pos is the source position of the failing value; zero when unknown.
	Pos Position

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	switch {
	case e.Path != "" && e.Pos.Line > 0:
		return fmt.Sprintf("resolution failed at %s (%s): reference ${%s}: %v", e.Path, e.Pos, e.Ref, e.Err)
	case e.Path != "":
		return fmt.Sprintf("resolution failed at %s: reference ${%s}: %v", e.Path, e.Ref, e.Err)
	default:
		return fmt.Sprintf("resolution failed: reference ${%s}: %v", e.Ref, e.Err)
	}
}

// Unwrap returns the underlying error for error chain inspection.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func newResolutionError(path, ref string, err error) *ResolutionError {
	return &ResolutionError{Path: path, Ref: ref, Err: err}
}

// IsResolutionError reports whether err is (or wraps) a ResolutionError.
func IsResolutionError(err error) bool {
	var e *ResolutionError
	return errors.As(err, &e)
}
