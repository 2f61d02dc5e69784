package spec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolved marks indirect or unresolved dependent leaves reaching
	// evaluation or compilation.
	ErrUnresolved = errors.New("unresolved specification")

	// ErrUnsupported marks leaves that have no form in a compile target.
	ErrUnsupported = errors.New("unsupported specification")

	// ErrKeyMismatch is returned when Evaluate is given a key that is not
	// the node's own id.
	ErrKeyMismatch = errors.New("key does not match node id")
)

// UnresolvedError reports a leaf that needed resolution first.
type UnresolvedError struct {
	Spec Specification
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s: %T %s", ErrUnresolved, e.Spec, e.Spec)
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolved }

// UnsupportedError reports a leaf with no form for Target.
type UnsupportedError struct {
	Spec   Specification
	Target string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: %T %s cannot be compiled to %s", ErrUnsupported, e.Spec, e.Spec, e.Target)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// IsUnresolved reports whether err is or wraps an UnresolvedError.
func IsUnresolved(err error) bool { return errors.Is(err, ErrUnresolved) }

// IsUnsupported reports whether err is or wraps an UnsupportedError.
func IsUnsupported(err error) bool { return errors.Is(err, ErrUnsupported) }
