package circuit

import (
	"errors"
	"fmt"
)

// UnsupportedOperationError indicates an operation that cannot be expressed
// on the wire format supported by the remote backends.
type UnsupportedOperationError struct {
	// Name is the operation name as given by the caller.
	Name string

	// Reason explains why the operation was rejected, if the name alone
	// is not enough (placement constraints, missing decompositions).
	Reason string
}

// Error implements the error interface.
func (e *UnsupportedOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported operation %q: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("unsupported operation %q", e.Name)
}

// InvalidWireError indicates a wire reference that does not resolve against
// the device register, or resolves to something the operation cannot use.
type InvalidWireError struct {
	Wire   string
	Reason string
}

// Error implements the error interface.
func (e *InvalidWireError) Error() string {
	return fmt.Sprintf("invalid wire %q: %s", e.Wire, e.Reason)
}

// IsUnsupportedOperation returns true if the error is an operation rejection.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedOperation(err error) bool {
	var e *UnsupportedOperationError
	return errors.As(err, &e)
}

// IsInvalidWire returns true if the error is a wire resolution error.
// Uses errors.As to handle wrapped errors.
func IsInvalidWire(err error) bool {
	var e *InvalidWireError
	return errors.As(err, &e)
}
