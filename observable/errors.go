package observable

import (
	"errors"
	"fmt"
)

// NonHermitianError indicates a matrix observable that is not equal to
// its own conjugate transpose, or has a non-real expectation and so
// cannot be measured.
type NonHermitianError struct {
	Wires []string
}

// Error implements the error interface.
func (e *NonHermitianError) Error() string {
	if len(e.Wires) > 0 {
		return fmt.Sprintf("observable on wires %v is not Hermitian", e.Wires)
	}
	return "observable is not Hermitian"
}

// IsNonHermitian returns true if the error is a hermiticity rejection.
// Uses errors.As to handle wrapped errors.
func IsNonHermitian(err error) bool {
	var e *NonHermitianError
	return errors.As(err, &e)
}
