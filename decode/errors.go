package decode

import (
	"errors"
	"fmt"
)

// StateNotAvailableError reports a state-vector query against a result
// that only carries measured statistics.
type StateNotAvailableError struct {
	Reason string
}

func (e *StateNotAvailableError) Error() string {
	return fmt.Sprintf("state not available: %s", e.Reason)
}

// IsStateNotAvailable returns true if the error is a StateNotAvailableError.
// Uses errors.As to handle wrapped errors.
func IsStateNotAvailable(err error) bool {
	var snaErr *StateNotAvailableError
	return errors.As(err, &snaErr)
}
