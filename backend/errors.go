package backend

import (
	"errors"
	"fmt"
)

// UnknownBackendError reports a backend family the catalog does not
// declare, or a family/device pairing the catalog forbids.
type UnknownBackendError struct {
	Name   string
	Device string
	Reason string
}

func (e *UnknownBackendError) Error() string {
	if e.Device != "" {
		return fmt.Sprintf("unknown backend %q (device %q): %s", e.Name, e.Device, e.Reason)
	}
	return fmt.Sprintf("unknown backend %q: %s", e.Name, e.Reason)
}

// IsUnknownBackend returns true if the error is an UnknownBackendError.
// Uses errors.As to handle wrapped errors.
func IsUnknownBackend(err error) bool {
	var ue *UnknownBackendError
	return errors.As(err, &ue)
}

// InvalidShotsError reports a shot count the backend cannot honor.
type InvalidShotsError struct {
	Family string
	Device string
	Shots  int
	Reason string
}

func (e *InvalidShotsError) Error() string {
	return fmt.Sprintf("invalid shots %d for backend %q: %s", e.Shots, e.Family, e.Reason)
}

// IsInvalidShots returns true if the error is an InvalidShotsError.
// Uses errors.As to handle wrapped errors.
func IsInvalidShots(err error) bool {
	var se *InvalidShotsError
	return errors.As(err, &se)
}

// MissingTokenError reports a token-gated backend used without an API
// token.
type MissingTokenError struct {
	Family string
}

func (e *MissingTokenError) Error() string {
	return fmt.Sprintf("backend %q requires an API token: pass one explicitly or set %s", e.Family, TokenEnv)
}

// IsMissingToken returns true if the error is a MissingTokenError.
// Uses errors.As to handle wrapped errors.
func IsMissingToken(err error) bool {
	var me *MissingTokenError
	return errors.As(err, &me)
}
