package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when pickup or dropoff is empty at submit time.
	ErrValidation = errors.New("validation error")

	// ErrPermissionDenied means the user has not granted location access.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrLocationUnavailable means the device could not produce a fix.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrGeocodingUnresolved means a geocoding lookup found nothing or failed.
	// Link building never returns it; it only reaches the lookup endpoints.
	ErrGeocodingUnresolved = errors.New("geocoding unresolved")

	// ErrLaunchFailed is matched by every *LaunchError.
	ErrLaunchFailed = errors.New("launch failed")

	ErrSessionNotFound = errors.New("session not found")
	ErrAppsMissing     = errors.New("required apps not installed")

	// ErrStaleUpdate means the session changed while an async result was pending.
	ErrStaleUpdate = errors.New("session changed during update")
)

// LaunchError reports a provider link the device could not open.
type LaunchError struct {
	Provider Provider
	URI      string
	Err      error
}

func (e *LaunchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("open %s link: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("open %s link: no handler", e.Provider)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLaunchFailed) true for any LaunchError.
func (e *LaunchError) Is(target error) bool { return target == ErrLaunchFailed }
