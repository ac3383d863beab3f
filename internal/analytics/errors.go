package analytics

import "github.com/pkg/errors"

var (
	// ErrAlertNotFound is returned when an alert cannot be found.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrAlertAlreadyResolved is returned when resolving an alert twice.
	ErrAlertAlreadyResolved = errors.New("alert already resolved")
)
