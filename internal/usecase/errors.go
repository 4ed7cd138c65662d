package usecase

import "github.com/cockroachdb/errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrInvalidMatch          = errors.New("match is not reportable")
	ErrTransportRejected     = errors.New("transport rejected message")
	ErrIncompleteData        = errors.New("incomplete match data")
	ErrInsufficientData      = errors.New("insufficient data to render")
)

// IsTerminal reports whether a delivery error should drop the pending entry
// instead of retrying it.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrInvalidMatch) || errors.Is(err, ErrTransportRejected)
}
