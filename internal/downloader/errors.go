package downloader

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyURL = errors.New("downloader: empty url")
	// ErrTransferActive is returned by Start while the previous transfer is
	// still running. Serialising downloads is up to the caller.
	ErrTransferActive = errors.New("downloader: a transfer is already active")
)

// StatusError is a non-success HTTP response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned unexpected status: %s", e.Status)
}

// IsStatusError reports whether err wraps a *StatusError.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
