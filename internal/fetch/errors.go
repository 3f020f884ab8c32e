package fetch

import "errors"

// Fetch errors. The resource cache treats all of them the same way, but they
// are kept distinct so logs and reports can say why a placeholder was used.
var (
	// ErrUnexpectedStatus is returned for any non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrBodyTooLarge is returned when a response body exceeds the configured limit.
	ErrBodyTooLarge = errors.New("response body exceeds size limit")

	// ErrInvalidURL is returned when the resource URL cannot be turned into a request.
	ErrInvalidURL = errors.New("invalid resource URL")
)
