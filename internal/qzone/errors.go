package qzone

import (
	"errors"
	"fmt"

	"github.com/qzarchive/qzarchive/internal/cookies"
)

var (
	// ErrMalformedEnvelope means the callback wrapper is missing or its
	// payload is not valid JSON
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrUnsupportedMediaOperation is returned when a video stream is
	// requested for a picture
	ErrUnsupportedMediaOperation = errors.New("media is not a video")

	// ErrNotAuthenticated is returned when the cookie jar cannot sign requests
	ErrNotAuthenticated = cookies.ErrNotAuthenticated
)

// TransportError is a network or HTTP failure reported by the transport
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error: %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transport error: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError is a well-formed response carrying a non-zero result code,
// such as -3000 when the session has expired
type ServiceError struct {
	Code    int64
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service error %d: %s", e.Code, e.Message)
}
