// Package apperr defines the error taxonomy shared across feedpost.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConfiguration = errors.New("configuration error")
	ErrMediaNotFound = errors.New("media not found")
)

// RemoteServiceError reports a non-2xx response from a remote service.
type RemoteServiceError struct {
	Service    string
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteServiceError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: %s: status %d", e.Service, e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: status %d: %s", e.Service, e.Op, e.StatusCode, e.Body)
}

// Configuration wraps msg so that errors.Is(err, ErrConfiguration) holds.
func Configuration(msg string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, msg)
}
