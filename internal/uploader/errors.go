package uploader

import (
	"errors"
	"fmt"
)

var (
	ErrIO        = errors.New("failed to read file")
	ErrTransport = errors.New("request failed")
)

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.Code)
}
