package runner

import (
	"errors"
	"fmt"
)

// ErrInterrupted is wrapped by Run errors caused by cancellation.
var ErrInterrupted = errors.New("run interrupted")

// HTTPError represents a call that completed with a failing status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus lets the metrics package bucket failures by status code.
func (e *HTTPError) HTTPStatus() int {
	return e.StatusCode
}

func interrupted(phase string, cause error) error {
	return fmt.Errorf("%w during %s: %w", ErrInterrupted, phase, cause)
}
