package github

import (
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v74/github"
)

// ErrMissingRepository is returned when the owner or repository is not set.
var ErrMissingRepository = errors.New("github owner and repository are required")

// StatusError is returned when GitHub answers with a non-success status.
type StatusError struct {
	StatusCode int
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github responded with status %d: %v", e.StatusCode, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}

	return 0, false
}

// IsNotFound reports whether err is a 404 or 410 response.
func IsNotFound(err error) bool {
	code, ok := StatusCode(err)
	return ok && (code == http.StatusNotFound || code == http.StatusGone)
}

// wrap converts a go-github failure into a StatusError when a response was
// received.
func wrap(resp *gh.Response, err error) error {
	if err == nil {
		return nil
	}
	if resp != nil && resp.Response != nil {
		return &StatusError{StatusCode: resp.StatusCode, Err: err}
	}

	return err
}
