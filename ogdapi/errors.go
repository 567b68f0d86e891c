package ogdapi

import (
	"fmt"

	"github.com/opengamedata/ogdviz/errors"
)

// FetchError reports a request the metrics service did not answer with a
// SUCCESS envelope, whatever the HTTP status was.
type FetchError struct {
	Key        string
	Status     string
	HTTPStatus int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != "" {
		return fmt.Sprintf("fetch %s: status %s (http %d): %s", e.Key, e.Status, e.HTTPStatus, msg)
	}
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("fetch %s: http %d: %s", e.Key, e.HTTPStatus, msg)
	}
	return fmt.Sprintf("fetch %s: %s", e.Key, msg)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes every FetchError match errors.ErrServiceUnavailable.
func (e *FetchError) Is(target error) bool {
	return target == errors.ErrServiceUnavailable
}
