// Package grapherror classifies dashboard pipeline failures for display and logging.
package grapherror

import (
	"context"
	"time"

	"github.com/opengamedata/ogdviz/errors"
)

// GraphError carries a failure together with how to present it.
type GraphError struct {
	Err         error
	Category    Category
	Subcategory string
	UserMessage string
	Context     map[string]interface{}
	Timestamp   time.Time
}

func (e *GraphError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

func (e *GraphError) Unwrap() error {
	return e.Err
}

// New creates a GraphError in category.
func New(category Category, err error, userMsg string) *GraphError {
	return &GraphError{
		Err:         err,
		Category:    category,
		UserMessage: userMsg,
		Context:     make(map[string]interface{}),
		Timestamp:   time.Now(),
	}
}

// Newf creates a GraphError with a formatted underlying error.
func Newf(category Category, userMsg, format string, args ...interface{}) *GraphError {
	return New(category, errors.Newf(format, args...), userMsg)
}

func (e *GraphError) WithSubcategory(sub string) *GraphError {
	e.Subcategory = sub
	return e
}

func (e *GraphError) WithContext(key string, value interface{}) *GraphError {
	e.Context[key] = value
	return e
}

// Classify wraps err in a GraphError whose category follows the sentinel it
// carries. An err that already is a GraphError is returned as is.
func Classify(err error) *GraphError {
	if err == nil {
		return nil
	}
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge
	}

	switch {
	case errors.Is(err, errors.ErrInvalidRequest):
		return New(CategoryValidation, err, userMessage(err))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, errors.ErrTimeout):
		return New(CategoryFetch, err, "").WithSubcategory(SubcategoryFetchTimeout)
	case errors.Is(err, errors.ErrMalformedPayload):
		return New(CategoryPayload, err, "")
	case errors.Is(err, errors.ErrServiceUnavailable):
		return New(CategoryFetch, err, "").WithSubcategory(SubcategoryFetchStatus)
	default:
		return New(CategoryInternal, err, "")
	}
}

// userMessage prefers a message the error offers for display, then its first hint.
func userMessage(err error) string {
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return hints[0]
	}
	return ""
}
