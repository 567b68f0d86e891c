package filter

import (
	"fmt"

	"github.com/opengamedata/ogdviz/errors"
)

// DuplicateNameError is returned by AddItem for a name already present.
type DuplicateNameError struct {
	Model string
	Name  string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("filter %q already has an item named %q", e.Model, e.Name)
}

// Is matches errors.ErrConflict.
func (e *DuplicateNameError) Is(target error) bool {
	return target == errors.ErrConflict
}

// ValidationError is a user-correctable filter failure. It blocks request
// construction and never reaches the network.
type ValidationError struct {
	Item    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Item == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Item, e.Message)
}

// Is matches errors.ErrInvalidRequest.
func (e *ValidationError) Is(target error) bool {
	return target == errors.ErrInvalidRequest
}

// UserMessage returns the validator message without the item prefix.
func (e *ValidationError) UserMessage() string {
	return e.Message
}
