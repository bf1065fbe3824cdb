package sessiondata

import (
	"fmt"

	"git.handmade.network/hmn/tablelog/src/db"
)

// Returned by the store when an id does not exist.
var NotFound = db.NotFound

// An out-of-domain list parameter, e.g. an unsupported sort column.
type ArgumentError struct {
	Param   string
	Message string
}

func NewArgumentError(param string, format string, args ...interface{}) error {
	return &ArgumentError{
		Param:   param,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ArgumentError) Error() string {
	return e.Message
}

// Missing or malformed input for a create or update.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field string, format string, args ...interface{}) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	return e.Message
}
