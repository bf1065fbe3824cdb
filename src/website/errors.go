package website

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"git.handmade.network/hmn/tablelog/src/sessiondata"
)

func FourOhFour(c *RequestContext) ResponseData {
	return c.DetailResponse(http.StatusNotFound, "Not Found")
}

// Registered after the real handlers for a path, so it only runs when none
// of them took the method.
func MethodNotAllowed(allowed ...string) Handler {
	allow := strings.Join(allowed, ", ")
	return func(c *RequestContext) ResponseData {
		res := c.DetailResponse(http.StatusMethodNotAllowed, "Method Not Allowed")
		res.Header().Set("Allow", allow)
		return res
	}
}

// Maps the error kinds the session store returns onto statuses. Anything
// unrecognized is a 500 and gets logged.
func sessionErrorResponse(c *RequestContext, err error) ResponseData {
	var argErr *sessiondata.ArgumentError
	var validationErr *sessiondata.ValidationError
	switch {
	case errors.Is(err, sessiondata.NotFound):
		return c.DetailResponse(http.StatusNotFound, "Session not found")
	case errors.As(err, &argErr):
		return c.DetailResponse(http.StatusBadRequest, argErr.Message)
	case errors.As(err, &validationErr):
		return c.DetailResponse(http.StatusUnprocessableEntity, validationErr.Message)
	default:
		return c.ErrorResponse(http.StatusInternalServerError, NewSafeError(err, "Failed to access session storage"))
	}
}

// A SafeError can be used to wrap another error and explicitly provide
// an error message that is safe to show to a user. This allows the original
// error to easily be logged and for servers to consistently return errors
// in a standard format, without having to worry about leaking sensitive
// info (assuming you use the right middleware!).
type SafeError struct {
	Wrapped error
	Msg     string
}

func NewSafeError(err error, msg string, args ...interface{}) error {
	return &SafeError{
		Wrapped: err,
		Msg:     fmt.Sprintf(msg, args...),
	}
}

func (s *SafeError) Error() string {
	return s.Msg
}

func (s *SafeError) Unwrap() error {
	return s.Wrapped
}
