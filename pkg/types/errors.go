package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Entity model errors. ErrFieldNotFound signals a programming error: the
// caller named a field the entity's schema does not declare.
var (
	ErrFieldNotFound    = errors.New("field not found")
	ErrUnknownField     = errors.New("unknown field in snapshot")
	ErrMissingField     = errors.New("missing required field")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrInvalidID        = errors.New("invalid entity ID")
	ErrInvalidValueType = errors.New("invalid value type")
	ErrInvalidSchema    = errors.New("invalid schema")
)

// Merge errors. Merging entities of different kinds or identities is a logic
// fault in the caller.
var (
	ErrKindMismatch = errors.New("entity kind mismatch")
	ErrIDMismatch   = errors.New("entity ID mismatch")
)

// Store errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// HTTPStatusError is the recoverable failure a store reports when the remote
// side rejected a save (validation, conflict, missing entity). The model
// records it on the field instead of returning it.
type HTTPStatusError struct {
	Status  int
	Message string
}

// NewHTTPStatusError returns an HTTPStatusError for status with msg.
func NewHTTPStatusError(status int, msg string) *HTTPStatusError {
	return &HTTPStatusError{Status: status, Message: msg}
}

func (e *HTTPStatusError) Error() string {
	text := http.StatusText(e.Status)
	if text == "" {
		text = "status"
	}
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, text)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, text, e.Message)
}

// IsHTTPStatusError reports whether err wraps an HTTPStatusError and returns it.
func IsHTTPStatusError(err error) (*HTTPStatusError, bool) {
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
