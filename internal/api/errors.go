package api

import "fmt"

// Error represents an API error carrying its JSON-RPC code
type Error struct {
	Code    int
	Message string
	Data    interface{}
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// invalidParams reports a request whose params failed to decode or validate.
// fields maps json parameter names to the failed rule.
func invalidParams(message string, fields map[string]string) *Error {
	e := NewError(ErrInvalidParams, message)
	if len(fields) > 0 {
		e.Data = fields
	}
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}
