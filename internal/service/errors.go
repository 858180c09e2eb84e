package service

import "fmt"

// Error is a user-facing failure with an HTTP status. Handlers map it
// straight to a response; anything else that bubbles up is logged and
// rendered as a generic message so internal details never reach the client.
type Error struct {
	Status  int
	Message string
}

func (e Error) Error() string {
	return e.Message
}

func ErrNotFound(msg string) error {
	return Error{Status: 404, Message: msg}
}

func ErrBadRequest(msg string) error {
	return Error{Status: 400, Message: msg}
}

func ErrForbidden(msg string) error {
	return Error{Status: 403, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return Error{Status: 401, Message: msg}
}

func ErrConflict(msg string) error {
	return Error{Status: 409, Message: msg}
}

// ErrValidation carries a field-level message; validation failures are
// rejected before any storage call is made.
func ErrValidation(field, msg string) error {
	return Error{Status: 422, Message: fmt.Sprintf("%s: %s", field, msg)}
}
