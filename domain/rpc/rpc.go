// Package rpc provides the status codes, error values and per-request
// context of the method endpoint (value types).
// This package has NO dependencies on I/O or external packages.
package rpc

// Status codes returned in the "code" field of every response.
const (
	OK             = 200
	BadRequest     = 400
	Forbidden      = 403
	NotFound       = 404
	InvalidRequest = 422
	InternalError  = 500
)

// ErrorText holds the default message for each failure code.
var ErrorText = map[int]string{
	BadRequest:     "Bad Request",
	Forbidden:      "Forbidden",
	NotFound:       "Not Found",
	InvalidRequest: "Invalid Request",
	InternalError:  "Internal Server Error",
}

// Text returns the default message for code, or "Unknown Error".
func Text(code int) string {
	if text, ok := ErrorText[code]; ok {
		return text
	}
	return "Unknown Error"
}

// Error is a non-OK outcome to return to the client (value type).
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError creates an error with code. An empty message falls back to
// the default text for the code.
func NewError(code int, message string) *Error {
	if message == "" {
		message = Text(code)
	}
	return &Error{Code: code, Message: message}
}

// Invalid creates an INVALID_REQUEST error carrying message.
func Invalid(message string) *Error {
	return NewError(InvalidRequest, message)
}

// Common errors
var (
	ErrBadRequest = &Error{Code: BadRequest, Message: ErrorText[BadRequest]}
	ErrForbidden  = &Error{Code: Forbidden, Message: ErrorText[Forbidden]}
	ErrNotFound   = &Error{Code: NotFound, Message: ErrorText[NotFound]}
	ErrInternal   = &Error{Code: InternalError, Message: ErrorText[InternalError]}
)

// Response is the JSON body written for every request.
// Exactly one of Response and Error is set.
type Response struct {
	Response any `json:"response,omitempty"`
	Error    any `json:"error,omitempty"`
	Code     int `json:"code"`
}

// Success wraps a handler result.
func Success(result any) Response {
	return Response{Response: result, Code: OK}
}

// Failure wraps an error outcome.
func Failure(err *Error) Response {
	return Response{Error: err.Message, Code: err.Code}
}
