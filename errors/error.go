package errors

import "net/http"

type Error struct {
	Code       int64  `json:"code"`
	Message    string `json:"message"`
	Cause      error  `json:"-"`
	Details    any    `json:"details,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// NewError builds a coded error. The optional cause is kept for errors.Is/As.
func NewError(code int64, message string, cause ...error) *Error {
	e := &Error{
		Code:       code,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
	if len(cause) > 0 {
		e.Cause = cause[0]
	}
	return e
}

func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func (e *Error) WithStatusCode(statusCode int) *Error {
	e.StatusCode = statusCode
	return e
}

func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) GetCode() int64 {
	return e.Code
}

func (e *Error) GetMessage() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code, so sentinel values can be
// compared after WithCause copies them.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) GetDetails() any {
	return e.Details
}

func (e *Error) GetStatusCode() int {
	return e.StatusCode
}
