package util

import "github.com/infigaming-com/dolar-feed/errors"

const (
	ErrCodeValueNotFoundInContext = 10000 + iota
	ErrCodeInvalidValueInContext
	ErrCodeNonFiniteDecimal
)

// UtilError is a coded error raised by this package.
type UtilError struct {
	base *errors.Error
}

func NewUtilError(code int64, message string, cause error, details any) *UtilError {
	var causes []error
	if cause != nil {
		causes = append(causes, cause)
	}
	return &UtilError{base: errors.NewError(code, message, causes...).WithDetails(details)}
}

func (e *UtilError) Error() string      { return e.base.Error() }
func (e *UtilError) GetCode() int64     { return e.base.GetCode() }
func (e *UtilError) GetMessage() string { return e.base.GetMessage() }
func (e *UtilError) GetDetails() any    { return e.base.GetDetails() }

// Unwrap exposes the coded base error, so errors.Is matches by code.
func (e *UtilError) Unwrap() error { return e.base }
