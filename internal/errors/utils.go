package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating an AppError if the
// input is not already one.
func Wrap(err error, errType ErrorType, code, message string) *AppError {
	if err == nil {
		return nil
	}

	var ae *AppError
	if errors.As(err, &ae) {
		return &AppError{
			Type:    errType,
			Code:    code,
			Message: message,
			Cause:   ae,
			Context: ae.Context,
		}
	}

	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapValidation wraps an error as a validation error.
func WrapValidation(err error, code, message string) *AppError {
	return Wrap(err, ErrorTypeValidation, code, message)
}

// WrapConfig wraps an error as a configuration error.
func WrapConfig(err error, code, message string) *AppError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// WrapIO wraps an error as an I/O error.
func WrapIO(err error, code, message string) *AppError {
	return Wrap(err, ErrorTypeIO, code, message)
}

// Combine joins the non-nil errors in errs. It returns nil when there are none
// and the error itself when there is exactly one.
func Combine(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return errors.Join(nonNil...)
	}
}
