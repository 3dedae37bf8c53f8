package service

import (
	"errors"
	"fmt"
)

const (
	// ErrInternalServerError means that an internal server error has occurred.
	ErrInternalServerError = "internal_server_error"
	// ErrEntityNotFound means that record or row is absent in repository or storage.
	ErrEntityNotFound = "entity_not_found"
	// ErrBadParameter means that provided parameter does not match declared.
	ErrBadParameter = "bad_parameter"
	// ErrConfiguration means the runtime was assembled incorrectly; it is never retried.
	ErrConfiguration = "configuration_error"
	// ErrMissingBeanProvider means no factory is registered for a bean key.
	ErrMissingBeanProvider = "missing_bean_provider"
	// ErrIllegalSubsystem means the only provider lives in a subsystem this instance may not consume from.
	ErrIllegalSubsystem = "illegal_subsystem"
	// ErrServiceUnavailable means the bean is not bound or its provider went away.
	ErrServiceUnavailable = "service_unavailable"
	// ErrCircuitOpen means the call was short-circuited without reaching the transport.
	ErrCircuitOpen = "circuit_open"
	// ErrTimeout means the composed remote operation did not finish in time.
	ErrTimeout = "timeout"
	// ErrRejected means the bulkhead was full.
	ErrRejected = "rejected"
	// ErrRemoteFailure means the remote call failed for any other reason.
	ErrRemoteFailure = "remote_failure"
)

// MyError represents an error within the context of myremoting services.
type MyError struct {
	// Code is a machine-readable code.
	Code string `json:"code,omitempty"`
	// Message is a human-readable message.
	Message string `json:"message"`
	// Inner is a wrapped error that is never shown to API consumers.
	Inner error `json:"-"`
}

// NewMyError creates a new MyError.
func NewMyError(code string, message string, inner error) *MyError {
	return &MyError{
		Code:    code,
		Message: message,
		Inner:   inner,
	}
}

// newCoded keeps an already typed inner error and wraps anything else under code.
func newCoded(code, message string, inner error) *MyError {
	if myInner := ToMyError(inner); myInner != nil {
		return myInner
	}
	return NewMyError(code, message, inner)
}

func NewInternalServerError(message string, inner error) *MyError {
	return newCoded(ErrInternalServerError, message, inner)
}

func NewEntityNotFoundError(message string, inner error) *MyError {
	return newCoded(ErrEntityNotFound, message, inner)
}

func NewBadParameterError(message string, inner error) *MyError {
	return newCoded(ErrBadParameter, message, inner)
}

func NewConfigurationError(message string, inner error) *MyError {
	return newCoded(ErrConfiguration, message, inner)
}

func NewMissingBeanProviderError(message string, inner error) *MyError {
	return newCoded(ErrMissingBeanProvider, message, inner)
}

func NewIllegalSubsystemError(message string, inner error) *MyError {
	return newCoded(ErrIllegalSubsystem, message, inner)
}

func NewServiceUnavailableError(message string, inner error) *MyError {
	return newCoded(ErrServiceUnavailable, message, inner)
}

func NewRemoteFailureError(message string, inner error) *MyError {
	return newCoded(ErrRemoteFailure, message, inner)
}

func (e MyError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Inner)
	}

	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

// Unwrap the error returning the error's reason.
func (e MyError) Unwrap() error {
	return e.Inner
}

// ToMyError returns a pointer to a myremoting error, or nil if it is not a myremoting error.
func ToMyError(err error) *MyError {
	var e *MyError
	if errors.As(err, &e) {
		return e
	}

	return nil
}

// ToMyErrorCode returns the code of the error, if available.
func ToMyErrorCode(err error) string {
	myerror := ToMyError(err)
	if myerror != nil {
		return myerror.Code
	}
	return ""
}

func IsMyError(err error, code string) bool {
	myerror := ToMyError(err)
	if myerror != nil {
		return myerror.Code == code
	}
	return false
}

func IsInternalServerError(err error) bool {
	return IsMyError(err, ErrInternalServerError)
}

func IsEntityNotFoundError(err error) bool {
	return IsMyError(err, ErrEntityNotFound)
}

func IsBadParameterError(err error) bool {
	return IsMyError(err, ErrBadParameter)
}

func IsConfigurationError(err error) bool {
	return IsMyError(err, ErrConfiguration)
}

func IsMissingBeanProviderError(err error) bool {
	return IsMyError(err, ErrMissingBeanProvider)
}

func IsIllegalSubsystemError(err error) bool {
	return IsMyError(err, ErrIllegalSubsystem)
}

func IsServiceUnavailableError(err error) bool {
	return IsMyError(err, ErrServiceUnavailable)
}

func IsCircuitOpenError(err error) bool {
	return IsMyError(err, ErrCircuitOpen)
}

func IsTimeoutError(err error) bool {
	return IsMyError(err, ErrTimeout)
}

func IsRejectedError(err error) bool {
	return IsMyError(err, ErrRejected)
}

func IsRemoteFailureError(err error) bool {
	return IsMyError(err, ErrRemoteFailure)
}
