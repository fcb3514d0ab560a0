package backend

import (
	"errors"
	"fmt"
)

const (
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeValidation       = "VALIDATION"
	CodeRequestFailure   = "REQUEST_FAILURE"
	CodeTransportFailure = "TRANSPORT_FAILURE"
)

// CodedError is the console's error taxonomy. Status is set only for
// REQUEST_FAILURE and carries the backend's HTTP status.
type CodedError struct {
	Code    string
	Message string
	Status  int
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *CodedError) Unwrap() error { return e.Cause }

func newError(code, msg string, cause error) error {
	return &CodedError{Code: code, Message: msg, Cause: cause}
}

// ValidationError reports a client-side precondition failure. cause may be a
// sentinel so callers can match it with errors.Is.
func ValidationError(msg string, cause error) error {
	return newError(CodeValidation, msg, cause)
}

// CodeOf returns the taxonomy code of err, or "" when err is not coded.
func CodeOf(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// Message returns the user-visible text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Message
	}
	return err.Error()
}
