package errors

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeInvalidInput        ErrorType = "INVALID_INPUT"
	ErrTypeInternal            ErrorType = "INTERNAL"
	ErrTypeUnavailable         ErrorType = "UNAVAILABLE"
	ErrTypeProviderUnavailable ErrorType = "PROVIDER_UNAVAILABLE"
	ErrTypeDuplicate           ErrorType = "DUPLICATE"
	ErrTypeMalformedRecord     ErrorType = "MALFORMED_RECORD"
)

type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func InvalidInput(message string, err error) *DomainError {
	return New(ErrTypeInvalidInput, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}

func Unavailable(message string, err error) *DomainError {
	return New(ErrTypeUnavailable, message, err)
}

// ProviderUnavailable tags a fetch failure with the provider it came from.
func ProviderUnavailable(provider string, err error) *DomainError {
	return New(ErrTypeProviderUnavailable, provider+" API call failed", err)
}

func Duplicate(message string, err error) *DomainError {
	return New(ErrTypeDuplicate, message, err)
}

func MalformedRecord(message string, err error) *DomainError {
	return New(ErrTypeMalformedRecord, message, err)
}

// TypeOf returns the type of the first DomainError in err's chain, or "".
func TypeOf(err error) ErrorType {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Type
	}
	return ""
}

func IsType(err error, errType ErrorType) bool {
	return err != nil && TypeOf(err) == errType
}

func IsDuplicate(err error) bool {
	return IsType(err, ErrTypeDuplicate)
}

func IsUnavailable(err error) bool {
	return IsType(err, ErrTypeUnavailable)
}

func IsInvalidInput(err error) bool {
	return IsType(err, ErrTypeInvalidInput)
}
