package snapstream

import (
	"errors"
	"fmt"
)

// ServiceError wraps a failure reported by the database service through a listener's OnCancelled callback,
// e.g. a disconnect or a permission denial. The service error is kept as-is and is available via Unwrap.
type ServiceError struct {
	Cause error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return "service error"
	}

	return "service error: " + e.Cause.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// DecodeError signals that a snapshot's raw value could not be coerced to the requested type.
type DecodeError struct {
	TypeName string
	Cause    error
}

func (e *DecodeError) Error() string {
	return "unable to cast response to " + e.TypeName
}

// Unwrap exposes both ErrDecodeFailed and the coercion cause.
func (e *DecodeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrDecodeFailed}
	}

	return []error{ErrDecodeFailed, e.Cause}
}

func newDecodeError(typeName string, cause error) error {
	return &DecodeError{TypeName: typeName, Cause: cause}
}

// IsServiceError reports whether err is or wraps a ServiceError.
func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

// IsDecodeError reports whether err is or wraps a DecodeError.
func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}

// typeNameOf returns a short, human-readable name of T for error messages.
func typeNameOf[T any]() string {
	var zero T
	name := fmt.Sprintf("%T", zero)

	if name == "<nil>" {
		// T is an interface type
		return fmt.Sprintf("%T", (*T)(nil))[1:]
	}

	return name
}
