// Package errors defines the error kinds the user service reports and their
// gRPC status codes.
package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ValidationError rejects a malformed request before it reaches the store.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid argument: " + e.Message
	}
	return fmt.Sprintf("invalid argument: %s - %s", e.Field, e.Message)
}

// GRPCStatus maps to codes.InvalidArgument.
func (e *ValidationError) GRPCStatus() *status.Status {
	return status.New(codes.InvalidArgument, e.Error())
}

// NotFoundError reports that the addressed record does not exist.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error; an empty message
// defaults to "<resource> not found".
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{Resource: resource, Message: message}
}

func (e *NotFoundError) Error() string {
	return messageOr(e.Message, e.Resource, "not found")
}

// GRPCStatus maps to codes.NotFound.
func (e *NotFoundError) GRPCStatus() *status.Status {
	return status.New(codes.NotFound, e.Error())
}

// AlreadyExistsError reports a uniqueness violation, such as a taken email.
type AlreadyExistsError struct {
	Resource string
	Message  string
}

// NewAlreadyExistsError creates a new already exists error; an empty message
// defaults to "<resource> already exists".
func NewAlreadyExistsError(resource, message string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, Message: message}
}

func (e *AlreadyExistsError) Error() string {
	return messageOr(e.Message, e.Resource, "already exists")
}

// GRPCStatus maps to codes.AlreadyExists.
func (e *AlreadyExistsError) GRPCStatus() *status.Status {
	return status.New(codes.AlreadyExists, e.Error())
}

// InternalError wraps a storage or transaction failure. Message is safe to
// show to callers; Err is for logs only.
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{Message: message, Err: err}
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// GRPCStatus maps to codes.Internal without the wrapped cause.
func (e *InternalError) GRPCStatus() *status.Status {
	return status.New(codes.Internal, e.Message)
}

func messageOr(message, resource, suffix string) string {
	if message != "" {
		return message
	}
	return resource + " " + suffix
}

// IsNotFound reports whether any error in err's chain is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsAlreadyExists reports whether any error in err's chain is an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var target *AlreadyExistsError
	return errors.As(err, &target)
}

// ToStatus converts err into a gRPC status.
// Errors carrying their own status keep it; anything else becomes a generic
// codes.Internal so driver detail never reaches the caller.
func ToStatus(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}

	var withStatus interface{ GRPCStatus() *status.Status }
	if errors.As(err, &withStatus) {
		return withStatus.GRPCStatus()
	}

	return status.New(codes.Internal, "internal server error")
}
