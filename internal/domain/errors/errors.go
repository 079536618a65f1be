package errors

import (
	"fmt"
	"net/http"
	"strings"

	"attrschema/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details != "" {
		return e.message + ": " + e.details
	}

	return e.message
}

// Is matches any BaseError carrying the same error code, so copies made by
// WithDetails still satisfy errors.Is against the predefined values.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	ErrPermissionDenied = NewBaseError(
		http.StatusForbidden,
		"PERMISSION_DENIED",
		"permission denied",
		"",
	)

	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"validation failed",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"attribute definition not found",
		"",
	)

	ErrDuplicateName = NewBaseError(
		http.StatusConflict,
		"DUPLICATE_NAME",
		"an attribute definition with this name already exists",
		"",
	)

	ErrSystemProtected = NewBaseError(
		http.StatusForbidden,
		"SYSTEM_PROTECTED",
		"system attribute definitions cannot be modified",
		"",
	)

	ErrHasDependentData = NewBaseError(
		http.StatusAccepted,
		"HAS_DEPENDENT_DATA",
		"attribute definition has stored values and was deprecated instead of deleted",
		"",
	)

	ErrStorage = NewBaseError(
		http.StatusInternalServerError,
		"STORAGE_ERROR",
		"storage operation failed",
		"",
	)

	ErrFormatIncompatible = NewBaseError(
		http.StatusUnprocessableEntity,
		"FORMAT_INCOMPATIBLE",
		"import document format is not supported by this engine",
		"",
	)

	ErrConflictUnresolved = NewBaseError(
		http.StatusConflict,
		"CONFLICT_UNRESOLVED",
		"import entry conflicts with an existing definition",
		"",
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal error",
		"",
	)
)

// FieldMessage is one field-level validation problem.
type FieldMessage struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError carries every field problem found in one validation pass.
type ValidationError struct {
	Fields []FieldMessage
}

// NewValidationError creates a ValidationFailed error from field messages.
func NewValidationError(fields []FieldMessage) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidationFailed) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// HTTPCode returns the HTTP status code
func (e *ValidationError) HTTPCode() int {
	return http.StatusBadRequest
}

// ErrorCode returns the business error code
func (e *ValidationError) ErrorCode() string {
	return ErrValidationFailed.ErrorCode()
}

// Message returns the user-friendly error message
func (e *ValidationError) Message() string {
	return ErrValidationFailed.Message()
}

// Details returns the field problems joined into one string.
func (e *ValidationError) Details() string {
	return strings.TrimPrefix(e.Error(), "validation failed: ")
}

// HasField reports whether any message targets the given field.
func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}

	return false
}

// DependentDataError signals that a delete was turned into a deprecation
// because principals still hold values for the definition.
type DependentDataError struct {
	DefinitionID string
	UsageCount   int64
}

// NewDependentDataError creates a HasDependentData signal.
func NewDependentDataError(definitionID string, usageCount int64) *DependentDataError {
	return &DependentDataError{DefinitionID: definitionID, UsageCount: usageCount}
}

// Error implements the error interface
func (e *DependentDataError) Error() string {
	return fmt.Sprintf("attribute definition %s has %d stored values; deprecated and scheduled for purge", e.DefinitionID, e.UsageCount)
}

// Is lets errors.Is(err, ErrHasDependentData) match.
func (e *DependentDataError) Is(target error) bool {
	return target == ErrHasDependentData
}

// HTTPCode returns the HTTP status code
func (e *DependentDataError) HTTPCode() int {
	return ErrHasDependentData.HTTPCode()
}

// ErrorCode returns the business error code
func (e *DependentDataError) ErrorCode() string {
	return ErrHasDependentData.ErrorCode()
}

// Message returns the user-friendly error message
func (e *DependentDataError) Message() string {
	return ErrHasDependentData.Message()
}

// Details returns detailed error information
func (e *DependentDataError) Details() string {
	return fmt.Sprintf("usage_count=%d", e.UsageCount)
}

// StorageError wraps a failure reported by the storage collaborator.
type StorageError struct {
	err     error
	details string
}

// NewStorageError creates a storage-related error
func NewStorageError(err error, details string) AppError {
	return &StorageError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return errors.Wrap(e.err, e.details).Error()
}

// Unwrap exposes the collaborator's error.
func (e *StorageError) Unwrap() error {
	return e.err
}

// Is lets errors.Is(err, ErrStorage) match.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// HTTPCode returns the HTTP status code
func (e *StorageError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *StorageError) ErrorCode() string {
	return ErrStorage.ErrorCode()
}

// Message returns the user-friendly error message
func (e *StorageError) Message() string {
	return ErrStorage.Message()
}

// Details returns detailed error information
func (e *StorageError) Details() string {
	return e.details
}

// IsKind reports whether err is, or wraps, the given predefined error kind.
func IsKind(err error, kind *BaseError) bool {
	return errors.Is(err, kind)
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (AppError, bool) {
	return errors.AsType[AppError](err)
}
