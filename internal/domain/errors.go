package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Caller-facing errors
	ErrUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	ErrInvalidArgument    ErrorCode = "INVALID_ARGUMENT"
	ErrFailedPrecondition ErrorCode = "FAILED_PRECONDITION"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrInternal           ErrorCode = "INTERNAL_ERROR"

	// Pipeline sub-step errors, recovered inside a run
	ErrGenerationParse    ErrorCode = "GENERATION_PARSE_ERROR"
	ErrRetrieval          ErrorCode = "RETRIEVAL_ERROR"
	ErrSemanticValidation ErrorCode = "SEMANTIC_VALIDATION_ERROR"
	ErrLLMService         ErrorCode = "LLM_SERVICE_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewUnauthenticatedError(message string) *DomainError {
	return NewError(ErrUnauthenticated, message, nil)
}

func NewInvalidArgumentError(message string) *DomainError {
	return NewError(ErrInvalidArgument, message, nil)
}

func NewFailedPreconditionError(message string) *DomainError {
	return NewError(ErrFailedPrecondition, message, nil)
}

func NewNotFoundError(message string) *DomainError {
	return NewError(ErrNotFound, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

func NewGenerationParseError(err error) *DomainError {
	return NewError(ErrGenerationParse, "model output could not be parsed as JSON", err)
}

func NewRetrievalError(err error) *DomainError {
	return NewError(ErrRetrieval, "context retrieval failed", err)
}

func NewSemanticValidationError(err error) *DomainError {
	return NewError(ErrSemanticValidation, "semantic validation failed", err)
}

func NewLLMServiceError(err error) *DomainError {
	return NewError(ErrLLMService, "Failed to process with LLM service", err)
}

// CodeOf returns the ErrorCode carried by err, or ErrInternal if err is not a DomainError.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}
