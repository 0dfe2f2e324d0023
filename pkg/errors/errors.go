package errors

import "fmt"

// Error codes
const (
	CodePipeline    = "PIPELINE_ERROR"
	CodeOCR         = "OCR_ERROR"
	CodeStructuring = "STRUCTURING_ERROR"
	CodeMalformed   = "MALFORMED_RESPONSE"
	CodeValidation  = "VALIDATION_ERROR"
	CodeCache       = "CACHE_ERROR"
	CodeStorage     = "STORAGE_ERROR"
)

type PipelineError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

func NewPipelineError(message, code string, statusCode int, context map[string]any) *PipelineError {
	return &PipelineError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *PipelineError) WithCause(cause error) *PipelineError {
	e.Cause = cause
	return e
}

// OCRError reports an unreachable or failing OCR upstream. There is no OCR
// fallback, so callers surface it as a hard failure.
type OCRError struct {
	*PipelineError
}

func NewOCRError(message string, statusCode int, cause error) *OCRError {
	return &OCRError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeOCR,
			StatusCode: statusCode,
			Cause:      cause,
		},
	}
}

// StructuringError covers both an unreachable structuring service and a
// response whose body could not be parsed as JSON. Both are retryable with
// the same bounded attempt count.
type StructuringError struct {
	*PipelineError
	Malformed bool
}

func NewStructuringError(message string, cause error) *StructuringError {
	return &StructuringError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeStructuring,
			StatusCode: 502,
			Cause:      cause,
		},
	}
}

func NewMalformedResponseError(message string, cause error) *StructuringError {
	return &StructuringError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeMalformed,
			StatusCode: 502,
			Cause:      cause,
		},
		Malformed: true,
	}
}

type ValidationError struct {
	*PipelineError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*PipelineError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type StorageError struct {
	*PipelineError
	Operation string
	Conflict  bool
}

func NewStorageError(message, operation string, cause error) *StorageError {
	return &StorageError{
		PipelineError: &PipelineError{
			Message:    message,
			Code:       CodeStorage,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
			},
			Cause: cause,
		},
		Operation: operation,
	}
}

// NewConflictError marks a unique-constraint violation (duplicate phone or
// email) so handlers can answer 409 instead of 500.
func NewConflictError(message, operation string, cause error) *StorageError {
	err := NewStorageError(message, operation, cause)
	err.StatusCode = 409
	err.Conflict = true
	return err
}
