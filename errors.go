package activestore

import (
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeRegistration ErrorType = "registration"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeTransport    ErrorType = "transport"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeInternal     ErrorType = "internal"
)

// StoreError represents programmer and configuration errors raised by the
// registry, the orchestrator and the client.
type StoreError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Model   string         `json:"model,omitempty"`
	Action  ActionName     `json:"action,omitempty"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *StoreError) Error() string {
	if e.Model != "" && e.Action != "" {
		return fmt.Sprintf("[%s:%s] %s %s: %s", e.Type, e.Code, e.Action, e.Model, e.Message)
	}
	if e.Model != "" {
		return fmt.Sprintf("[%s:%s] model %s: %s", e.Type, e.Code, e.Model, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is matches any *StoreError with the same code, so the sentinel values below
// work with errors.Is.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	return ok && t.Code == e.Code
}

// WithDetail adds a single detail to a StoreError
func (e *StoreError) WithDetail(key string, value any) *StoreError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to a StoreError
func (e *StoreError) WithCause(cause error) *StoreError {
	e.Cause = cause
	return e
}

// WithModel adds model context to a StoreError
func (e *StoreError) WithModel(model string) *StoreError {
	e.Model = model
	return e
}

// WithAction adds action context to a StoreError
func (e *StoreError) WithAction(action ActionName) *StoreError {
	e.Action = action
	return e
}

// WithField adds field context to a StoreError
func (e *StoreError) WithField(field string) *StoreError {
	e.Field = field
	return e
}

// Error codes
const (
	ErrCodeModelNotFound     = "MODEL_NOT_FOUND"
	ErrCodeDuplicateModel    = "DUPLICATE_MODEL"
	ErrCodeCapabilityMissing = "CAPABILITY_MISSING"
	ErrCodeSchemaInvalid     = "SCHEMA_INVALID"
	ErrCodeRouteNotFound     = "ROUTE_NOT_FOUND"
	ErrCodeInvalidAction     = "INVALID_ACTION"
	ErrCodeAttributeInvalid  = "ATTRIBUTE_INVALID"
	ErrCodeMissingKey        = "MISSING_PRIMARY_KEY"
	ErrCodeClientClosed      = "CLIENT_CLOSED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Sentinels for errors.Is.
var (
	ErrModelNotFound     = &StoreError{Type: ErrorTypeNotFound, Code: ErrCodeModelNotFound}
	ErrDuplicateModel    = &StoreError{Type: ErrorTypeRegistration, Code: ErrCodeDuplicateModel}
	ErrCapabilityMissing = &StoreError{Type: ErrorTypeRegistration, Code: ErrCodeCapabilityMissing}
	ErrSchemaInvalid     = &StoreError{Type: ErrorTypeRegistration, Code: ErrCodeSchemaInvalid}
	ErrRouteNotFound     = &StoreError{Type: ErrorTypeRegistration, Code: ErrCodeRouteNotFound}
	ErrInvalidAction     = &StoreError{Type: ErrorTypeRegistration, Code: ErrCodeInvalidAction}
	ErrAttributeInvalid  = &StoreError{Type: ErrorTypeValidation, Code: ErrCodeAttributeInvalid}
	ErrMissingKey        = &StoreError{Type: ErrorTypeValidation, Code: ErrCodeMissingKey}
	ErrClientClosed      = &StoreError{Type: ErrorTypeInternal, Code: ErrCodeClientClosed}
)

// ============================================================================
// StoreError Constructors
// ============================================================================

// NewStoreError creates a new StoreError
func NewStoreError(errorType ErrorType, code, message string) *StoreError {
	return &StoreError{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// NewModelNotFoundError creates a model not found error
func NewModelNotFoundError(model string) *StoreError {
	return &StoreError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeModelNotFound,
		Message: "model not found",
		Model:   model,
	}
}

// NewDuplicateModelError creates a duplicate registration error
func NewDuplicateModelError(model string) *StoreError {
	return &StoreError{
		Type:    ErrorTypeRegistration,
		Code:    ErrCodeDuplicateModel,
		Message: "model already registered",
		Model:   model,
	}
}

// NewCapabilityError creates an error for definitions that cannot expose a schema
func NewCapabilityError(model, message string) *StoreError {
	return &StoreError{
		Type:    ErrorTypeRegistration,
		Code:    ErrCodeCapabilityMissing,
		Message: message,
		Model:   model,
	}
}

// NewSchemaError creates a schema error
func NewSchemaError(model, field, message string) *StoreError {
	return &StoreError{
		Type:    ErrorTypeRegistration,
		Code:    ErrCodeSchemaInvalid,
		Message: message,
		Model:   model,
		Field:   field,
	}
}

// NewRouteNotFoundError creates an error for an action without a route template
func NewRouteNotFoundError(model string, action ActionName) *StoreError {
	return &StoreError{
		Type:    ErrorTypeRegistration,
		Code:    ErrCodeRouteNotFound,
		Message: "no route registered",
		Model:   model,
		Action:  action,
	}
}

// NewInvalidActionError creates an error for actions the orchestrator cannot start
func NewInvalidActionError(actionType, message string) *StoreError {
	return &StoreError{
		Type:    ErrorTypeRegistration,
		Code:    ErrCodeInvalidAction,
		Message: message,
		Details: map[string]any{"type": actionType},
	}
}

// NewAttributeError creates an attribute validation error
func NewAttributeError(model, field string, cause error) *StoreError {
	return &StoreError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeAttributeInvalid,
		Message: "invalid attribute",
		Model:   model,
		Field:   field,
		Cause:   cause,
	}
}

// NewMissingKeyError creates an error for member actions without a primary key
func NewMissingKeyError(model string, action ActionName) *StoreError {
	return &StoreError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeMissingKey,
		Message: "primary key is required",
		Model:   model,
		Action:  action,
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *StoreError {
	return &StoreError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Cause:   cause,
	}
}

// RequestError is the failure outcome of a dispatched request: a non-2xx/3xx
// response or a request that never got one.
type RequestError struct {
	Action  ActionType `json:"-"`
	Request Request    `json:"_request"`
	Errors  Errors     `json:"_errors,omitempty"`
	Cause   error      `json:"-"`
}

func (e *RequestError) Error() string {
	if code, _ := e.Request.Status.Code(); code == StatusNoResponse && e.Cause != nil {
		return fmt.Sprintf("%s: no response: %v", e.Action, e.Cause)
	}
	return fmt.Sprintf("%s: request failed with status %s", e.Action, e.Request.Status)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status of the failed request, 0 when none was received.
func (e *RequestError) StatusCode() int {
	code, _ := e.Request.Status.Code()
	return code
}
