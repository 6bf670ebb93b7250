// Package errors provides the engine's error taxonomy and its mapping onto
// BPMN errors thrown back to the workflow engine.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Structure
// ==========================

type ErrorCode string

const (
	// Not found
	ErrCodeLeadNotFound       ErrorCode = "LEAD_NOT_FOUND"
	ErrCodeContractorNotFound ErrorCode = "CONTRACTOR_NOT_FOUND"
	ErrCodeAssignmentNotFound ErrorCode = "ASSIGNMENT_NOT_FOUND"

	// Bad request / conflict
	ErrCodeAlreadyResponded       ErrorCode = "ALREADY_RESPONDED"
	ErrCodeContractorsUnavailable ErrorCode = "CONTRACTORS_UNAVAILABLE"
	ErrCodeInvalidInput           ErrorCode = "INVALID_INPUT"

	// Infrastructure
	ErrCodeDatabaseQueryFailed    ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeSearchQueryFailed      ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeCascadeLockFailed      ErrorCode = "CASCADE_LOCK_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	// Generic
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternalService  ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout          ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBusinessRule     ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeAuthentication   ErrorCode = "AUTHENTICATION_ERROR"
)

// ErrorKind groups codes the way callers translate them (404 / 400 / 500).
type ErrorKind string

const (
	KindNotFound   ErrorKind = "NOT_FOUND"
	KindBadRequest ErrorKind = "BAD_REQUEST"
	KindInternal   ErrorKind = "INTERNAL"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Kind reports how the error should be surfaced to the caller.
func (e *StandardError) Kind() ErrorKind {
	return KindOf(e.Code)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewLeadNotFoundError(leadID string) *StandardError {
	e := newError(ErrCodeLeadNotFound, "Lead not found", fmt.Sprintf("lead %s does not exist", leadID), false, nil)
	e.Metadata = map[string]interface{}{"leadId": leadID}
	return e
}

func NewContractorNotFoundError(contractorID string) *StandardError {
	e := newError(ErrCodeContractorNotFound, "Contractor not found", fmt.Sprintf("contractor %s does not exist", contractorID), false, nil)
	e.Metadata = map[string]interface{}{"contractorId": contractorID}
	return e
}

func NewAssignmentNotFoundError(assignmentID string) *StandardError {
	e := newError(ErrCodeAssignmentNotFound, "Lead assignment not found", fmt.Sprintf("assignment %s does not exist", assignmentID), false, nil)
	e.Metadata = map[string]interface{}{"assignmentId": assignmentID}
	return e
}

// NewAlreadyRespondedError is returned to the losing side of a double response.
func NewAlreadyRespondedError(assignmentID, existing string) *StandardError {
	e := newError(ErrCodeAlreadyResponded, "Contractor has already responded to this lead",
		fmt.Sprintf("assignment %s already has response %s", assignmentID, existing), false, nil)
	e.Metadata = map[string]interface{}{"assignmentId": assignmentID, "response": existing}
	return e
}

func NewContractorsUnavailableError(contractorIDs []string) *StandardError {
	e := newError(ErrCodeContractorsUnavailable, "Some contractors are not available or approved",
		strings.Join(contractorIDs, ","), false, nil)
	e.Metadata = map[string]interface{}{"contractorIds": contractorIDs}
	return e
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false, nil)
}

func NewDatabaseQueryFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseQueryFailed, fmt.Sprintf("Database operation '%s' failed", operation), err.Error(), true, err)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, fmt.Sprintf("Search on index '%s' failed", index), err.Error(), true, err)
}

func NewCascadeLockFailedError(leadID string, err error) *StandardError {
	e := newError(ErrCodeCascadeLockFailed, "Failed to acquire reassignment lock", err.Error(), true, err)
	e.Metadata = map[string]interface{}{"leadId": leadID}
	return e
}

func NewNotificationSendFailedError(event string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, fmt.Sprintf("Notification '%s' failed", event), err.Error(), true, err)
}

// Generic constructors

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

func NewBusinessRuleError(message, details string) *StandardError {
	return newError(ErrCodeBusinessRule, message, details, false, nil)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false, nil)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details, false, nil)
}

// ==========================
// 4. Classification
// ==========================

// KindOf maps a code onto the caller-facing error kind.
func KindOf(code ErrorCode) ErrorKind {
	switch code {
	case ErrCodeLeadNotFound, ErrCodeContractorNotFound, ErrCodeAssignmentNotFound, ErrCodeResourceNotFound:
		return KindNotFound
	case ErrCodeAlreadyResponded, ErrCodeContractorsUnavailable, ErrCodeInvalidInput, ErrCodeBusinessRule:
		return KindBadRequest
	default:
		return KindInternal
	}
}

// AsStandardError finds the first StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Kind() == KindNotFound
}

func IsBadRequest(err error) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Kind() == KindBadRequest
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal codes onto the error codes caught by boundary
// events in the matching processes. Codes not listed pass through unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeLeadNotFound:           "LEAD_NOT_FOUND",
	ErrCodeContractorNotFound:     "CONTRACTOR_NOT_FOUND",
	ErrCodeAssignmentNotFound:     "ASSIGNMENT_NOT_FOUND",
	ErrCodeAlreadyResponded:       "ALREADY_RESPONDED",
	ErrCodeContractorsUnavailable: "CONTRACTORS_UNAVAILABLE",
	ErrCodeInvalidInput:           "INVALID_INPUT",
	ErrCodeDatabaseQueryFailed:    "MATCHING_STORE_UNAVAILABLE",
	ErrCodeSearchQueryFailed:      "MATCHING_STORE_UNAVAILABLE",
	ErrCodeCascadeLockFailed:      "CASCADE_LOCK_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the job retry budget for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseQueryFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeExternalService,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeTimeout,
		ErrCodeCascadeLockFailed:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"errorKind":         string(stdErr.Kind()),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns a coarse category used in logs and dashboards.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasSuffix(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case code == ErrCodeAlreadyResponded || code == ErrCodeContractorsUnavailable:
		return "ASSIGNMENT"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "SEARCH"):
		return "STORAGE"
	case strings.Contains(codeStr, "LOCK"):
		return "CONCURRENCY"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "RULE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
