package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// ErrorKind groups error codes into the categories callers branch on
type ErrorKind string

const (
	KindConfiguration     ErrorKind = "configuration"
	KindValidation        ErrorKind = "validation"
	KindUpstreamTransport ErrorKind = "upstream_transport"
	KindUpstreamAPI       ErrorKind = "upstream_api"
	KindStore             ErrorKind = "store"
	KindConflict          ErrorKind = "conflict"
	KindUnauthenticated   ErrorKind = "unauthenticated"
	KindInternal          ErrorKind = "internal"
)

// ErrorCode is the machine-readable code rendered to clients
type ErrorCode string

const (
	ErrorCode_INTERNAL               ErrorCode = "INTERNAL"
	ErrorCode_CONFIG_MISSING         ErrorCode = "CONFIG_MISSING"
	ErrorCode_INVALID_PAYLOAD        ErrorCode = "INVALID_PAYLOAD"
	ErrorCode_INVALID_ARGUMENT       ErrorCode = "INVALID_ARGUMENT"
	ErrorCode_UNSUPPORTED_PLATFORM   ErrorCode = "UNSUPPORTED_PLATFORM"
	ErrorCode_METHOD_NOT_SUPPORTED   ErrorCode = "METHOD_NOT_SUPPORTED"
	ErrorCode_UPSTREAM_UNREACHABLE   ErrorCode = "UPSTREAM_UNREACHABLE"
	ErrorCode_UPSTREAM_REJECTED      ErrorCode = "UPSTREAM_REJECTED"
	ErrorCode_AI_RESPONSE_INVALID    ErrorCode = "AI_RESPONSE_INVALID"
	ErrorCode_MEETING_NOT_FOUND      ErrorCode = "MEETING_NOT_FOUND"
	ErrorCode_TRANSCRIPTION_MISSING  ErrorCode = "TRANSCRIPTION_MISSING"
	ErrorCode_SUMMARY_MISSING        ErrorCode = "SUMMARY_MISSING"
	ErrorCode_DB_QUERY_FAILED        ErrorCode = "DB_QUERY_FAILED"
	ErrorCode_BOT_START_IN_PROGRESS  ErrorCode = "BOT_START_IN_PROGRESS"
	ErrorCode_UNAUTHENTICATED        ErrorCode = "UNAUTHENTICATED"
	ErrorCode_AUTH_INVALID_TOKEN     ErrorCode = "AUTH_INVALID_TOKEN"
	ErrorCode_STORAGE_FAILED         ErrorCode = "STORAGE_FAILED"
)

// String returns the code as text
func (c ErrorCode) String() string {
	return string(c)
}

// AppError là custom error type cho application
type AppError struct {
	Raw      error
	HTTPCode int
	Code     ErrorCode
	Kind     ErrorKind
	Message  string
	Details  map[string]string
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying error to errors.Is / errors.As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// WithStatus returns a copy of the error rendered with a different HTTP status
func (e AppError) WithStatus(status int) AppError {
	e.HTTPCode = status
	return e
}

// KindOf returns the kind of err, KindInternal when err is not an AppError
func KindOf(err error) ErrorKind {
	var appErr AppError
	if stdErrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As reports whether err carries an AppError and returns it
func As(err error) (AppError, bool) {
	var appErr AppError
	ok := stdErrors.As(err, &appErr)
	return appErr, ok
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Kind:     KindInternal,
		Message:  "Internal server error",
	}
}

// Configuration Errors
func ErrConfigMissing(keys ...string) AppError {
	e := AppError{
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_CONFIG_MISSING,
		Kind:     KindConfiguration,
		Message:  "Missing environment variables",
	}
	for _, k := range keys {
		e = e.WithDetail(k, "missing")
	}
	return e
}

// Validation Errors
func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Kind:     KindValidation,
		Message:  "Invalid JSON body",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Kind:     KindValidation,
		Message:  message,
	}
}

func ErrUnsupportedPlatform(meetingURL string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_UNSUPPORTED_PLATFORM,
		Kind:     KindValidation,
		Message:  "Only Google Meet URLs are supported",
	}.WithDetail("meeting_url", meetingURL)
}

func ErrMethodNotSupported(hint string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_METHOD_NOT_SUPPORTED,
		Kind:     KindValidation,
		Message:  hint,
	}
}

// Upstream Errors
func ErrUpstreamTransport(service string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_UPSTREAM_UNREACHABLE,
		Kind:     KindUpstreamTransport,
		Message:  fmt.Sprintf("Failed to reach %s", service),
	}.WithDetail("service", service)
}

// ErrUpstreamAPI wraps a non-success answer; message is passed through from the upstream body
func ErrUpstreamAPI(service string, status int, message string) AppError {
	return AppError{
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_UPSTREAM_REJECTED,
		Kind:     KindUpstreamAPI,
		Message:  message,
	}.WithDetail("service", service).
		WithDetail("upstream_status", fmt.Sprintf("%d", status))
}

func ErrAIResponseInvalid(message string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_AI_RESPONSE_INVALID,
		Kind:     KindUpstreamAPI,
		Message:  message,
	}
}

// Store Errors
func ErrMeetingNotFound(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_MEETING_NOT_FOUND,
		Kind:     KindStore,
		Message:  "Meeting not found",
	}.WithDetail("meeting_id", meetingID)
}

func ErrTranscriptionMissing(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_TRANSCRIPTION_MISSING,
		Kind:     KindStore,
		Message:  "No transcription available",
	}.WithDetail("meeting_id", meetingID)
}

func ErrSummaryMissing(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_SUMMARY_MISSING,
		Kind:     KindStore,
		Message:  "Error fetching meeting: No summary found",
	}.WithDetail("meeting_id", meetingID)
}

func ErrDBQueryFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_DB_QUERY_FAILED,
		Kind:     KindStore,
		Message:  fmt.Sprintf("Database operation failed: %s", operation),
	}.WithDetail("operation", operation)
}

func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_STORAGE_FAILED,
		Kind:     KindStore,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}

// Conflict Errors
func ErrBotStartInProgress(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_BOT_START_IN_PROGRESS,
		Kind:     KindConflict,
		Message:  "A bot start request for this meeting is already in progress",
	}.WithDetail("meeting_id", meetingID)
}

// Authentication Errors
func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Kind:     KindUnauthenticated,
		Message:  "Missing authorization header",
	}
}

func ErrInvalidToken(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_INVALID_TOKEN,
		Kind:     KindUnauthenticated,
		Message:  "Invalid JWT",
	}
}
