package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType int

const (
	ErrorNone ErrorType = iota
	ErrorUsage
	ErrorInvalidUrl
	ErrorTransport
	ErrorOutput
)

func (t ErrorType) String() string {
	switch t {
	case ErrorNone:
		return "none"
	case ErrorUsage:
		return "usage"
	case ErrorInvalidUrl:
		return "invalid url"
	case ErrorTransport:
		return "transport"
	case ErrorOutput:
		return "output"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// TransportError represents transport-layer specific errors
type TransportError int

const (
	TransportErrorNone TransportError = iota
	TransportErrorDnsFailure
	TransportErrorSocketCreateFailure
	TransportErrorSocketConnectFailure
	TransportErrorSocketWriteFailure
	TransportErrorSocketReadFailure
	TransportErrorConnectionClosed
	TransportErrorSocketCloseFailure
	TransportErrorIoUringInit
)

func (e TransportError) String() string {
	switch e {
	case TransportErrorNone:
		return "none"
	case TransportErrorDnsFailure:
		return "DNS lookup failed"
	case TransportErrorSocketCreateFailure:
		return "socket creation failed"
	case TransportErrorSocketConnectFailure:
		return "socket connection failed"
	case TransportErrorSocketWriteFailure:
		return "socket write failed"
	case TransportErrorSocketReadFailure:
		return "socket read failed"
	case TransportErrorConnectionClosed:
		return "connection closed"
	case TransportErrorSocketCloseFailure:
		return "socket close failed"
	case TransportErrorIoUringInit:
		return "io_uring initialization failed"
	default:
		return fmt.Sprintf("unknown transport error: %d", int(e))
	}
}

// HttpError is the main error type for the HTTP client
type HttpError struct {
	Type          ErrorType
	TransportErr  TransportError
	Message       string
	UnderlyingErr error
}

// Error implements the error interface
func (e *HttpError) Error() string {
	if e == nil {
		return "no error"
	}

	var typeStr string
	switch e.Type {
	case ErrorUsage:
		typeStr = "Usage error"
	case ErrorInvalidUrl:
		typeStr = "Invalid URL"
	case ErrorTransport:
		typeStr = fmt.Sprintf("Transport error (%s)", e.TransportErr)
	case ErrorOutput:
		typeStr = "Output error"
	default:
		typeStr = "Unknown error"
	}

	if e.Message != "" {
		typeStr = fmt.Sprintf("%s: %s", typeStr, e.Message)
	}

	if e.UnderlyingErr != nil {
		return fmt.Sprintf("%s (caused by: %v)", typeStr, e.UnderlyingErr)
	}

	return typeStr
}

// Unwrap returns the underlying error for error chain support
func (e *HttpError) Unwrap() error {
	return e.UnderlyingErr
}

// Cause returns the underlying error, or the error itself when there is none.
func (e *HttpError) Cause() error {
	if e.UnderlyingErr != nil {
		return e.UnderlyingErr
	}
	return e
}

// NewUsageError creates a new usage error
func NewUsageError(message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorUsage,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewInvalidUrlError creates a new URL format error
func NewInvalidUrlError(message string) *HttpError {
	return &HttpError{
		Type:    ErrorInvalidUrl,
		Message: message,
	}
}

// NewTransportError creates a new transport error
func NewTransportError(err TransportError, message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorTransport,
		TransportErr:  err,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

// NewOutputError creates an error for a failed write to the response sink
func NewOutputError(message string, underlying error) *HttpError {
	return &HttpError{
		Type:          ErrorOutput,
		Message:       message,
		UnderlyingErr: underlying,
	}
}

func as(err error) (*HttpError, bool) {
	var httpErr *HttpError
	if stderrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// TypeOf reports the ErrorType carried by err, or ErrorNone.
func TypeOf(err error) ErrorType {
	if httpErr, ok := as(err); ok {
		return httpErr.Type
	}
	return ErrorNone
}

// TransportCode reports the TransportError carried by err, or TransportErrorNone.
func TransportCode(err error) TransportError {
	if httpErr, ok := as(err); ok && httpErr.Type == ErrorTransport {
		return httpErr.TransportErr
	}
	return TransportErrorNone
}

func IsUsage(err error) bool      { return TypeOf(err) == ErrorUsage }
func IsInvalidUrl(err error) bool { return TypeOf(err) == ErrorInvalidUrl }
func IsOutput(err error) bool     { return TypeOf(err) == ErrorOutput }

// IsConnectionClosed reports whether err signals an orderly end of stream.
func IsConnectionClosed(err error) bool {
	return TransportCode(err) == TransportErrorConnectionClosed
}
