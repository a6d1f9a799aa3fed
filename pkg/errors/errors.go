package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	CodeOrderProcessing Code = "ORDER_PROCESSING_ERROR"
	CodeMalformedEvent  Code = "MALFORMED_EVENT"
)

// Metadata is how a code surfaces over HTTP and to retry loops.
// MessageAllowed lets the error's own message replace PublicMessage in
// responses; server-side codes always answer with PublicMessage.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	MessageAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:      {http.StatusBadRequest, false, "validation failed", true, true},
	CodeUnauthorized:    {http.StatusUnauthorized, false, "authentication required", false, true},
	CodeForbidden:       {http.StatusForbidden, false, "access denied", false, true},
	CodeNotFound:        {http.StatusNotFound, false, "resource not found", false, true},
	CodeConflict:        {http.StatusConflict, false, "conflict detected", false, true},
	CodeStateConflict:   {http.StatusUnprocessableEntity, false, "state transition disallowed", true, true},
	CodeIdempotency:     {http.StatusConflict, false, "idempotency key reused", true, true},
	CodeRateLimit:       {http.StatusTooManyRequests, false, "rate limit exceeded", false, true},
	CodeInternal:        {http.StatusInternalServerError, true, "internal server error", false, false},
	CodeDependency:      {http.StatusServiceUnavailable, true, "dependency unavailable", true, false},
	CodeOrderProcessing: {http.StatusInternalServerError, false, "order processing failed", false, false},
	CodeMalformedEvent:  {http.StatusBadRequest, false, "malformed event", true, true},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// PublicMessage is the text a client may see for this error.
func (e *Error) PublicMessage() string {
	meta := MetadataFor(e.Code())
	if meta.MessageAllowed && e.Message() != "" {
		return e.Message()
	}
	return meta.PublicMessage
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails returns a copy carrying details, leaving shared sentinels untouched.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.details = details
	return &clone
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// IsRetryable reports whether the error's code allows a later retry. Untyped
// errors are treated as retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	typed := As(err)
	if typed == nil {
		return true
	}
	return MetadataFor(typed.Code()).Retryable
}

// Is matches another *Error by code, so errors.Is works against sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t != nil && e.code == t.code
}

// HasCode reports whether any typed error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		typed := As(err)
		if typed == nil {
			return false
		}
		if typed.code == code {
			return true
		}
		err = typed.cause
	}
	return false
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
