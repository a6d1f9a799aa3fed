package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
		{code: CodeOrderProcessing, status: http.StatusInternalServerError, publicMsg: "order processing failed"},
		{code: CodeMalformedEvent, status: http.StatusBadRequest, publicMsg: "malformed event", detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detailed := base.WithDetails(map[string]any{"field": "foo"})
	if detailed.Details() == nil {
		t.Fatalf("details should be preserved")
	}
	if base.Details() != nil {
		t.Fatalf("WithDetails must not mutate the receiver")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Fatalf("nil error must not be retryable")
	}
	if !IsRetryable(stdErrors.New("connection reset")) {
		t.Fatalf("untyped errors should be retryable")
	}
	if IsRetryable(New(CodeMalformedEvent, "card missing")) {
		t.Fatalf("malformed events must not be retried")
	}
	wrapped := fmt.Errorf("process: %w", New(CodeDependency, "db down"))
	if !IsRetryable(wrapped) {
		t.Fatalf("dependency errors should be retryable through wrapping")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(CodeOrderProcessing, stdErrors.New("stripe down"), "order processing failed"))
	if !HasCode(err, CodeOrderProcessing) {
		t.Fatalf("expected order processing code")
	}
	if HasCode(err, CodeValidation) {
		t.Fatalf("unexpected validation code")
	}
}

func TestHasCodeWalksNestedTypedErrors(t *testing.T) {
	inner := New(CodeStateConflict, "already paid")
	outer := Wrap(CodeOrderProcessing, inner, "apply payment")
	if !HasCode(outer, CodeStateConflict) {
		t.Fatalf("expected inner code to be found")
	}
	if !stdErrors.Is(outer, New(CodeStateConflict, "")) {
		t.Fatalf("expected errors.Is to match by code")
	}
	if stdErrors.Is(outer, New(CodeNotFound, "")) {
		t.Fatalf("unexpected code match")
	}
	if got := Newf(CodeNotFound, "order %d not found", 7).Message(); got != "order 7 not found" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestPublicMessage(t *testing.T) {
	if got := New(CodeNotFound, "order not found").PublicMessage(); got != "order not found" {
		t.Fatalf("expected client-facing message, got %q", got)
	}
	if got := Wrap(CodeDependency, stdErrors.New("dial tcp"), "load order").PublicMessage(); got != "dependency unavailable" {
		t.Fatalf("expected generic dependency message, got %q", got)
	}
	if got := New(CodeValidation, "").PublicMessage(); got != "validation failed" {
		t.Fatalf("expected fallback message, got %q", got)
	}
}
