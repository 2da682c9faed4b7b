package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestWrap(t *testing.T) {
	originalErr := errors.New("database connection failed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if errors.Unwrap(wrapped) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "court not found"},
			expected: "NOT_FOUND: court not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      string
		status    int
		retryable bool
	}{
		{"not found", NotFoundWithID("Booking", "1"), CodeNotFound, http.StatusNotFound, false},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity, false},
		{"unknown reference", UnknownReference("court", "abc"), CodeValidation, http.StatusUnprocessableEntity, false},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest, false},
		{"conflict", Conflict("taken"), CodeConflict, http.StatusConflict, true},
		{"insufficient stock", InsufficientStock("out", nil), CodeInsufficientStock, http.StatusConflict, false},
		{"invalid transition", InvalidStateTransition("Cancelled", "cancel"), CodeInvalidStateTransition, http.StatusConflict, false},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout, true},
		{"internal", Internal("boom", errors.New("x")), CodeInternal, http.StatusInternalServerError, false},
		{"unavailable", Unavailable("MongoDB"), CodeUnavailable, http.StatusServiceUnavailable, true},
		{"unsupported media type", UnsupportedMediaType("text/plain"), CodeInvalidInput, http.StatusUnsupportedMediaType, false},
		{"payload too large", PayloadTooLarge(1024), CodePayloadTooLarge, http.StatusRequestEntityTooLarge, false},
		{"rate limited", RateLimited(), CodeRateLimited, http.StatusTooManyRequests, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.status)
			}
			if tt.err.Retryable() != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", tt.err.Retryable(), tt.retryable)
			}
		})
	}
}

func TestUnknownReference_Details(t *testing.T) {
	err := UnknownReference("court", "507f1f77bcf86cd799439011")

	if err.Details["resource"] != "court" {
		t.Errorf("expected resource 'court', got %v", err.Details["resource"])
	}
	if err.Details["id"] != "507f1f77bcf86cd799439011" {
		t.Errorf("expected id to be carried, got %v", err.Details["id"])
	}
}

func TestInvalidStateTransition_Message(t *testing.T) {
	err := InvalidStateTransition("Completed", "cancel")

	if err.Message != "cannot cancel a booking in status Completed" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["status"] != "Completed" {
		t.Errorf("expected status detail, got %v", err.Details["status"])
	}
}

func TestAppError_WithDetails_Merges(t *testing.T) {
	err := Validation("validation failed", map[string]any{"field": "date"})
	err = err.WithDetails(map[string]any{"value": "2025-13-01"})

	if err.Details["field"] != "date" || err.Details["value"] != "2025-13-01" {
		t.Errorf("expected merged details, got %v", err.Details)
	}
}

func TestTranslate(t *testing.T) {
	conflict := Conflict("slot taken")

	tests := []struct {
		name string
		in   error
		code string
	}{
		{"app error passes through", conflict, CodeConflict},
		{"wrapped app error passes through", fmt.Errorf("tx: %w", conflict), CodeConflict},
		{"deadline becomes timeout", fmt.Errorf("find: %w", context.DeadlineExceeded), CodeTimeout},
		{"cancel becomes timeout", context.Canceled, CodeTimeout},
		{"anything else is internal", errors.New("socket closed"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(tt.in, "Failed to load booking")
			if !IsCode(got, tt.code) {
				t.Errorf("Translate() = %v, want code %s", got, tt.code)
			}
		})
	}

	if Translate(nil, "noop") != nil {
		t.Errorf("Translate(nil) should be nil")
	}
}

func TestIsAppError(t *testing.T) {
	if !IsAppError(fmt.Errorf("wrapped: %w", NotFound("Court"))) {
		t.Errorf("IsAppError() should see through wrapping")
	}
	if IsAppError(errors.New("regular error")) {
		t.Errorf("IsAppError() should return false for regular error")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Court")
	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError() should return same AppError")
	}

	regularErr := errors.New("regular error")
	result := AsAppError(regularErr)
	if result.Code != CodeInternal {
		t.Errorf("AsAppError() should wrap regular error as internal error")
	}
	if result.Err != regularErr {
		t.Errorf("AsAppError() should wrap the original error")
	}
}

func TestAppError_ToJSON(t *testing.T) {
	jsonStr := string(NotFoundWithID("Booking", "12345").ToJSON())

	if !strings.Contains(jsonStr, "NOT_FOUND") {
		t.Errorf("ToJSON() should contain error code")
	}
	if !strings.Contains(jsonStr, "12345") {
		t.Errorf("ToJSON() should contain details")
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background(), "live") != nil {
		t.Errorf("FromContext() should be nil for a live context")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	if err := FromContext(ctx, "create booking"); !IsCode(err, CodeTimeout) {
		t.Errorf("FromContext() = %v, want TIMEOUT", err)
	}
}
