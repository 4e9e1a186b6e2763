package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "test error")
	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "test error" {
		t.Errorf("expected message 'test error', got %s", err.Message)
	}
	if err.Err != nil {
		t.Errorf("expected nil wrapped error, got %v", err.Err)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("original error")
	err := Wrap(originalErr, CodeDatabase, "database operation failed")

	if err.Code != CodeDatabase {
		t.Errorf("expected code %s, got %s", CodeDatabase, err.Code)
	}
	if err.Err != originalErr {
		t.Errorf("expected wrapped error to be original error")
	}
	if err.Unwrap() != originalErr {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), originalErr)
	}
}

func TestAppErrorError(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			err:      New(CodeValidation, "validation failed"),
			expected: "[VALIDATION_ERROR] validation failed",
		},
		{
			name:     "error with wrapped error",
			err:      Wrap(errors.New("inner"), CodeDatabase, "db error"),
			expected: "[DATABASE_ERROR] db error: inner",
		},
		{
			name:     "not found",
			err:      NotFoundError("movie", "603"),
			expected: "[NOT_FOUND] movie not found: 603",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppErrorWithContext(t *testing.T) {
	err := InvalidInputError("group", "unknown group").
		WithContext("value", "classics")

	if len(err.Context) != 2 {
		t.Errorf("expected 2 context items, got %d", len(err.Context))
	}
	if err.Context["param"] != "group" {
		t.Errorf("expected param context 'group', got %v", err.Context["param"])
	}
	if err.Context["value"] != "classics" {
		t.Errorf("expected value context 'classics', got %v", err.Context["value"])
	}
}

func TestExternalServiceError(t *testing.T) {
	err := ExternalServiceError("tmdb", "service timeout", errors.New("timeout"))
	if err.Code != CodeExternalService {
		t.Errorf("expected code %s, got %s", CodeExternalService, err.Code)
	}
	if err.Context["service"] != "tmdb" {
		t.Errorf("expected service context 'tmdb', got %v", err.Context["service"])
	}
}

func TestConfigError(t *testing.T) {
	if err := ConfigError("missing required field", nil); err.Err != nil || err.Code != CodeConfig {
		t.Errorf("unexpected config error %+v", err)
	}
	inner := errors.New("file not found")
	if err := ConfigError("config load failed", inner); err.Err != inner {
		t.Errorf("expected wrapped error to be original error")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"service timeout", Wrap(errors.New("timeout"), CodeServiceTimeout, "timeout"), true},
		{"service unavailable", Wrap(errors.New("unavailable"), CodeServiceUnavailable, "unavailable"), true},
		{"rate limited", Wrap(errors.New("rate limit"), CodeRateLimited, "rate limited"), true},
		{"database connection", Wrap(errors.New("connection"), CodeDatabaseConnection, "connection"), true},
		{"not found", NotFoundError("movie", "1"), false},
		{"validation", ValidationError("invalid"), false},
		{"wrapped retryable", fmt.Errorf("outer: %w", New(CodeRateLimited, "slow down")), true},
		{"non-app error", errors.New("standard error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := GetErrorCode(DatabaseError("test", errors.New("inner"))); got != CodeDatabase {
		t.Errorf("GetErrorCode() = %v, want %v", got, CodeDatabase)
	}
	if got := GetErrorCode(errors.New("standard")); got != CodeUnknown {
		t.Errorf("GetErrorCode() = %v, want %v", got, CodeUnknown)
	}
	if !IsNotFound(NotFoundError("series", "1399")) {
		t.Error("expected IsNotFound to be true")
	}
	if !IsValidationError(InvalidInputError("query", "query is required")) {
		t.Error("expected invalid input to count as validation error")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", NotFoundError("movie", "603"), http.StatusNotFound},
		{"invalid input", InvalidInputError("type", "bad type"), http.StatusBadRequest},
		{"validation", ValidationError("bad"), http.StatusBadRequest},
		{"unauthorized", New(CodeUnauthorized, "nope"), http.StatusUnauthorized},
		{"database", DatabaseError("down", errors.New("x")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.expected {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestStatusFromHTTP(t *testing.T) {
	tests := map[int]ErrorCode{
		404: CodeNotFound,
		401: CodeUnauthorized,
		429: CodeRateLimited,
		504: CodeServiceTimeout,
		503: CodeServiceUnavailable,
		400: CodeExternalService,
	}
	for status, want := range tests {
		if got := StatusFromHTTP(status); got != want {
			t.Errorf("StatusFromHTTP(%d) = %s, want %s", status, got, want)
		}
	}
}
