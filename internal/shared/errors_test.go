package shared

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestNewAPIError(t *testing.T) {
	err := NewAPIError("test_code", "test message")
	if err.Code != "test_code" {
		t.Errorf("expected code 'test_code', got '%s'", err.Code)
	}
	if err.Message != "test message" {
		t.Errorf("expected message 'test message', got '%s'", err.Message)
	}
	if err.Details != nil {
		t.Errorf("expected nil details, got %v", err.Details)
	}
}

func TestAPIError_WithDetails(t *testing.T) {
	err := NewAPIError("code", "message")
	details := map[string]string{"field": "value"}
	err = err.WithDetails(details)

	if err.Details == nil {
		t.Fatal("expected details to be set")
	}
	d, ok := err.Details.(map[string]string)
	if !ok {
		t.Fatal("expected details to be map[string]string")
	}
	if d["field"] != "value" {
		t.Errorf("expected field 'value', got '%s'", d["field"])
	}
}

func TestHTTPHelpers(t *testing.T) {
	cases := []struct {
		name   string
		build  func(code, message string) *echo.HTTPError
		status int
	}{
		{"bad request", BadRequest, http.StatusBadRequest},
		{"unauthorized", Unauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden, http.StatusForbidden},
		{"not found", NotFound, http.StatusNotFound},
		{"conflict", Conflict, http.StatusConflict},
		{"internal", InternalError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build("some_code", "some message")
			if err.Code != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, err.Code)
			}
			apiErr, ok := err.Message.(*APIError)
			if !ok {
				t.Fatal("expected message to be *APIError")
			}
			if apiErr.Code != "some_code" {
				t.Errorf("expected code 'some_code', got '%s'", apiErr.Code)
			}
			if apiErr.Message != "some message" {
				t.Errorf("expected message 'some message', got '%s'", apiErr.Message)
			}
		})
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrDeviceBusy,
		ErrAcquireTimeout,
		ErrContextNotFound,
		ErrEmptyDocument,
		ErrEmbeddingFailed,
		ErrNoRelevantContent,
		ErrUnrecognized,
	}

	for _, sentinel := range sentinels {
		wrapped := fmt.Errorf("handling utterance: %w", sentinel)
		if !errors.Is(wrapped, sentinel) {
			t.Errorf("expected wrapped error to match %v", sentinel)
		}
	}
}
