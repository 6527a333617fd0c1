package errors

import (
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/pkg/errors"
)

func TestErrorMessage(t *testing.T) {
	err := InvalidInput("op", nil, "test message")

	if err.Code != http.StatusBadRequest {
		t.Errorf("expected code %d, got %d", http.StatusBadRequest, err.Code)
	}
	if err.Error() != "test message" {
		t.Errorf("expected error string 'test message', got '%s'", err.Error())
	}
}

func TestErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("quota exceeded")
	err := ExternalServiceFailure("op", cause, "search failed")

	expected := "search failed: quota exceeded"
	if err.Error() != expected {
		t.Errorf("expected '%s', got '%s'", expected, err.Error())
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{
			name:     "direct match",
			err:      ChannelNotFound("op", "@nobody"),
			kind:     KindChannelNotFound,
			expected: true,
		},
		{
			name:     "wrapped by pkg/errors",
			err:      pkgerrors.Wrap(NoTranscriptAvailable("op", "abc", nil), "fetch"),
			kind:     KindNoTranscriptAvailable,
			expected: true,
		},
		{
			name:     "other kind",
			err:      InvalidURL("op", "nope"),
			kind:     KindNotFound,
			expected: false,
		},
		{
			name:     "non-custom error",
			err:      fmt.Errorf("standard error"),
			kind:     KindInternal,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.kind); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"channel not found", ChannelNotFound("op", "x"), http.StatusNotFound},
		{"no transcript", NoTranscriptAvailable("op", "x", nil), http.StatusNotFound},
		{"external failure", ExternalServiceFailure("op", nil, "x"), http.StatusBadGateway},
		{"invalid url", InvalidURL("op", "x"), http.StatusBadRequest},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"conflict", Conflict("op", "x"), http.StatusConflict},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.expected {
				t.Errorf("expected code %d, got %d", tt.expected, got)
			}
		})
	}
}
