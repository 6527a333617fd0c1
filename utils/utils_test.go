package utils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "github.com/nijaru/yt-channel-text/errors"
)

func TestHandleError(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleError(rr, "Test error", http.StatusBadRequest)

	if status := rr.Code; status != http.StatusBadRequest {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusBadRequest)
	}

	expected := `{"error":"Test error"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "channel not found",
			err:      apperrors.ChannelNotFound("op", "xyz"),
			wantCode: http.StatusNotFound,
			wantBody: `{"kind":"channel_not_found","error":"channel not found: xyz"}`,
		},
		{
			name:     "wrapped invalid url",
			err:      fmt.Errorf("submit: %w", apperrors.InvalidURL("op", "bad")),
			wantCode: http.StatusBadRequest,
			wantBody: `{"kind":"invalid_url","error":"invalid video URL: \"bad\""}`,
		},
		{
			name:     "plain error",
			err:      fmt.Errorf("disk on fire"),
			wantCode: http.StatusInternalServerError,
			wantBody: `{"kind":"internal","error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondWithError(rr, tt.err)

			if rr.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rr.Code)
			}
			if got := strings.TrimSpace(rr.Body.String()); got != tt.wantBody {
				t.Errorf("expected body %s, got %s", tt.wantBody, got)
			}
		})
	}
}

func TestSendAttachment(t *testing.T) {
	rr := httptest.NewRecorder()
	SendAttachment(rr, "text/plain; charset=utf-8", "todas_transcricoes.txt", []byte("olá"))

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="todas_transcricoes.txt"` {
		t.Errorf("unexpected content disposition: %s", got)
	}
	if rr.Body.String() != "olá" {
		t.Errorf("unexpected body: %q", rr.Body.String())
	}
}
