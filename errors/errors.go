package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error so callers can branch without string matching.
type Kind string

const (
	KindChannelNotFound        Kind = "channel_not_found"
	KindNoTranscriptAvailable  Kind = "no_transcript_available"
	KindExternalServiceFailure Kind = "external_service_failure"
	KindInvalidURL             Kind = "invalid_url"
	KindInvalidInput           Kind = "invalid_input"
	KindNotFound               Kind = "not_found"
	KindConflict               Kind = "conflict"
	KindRateLimited            Kind = "rate_limited"
	KindInternal               Kind = "internal"
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func E(kind Kind, code int, op string, err error, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func ChannelNotFound(op, query string) *Error {
	return E(KindChannelNotFound, http.StatusNotFound, op, nil,
		fmt.Sprintf("channel not found: %s", query))
}

func NoTranscriptAvailable(op, videoID string, err error) *Error {
	return E(KindNoTranscriptAvailable, http.StatusNotFound, op, err,
		fmt.Sprintf("no transcript available for video %s", videoID))
}

func ExternalServiceFailure(op string, err error, message string) *Error {
	return E(KindExternalServiceFailure, http.StatusBadGateway, op, err, message)
}

func InvalidURL(op, rawURL string) *Error {
	return E(KindInvalidURL, http.StatusBadRequest, op, nil,
		fmt.Sprintf("invalid video URL: %q", rawURL))
}

func InvalidInput(op string, err error, message string) *Error {
	return E(KindInvalidInput, http.StatusBadRequest, op, err, message)
}

func NotFound(op string, err error, message string) *Error {
	return E(KindNotFound, http.StatusNotFound, op, err, message)
}

func Conflict(op string, message string) *Error {
	return E(KindConflict, http.StatusConflict, op, nil, message)
}

func Internal(op string, err error, message string) *Error {
	return E(KindInternal, http.StatusInternalServerError, op, err, message)
}

var ErrRateLimitExceeded = E(KindRateLimited, http.StatusTooManyRequests, "", nil, "rate limit exceeded")

// Is reports whether any error in err's chain is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusCode maps err to an HTTP status, defaulting to 500.
func StatusCode(err error) int {
	if e, ok := As(err); ok && e.Code != 0 {
		return e.Code
	}
	return http.StatusInternalServerError
}
