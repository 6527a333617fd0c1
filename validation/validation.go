package validation

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/nijaru/yt-channel-text/errors"
	"github.com/nijaru/yt-channel-text/youtube"
)

const maxInputLength = 2048

// ValidateVideoURL returns the video id of rawURL or an InvalidURL error.
func ValidateVideoURL(rawURL string) (string, error) {
	const op = "validation.ValidateVideoURL"

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", apperrors.InvalidInput(op, nil, "URL is required")
	}
	if len(rawURL) > maxInputLength {
		return "", apperrors.InvalidInput(op, nil, "URL is too long")
	}

	id, ok := youtube.ExtractVideoID(rawURL)
	if !ok {
		return "", apperrors.InvalidURL(op, rawURL)
	}
	return id, nil
}

// ValidateChannelQuery checks a channel handle, URL or name.
func ValidateChannelQuery(query string) error {
	const op = "validation.ValidateChannelQuery"

	query = strings.TrimSpace(query)
	if query == "" {
		return apperrors.InvalidInput(op, nil, "channel is required")
	}
	if len(query) > maxInputLength {
		return apperrors.InvalidInput(op, nil, "channel is too long")
	}
	if !utf8.ValidString(query) {
		return apperrors.InvalidInput(op, nil, "channel must be valid UTF-8")
	}
	return nil
}
