package transcription

import (
	"context"
	"strings"
	"time"
)

// Segment is one timed line of a transcript.
type Segment struct {
	Text   string
	Start  time.Duration
	Length time.Duration
}

type Transcript struct {
	VideoID  string
	Language string
	Segments []Segment
}

// Text joins the segment texts with newlines.
func (t *Transcript) Text() string {
	return JoinSegments(t.Segments)
}

// JoinSegments keeps every segment text as is, blank ones included.
func JoinSegments(segments []Segment) string {
	lines := make([]string, len(segments))
	for i, s := range segments {
		lines[i] = s.Text
	}
	return strings.Join(lines, "\n")
}

// Fetcher retrieves the transcript of one video in the first available
// language from languages. It returns a NoTranscriptAvailable error when no
// track matches and an ExternalServiceFailure for anything else.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string, languages []string) (*Transcript, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, videoID string, languages []string) (*Transcript, error)

func (f FetcherFunc) Fetch(ctx context.Context, videoID string, languages []string) (*Transcript, error) {
	return f(ctx, videoID, languages)
}
