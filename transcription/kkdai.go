package transcription

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/pkg/errors"

	apperrors "github.com/nijaru/yt-channel-text/errors"
)

// asrKind marks automatically generated caption tracks.
const asrKind = "asr"

type videoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetTranscriptCtx(ctx context.Context, video *youtube.Video, lang string) (youtube.VideoTranscript, error)
}

// KkdaiFetcher reads captions through the public player and transcript
// endpoints, without an API key.
type KkdaiFetcher struct {
	client videoClient
}

func NewKkdaiFetcher(httpClient *http.Client) *KkdaiFetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &KkdaiFetcher{client: &youtube.Client{HTTPClient: httpClient}}
}

func (f *KkdaiFetcher) Fetch(ctx context.Context, videoID string, languages []string) (*Transcript, error) {
	const op = "KkdaiFetcher.Fetch"

	video, err := f.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, apperrors.ExternalServiceFailure(op, err, "failed to load video metadata")
	}

	lang, ok := pickLanguage(video.CaptionTracks, languages)
	if !ok {
		return nil, apperrors.NoTranscriptAvailable(op, videoID, nil)
	}

	segments, err := f.client.GetTranscriptCtx(ctx, video, lang)
	if errors.Is(err, youtube.ErrTranscriptDisabled) {
		return nil, apperrors.NoTranscriptAvailable(op, videoID, err)
	}
	if err != nil {
		return nil, apperrors.ExternalServiceFailure(op, err, "failed to fetch transcript")
	}
	if len(segments) == 0 {
		return nil, apperrors.NoTranscriptAvailable(op, videoID, nil)
	}

	t := &Transcript{VideoID: videoID, Language: lang, Segments: make([]Segment, 0, len(segments))}
	for _, s := range segments {
		t.Segments = append(t.Segments, Segment{
			Text:   s.Text,
			Start:  time.Duration(s.StartMs) * time.Millisecond,
			Length: time.Duration(s.Duration) * time.Millisecond,
		})
	}
	return t, nil
}

// pickLanguage returns the caption language to request. Languages are tried
// in order and, within a language, manual tracks win over generated ones.
// Regional variants such as "pt-BR" match "pt".
func pickLanguage(tracks []youtube.CaptionTrack, languages []string) (string, bool) {
	for _, lang := range languages {
		var generated string
		for _, track := range tracks {
			if !matchesLanguage(track.LanguageCode, lang) {
				continue
			}
			if track.Kind != asrKind {
				return track.LanguageCode, true
			}
			if generated == "" {
				generated = track.LanguageCode
			}
		}
		if generated != "" {
			return generated, true
		}
	}
	return "", false
}

func matchesLanguage(code, lang string) bool {
	code, lang = strings.ToLower(code), strings.ToLower(lang)
	return code == lang || strings.HasPrefix(code, lang+"-")
}
